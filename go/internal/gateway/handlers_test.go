package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/aviator/go/internal/betting"
	"github.com/mcdev12/aviator/go/internal/ledger"
	"github.com/mcdev12/aviator/go/internal/models"
	"github.com/mcdev12/aviator/go/internal/round"
)

type stubEngine struct {
	placeBetErr error
	cashOutErr  error
	bet         models.Bet
	balance     decimal.Decimal
	snapshot    round.Snapshot
	round       *models.Round
	roundErr    error
	history     []round.CrashRecord

	historyLimit int
}

func (e *stubEngine) PlaceBet(ctx context.Context, roundID, userID uuid.UUID, stake decimal.Decimal) (*models.Bet, decimal.Decimal, error) {
	if e.placeBetErr != nil {
		return nil, decimal.Zero, e.placeBetErr
	}
	bet := e.bet
	return &bet, e.balance, nil
}

func (e *stubEngine) CashOut(ctx context.Context, roundID, userID uuid.UUID, claimed decimal.Decimal) (models.Bet, decimal.Decimal, error) {
	if e.cashOutErr != nil {
		return models.Bet{}, decimal.Zero, e.cashOutErr
	}
	return e.bet, e.balance, nil
}

func (e *stubEngine) Snapshot() round.Snapshot {
	return e.snapshot
}

func (e *stubEngine) RoundByID(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	if e.roundErr != nil {
		return nil, e.roundErr
	}
	rnd := *e.round
	return &rnd, nil
}

func (e *stubEngine) RecentCrashPoints(limit int) []round.CrashRecord {
	e.historyLimit = limit
	return e.history
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Reason
}

func TestHandlePlaceBet(t *testing.T) {
	roundID := uuid.New()
	userID := uuid.New()
	engine := &stubEngine{
		bet: models.Bet{
			RoundID: roundID,
			UserID:  userID,
			Stake:   decimal.RequireFromString("25"),
		},
		balance: decimal.RequireFromString("75"),
	}
	h := NewHandlers(engine)

	body := `{"round_id":"` + roundID.String() + `","user_id":"` + userID.String() + `","amount":"25"}`
	rec := postJSON(t, h.HandlePlaceBet, "/api/bets/place", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp placeBetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, roundID.String(), resp.RoundID)
	require.Equal(t, "25", resp.Stake)
	require.Equal(t, "75", resp.Balance)
}

func TestHandlePlaceBetRejectsBadInput(t *testing.T) {
	h := NewHandlers(&stubEngine{})

	rec := postJSON(t, h.HandlePlaceBet, "/api/bets/place", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "bad_request", decodeReason(t, rec))

	rec = postJSON(t, h.HandlePlaceBet, "/api/bets/place", `{"round_id":"nope","user_id":"nope","amount":"10"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_round_id", decodeReason(t, rec))

	body := `{"round_id":"` + uuid.NewString() + `","user_id":"` + uuid.NewString() + `","amount":"ten"}`
	rec = postJSON(t, h.HandlePlaceBet, "/api/bets/place", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_stake", decodeReason(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/bets/place", nil)
	rec = httptest.NewRecorder()
	h.HandlePlaceBet(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestEngineErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		reason string
	}{
		{betting.ErrInvalidStake, http.StatusBadRequest, "invalid_stake"},
		{betting.ErrAlreadyBet, http.StatusConflict, "already_bet"},
		{betting.ErrRoundNotAcceptingBets, http.StatusConflict, "round_not_accepting_bets"},
		{ledger.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
		{ledger.ErrUnknownAccount, http.StatusNotFound, "unknown_account"},
		{ledger.ErrStoreUnavailable, http.StatusServiceUnavailable, "temporarily_unavailable"},
	}

	for _, tc := range cases {
		engine := &stubEngine{placeBetErr: tc.err}
		h := NewHandlers(engine)

		body := `{"round_id":"` + uuid.NewString() + `","user_id":"` + uuid.NewString() + `","amount":"10"}`
		rec := postJSON(t, h.HandlePlaceBet, "/api/bets/place", body)
		require.Equal(t, tc.status, rec.Code, "error %v", tc.err)
		require.Equal(t, tc.reason, decodeReason(t, rec), "error %v", tc.err)
	}
}

func TestHandleCashOut(t *testing.T) {
	roundID := uuid.New()
	userID := uuid.New()
	multiplier := decimal.RequireFromString("2.5")
	engine := &stubEngine{
		bet: models.Bet{
			RoundID:           roundID,
			UserID:            userID,
			Stake:             decimal.RequireFromString("10"),
			CashOutMultiplier: &multiplier,
			Winnings:          decimal.RequireFromString("25"),
			Settled:           true,
		},
		balance: decimal.RequireFromString("115"),
	}
	h := NewHandlers(engine)

	body := `{"round_id":"` + roundID.String() + `","user_id":"` + userID.String() + `","multiplier":"2.5"}`
	rec := postJSON(t, h.HandleCashOut, "/api/bets/cashout", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp cashOutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2.5", resp.Multiplier)
	require.Equal(t, "25", resp.Winnings)
	require.Equal(t, "115", resp.Balance)
}

func TestHandleCashOutErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		reason string
	}{
		{betting.ErrNoBetFound, http.StatusNotFound, "no_bet_found"},
		{betting.ErrAlreadyCashedOut, http.StatusConflict, "already_cashed_out"},
		{betting.ErrRoundNotRunning, http.StatusConflict, "round_not_running"},
		{betting.ErrInvalidMultiplier, http.StatusBadRequest, "invalid_multiplier"},
		{betting.ErrPayoutFailed, http.StatusInternalServerError, "payout_pending_review"},
	}

	for _, tc := range cases {
		engine := &stubEngine{cashOutErr: tc.err}
		h := NewHandlers(engine)

		body := `{"round_id":"` + uuid.NewString() + `","user_id":"` + uuid.NewString() + `","multiplier":"2"}`
		rec := postJSON(t, h.HandleCashOut, "/api/bets/cashout", body)
		require.Equal(t, tc.status, rec.Code, "error %v", tc.err)
		require.Equal(t, tc.reason, decodeReason(t, rec), "error %v", tc.err)
	}
}

func TestHandleCurrentRound(t *testing.T) {
	roundID := uuid.New()
	engine := &stubEngine{
		snapshot: round.Snapshot{
			Phase:        models.RoundPhaseRunning,
			RoundID:      &roundID,
			Multiplier:   decimal.RequireFromString("1.7"),
			Participants: []round.Participant{},
			ServerTime:   time.Now(),
		},
	}
	h := NewHandlers(engine)

	req := httptest.NewRequest(http.MethodGet, "/api/rounds/current", nil)
	rec := httptest.NewRecorder()
	h.HandleCurrentRound(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "RUNNING", resp["phase"])
	require.Equal(t, "1.7", resp["multiplier"])
	require.Equal(t, roundID.String(), resp["round_id"])
}

func TestHandleRoundByIDHidesLiveCrashPoint(t *testing.T) {
	rnd := &models.Round{
		ID:         uuid.New(),
		Phase:      models.RoundPhaseRunning,
		CrashPoint: decimal.RequireFromString("3.50"),
	}
	h := NewHandlers(&stubEngine{round: rnd})

	req := httptest.NewRequest(http.MethodGet, "/api/rounds/"+rnd.ID.String(), nil)
	rec := httptest.NewRecorder()
	h.HandleRoundByID(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp roundResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "RUNNING", resp.Phase)
	require.Nil(t, resp.CrashPoint)
	require.NotContains(t, rec.Body.String(), "3.5")
}

func TestHandleRoundByIDRevealsCrashedPoint(t *testing.T) {
	rnd := &models.Round{
		ID:         uuid.New(),
		Phase:      models.RoundPhaseCrashed,
		CrashPoint: decimal.RequireFromString("3.50"),
	}
	h := NewHandlers(&stubEngine{round: rnd})

	req := httptest.NewRequest(http.MethodGet, "/api/rounds/"+rnd.ID.String(), nil)
	rec := httptest.NewRecorder()
	h.HandleRoundByID(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp roundResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.CrashPoint)
	require.Equal(t, "3.5", *resp.CrashPoint)
}

func TestHandleRoundByIDNotFound(t *testing.T) {
	h := NewHandlers(&stubEngine{roundErr: round.ErrRoundNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/rounds/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	h.HandleRoundByID(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "round_not_found", decodeReason(t, rec))
}

func TestHandleHistory(t *testing.T) {
	engine := &stubEngine{
		history: []round.CrashRecord{
			{RoundID: uuid.New(), CrashPoint: decimal.RequireFromString("4.20"), EndedAt: time.Now()},
			{RoundID: uuid.New(), CrashPoint: decimal.RequireFromString("1.01"), EndedAt: time.Now()},
		},
	}
	h := NewHandlers(engine)

	req := httptest.NewRequest(http.MethodGet, "/api/rounds/history?limit=2", nil)
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, engine.historyLimit)

	var resp struct {
		CrashPoints []round.CrashRecord `json:"crash_points"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.CrashPoints, 2)

	req = httptest.NewRequest(http.MethodGet, "/api/rounds/history?limit=zero", nil)
	rec = httptest.NewRecorder()
	h.HandleHistory(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
