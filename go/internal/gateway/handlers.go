package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/aviator/go/internal/betting"
	"github.com/mcdev12/aviator/go/internal/ledger"
	"github.com/mcdev12/aviator/go/internal/models"
	"github.com/mcdev12/aviator/go/internal/round"
)

// Engine defines what the gateway needs from the round engine.
type Engine interface {
	PlaceBet(ctx context.Context, roundID, userID uuid.UUID, stake decimal.Decimal) (*models.Bet, decimal.Decimal, error)
	CashOut(ctx context.Context, roundID, userID uuid.UUID, claimed decimal.Decimal) (models.Bet, decimal.Decimal, error)
	Snapshot() round.Snapshot
	RoundByID(ctx context.Context, id uuid.UUID) (*models.Round, error)
	RecentCrashPoints(limit int) []round.CrashRecord
}

// Handlers serves the inbound command and query surface. Players only ever
// see stable reason codes, never internal error detail.
type Handlers struct {
	engine Engine
}

func NewHandlers(engine Engine) *Handlers {
	return &Handlers{engine: engine}
}

type placeBetRequest struct {
	RoundID string `json:"round_id"`
	UserID  string `json:"user_id"`
	Amount  string `json:"amount"`
}

type placeBetResponse struct {
	RoundID string `json:"round_id"`
	Stake   string `json:"stake"`
	Balance string `json:"balance"`
}

type cashOutRequest struct {
	RoundID    string `json:"round_id"`
	UserID     string `json:"user_id"`
	Multiplier string `json:"multiplier"`
}

type cashOutResponse struct {
	RoundID    string `json:"round_id"`
	Multiplier string `json:"multiplier"`
	Winnings   string `json:"winnings"`
	Balance    string `json:"balance"`
}

type errorResponse struct {
	Reason string `json:"reason"`
}

// HandlePlaceBet handles POST /api/bets/place.
func (h *Handlers) HandlePlaceBet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req placeBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	roundID, userID, ok := parseIDs(w, req.RoundID, req.UserID)
	if !ok {
		return
	}
	stake, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_stake")
		return
	}

	bet, balance, err := h.engine.PlaceBet(r.Context(), roundID, userID, stake)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, placeBetResponse{
		RoundID: bet.RoundID.String(),
		Stake:   bet.Stake.String(),
		Balance: balance.String(),
	})
}

// HandleCashOut handles POST /api/bets/cashout.
func (h *Handlers) HandleCashOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cashOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request")
		return
	}

	roundID, userID, ok := parseIDs(w, req.RoundID, req.UserID)
	if !ok {
		return
	}
	claimed, err := decimal.NewFromString(req.Multiplier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_multiplier")
		return
	}

	bet, balance, err := h.engine.CashOut(r.Context(), roundID, userID, claimed)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cashOutResponse{
		RoundID:    bet.RoundID.String(),
		Multiplier: bet.CashOutMultiplier.String(),
		Winnings:   bet.Winnings.String(),
		Balance:    balance.String(),
	})
}

// HandleCurrentRound handles GET /api/rounds/current.
func (h *Handlers) HandleCurrentRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// HandleRoundByID handles GET /api/rounds/{id}.
func (h *Handlers) HandleRoundByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/rounds/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_round_id")
		return
	}

	rnd, err := h.engine.RoundByID(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if rnd.Phase != models.RoundPhaseCrashed {
		// The crash point of a live round stays hidden.
		rnd.CrashPoint = decimal.Zero
	}
	writeJSON(w, http.StatusOK, roundView(rnd))
}

// HandleHistory handles GET /api/rounds/history?limit=10.
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		limit = parsed
	}

	records := h.engine.RecentCrashPoints(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"crash_points": records,
	})
}

type roundResponse struct {
	ID           string  `json:"id"`
	Phase        string  `json:"phase"`
	CrashPoint   *string `json:"crash_point,omitempty"`
	Abandoned    bool    `json:"abandoned,omitempty"`
	TotalStaked  string  `json:"total_staked"`
	TotalPaidOut string  `json:"total_paid_out"`
}

func roundView(rnd *models.Round) roundResponse {
	out := roundResponse{
		ID:           rnd.ID.String(),
		Phase:        string(rnd.Phase),
		Abandoned:    rnd.Abandoned,
		TotalStaked:  rnd.TotalStaked.String(),
		TotalPaidOut: rnd.TotalPaidOut.String(),
	}
	if rnd.Phase == models.RoundPhaseCrashed {
		cp := rnd.CrashPoint.String()
		out.CrashPoint = &cp
	}
	return out
}

func parseIDs(w http.ResponseWriter, roundIDStr, userIDStr string) (uuid.UUID, uuid.UUID, bool) {
	roundID, err := uuid.Parse(roundIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_round_id")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_user_id")
		return uuid.Nil, uuid.Nil, false
	}
	return roundID, userID, true
}

// writeEngineError maps engine sentinels to stable reason codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, betting.ErrInvalidStake):
		writeError(w, http.StatusBadRequest, "invalid_stake")
	case errors.Is(err, betting.ErrInvalidMultiplier):
		writeError(w, http.StatusBadRequest, "invalid_multiplier")
	case errors.Is(err, betting.ErrAlreadyBet):
		writeError(w, http.StatusConflict, "already_bet")
	case errors.Is(err, betting.ErrNoBetFound):
		writeError(w, http.StatusNotFound, "no_bet_found")
	case errors.Is(err, betting.ErrAlreadyCashedOut):
		writeError(w, http.StatusConflict, "already_cashed_out")
	case errors.Is(err, betting.ErrRoundNotAcceptingBets):
		writeError(w, http.StatusConflict, "round_not_accepting_bets")
	case errors.Is(err, betting.ErrRoundNotRunning):
		writeError(w, http.StatusConflict, "round_not_running")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, "insufficient_funds")
	case errors.Is(err, ledger.ErrUnknownAccount):
		writeError(w, http.StatusNotFound, "unknown_account")
	case errors.Is(err, ledger.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "temporarily_unavailable")
	case errors.Is(err, betting.ErrPayoutFailed):
		writeError(w, http.StatusInternalServerError, "payout_pending_review")
	case errors.Is(err, round.ErrRoundNotFound):
		writeError(w, http.StatusNotFound, "round_not_found")
	default:
		log.Error().Err(err).Msg("unclassified engine error")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, errorResponse{Reason: reason})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
