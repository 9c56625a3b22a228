package betting

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/aviator/go/internal/models"
)

// Ledger defines what the registry needs from the balance ledger.
type Ledger interface {
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
}

var one = decimal.NewFromInt(1)

// Registry holds the participants of a single round and settles them.
//
// One RWMutex guards the round phase, the multiplier and the bets map, and
// the scheduler flips the phase under that same mutex. That is what makes
// "crash recorded" atomically visible to cash-outs: once RecordCrash has run,
// no cash-out can observe RUNNING. Per-user mutexes serialize the
// (round, user) pair so a user cannot race two bets or two cash-outs past
// the ledger, while unrelated users proceed in parallel.
type Registry struct {
	round  *models.Round
	ledger Ledger

	mu         sync.RWMutex
	multiplier decimal.Decimal
	bets       map[uuid.UUID]*models.Bet

	userLocks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewRegistry(round *models.Round, l Ledger) *Registry {
	return &Registry{
		round:      round,
		ledger:     l,
		multiplier: one,
		bets:       make(map[uuid.UUID]*models.Bet),
	}
}

func (r *Registry) lockUser(userID uuid.UUID) *sync.Mutex {
	mu, _ := r.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// RoundID returns the id of the round this registry belongs to.
func (r *Registry) RoundID() uuid.UUID {
	return r.round.ID
}

// Phase returns the current round phase.
func (r *Registry) Phase() models.RoundPhase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.round.Phase
}

// Multiplier returns the last value of the multiplier timeline.
func (r *Registry) Multiplier() decimal.Decimal {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.multiplier
}

// Start flips the round to RUNNING. Scheduler only.
func (r *Registry) Start(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.round.Phase = models.RoundPhaseRunning
	r.round.StartedAt = &now
}

// SetMultiplier publishes a new point of the timeline. Scheduler only.
// Values must be monotonically non-decreasing; anything lower than the
// current value is ignored.
func (r *Registry) SetMultiplier(value decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if value.GreaterThan(r.multiplier) {
		r.multiplier = value
	}
}

// RecordCrash freezes the multiplier at the crash point and flips the phase
// to CRASHED. Scheduler only. After this returns, every in-flight cash-out
// resolves as ErrRoundNotRunning.
func (r *Registry) RecordCrash(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.multiplier = r.round.CrashPoint
	r.round.Phase = models.RoundPhaseCrashed
	r.round.EndedAt = &now
}

// Abandon resolves the round as crashed without a payout race: the phase
// flips to CRASHED and the round is marked abandoned. Scheduler only, used
// on shutdown; callers follow up with RefundOpenBets.
func (r *Registry) Abandon(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.round.Abandoned = true
	r.round.Phase = models.RoundPhaseCrashed
	r.round.EndedAt = &now
}

// PlaceBet debits the stake and registers the bet. Bets are accepted during
// WAITING and RUNNING. The registry check and the ledger debit run under the
// user's lock so two simultaneous requests by one user cannot both debit.
func (r *Registry) PlaceBet(ctx context.Context, userID uuid.UUID, stake decimal.Decimal, now time.Time) (*models.Bet, decimal.Decimal, error) {
	if !stake.IsPositive() {
		return nil, decimal.Zero, ErrInvalidStake
	}
	stake = stake.Truncate(2)
	if !stake.IsPositive() {
		return nil, decimal.Zero, ErrInvalidStake
	}

	userMu := r.lockUser(userID)
	userMu.Lock()
	defer userMu.Unlock()

	r.mu.RLock()
	accepting := r.round.Phase == models.RoundPhaseWaiting || r.round.Phase == models.RoundPhaseRunning
	_, exists := r.bets[userID]
	r.mu.RUnlock()

	if !accepting {
		return nil, decimal.Zero, ErrRoundNotAcceptingBets
	}
	if exists {
		return nil, decimal.Zero, ErrAlreadyBet
	}

	balance, err := r.ledger.Debit(ctx, userID, stake)
	if err != nil {
		return nil, decimal.Zero, err
	}

	bet := &models.Bet{
		RoundID:  r.round.ID,
		UserID:   userID,
		Stake:    stake,
		Winnings: decimal.Zero,
		PlacedAt: now,
	}

	r.mu.Lock()
	if r.round.Phase != models.RoundPhaseWaiting && r.round.Phase != models.RoundPhaseRunning {
		// The round crashed between the debit and the insert. Undo.
		r.mu.Unlock()
		if _, creditErr := r.ledger.Credit(ctx, userID, stake); creditErr != nil {
			log.Error().
				Err(creditErr).
				Str("round_id", r.round.ID.String()).
				Str("user_id", userID.String()).
				Str("stake", stake.String()).
				Bool("reconcile", true).
				Msg("failed to refund stake after late bet")
		}
		return nil, decimal.Zero, ErrRoundNotAcceptingBets
	}
	r.bets[userID] = bet
	r.round.TotalStaked = r.round.TotalStaked.Add(stake)
	r.mu.Unlock()

	log.Info().
		Str("round_id", r.round.ID.String()).
		Str("user_id", userID.String()).
		Str("stake", stake.String()).
		Msg("bet placed")
	return bet, balance, nil
}

// CashOut locks in the claimed multiplier and credits the winnings. The
// claim is honored only while the phase is RUNNING and only up to the value
// the timeline has actually reached; a claim at exactly the crash point
// succeeds as long as the crash has not been recorded yet.
func (r *Registry) CashOut(ctx context.Context, userID uuid.UUID, claimed decimal.Decimal, now time.Time) (models.Bet, decimal.Decimal, error) {
	userMu := r.lockUser(userID)
	userMu.Lock()
	defer userMu.Unlock()

	r.mu.Lock()
	bet, exists := r.bets[userID]
	if !exists {
		r.mu.Unlock()
		return models.Bet{}, decimal.Zero, ErrNoBetFound
	}
	if bet.CashedOut() {
		r.mu.Unlock()
		return models.Bet{}, decimal.Zero, ErrAlreadyCashedOut
	}
	if r.round.Phase != models.RoundPhaseRunning {
		r.mu.Unlock()
		return models.Bet{}, decimal.Zero, ErrRoundNotRunning
	}
	if claimed.LessThan(one) || claimed.GreaterThan(r.multiplier) {
		r.mu.Unlock()
		return models.Bet{}, decimal.Zero, ErrInvalidMultiplier
	}

	winnings := bet.Stake.Mul(claimed).Truncate(2)
	multiplier := claimed
	bet.CashOutMultiplier = &multiplier
	bet.CashOutAt = &now
	bet.Winnings = winnings
	bet.Settled = true
	r.round.TotalPaidOut = r.round.TotalPaidOut.Add(winnings)
	settled := *bet
	r.mu.Unlock()

	balance, err := r.ledger.Credit(ctx, userID, winnings)
	if err != nil {
		// The win is recorded but the money did not move. Never guess at
		// a fix here; flag it and leave the registry state as the record.
		log.Error().
			Err(err).
			Str("round_id", r.round.ID.String()).
			Str("user_id", userID.String()).
			Str("winnings", winnings.String()).
			Bool("reconcile", true).
			Msg("cash-out credit failed")
		return settled, decimal.Zero, ErrPayoutFailed
	}

	log.Info().
		Str("round_id", r.round.ID.String()).
		Str("user_id", userID.String()).
		Str("multiplier", claimed.String()).
		Str("winnings", winnings.String()).
		Msg("winnings claimed")
	return settled, balance, nil
}

// SettleLosses assigns explicit zero winnings to every bet that never
// cashed out. Runs after RecordCrash; idempotent.
func (r *Registry) SettleLosses() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	settled := 0
	for _, bet := range r.bets {
		if bet.CashedOut() || bet.Settled {
			continue
		}
		bet.Winnings = decimal.Zero
		bet.Settled = true
		settled++
	}
	return settled
}

// RefundOpenBets returns the stake of every bet without a cash-out back to
// its owner. Used when the engine shuts down mid-round so no bet is left
// unsettled. Returns the number of refunded bets.
func (r *Registry) RefundOpenBets(ctx context.Context) int {
	r.mu.Lock()
	var open []*models.Bet
	for _, bet := range r.bets {
		if bet.CashedOut() || bet.Settled {
			continue
		}
		bet.Winnings = decimal.Zero
		bet.Settled = true
		open = append(open, bet)
	}
	r.mu.Unlock()

	for _, bet := range open {
		if _, err := r.ledger.Credit(ctx, bet.UserID, bet.Stake); err != nil {
			log.Error().
				Err(err).
				Str("round_id", r.round.ID.String()).
				Str("user_id", bet.UserID.String()).
				Str("stake", bet.Stake.String()).
				Bool("reconcile", true).
				Msg("failed to refund abandoned bet")
		}
	}
	return len(open)
}

// Participants returns a copy of all bets in the round.
func (r *Registry) Participants() []models.Bet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Bet, 0, len(r.bets))
	for _, bet := range r.bets {
		out = append(out, *bet)
	}
	return out
}

// Totals returns the running staked and paid-out sums.
func (r *Registry) Totals() (decimal.Decimal, decimal.Decimal) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.round.TotalStaked, r.round.TotalPaidOut
}

// RoundCopy returns a snapshot of the round record.
func (r *Registry) RoundCopy() models.Round {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return *r.round
}
