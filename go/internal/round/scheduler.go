package round

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/aviator/go/internal/betting"
	"github.com/mcdev12/aviator/go/internal/crashpoint"
	"github.com/mcdev12/aviator/go/internal/events"
	"github.com/mcdev12/aviator/go/internal/models"
)

// Scheduler drives the round state machine: WAITING -> RUNNING -> CRASHED ->
// COOLDOWN, forever. It is the single writer of round phase and the only
// caller of the crash point generator; players only ever reach the current
// round through PlaceBet, CashOut and Snapshot.
type Scheduler struct {
	config      Config
	clock       clockwork.Clock
	generator   crashpoint.Generator
	ledger      betting.Ledger
	store       Store
	broadcaster events.Broadcaster
	curve       Curve
	history     *History

	mu              sync.RWMutex
	registry        *betting.Registry
	countdownEndsAt *time.Time
	cooldownUntil   *time.Time
}

func NewScheduler(config Config, clock clockwork.Clock, generator crashpoint.Generator, l betting.Ledger, store Store, broadcaster events.Broadcaster, curve Curve) *Scheduler {
	if curve == nil {
		curve = StepCurve{
			Step:     decimal.RequireFromString("0.1"),
			Interval: config.TickInterval,
		}
	}
	return &Scheduler{
		config:      config,
		clock:       clock,
		generator:   generator,
		ledger:      l,
		store:       store,
		broadcaster: broadcaster,
		curve:       curve,
		history:     NewHistory(config.HistorySize),
	}
}

// SetBroadcaster swaps the event sink. Call before Run; the scheduler does
// not guard broadcaster writes once the loop is going.
func (s *Scheduler) SetBroadcaster(b events.Broadcaster) {
	if b == nil {
		b = events.NopBroadcaster{}
	}
	s.broadcaster = b
}

// Run loops rounds until ctx is cancelled. A single failing round is logged
// and skipped; repeated consecutive round-creation failures stop the engine
// with an error so an operator has to look.
func (s *Scheduler) Run(ctx context.Context) error {
	log.Info().Msg("round scheduler started")

	if records, err := s.store.RecentCrashPoints(ctx, s.config.HistorySize); err != nil {
		log.Warn().Err(err).Msg("could not seed crash history")
	} else {
		s.history.Seed(records)
	}

	createFailures := 0
	for {
		if ctx.Err() != nil {
			log.Info().Msg("round scheduler stopped")
			return nil
		}

		reg, err := s.createRound(ctx)
		if err != nil {
			createFailures++
			log.Error().
				Err(err).
				Int("consecutive_failures", createFailures).
				Msg("round creation failed")
			if createFailures >= s.config.MaxCreateFailures {
				return fmt.Errorf("round creation failed %d times in a row: %w", createFailures, err)
			}
			if !s.sleep(ctx, s.config.Cooldown) {
				return nil
			}
			continue
		}
		createFailures = 0

		s.runRound(ctx, reg)
		if ctx.Err() != nil {
			log.Info().Msg("round scheduler stopped")
			return nil
		}

		s.setCooldown()
		ok := s.sleep(ctx, s.config.Cooldown)
		s.clearCooldown()
		if !ok {
			log.Info().Msg("round scheduler stopped during cooldown")
			return nil
		}
	}
}

// createRound commits a crash point, persists the new round and opens the
// betting window.
func (s *Scheduler) createRound(ctx context.Context) (*betting.Registry, error) {
	crashPoint, err := s.generator.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate crash point: %w", err)
	}

	now := s.clock.Now()
	rnd := &models.Round{
		ID:           uuid.New(),
		Phase:        models.RoundPhaseWaiting,
		CrashPoint:   crashPoint,
		TotalStaked:  decimal.Zero,
		TotalPaidOut: decimal.Zero,
		CreatedAt:    now,
	}
	if err := s.store.SaveRound(ctx, *rnd); err != nil {
		return nil, fmt.Errorf("persist new round: %w", err)
	}

	reg := betting.NewRegistry(rnd, s.ledger)
	endsAt := now.Add(s.config.Countdown)

	s.mu.Lock()
	s.registry = reg
	s.countdownEndsAt = &endsAt
	s.cooldownUntil = nil
	s.mu.Unlock()

	log.Info().
		Str("round_id", rnd.ID.String()).
		Dur("countdown", s.config.Countdown).
		Msg("round opened")
	s.announce(events.TypeRoundOpened, rnd.ID, events.RoundOpenedPayload{
		RoundID:          rnd.ID.String(),
		CountdownSeconds: int(s.config.Countdown.Seconds()),
		CountdownEndsAt:  endsAt,
		ServerTimestamp:  now,
	})
	return reg, nil
}

// runRound takes one round from countdown through crash and settlement. On
// ctx cancellation the round is abandoned and open stakes are refunded.
func (s *Scheduler) runRound(ctx context.Context, reg *betting.Registry) {
	roundID := reg.RoundID()

	if !s.sleep(ctx, s.config.Countdown) {
		s.abandonRound(reg)
		return
	}

	startedAt := s.clock.Now()
	reg.Start(startedAt)
	s.mu.Lock()
	s.countdownEndsAt = nil
	s.mu.Unlock()
	if err := s.persist(ctx, reg); err != nil {
		log.Error().Err(err).Str("round_id", roundID.String()).Msg("failed to persist running round")
	}

	log.Info().Str("round_id", roundID.String()).Msg("round started")
	s.announce(events.TypeRoundStarted, roundID, events.RoundStartedPayload{
		RoundID:         roundID.String(),
		ServerTimestamp: startedAt,
	})
	s.announceMultiplier(roundID, reg.Multiplier())

	crashPoint := reg.RoundCopy().CrashPoint
	reachedCrashPoint := false
	for {
		if !s.sleep(ctx, s.config.TickInterval) {
			s.abandonRound(reg)
			return
		}

		elapsed := s.clock.Now().Sub(startedAt)
		value := s.curve.At(elapsed)
		if value.GreaterThanOrEqual(crashPoint) {
			reachedCrashPoint = true
			break
		}
		if elapsed >= s.config.MaxRoundDuration {
			log.Warn().
				Str("round_id", roundID.String()).
				Str("value", value.String()).
				Msg("round hit max duration before reaching crash point")
			break
		}

		reg.SetMultiplier(value)
		s.announceMultiplier(roundID, value)
	}

	if reachedCrashPoint {
		// The clamped crash point is the last RUNNING point of the
		// timeline and holds for one tick, so a cash-out claiming exactly
		// the crash point can still win until the crash is recorded.
		reg.SetMultiplier(crashPoint)
		s.announceMultiplier(roundID, crashPoint)
		if !s.sleep(ctx, s.config.TickInterval) {
			s.abandonRound(reg)
			return
		}
	}

	crashedAt := s.clock.Now()
	reg.RecordCrash(crashedAt)
	if !reachedCrashPoint {
		// On the safety bound the round ends without reaching the crash
		// point; RecordCrash freezes the timeline at it, so reveal it
		// only once no claim can match it.
		s.announceMultiplier(roundID, crashPoint)
	}

	lost := reg.SettleLosses()
	s.announce(events.TypeRoundCrashed, roundID, events.RoundCrashedPayload{
		RoundID:         roundID.String(),
		CrashPoint:      crashPoint.String(),
		ServerTimestamp: crashedAt,
	})

	if err := s.persist(ctx, reg); err != nil {
		log.Error().Err(err).Str("round_id", roundID.String()).Msg("failed to persist crashed round")
	}
	s.history.Push(CrashRecord{RoundID: roundID, CrashPoint: crashPoint, EndedAt: crashedAt})

	staked, paid := reg.Totals()
	log.Info().
		Str("round_id", roundID.String()).
		Str("crash_point", crashPoint.String()).
		Int("lost_bets", lost).
		Str("total_staked", staked.String()).
		Str("total_paid_out", paid.String()).
		Msg("round crashed")
}

// abandonRound resolves a live round during shutdown: mark it crashed and
// abandoned, refund every open bet, persist, announce. The parent ctx is
// already cancelled, so housekeeping runs on its own deadline.
func (s *Scheduler) abandonRound(reg *betting.Registry) {
	now := s.clock.Now()
	reg.Abandon(now)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	refunded := reg.RefundOpenBets(ctx)
	if err := s.persist(ctx, reg); err != nil {
		log.Error().Err(err).Str("round_id", reg.RoundID().String()).Msg("failed to persist abandoned round")
	}

	rnd := reg.RoundCopy()
	s.announce(events.TypeRoundCrashed, rnd.ID, events.RoundCrashedPayload{
		RoundID:         rnd.ID.String(),
		CrashPoint:      rnd.CrashPoint.String(),
		Abandoned:       true,
		ServerTimestamp: now,
	})
	log.Info().
		Str("round_id", rnd.ID.String()).
		Int("refunded_bets", refunded).
		Msg("round abandoned")
}

// PlaceBet routes an inbound bet to the current round.
func (s *Scheduler) PlaceBet(ctx context.Context, roundID, userID uuid.UUID, stake decimal.Decimal) (*models.Bet, decimal.Decimal, error) {
	reg := s.currentRegistry()
	if reg == nil || reg.RoundID() != roundID {
		return nil, decimal.Zero, betting.ErrRoundNotAcceptingBets
	}

	now := s.clock.Now()
	bet, balance, err := reg.PlaceBet(ctx, userID, stake, now)
	if err != nil {
		return nil, decimal.Zero, err
	}

	s.announce(events.TypeBetPlaced, roundID, events.BetPlacedPayload{
		RoundID:         roundID.String(),
		UserID:          userID.String(),
		Stake:           bet.Stake.String(),
		ServerTimestamp: now,
	})
	return bet, balance, nil
}

// CashOut routes an inbound cash-out to the current round.
func (s *Scheduler) CashOut(ctx context.Context, roundID, userID uuid.UUID, claimed decimal.Decimal) (models.Bet, decimal.Decimal, error) {
	reg := s.currentRegistry()
	if reg == nil || reg.RoundID() != roundID {
		return models.Bet{}, decimal.Zero, betting.ErrRoundNotRunning
	}

	now := s.clock.Now()
	bet, balance, err := reg.CashOut(ctx, userID, claimed, now)
	if err != nil {
		return models.Bet{}, decimal.Zero, err
	}

	s.announce(events.TypeWinningsClaimed, roundID, events.WinningsClaimedPayload{
		RoundID:         roundID.String(),
		UserID:          userID.String(),
		Stake:           bet.Stake.String(),
		Multiplier:      bet.CashOutMultiplier.String(),
		Winnings:        bet.Winnings.String(),
		ServerTimestamp: now,
	})
	return bet, balance, nil
}

// Snapshot returns the current engine state for late joiners.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.RLock()
	reg := s.registry
	countdown := s.countdownEndsAt
	cooldown := s.cooldownUntil
	s.mu.RUnlock()

	snap := Snapshot{
		Phase:        models.RoundPhaseCooldown,
		Multiplier:   one,
		Participants: []Participant{},
		TotalStaked:  decimal.Zero,
		TotalPaidOut: decimal.Zero,
		ServerTime:   s.clock.Now(),
	}
	if reg == nil {
		return snap
	}

	rnd := reg.RoundCopy()
	id := rnd.ID
	snap.RoundID = &id
	snap.Phase = rnd.Phase
	snap.Multiplier = reg.Multiplier()
	snap.CountdownEndsAt = countdown
	snap.StartedAt = rnd.StartedAt
	snap.TotalStaked = rnd.TotalStaked
	snap.TotalPaidOut = rnd.TotalPaidOut
	if cooldown != nil {
		snap.Phase = models.RoundPhaseCooldown
		snap.NextRoundAt = cooldown
	}
	for _, bet := range reg.Participants() {
		snap.Participants = append(snap.Participants, Participant{
			UserID:            bet.UserID,
			Stake:             bet.Stake,
			CashOutMultiplier: bet.CashOutMultiplier,
			CashOutAt:         bet.CashOutAt,
			Winnings:          bet.Winnings,
			Settled:           bet.Settled,
		})
	}
	return snap
}

// RoundByID returns the persisted record of a past round.
func (s *Scheduler) RoundByID(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	return s.store.LoadRound(ctx, id)
}

// RecentCrashPoints returns up to limit crash records, newest first.
func (s *Scheduler) RecentCrashPoints(limit int) []CrashRecord {
	return s.history.Recent(limit)
}

func (s *Scheduler) persist(ctx context.Context, reg *betting.Registry) error {
	return s.store.SaveRound(ctx, reg.RoundCopy())
}

func (s *Scheduler) currentRegistry() *betting.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

func (s *Scheduler) setCooldown() {
	until := s.clock.Now().Add(s.config.Cooldown)
	s.mu.Lock()
	s.cooldownUntil = &until
	s.mu.Unlock()
}

func (s *Scheduler) clearCooldown() {
	s.mu.Lock()
	s.cooldownUntil = nil
	s.mu.Unlock()
}

func (s *Scheduler) announce(eventType events.Type, roundID uuid.UUID, payload any) {
	event, err := events.New(eventType, roundID, s.clock.Now(), payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build event")
		return
	}
	s.broadcaster.Announce(event)
}

func (s *Scheduler) announceMultiplier(roundID uuid.UUID, value decimal.Decimal) {
	s.announce(events.TypeMultiplier, roundID, events.MultiplierPayload{
		RoundID:         roundID.String(),
		Multiplier:      value.String(),
		ServerTimestamp: s.clock.Now(),
	})
}

// sleep waits for d on the injected clock. Returns false if ctx was
// cancelled first.
func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	timer := s.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.Chan():
		return true
	case <-ctx.Done():
		return false
	}
}
