package round

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/aviator/go/internal/models"
)

// Config holds the timing and curve parameters of the round loop. These are
// product knobs, not correctness knobs; see DefaultConfig for the stock
// values.
type Config struct {
	Countdown        time.Duration
	TickInterval     time.Duration
	Cooldown         time.Duration
	MaxRoundDuration time.Duration
	// MaxCreateFailures is how many consecutive round-creation failures
	// are tolerated before the engine stops for operator intervention.
	MaxCreateFailures int
	HistorySize       int
}

// DefaultConfig mirrors the original product timings: 10s betting window,
// 0.1 step per 100ms tick, 60s safety bound, 10s cooldown.
func DefaultConfig() Config {
	return Config{
		Countdown:         10 * time.Second,
		TickInterval:      100 * time.Millisecond,
		Cooldown:          10 * time.Second,
		MaxRoundDuration:  60 * time.Second,
		MaxCreateFailures: 3,
		HistorySize:       50,
	}
}

// Snapshot lets a late-joining observer catch up without waiting for the
// next event. Deadlines are absolute server timestamps; clients derive any
// countdown from CountdownEndsAt minus ServerTime, never from "seconds from
// now".
type Snapshot struct {
	Phase           models.RoundPhase `json:"phase"`
	RoundID         *uuid.UUID        `json:"round_id,omitempty"`
	Multiplier      decimal.Decimal   `json:"multiplier"`
	CountdownEndsAt *time.Time        `json:"countdown_ends_at,omitempty"`
	StartedAt       *time.Time        `json:"started_at,omitempty"`
	NextRoundAt     *time.Time        `json:"next_round_at,omitempty"`
	Participants    []Participant     `json:"participants"`
	TotalStaked     decimal.Decimal   `json:"total_staked"`
	TotalPaidOut    decimal.Decimal   `json:"total_paid_out"`
	ServerTime      time.Time         `json:"server_time"`
}

// Participant is the public view of one bet in the round. The crash point
// stays hidden; winnings and cash-out state are visible.
type Participant struct {
	UserID            uuid.UUID        `json:"user_id"`
	Stake             decimal.Decimal  `json:"stake"`
	CashOutMultiplier *decimal.Decimal `json:"cash_out_multiplier,omitempty"`
	CashOutAt         *time.Time       `json:"cash_out_at,omitempty"`
	Winnings          decimal.Decimal  `json:"winnings"`
	Settled           bool             `json:"settled"`
}
