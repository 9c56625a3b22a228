package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RoundPhase defines where a round is in its lifecycle.
type RoundPhase string

const (
	RoundPhaseWaiting  RoundPhase = "WAITING"
	RoundPhaseRunning  RoundPhase = "RUNNING"
	RoundPhaseCrashed  RoundPhase = "CRASHED"
	RoundPhaseCooldown RoundPhase = "COOLDOWN"
)

// Round represents one betting/crash cycle. The crash point is committed at
// creation and must stay hidden from clients until the phase is CRASHED.
type Round struct {
	ID           uuid.UUID       `json:"id"`
	Phase        RoundPhase      `json:"phase"`
	CrashPoint   decimal.Decimal `json:"-"`
	Abandoned    bool            `json:"abandoned,omitempty"`
	TotalStaked  decimal.Decimal `json:"total_staked"`
	TotalPaidOut decimal.Decimal `json:"total_paid_out"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	EndedAt      *time.Time      `json:"ended_at,omitempty"`
}
