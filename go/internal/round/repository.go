package round

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mcdev12/aviator/go/internal/models"
)

// ErrRoundNotFound is returned when no round exists for the id.
var ErrRoundNotFound = errors.New("round not found")

// CrashRecord is one entry of the crash history, newest first.
type CrashRecord struct {
	RoundID    uuid.UUID       `json:"round_id"`
	CrashPoint decimal.Decimal `json:"crash_point"`
	EndedAt    time.Time       `json:"ended_at"`
}

// Store persists rounds for history and audit. The engine treats it as a
// reliable synchronous collaborator that may fail with a generic
// unavailable error; it is never the authority on live round state.
type Store interface {
	SaveRound(ctx context.Context, round models.Round) error
	LoadRound(ctx context.Context, id uuid.UUID) (*models.Round, error)
	RecentCrashPoints(ctx context.Context, limit int) ([]CrashRecord, error)
}
