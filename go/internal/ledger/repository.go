package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountStore defines what the ledger needs from the storage layer.
// AdjustBalance applies a signed delta and must reject any adjustment that
// would drive the balance negative, returning ErrInsufficientFunds.
type AccountStore interface {
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	AdjustBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error)
	CreateAccount(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error
}
