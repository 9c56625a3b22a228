package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// App is the only writer of monetary state. It exposes atomic debit and
// credit; there is deliberately no raw set-balance operation.
type App struct {
	store AccountStore

	// Per-account locks serialize debit/credit for one user without
	// blocking unrelated users. The map holds one mutex per account ever
	// touched and is not pruned, so its size is bounded by the account
	// population, not by traffic.
	accountLocks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewApp(store AccountStore) *App {
	return &App{store: store}
}

func (a *App) lockAccount(userID uuid.UUID) *sync.Mutex {
	mu, _ := a.accountLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Debit withdraws amount from the user's balance and returns the new
// balance. Returns ErrInsufficientFunds when the balance cannot cover it.
// Amounts are truncated to cents before they touch the store.
func (a *App) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	amount = amount.Truncate(2)

	mu := a.lockAccount(userID)
	mu.Lock()
	defer mu.Unlock()

	balance, err := a.store.AdjustBalance(ctx, userID, amount.Neg())
	if err != nil {
		return decimal.Zero, err
	}

	log.Debug().
		Str("user_id", userID.String()).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Msg("account debited")
	return balance, nil
}

// Credit deposits amount into the user's balance and returns the new
// balance. A credit failing is a bookkeeping problem, not user error;
// callers escalate it instead of retrying blindly.
func (a *App) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	amount = amount.Truncate(2)

	mu := a.lockAccount(userID)
	mu.Lock()
	defer mu.Unlock()

	balance, err := a.store.AdjustBalance(ctx, userID, amount)
	if err != nil {
		return decimal.Zero, err
	}

	log.Debug().
		Str("user_id", userID.String()).
		Str("amount", amount.String()).
		Str("balance", balance.String()).
		Msg("account credited")
	return balance, nil
}

// Balance reads the current balance for display purposes.
func (a *App) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return a.store.GetBalance(ctx, userID)
}
