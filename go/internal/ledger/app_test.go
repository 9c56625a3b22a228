package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newFundedApp(t *testing.T, balance string) (*App, uuid.UUID) {
	t.Helper()

	store := NewMemoryStore()
	userID := uuid.New()
	err := store.CreateAccount(context.Background(), userID, decimal.RequireFromString(balance))
	require.NoError(t, err)
	return NewApp(store), userID
}

func TestDebitAndCredit(t *testing.T) {
	app, userID := newFundedApp(t, "1000.00")
	ctx := context.Background()

	balance, err := app.Debit(ctx, userID, decimal.RequireFromString("100"))
	require.NoError(t, err)
	require.Equal(t, "900", balance.String())

	balance, err = app.Credit(ctx, userID, decimal.RequireFromString("250.50"))
	require.NoError(t, err)
	require.Equal(t, "1150.5", balance.String())

	balance, err = app.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "1150.5", balance.String())
}

func TestDebitInsufficientFunds(t *testing.T) {
	app, userID := newFundedApp(t, "50.00")
	ctx := context.Background()

	_, err := app.Debit(ctx, userID, decimal.RequireFromString("50.01"))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// The failed debit must not touch the balance.
	balance, err := app.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "50", balance.String())

	balance, err = app.Debit(ctx, userID, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	require.Equal(t, "0", balance.String())
}

func TestDebitUnknownAccount(t *testing.T) {
	app := NewApp(NewMemoryStore())

	_, err := app.Debit(context.Background(), uuid.New(), decimal.RequireFromString("1"))
	require.ErrorIs(t, err, ErrUnknownAccount)
}

func TestNegativeAmountsRejected(t *testing.T) {
	app, userID := newFundedApp(t, "100.00")
	ctx := context.Background()

	_, err := app.Debit(ctx, userID, decimal.RequireFromString("-1"))
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = app.Credit(ctx, userID, decimal.RequireFromString("-1"))
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestAmountsTruncatedToCents(t *testing.T) {
	app, userID := newFundedApp(t, "100.00")
	ctx := context.Background()

	// 10.999 moves 10.99, never rounds up.
	balance, err := app.Debit(ctx, userID, decimal.RequireFromString("10.999"))
	require.NoError(t, err)
	require.Equal(t, "89.01", balance.String())

	balance, err = app.Credit(ctx, userID, decimal.RequireFromString("0.009"))
	require.NoError(t, err)
	require.Equal(t, "89.01", balance.String())
}

func TestConcurrentDebitsNeverOverdraw(t *testing.T) {
	app, userID := newFundedApp(t, "100.00")
	ctx := context.Background()
	stake := decimal.RequireFromString("60")

	// Two concurrent debits of 60 against 100: exactly one may succeed.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := app.Debit(ctx, userID, stake)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrInsufficientFunds)
		}
	}
	require.Equal(t, 1, succeeded)

	balance, err := app.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "40", balance.String())
}

func TestConcurrentMixedTraffic(t *testing.T) {
	app, userID := newFundedApp(t, "0.00")
	ctx := context.Background()
	amount := decimal.RequireFromString("1.25")

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := app.Credit(ctx, userID, amount)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := app.Debit(ctx, userID, amount)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := app.Balance(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "125", balance.String())
}
