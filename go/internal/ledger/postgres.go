package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore implements AccountStore on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) CreateAccount(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (user_id, balance) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, balance.Truncate(2))
	if err != nil {
		return fmt.Errorf("%w: create account: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`SELECT balance FROM accounts WHERE user_id = $1`,
		userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, ErrUnknownAccount
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: get balance: %v", ErrStoreUnavailable, err)
	}
	return balance, nil
}

// AdjustBalance applies the delta with a single conditional UPDATE so that
// concurrent adjustments on one account cannot lose updates or overdraw.
func (s *PostgresStore) AdjustBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.pool.QueryRow(ctx,
		`UPDATE accounts
		 SET balance = balance + $2, updated_at = now()
		 WHERE user_id = $1 AND balance + $2 >= 0
		 RETURNING balance`,
		userID, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the account is missing or the debit is uncovered.
		if _, lookupErr := s.GetBalance(ctx, userID); lookupErr != nil {
			return decimal.Zero, lookupErr
		}
		return decimal.Zero, ErrInsufficientFunds
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: adjust balance: %v", ErrStoreUnavailable, err)
	}
	return balance, nil
}
