package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory AccountStore for development and tests.
type MemoryStore struct {
	mu       sync.Mutex
	balances map[uuid.UUID]decimal.Decimal
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances: make(map[uuid.UUID]decimal.Decimal),
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, userID uuid.UUID, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.balances[userID] = balance.Truncate(2)
	return nil
}

func (s *MemoryStore) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[userID]
	if !ok {
		return decimal.Zero, ErrUnknownAccount
	}
	return balance, nil
}

func (s *MemoryStore) AdjustBalance(ctx context.Context, userID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance, ok := s.balances[userID]
	if !ok {
		return decimal.Zero, ErrUnknownAccount
	}

	next := balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ErrInsufficientFunds
	}

	s.balances[userID] = next
	return next, nil
}
