package round

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mcdev12/aviator/go/internal/models"
)

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu     sync.Mutex
	rounds map[uuid.UUID]models.Round
	order  []uuid.UUID // save order, oldest first
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rounds: make(map[uuid.UUID]models.Round),
	}
}

func (s *MemoryStore) SaveRound(ctx context.Context, round models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rounds[round.ID]; !ok {
		s.order = append(s.order, round.ID)
	}
	s.rounds[round.ID] = round
	return nil
}

func (s *MemoryStore) LoadRound(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[id]
	if !ok {
		return nil, ErrRoundNotFound
	}
	return &round, nil
}

func (s *MemoryStore) RecentCrashPoints(ctx context.Context, limit int) ([]CrashRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []CrashRecord
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		round := s.rounds[s.order[i]]
		if round.Phase != models.RoundPhaseCrashed || round.EndedAt == nil {
			continue
		}
		out = append(out, CrashRecord{
			RoundID:    round.ID,
			CrashPoint: round.CrashPoint,
			EndedAt:    *round.EndedAt,
		})
	}
	return out, nil
}
