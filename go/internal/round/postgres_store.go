package round

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/aviator/go/internal/ledger"
	"github.com/mcdev12/aviator/go/internal/models"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) SaveRound(ctx context.Context, round models.Round) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rounds (id, phase, crash_point, abandoned, total_staked, total_paid_out, created_at, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
			phase = EXCLUDED.phase,
			abandoned = EXCLUDED.abandoned,
			total_staked = EXCLUDED.total_staked,
			total_paid_out = EXCLUDED.total_paid_out,
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at`,
		round.ID, round.Phase, round.CrashPoint, round.Abandoned,
		round.TotalStaked, round.TotalPaidOut,
		round.CreatedAt, round.StartedAt, round.EndedAt)
	if err != nil {
		return fmt.Errorf("%w: save round: %v", ledger.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *PostgresStore) LoadRound(ctx context.Context, id uuid.UUID) (*models.Round, error) {
	var round models.Round
	err := s.pool.QueryRow(ctx,
		`SELECT id, phase, crash_point, abandoned, total_staked, total_paid_out, created_at, started_at, ended_at
		 FROM rounds WHERE id = $1`,
		id).Scan(&round.ID, &round.Phase, &round.CrashPoint, &round.Abandoned,
		&round.TotalStaked, &round.TotalPaidOut,
		&round.CreatedAt, &round.StartedAt, &round.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load round: %v", ledger.ErrStoreUnavailable, err)
	}
	return &round, nil
}

func (s *PostgresStore) RecentCrashPoints(ctx context.Context, limit int) ([]CrashRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, crash_point, ended_at FROM rounds
		 WHERE phase = $1 AND ended_at IS NOT NULL
		 ORDER BY ended_at DESC LIMIT $2`,
		models.RoundPhaseCrashed, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent crash points: %v", ledger.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var out []CrashRecord
	for rows.Next() {
		var rec CrashRecord
		if err := rows.Scan(&rec.RoundID, &rec.CrashPoint, &rec.EndedAt); err != nil {
			return nil, fmt.Errorf("%w: scan crash record: %v", ledger.ErrStoreUnavailable, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
