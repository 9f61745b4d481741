package sequence

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore backs the sequencer with the stall_daily_counters table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// StallRank is the 1-based position of the stall among all stalls ordered by
// id ascending. Zero means the stall does not exist.
func (s *PostgresStore) StallRank(ctx context.Context, stallID int64) (int, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM stalls WHERE id = $1)`, stallID).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}

	var rank int
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stalls WHERE id <= $1`, stallID).Scan(&rank)
	if err != nil {
		return 0, err
	}
	return rank, nil
}

// NextDailySeq advances the per-stall-per-day counter in a single atomic
// upsert. The conflicting row is locked for the duration of the statement,
// which is what serializes two checkouts racing on the same stall and day.
func (s *PostgresStore) NextDailySeq(ctx context.Context, stallID int64, day time.Time) (int, error) {
	var seq int
	err := s.pool.QueryRow(ctx, `
		INSERT INTO stall_daily_counters (stall_id, day, last_seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (stall_id, day)
		DO UPDATE SET last_seq = stall_daily_counters.last_seq + 1
		RETURNING last_seq
	`, stallID, day.Format("2006-01-02")).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
