package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapwatch/internal/model"
)

// Store persists confirmed swap records in the swaps table, keyed by
// (block_number, log_index).
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// PutSwapBatch inserts confirmed swap records. Re-inserts of the same
// (block_number, log_index) are ignored so a restarted pipeline can safely
// re-confirm blocks it already persisted.
func (s *Store) PutSwapBatch(ctx context.Context, records []model.SwapRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO swaps (
				block_number, block_hash, log_index, sender, recipient,
				amount0, amount1, amount0_formatted, amount1_formatted,
				direction, confirmed_at, created_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,now())
			ON CONFLICT (block_number, log_index) DO NOTHING
		`,
			int64(record.BlockNumber),
			record.BlockHash,
			int64(record.LogIndex),
			record.Sender,
			record.Recipient,
			record.Amount0,
			record.Amount1,
			record.Amount0Formatted,
			record.Amount1Formatted,
			record.Direction,
			record.ConfirmedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
