package storage

import (
	"context"

	"swapwatch/internal/model"
)

// Sink persists confirmed swap records.
type Sink interface {
	PutSwapBatch(ctx context.Context, records []model.SwapRecord) error
	Close() error
}
