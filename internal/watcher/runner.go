package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"swapwatch/internal/model"
	"swapwatch/internal/pool"
	"swapwatch/internal/storage"
)

// LogFetcher returns the logs emitted in a specific block, identified by
// hash, for the given address and topic0 filters.
type LogFetcher interface {
	FilterLogsByBlockHash(ctx context.Context, blockHash common.Hash, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

type blockFetcherFunc func(ctx context.Context, number uint64) (*types.Header, error)

func (f blockFetcherFunc) HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error) {
	return f(ctx, number)
}

// RunConfig holds runtime settings for the watcher.
type RunConfig struct {
	PoolAddress       common.Address
	SwapTopic         common.Hash
	ConfirmationDepth uint64
	Asset0            AssetInfo
	Asset1            AssetInfo
	MaxRetries        int
	RetryBackoff      time.Duration
	CheckpointPath    string
	CheckpointEnabled bool
}

// Runner consumes a header stream, buffers each block's swap events, and
// reports blocks once they survive the confirmation depth. Headers are
// processed one at a time; every fetch completes before the next header is
// read, so the pending buffer has a single writer by construction.
type Runner struct {
	cfg        RunConfig
	logs       LogFetcher
	blocks     BlockFetcher
	store      *PendingBlockStore
	reporter   *Reporter
	sinks      []storage.Sink
	checkpoint *CheckpointStore
	logger     *zap.Logger
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, logs LogFetcher, blocks BlockFetcher, reporter *Reporter, sinks []storage.Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		logs:       logs,
		blocks:     blocks,
		store:      NewPendingBlockStore(),
		reporter:   reporter,
		sinks:      sinks,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		logger:     logger,
	}
}

// Run executes the watch loop until the context is cancelled, the head
// stream ends, or a fatal condition (fetch failure, reorg past the
// confirmation depth) aborts it. subErrs may be nil when the head source
// has no error channel.
func (r *Runner) Run(ctx context.Context, heads <-chan *types.Header, subErrs <-chan error) error {
	if r.logs == nil {
		return fmt.Errorf("log fetcher is nil")
	}
	if r.blocks == nil {
		return fmt.Errorf("block fetcher is nil")
	}
	if r.reporter == nil {
		return fmt.Errorf("reporter is nil")
	}

	if cp, ok, err := r.checkpoint.Load(); err != nil {
		return err
	} else if ok {
		r.logger.Info("previous confirmed coverage", zap.Uint64("last_confirmed", cp.LastConfirmedBlock), zap.String("updated_at", cp.UpdatedAt))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-subErrs:
			if err == nil {
				return nil
			}
			return fmt.Errorf("head subscription: %w", err)
		case header, ok := <-heads:
			if !ok {
				r.logger.Info("head stream ended", zap.Int("pending", r.store.Len()))
				return nil
			}
			if err := r.processHeader(ctx, header); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) processHeader(ctx context.Context, header *types.Header) error {
	if header == nil || header.Number == nil {
		r.logger.Warn("skipping header without number")
		return nil
	}
	number := header.Number.Uint64()
	hash := header.Hash()
	if hash == (common.Hash{}) {
		r.logger.Warn("skipping header without hash", zap.Uint64("block_number", number))
		return nil
	}

	logs, err := r.filterLogsWithRetry(ctx, hash)
	if err != nil {
		return fmt.Errorf("fetch swap logs for block %d: %w", number, err)
	}

	events := make([]model.SwapEvent, 0, len(logs))
	for _, log := range logs {
		event, ok := pool.DecodeSwapLog(log)
		if !ok {
			r.logger.Warn("skipping undecodable log",
				zap.Uint64("block_number", number),
				zap.Uint64("log_index", uint64(log.Index)),
				zap.Int("topics", len(log.Topics)),
			)
			continue
		}
		events = append(events, event)
	}

	r.store.Put(&model.BlockRecord{Number: number, Hash: hash, Events: events})
	r.logger.Debug("block buffered",
		zap.Uint64("block_number", number),
		zap.String("block_hash", hash.Hex()),
		zap.Int("events", len(events)),
		zap.Int("pending", r.store.Len()),
	)

	released, err := CheckConfirmedBlocks(ctx, r.store, blockFetcherFunc(r.headerByNumberWithRetry), number, r.cfg.ConfirmationDepth)
	if err != nil {
		return err
	}

	for _, block := range released {
		if err := r.reporter.Report(block); err != nil {
			return fmt.Errorf("report block %d: %w", block.Number, err)
		}

		records := r.buildSwapRecords(block)
		for _, sink := range r.sinks {
			if err := sink.PutSwapBatch(ctx, records); err != nil {
				return fmt.Errorf("persist block %d: %w", block.Number, err)
			}
		}

		if err := r.checkpoint.Save(block.Number); err != nil {
			return err
		}

		r.logger.Info("block confirmed",
			zap.Uint64("block_number", block.Number),
			zap.String("block_hash", block.Hash.Hex()),
			zap.Int("events", len(block.Events)),
		)
	}

	return nil
}

func (r *Runner) buildSwapRecords(block *model.BlockRecord) []model.SwapRecord {
	confirmedAt := time.Now().UTC().Format(time.RFC3339Nano)
	records := make([]model.SwapRecord, 0, len(block.Events))
	for _, event := range block.Events {
		records = append(records, model.SwapRecord{
			BlockNumber:      block.Number,
			BlockHash:        block.Hash.Hex(),
			LogIndex:         event.LogIndex,
			Sender:           event.Sender.Hex(),
			Recipient:        event.Recipient.Hex(),
			Amount0:          event.Amount0.String(),
			Amount1:          event.Amount1.String(),
			Amount0Formatted: pool.FormatAmount(event.Amount0, r.cfg.Asset0.Decimals),
			Amount1Formatted: pool.FormatAmount(event.Amount1, r.cfg.Asset1.Decimals),
			Direction:        SwapDirection(event.Amount0, event.Amount1, r.cfg.Asset0.Symbol, r.cfg.Asset1.Symbol),
			ConfirmedAt:      confirmedAt,
		})
	}
	return records
}

func (r *Runner) filterLogsWithRetry(ctx context.Context, blockHash common.Hash) ([]types.Log, error) {
	var logs []types.Log
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		logs, err = r.logs.FilterLogsByBlockHash(ctx, blockHash, []common.Address{r.cfg.PoolAddress}, []common.Hash{r.cfg.SwapTopic})
		if err != nil {
			r.logger.Warn("filter logs failed", zap.Error(err), zap.String("block_hash", blockHash.Hex()))
		}
		return err
	})
	return logs, err
}

func (r *Runner) headerByNumberWithRetry(ctx context.Context, number uint64) (*types.Header, error) {
	var header *types.Header
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		header, err = r.blocks.HeaderByNumber(ctx, number)
		if err != nil {
			r.logger.Warn("canonical header fetch failed", zap.Error(err), zap.Uint64("block_number", number))
		}
		return err
	})
	return header, err
}
