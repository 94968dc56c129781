package watcher

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapwatch/internal/model"
)

// BlockFetcher returns the canonical header at a height, or nil when the
// chain has no block there yet.
type BlockFetcher interface {
	HeaderByNumber(ctx context.Context, number uint64) (*types.Header, error)
}

// ReorgError reports that a buffered block past the confirmation depth no
// longer matches the canonical chain. The reorg is deeper than the policy
// tolerates, so the pipeline must halt; a supervising process may restart
// it with a fresh subscription.
type ReorgError struct {
	Number    uint64
	Stored    common.Hash
	Canonical common.Hash
}

func (e *ReorgError) Error() string {
	return fmt.Sprintf("reorganization detected at block %d: stored hash %s, canonical hash %s",
		e.Number, e.Stored.Hex(), e.Canonical.Hex())
}

// CheckConfirmedBlocks sweeps the pending buffer against the current head.
// Blocks at or below head-depth are re-validated against a fresh canonical
// lookup by number: matches are removed from the store and returned in
// ascending block order, a missing canonical block leaves the record
// pending for a later sweep, and a hash mismatch returns a *ReorgError.
func CheckConfirmedBlocks(
	ctx context.Context,
	store *PendingBlockStore,
	fetcher BlockFetcher,
	head uint64,
	depth uint64,
) ([]*model.BlockRecord, error) {
	if head < depth {
		return nil, nil
	}
	cutoff := head - depth

	var released []*model.BlockRecord
	for _, number := range store.Numbers() {
		if number > cutoff {
			break
		}
		record, ok := store.Get(number)
		if !ok {
			continue
		}

		canonical, err := fetcher.HeaderByNumber(ctx, number)
		if err != nil {
			return nil, fmt.Errorf("fetch canonical block %d: %w", number, err)
		}
		if canonical == nil {
			// Not on the canonical chain yet; retried on the next sweep.
			continue
		}

		if canonical.Hash() != record.Hash {
			return nil, &ReorgError{
				Number:    number,
				Stored:    record.Hash,
				Canonical: canonical.Hash(),
			}
		}

		store.Remove(number)
		released = append(released, record)
	}

	return released, nil
}
