package watcher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/core/types"

	"swapwatch/internal/model"
)

type fakeBlockFetcher struct {
	headers map[uint64]*types.Header
	err     error
	calls   int
}

func (f *fakeBlockFetcher) HeaderByNumber(_ context.Context, number uint64) (*types.Header, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.headers[number], nil
}

func headerAt(number uint64) *types.Header {
	return &types.Header{Number: new(big.Int).SetUint64(number)}
}

// forkedHeaderAt builds a header at the same height with a different hash.
func forkedHeaderAt(number uint64) *types.Header {
	return &types.Header{
		Number: new(big.Int).SetUint64(number),
		Extra:  []byte("fork"),
	}
}

func storeWithBlocks(headers map[uint64]*types.Header, numbers ...uint64) *PendingBlockStore {
	store := NewPendingBlockStore()
	for _, number := range numbers {
		store.Put(&model.BlockRecord{Number: number, Hash: headers[number].Hash()})
	}
	return store
}

func canonicalHeaders(from, to uint64) map[uint64]*types.Header {
	headers := make(map[uint64]*types.Header)
	for number := from; number <= to; number++ {
		headers[number] = headerAt(number)
	}
	return headers
}

func releasedNumbers(records []*model.BlockRecord) []uint64 {
	numbers := make([]uint64, 0, len(records))
	for _, record := range records {
		numbers = append(numbers, record.Number)
	}
	return numbers
}

func TestCheckConfirmedBlocksCutoff(t *testing.T) {
	headers := canonicalHeaders(1, 10)
	store := storeWithBlocks(headers, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	fetcher := &fakeBlockFetcher{headers: headers}

	released, err := CheckConfirmedBlocks(context.Background(), store, fetcher, 10, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []uint64{1, 2, 3, 4, 5}
	if got := releasedNumbers(released); !reflect.DeepEqual(got, want) {
		t.Fatalf("released mismatch: %v != %v", got, want)
	}
	if got := store.Numbers(); !reflect.DeepEqual(got, []uint64{6, 7, 8, 9, 10}) {
		t.Fatalf("blocks above the cutoff must stay buffered: %v", got)
	}
}

func TestCheckConfirmedBlocksHeadBelowDepth(t *testing.T) {
	headers := canonicalHeaders(1, 3)
	store := storeWithBlocks(headers, 1, 2, 3)
	fetcher := &fakeBlockFetcher{headers: headers}

	released, err := CheckConfirmedBlocks(context.Background(), store, fetcher, 3, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(released) != 0 {
		t.Fatalf("nothing should be released: %v", releasedNumbers(released))
	}
	if fetcher.calls != 0 {
		t.Fatalf("no canonical fetches expected, got %d", fetcher.calls)
	}
}

func TestCheckConfirmedBlocksMissingCanonicalStaysPending(t *testing.T) {
	headers := canonicalHeaders(1, 3)
	store := storeWithBlocks(headers, 1, 2, 3)

	partial := map[uint64]*types.Header{1: headers[1], 3: headers[3]}
	fetcher := &fakeBlockFetcher{headers: partial}

	released, err := CheckConfirmedBlocks(context.Background(), store, fetcher, 8, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := releasedNumbers(released); !reflect.DeepEqual(got, []uint64{1, 3}) {
		t.Fatalf("released mismatch: %v", got)
	}
	if got := store.Numbers(); !reflect.DeepEqual(got, []uint64{2}) {
		t.Fatalf("block 2 should stay pending: %v", got)
	}

	// The canonical block shows up later; a repeated sweep releases it.
	fetcher.headers = headers
	released, err = CheckConfirmedBlocks(context.Background(), store, fetcher, 8, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := releasedNumbers(released); !reflect.DeepEqual(got, []uint64{2}) {
		t.Fatalf("retried release mismatch: %v", got)
	}
	if store.Len() != 0 {
		t.Fatalf("store should be empty, got %d", store.Len())
	}
}

func TestCheckConfirmedBlocksReorg(t *testing.T) {
	headers := canonicalHeaders(1, 2)
	store := storeWithBlocks(headers, 1, 2)

	forked := forkedHeaderAt(2)
	fetcher := &fakeBlockFetcher{headers: map[uint64]*types.Header{
		1: headers[1],
		2: forked,
	}}

	released, err := CheckConfirmedBlocks(context.Background(), store, fetcher, 10, 5)
	if err == nil {
		t.Fatalf("expected reorg error")
	}
	if len(released) != 0 {
		t.Fatalf("no blocks may be released on reorg: %v", releasedNumbers(released))
	}

	var reorgErr *ReorgError
	if !errors.As(err, &reorgErr) {
		t.Fatalf("expected *ReorgError, got %T", err)
	}
	if reorgErr.Number != 2 {
		t.Fatalf("reorg block mismatch: %d", reorgErr.Number)
	}
	if reorgErr.Stored != headers[2].Hash() || reorgErr.Canonical != forked.Hash() {
		t.Fatalf("reorg hashes mismatch: %+v", reorgErr)
	}
}

func TestCheckConfirmedBlocksFetchError(t *testing.T) {
	headers := canonicalHeaders(1, 1)
	store := storeWithBlocks(headers, 1)
	fetcher := &fakeBlockFetcher{err: fmt.Errorf("connection reset")}

	_, err := CheckConfirmedBlocks(context.Background(), store, fetcher, 10, 5)
	if err == nil {
		t.Fatalf("expected fetch error")
	}
	var reorgErr *ReorgError
	if errors.As(err, &reorgErr) {
		t.Fatalf("transient fetch failure must not look like a reorg")
	}
}
