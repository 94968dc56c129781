package watcher

import (
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"swapwatch/internal/model"
)

func TestPendingBlockStoreLastWriteWins(t *testing.T) {
	store := NewPendingBlockStore()

	first := &model.BlockRecord{Number: 5, Hash: common.HexToHash("0x01")}
	second := &model.BlockRecord{Number: 5, Hash: common.HexToHash("0x02")}

	store.Put(first)
	store.Put(second)

	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
	record, ok := store.Get(5)
	if !ok {
		t.Fatalf("record missing")
	}
	if record != second {
		t.Fatalf("re-observed block should replace the whole record")
	}
}

func TestPendingBlockStoreNumbersAscending(t *testing.T) {
	store := NewPendingBlockStore()
	for _, number := range []uint64{9, 3, 7, 1} {
		store.Put(&model.BlockRecord{Number: number})
	}

	want := []uint64{1, 3, 7, 9}
	if got := store.Numbers(); !reflect.DeepEqual(got, want) {
		t.Fatalf("numbers mismatch: %v != %v", got, want)
	}
}

func TestPendingBlockStoreRemove(t *testing.T) {
	store := NewPendingBlockStore()
	store.Put(&model.BlockRecord{Number: 2})
	store.Remove(2)

	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
	if _, ok := store.Get(2); ok {
		t.Fatalf("removed record still present")
	}
}
