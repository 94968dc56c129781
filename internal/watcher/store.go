package watcher

import (
	"slices"

	"swapwatch/internal/model"
)

// PendingBlockStore buffers blocks that have been observed but not yet
// confirmed, keyed by block number. It is owned by a single goroutine; the
// pipeline fully processes one header before reading the next, so no
// locking is needed.
type PendingBlockStore struct {
	blocks map[uint64]*model.BlockRecord
}

// NewPendingBlockStore creates an empty store.
func NewPendingBlockStore() *PendingBlockStore {
	return &PendingBlockStore{blocks: make(map[uint64]*model.BlockRecord)}
}

// Put inserts a record, replacing any previous record for the same number.
// A later observation of a contested block number wins wholesale; fields of
// the old record are never mutated in place.
func (s *PendingBlockStore) Put(record *model.BlockRecord) {
	s.blocks[record.Number] = record
}

// Get returns the record for a block number.
func (s *PendingBlockStore) Get(number uint64) (*model.BlockRecord, bool) {
	record, ok := s.blocks[number]
	return record, ok
}

// Remove deletes the record for a block number.
func (s *PendingBlockStore) Remove(number uint64) {
	delete(s.blocks, number)
}

// Len returns the number of buffered blocks.
func (s *PendingBlockStore) Len() int {
	return len(s.blocks)
}

// Numbers returns the buffered block numbers in ascending order.
func (s *PendingBlockStore) Numbers() []uint64 {
	numbers := make([]uint64, 0, len(s.blocks))
	for number := range s.blocks {
		numbers = append(numbers, number)
	}
	slices.Sort(numbers)
	return numbers
}
