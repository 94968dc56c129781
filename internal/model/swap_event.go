package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapEvent is one decoded swap from a pool log. Amounts are signed 256-bit
// quantities; a positive amount flows into the pool, a negative amount flows
// out.
type SwapEvent struct {
	Sender    common.Address
	Recipient common.Address
	Amount0   *big.Int
	Amount1   *big.Int
	LogIndex  uint64
}

// BlockRecord holds the swap events observed in one block while it waits for
// confirmation. Hash is the value seen when the block's logs were fetched and
// is never updated in place; a re-observed block number replaces the whole
// record.
type BlockRecord struct {
	Number uint64
	Hash   common.Hash
	Events []SwapEvent
}
