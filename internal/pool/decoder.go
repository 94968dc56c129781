package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"swapwatch/internal/model"
)

// DecodeSwapLog decodes a pool log into a SwapEvent.
//
// The log must carry at least three topics: topic0 is the event signature,
// topics 1 and 2 hold the sender and recipient addresses right-aligned in
// 32-byte words. The data payload must be exactly two int256 amounts.
// Logs that do not match are reported as not decodable, never as errors.
func DecodeSwapLog(log types.Log) (model.SwapEvent, bool) {
	if len(log.Topics) < 3 {
		return model.SwapEvent{}, false
	}

	sender := common.BytesToAddress(log.Topics[1].Bytes())
	recipient := common.BytesToAddress(log.Topics[2].Bytes())

	amount0, amount1, err := DecodeAmountPair(log.Data)
	if err != nil {
		return model.SwapEvent{}, false
	}

	return model.SwapEvent{
		Sender:    sender,
		Recipient: recipient,
		Amount0:   amount0,
		Amount1:   amount1,
		LogIndex:  uint64(log.Index),
	}, true
}
