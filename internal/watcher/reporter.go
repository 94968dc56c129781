package watcher

import (
	"fmt"
	"io"
	"math/big"

	"swapwatch/internal/model"
	"swapwatch/internal/pool"
)

// AssetInfo pins an asset's display symbol and fixed-point decimal count.
// Decimal counts are static per-asset metadata, not derived from the chain.
type AssetInfo struct {
	Symbol   string
	Decimals uint
}

// SwapDirection classifies a swap by the signs of its amounts. A positive
// amount0 paired with a negative amount1 means asset0 was sold for asset1,
// and vice versa; any other sign combination is unknown.
func SwapDirection(amount0, amount1 *big.Int, asset0, asset1 string) string {
	switch {
	case amount0.Sign() > 0 && amount1.Sign() < 0:
		return asset0 + " -> " + asset1
	case amount0.Sign() < 0 && amount1.Sign() > 0:
		return asset1 + " -> " + asset0
	default:
		return "Unknown"
	}
}

// Reporter writes confirmed blocks as human-readable report lines.
type Reporter struct {
	out    io.Writer
	asset0 AssetInfo
	asset1 AssetInfo
}

// NewReporter builds a Reporter writing to out.
func NewReporter(out io.Writer, asset0, asset1 AssetInfo) *Reporter {
	return &Reporter{out: out, asset0: asset0, asset1: asset1}
}

// Report emits one line per swap event in the block, or a single line when
// the block carried none.
func (r *Reporter) Report(block *model.BlockRecord) error {
	if len(block.Events) == 0 {
		_, err := fmt.Fprintf(r.out, "Block %d: no swap events\n", block.Number)
		return err
	}

	for _, event := range block.Events {
		direction := SwapDirection(event.Amount0, event.Amount1, r.asset0.Symbol, r.asset1.Symbol)
		_, err := fmt.Fprintf(r.out,
			"Block %d | Swap %s: sender: %s, receiver: %s, amount0: %s %s, amount1: %s %s\n",
			block.Number,
			direction,
			event.Sender.Hex(),
			event.Recipient.Hex(),
			pool.FormatAmount(event.Amount0, r.asset0.Decimals),
			r.asset0.Symbol,
			pool.FormatAmount(event.Amount1, r.asset1.Decimals),
			r.asset1.Symbol,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
