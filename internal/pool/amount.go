package pool

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
)

const wordSize = 32

// Signed256 interprets a 32-byte big-endian word as a two's-complement
// signed 256-bit integer.
func Signed256(word []byte) (*big.Int, error) {
	if len(word) != wordSize {
		return nil, fmt.Errorf("expected %d-byte word, got %d bytes", wordSize, len(word))
	}
	return math.S256(new(big.Int).SetBytes(word)), nil
}

// DecodeAmountPair decodes an ABI payload of exactly two int256 values.
func DecodeAmountPair(data []byte) (*big.Int, *big.Int, error) {
	if len(data) != 2*wordSize {
		return nil, nil, fmt.Errorf("expected two int256 words (%d bytes), got %d bytes", 2*wordSize, len(data))
	}
	amount0, err := Signed256(data[:wordSize])
	if err != nil {
		return nil, nil, fmt.Errorf("amount0: %w", err)
	}
	amount1, err := Signed256(data[wordSize:])
	if err != nil {
		return nil, nil, fmt.Errorf("amount1: %w", err)
	}
	return amount0, amount1, nil
}

// FormatAmount renders a raw fixed-point amount as a decimal string.
// The integer part truncates toward zero and the fractional part is the
// absolute remainder with trailing zeros stripped.
func FormatAmount(amount *big.Int, decimals uint) string {
	factor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(amount, factor, new(big.Int))
	if rem.Sign() == 0 {
		return quo.String()
	}
	frac := strings.TrimRight(new(big.Int).Abs(rem).String(), "0")
	return quo.String() + "." + frac
}
