package model

// SwapRecord is the flattened representation of a confirmed swap for storage.
type SwapRecord struct {
	BlockNumber      uint64 `json:"block_number"`
	BlockHash        string `json:"block_hash"`
	LogIndex         uint64 `json:"log_index"`
	Sender           string `json:"sender"`
	Recipient        string `json:"recipient"`
	Amount0          string `json:"amount0"`
	Amount1          string `json:"amount1"`
	Amount0Formatted string `json:"amount0_formatted"`
	Amount1Formatted string `json:"amount1_formatted"`
	Direction        string `json:"direction"`
	ConfirmedAt      string `json:"confirmed_at"`
}
