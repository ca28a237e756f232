package escrow

import (
	"math/big"
	"strings"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide accepts "buy" or "sell" in any case.
func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(s)) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	default:
		return "", validationErrorf("invalid side %q", s)
	}
}

type (
	// OrderParams are the inputs of an order identifier.
	OrderParams struct {
		// UserAddress is the wallet paying for the order (EOA or Safe).
		UserAddress string
		// MarketID is the venue token id.
		MarketID string
		Side     Side
		// Size is the order size in USDC base units (6 decimals).
		Size *big.Int
		// Price lies in [0, 1].
		Price float64
		// Timestamp in unix milliseconds.
		Timestamp int64
		ChainID   int64
	}

	// FeeAuthorization authorizes the escrow contract to pull FeeAmount from
	// Payer for the order OrderID until Deadline.
	FeeAuthorization struct {
		OrderID   string   `json:"orderId"`
		Payer     string   `json:"payer"`
		FeeAmount *big.Int `json:"feeAmount"`
		// Deadline in unix seconds.
		Deadline int64 `json:"deadline"`
	}

	// SignedFeeAuthorization is a FeeAuthorization with its 65-byte EIP-712
	// signature, hex encoded.
	SignedFeeAuthorization struct {
		FeeAuthorization
		Signature string `json:"signature"`
	}
)
