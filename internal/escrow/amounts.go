package escrow

import (
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// USDCDecimals is the precision of the quote currency.
	USDCDecimals = 6
	// BasisPointsDenominator is 100%.
	BasisPointsDenominator = 10000
	// DefaultFeeBps is 0.25%.
	DefaultFeeBps = 25
	// DefaultChainID is Polygon mainnet.
	DefaultChainID = 137

	// USDCPolygon is the USDC token on Polygon.
	USDCPolygon = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	// EscrowContractPolygon is the default fee escrow on Polygon.
	EscrowContractPolygon = "0x989876083eD929BE583b8138e40D469ea3E53a37"
)

// CalculateFee returns floor(orderSize * feeBps / 10000).
func CalculateFee(orderSize *big.Int, feeBps int64) *big.Int {
	fee := new(big.Int).Mul(orderSize, big.NewInt(feeBps))
	return fee.Div(fee, big.NewInt(BasisPointsDenominator))
}

// CalculateOrderSize returns size*price in USDC base units, rounded half-up
// to 6 decimals.
//
// For a buy the user pays size*price USDC for size shares, for a sell the
// user receives it.
func CalculateOrderSize(size, price float64) *big.Int {
	if !finite(size) || !finite(price) {
		return new(big.Int)
	}
	notional := decimal.NewFromFloat(size).Mul(decimal.NewFromFloat(price))
	return notional.Shift(USDCDecimals).Round(0).BigInt()
}

// PriceToBasisPoints returns round(price * 10000). Rounding is half-up on the
// shortest decimal representation of price, so 0.12345 yields 1235.
func PriceToBasisPoints(price float64) *big.Int {
	return decimal.NewFromFloat(price).Shift(4).Round(0).BigInt()
}

// ParseUSDC converts a human readable amount to base units.
func ParseUSDC(amount float64) *big.Int {
	if !finite(amount) {
		return new(big.Int)
	}
	return decimal.NewFromFloat(amount).Shift(USDCDecimals).Round(0).BigInt()
}

// FormatUSDC renders base units without trailing zeros, e.g. 1500000 → "1.5".
func FormatUSDC(amount *big.Int) string {
	return decimal.NewFromBigInt(amount, -USDCDecimals).String()
}

// FormatBps renders basis points as a percentage, e.g. 25 → "0.25%".
func FormatBps(bps int64) string {
	return decimal.New(bps, -2).String() + "%"
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
