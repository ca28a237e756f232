package clob

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
)

const (
	// DomainName is the EIP-712 name of the CTF exchange.
	DomainName = "Polymarket CTF Exchange"
	// DomainVersion is the EIP-712 version of the CTF exchange.
	DomainVersion = "1"

	// ExchangePolygon is the CTF exchange on Polygon.
	ExchangePolygon = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
	// NegRiskExchangePolygon is the exchange of negative risk markets.
	NegRiskExchangePolygon = "0xC5d563A36AE78145C45a50134d48A1215220f80a"
)

// Order sides of the exchange.
const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

func orderTypes() apitypes.Types {
	return apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		"Order": {
			{Name: "salt", Type: "uint256"},
			{Name: "maker", Type: "address"},
			{Name: "signer", Type: "address"},
			{Name: "taker", Type: "address"},
			{Name: "tokenId", Type: "uint256"},
			{Name: "makerAmount", Type: "uint256"},
			{Name: "takerAmount", Type: "uint256"},
			{Name: "expiration", Type: "uint256"},
			{Name: "nonce", Type: "uint256"},
			{Name: "feeRateBps", Type: "uint256"},
			{Name: "side", Type: "uint8"},
			{Name: "signatureType", Type: "uint8"},
		},
	}
}

// OrderTypedData returns the EIP-712 payload of o, excluding its signature,
// for the exchange at exchange.
func OrderTypedData(o message.SignedOrder, chainID int64, exchange common.Address) (apitypes.TypedData, error) {
	side, err := sideIndex(o.Side)
	if err != nil {
		return apitypes.TypedData{}, err
	}
	return apitypes.TypedData{
		Types:       orderTypes(),
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: exchange.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"salt":          strconv.FormatUint(o.Salt, 10),
			"maker":         o.Maker,
			"signer":        o.Signer,
			"taker":         o.Taker,
			"tokenId":       o.TokenID,
			"makerAmount":   o.MakerAmount,
			"takerAmount":   o.TakerAmount,
			"expiration":    o.Expiration,
			"nonce":         o.Nonce,
			"feeRateBps":    o.FeeRateBps,
			"side":          strconv.Itoa(side),
			"signatureType": strconv.Itoa(o.SignatureType),
		},
	}, nil
}

// Amounts returns maker and taker amounts of an order of size shares at
// price. Buyers give USDC and take shares, sellers the reverse; both have
// six decimals.
func Amounts(side escrow.Side, size, price float64) (maker, taker *big.Int) {
	shares := escrow.ParseUSDC(size)
	usdc := escrow.CalculateOrderSize(size, price)
	if side == escrow.SideSell {
		return shares, usdc
	}
	return usdc, shares
}

func sideIndex(side string) (int, error) {
	switch side {
	case SideBuy:
		return 0, nil
	case SideSell:
		return 1, nil
	default:
		return 0, errors.Wrapf(escrow.ErrValidation, "invalid order side %q", side)
	}
}

func exchangeSide(side escrow.Side) string {
	if side == escrow.SideSell {
		return SideSell
	}
	return SideBuy
}
