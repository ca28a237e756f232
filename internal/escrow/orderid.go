package escrow

import (
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// orderIDArguments is the tuple
// (uint256 chainId, address user, string marketId, string side,
// uint256 size, uint256 priceBps, uint256 timestampMs).
// The chain id goes first so that ids diverge across chains.
var orderIDArguments = abi.Arguments{
	{Type: mustNewType("uint256")},
	{Type: mustNewType("address")},
	{Type: mustNewType("string")},
	{Type: mustNewType("string")},
	{Type: mustNewType("uint256")},
	{Type: mustNewType("uint256")},
	{Type: mustNewType("uint256")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// GenerateOrderID derives the order identifier as keccak256 over the ABI
// encoded order parameters. The result is 0x followed by 64 lowercase hex
// characters.
func GenerateOrderID(p OrderParams) (string, error) {
	if math.IsNaN(p.Price) || p.Price < 0 || p.Price > 1 {
		return "", validationErrorf("invalid price %v: must be between 0 and 1", p.Price)
	}
	if !IsAddress(p.UserAddress) {
		return "", validationErrorf("invalid user address %q", p.UserAddress)
	}
	if p.Size == nil || p.Size.Sign() < 0 {
		return "", validationErrorf("invalid size %v", p.Size)
	}
	if p.ChainID < 0 || p.Timestamp < 0 {
		return "", validationErrorf("chain id and timestamp must not be negative")
	}

	// Packing the parsed address makes differently cased inputs identical.
	user := common.HexToAddress(p.UserAddress)

	encoded, err := orderIDArguments.Pack(
		big.NewInt(p.ChainID),
		user,
		p.MarketID,
		string(p.Side),
		p.Size,
		PriceToBasisPoints(p.Price),
		big.NewInt(p.Timestamp),
	)
	if err != nil {
		return "", errors.Wrap(err, "encoding order params")
	}
	return hexutil.Encode(crypto.Keccak256(encoded)), nil
}

// VerifyOrderID reports whether id was derived from p. It never fails: invalid
// params simply do not match.
func VerifyOrderID(id string, p OrderParams) bool {
	expected, err := GenerateOrderID(p)
	if err != nil {
		return false
	}
	return strings.EqualFold(expected, id)
}
