package escrow

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

const (
	// DomainName is the EIP-712 name of the fee escrow contract.
	DomainName = "DomeFeeEscrow"
	// DomainVersion is the EIP-712 version of the fee escrow contract.
	DomainVersion = "1"
	// PrimaryType is the signed struct.
	PrimaryType = "FeeAuthorization"
)

// Domain is the EIP-712 domain of an escrow deployment.
type Domain struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	ChainID           int64  `json:"chainId"`
	VerifyingContract string `json:"verifyingContract"`
}

// NewDomain returns the domain of the escrow contract at escrowAddress.
func NewDomain(escrowAddress string, chainID int64) (Domain, error) {
	if !IsAddress(escrowAddress) {
		return Domain{}, validationErrorf("invalid escrow address %q", escrowAddress)
	}
	contract, _ := ChecksumAddress(escrowAddress)
	return Domain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainID:           chainID,
		VerifyingContract: contract,
	}, nil
}

// FeeAuthorizationTypes returns a fresh copy of the EIP-712 type schema.
func FeeAuthorizationTypes() apitypes.Types {
	return apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		},
		PrimaryType: {
			{Name: "orderId", Type: "bytes32"},
			{Name: "payer", Type: "address"},
			{Name: "feeAmount", Type: "uint256"},
			{Name: "deadline", Type: "uint256"},
		},
	}
}

// TypedData builds the EIP-712 payload for auth. With native set, the
// integer fields are *big.Int; otherwise they are decimal strings, which is
// what remote signers get since large numbers do not survive every
// serialization boundary. Both forms hash identically.
func (d Domain) TypedData(auth FeeAuthorization, native bool) apitypes.TypedData {
	var feeAmount, deadline interface{}
	if native {
		feeAmount = bigOrNil(auth.FeeAmount)
		deadline = big.NewInt(auth.Deadline)
	} else {
		if auth.FeeAmount != nil {
			feeAmount = auth.FeeAmount.String()
		}
		deadline = strconv.FormatInt(auth.Deadline, 10)
	}

	return apitypes.TypedData{
		Types:       FeeAuthorizationTypes(),
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              d.Name,
			Version:           d.Version,
			ChainId:           math.NewHexOrDecimal256(d.ChainID),
			VerifyingContract: d.VerifyingContract,
		},
		Message: apitypes.TypedDataMessage{
			"orderId":   auth.OrderID,
			"payer":     auth.Payer,
			"feeAmount": feeAmount,
			"deadline":  deadline,
		},
	}
}

// Hash returns the EIP-712 digest of auth under d.
func (d Domain) Hash(auth FeeAuthorization) ([]byte, error) {
	return HashTypedData(d.TypedData(auth, true))
}

// HashTypedData returns keccak256("\x19\x01" ‖ domainSeparator ‖ hashStruct(message)).
func HashTypedData(data apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, errors.Wrap(err, "hashing typed data")
	}
	return hash, nil
}

func bigOrNil(b *big.Int) interface{} {
	if b == nil {
		return nil
	}
	return new(big.Int).Set(b)
}
