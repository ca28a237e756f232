package escrow

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// RecoverSigner recovers the address that produced signed under the escrow
// domain of escrowAddress on chainID.
func RecoverSigner(signed SignedFeeAuthorization, escrowAddress string, chainID int64) (common.Address, error) {
	d, err := NewDomain(escrowAddress, chainID)
	if err != nil {
		return common.Address{}, err
	}
	hash, err := d.Hash(signed.FeeAuthorization)
	if err != nil {
		return common.Address{}, err
	}

	sigHex := signed.Signature
	if !strings.HasPrefix(sigHex, "0x") {
		sigHex = "0x" + sigHex
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "decoding signature")
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, errors.New("invalid signature recovery id")
	}

	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "recovering public key")
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifySignature reports whether signed was produced by expectedSigner. It
// never fails; every decoding or recovery problem yields false.
//
// Only externally owned accounts can be checked this way. Signatures of
// contract wallets (Safe, EIP-1271) need an on-chain check and always
// yield false here.
func VerifySignature(signed SignedFeeAuthorization, escrowAddress string, chainID int64, expectedSigner string) bool {
	signer, err := RecoverSigner(signed, escrowAddress, chainID)
	if err != nil {
		return false
	}
	return SameAddress(signer.Hex(), expectedSigner)
}
