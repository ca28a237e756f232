package escrow

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

// TypedDataSigner can sign EIP-712 payloads on behalf of one address. Local
// keys and remote wallets both implement it; a remote call may block until
// the wallet answers or ctx is done.
type TypedDataSigner interface {
	Address(ctx context.Context) (common.Address, error)
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
}

// SignTypedData signs data with key and returns the 65-byte [R || S || V]
// signature with V in {27, 28}.
func SignTypedData(key *ecdsa.PrivateKey, data apitypes.TypedData) ([]byte, error) {
	hash, err := HashTypedData(data)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, errors.Wrap(err, "signing hash")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignWithKey signs auth under d with a raw private key.
func SignWithKey(key *ecdsa.PrivateKey, d Domain, auth FeeAuthorization) (SignedFeeAuthorization, error) {
	sig, err := SignTypedData(key, d.TypedData(auth, true))
	if err != nil {
		return SignedFeeAuthorization{}, errors.Wrapf(ErrSigning, "signing fee authorization: %v", err)
	}
	return SignedFeeAuthorization{FeeAuthorization: auth, Signature: hexutil.Encode(sig)}, nil
}

// SignWithSigner signs auth under d through s. The integer fields are handed
// over as decimal strings. The returned signature is taken as is.
func SignWithSigner(ctx context.Context, s TypedDataSigner, d Domain, auth FeeAuthorization) (SignedFeeAuthorization, error) {
	sig, err := s.SignTypedData(ctx, d.TypedData(auth, false))
	if err != nil {
		return SignedFeeAuthorization{}, errors.Wrapf(ErrSigning, "signing fee authorization: %v", err)
	}
	if len(sig) == 0 {
		return SignedFeeAuthorization{}, errors.Wrap(ErrSigning, "signer returned an empty signature")
	}
	return SignedFeeAuthorization{FeeAuthorization: auth, Signature: hexutil.Encode(sig)}, nil
}
