package wallet

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
)

var (
	_ escrow.TypedDataSigner = (*KeyAccount)(nil)
	_ escrow.TypedDataSigner = (*RemoteAccount)(nil)
)

// KeyAccount signs with a private key held in memory.
type KeyAccount struct {
	addr common.Address
	key  *ecdsa.PrivateKey
}

// NewKeyAccount creates an account for key.
func NewKeyAccount(key *ecdsa.PrivateKey) *KeyAccount {
	return &KeyAccount{
		addr: crypto.PubkeyToAddress(key.PublicKey),
		key:  key,
	}
}

// NewKeyAccountFromHex parses a hex private key, with or without 0x prefix.
func NewKeyAccountFromHex(hexKey string) (*KeyAccount, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, errors.Wrapf(escrow.ErrConfiguration, "invalid private key: %v", err)
	}
	return NewKeyAccount(key), nil
}

// Address returns the address of the account.
func (a *KeyAccount) Address(context.Context) (common.Address, error) {
	return a.addr, nil
}

// SignTypedData signs the EIP-712 digest of data.
func (a *KeyAccount) SignTypedData(_ context.Context, data apitypes.TypedData) ([]byte, error) {
	return escrow.SignTypedData(a.key, data)
}

// RemoteAccount is an account whose key lives in a wallet on the other side
// of a connection.
type RemoteAccount struct {
	addr common.Address
	w    *Wallet
}

// Address returns the address of the account.
func (a *RemoteAccount) Address(context.Context) (common.Address, error) {
	return a.addr, nil
}

// SignTypedData asks the wallet to sign data. Signatures with a recovery id
// of 0 or 1 are returned with 27 or 28.
func (a *RemoteAccount) SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error) {
	sig, err := a.w.SignTypedData(ctx, a.addr, data)
	if err != nil {
		return nil, errors.WithMessage(err, "remote signature")
	}
	if len(sig) != crypto.SignatureLength {
		return nil, errors.Errorf("remote signature has %d bytes, want %d", len(sig), crypto.SignatureLength)
	}
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] < 27 {
		sig[crypto.RecoveryIDOffset] += 27
	}
	return sig, nil
}
