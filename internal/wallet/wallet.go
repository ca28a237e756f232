package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer forwards signing requests to a wallet. *message.Connection is the
// production implementation.
type Signer interface {
	SignTypedData(ctx context.Context, addr common.Address, data apitypes.TypedData) ([]byte, error)
}

// Wallet is a wrapper around a remote wallet.
type Wallet struct {
	Signer
}

// NewWallet creates a new wallet.
func NewWallet(s Signer) *Wallet {
	return &Wallet{s}
}

// Unlock returns the account of addr held by the wallet.
func (w *Wallet) Unlock(addr common.Address) *RemoteAccount {
	return &RemoteAccount{addr: addr, w: w}
}
