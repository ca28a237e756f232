package websocket

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
	"github.com/domeapi/dome-escrow-router/internal/wallet"
)

// Registry is a registry of wallet sessions.
type Registry struct {
	mtx       sync.RWMutex
	sessions  map[string]*Session
	addresses map[common.Address]string
}

// NewRegistry creates a new registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]*Session),
		addresses: make(map[common.Address]string),
	}
}

// register creates a session for the wallet at addr behind conn. Fails if
// another session is already registered for the same address.
func (r *Registry) register(addr common.Address, conn *message.Connection) (*Session, error) {
	if addr == (common.Address{}) {
		return nil, errors.Wrap(escrow.ErrValidation, "missing wallet address")
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	if _, ok := r.addresses[addr]; ok {
		return nil, errors.Errorf("wallet %s already connected", addr.Hex())
	}

	s := &Session{
		id:      uuid.NewString(),
		addr:    addr,
		conn:    conn,
		account: wallet.NewWallet(conn).Unlock(addr),
	}
	r.sessions[s.id] = s
	r.addresses[addr] = s.id
	return s, nil
}

// Remove removes the session with the given id.
func (r *Registry) Remove(id string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	delete(r.addresses, s.addr)
	delete(r.sessions, id)
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Len returns the number of connected wallets.
func (r *Registry) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.sessions)
}

// Signer returns the account of the session walletID. walletAddress has to
// be the address the session was initialized with.
func (r *Registry) Signer(walletID, walletAddress string) (escrow.TypedDataSigner, error) {
	s, ok := r.Get(walletID)
	if !ok {
		return nil, errors.Wrapf(escrow.ErrValidation, "wallet session %s not connected", walletID)
	}
	if !escrow.IsAddress(walletAddress) || common.HexToAddress(walletAddress) != s.addr {
		return nil, errors.Wrapf(escrow.ErrValidation, "wallet session %s does not sign for %s", walletID, walletAddress)
	}
	return s.account, nil
}
