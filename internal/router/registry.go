package router

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// UserRegistry maps user ids to their credentials and Safe funder address.
// It is filled by EscrowRouter.LinkUser and read during placements.
type UserRegistry struct {
	mu      sync.RWMutex
	creds   map[string]Credentials
	funders map[string]common.Address
}

// NewUserRegistry creates an empty registry.
func NewUserRegistry() *UserRegistry {
	return &UserRegistry{
		creds:   make(map[string]Credentials),
		funders: make(map[string]common.Address),
	}
}

func (r *UserRegistry) link(userID string, creds Credentials, funder *common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creds[userID] = creds
	if funder != nil {
		r.funders[userID] = *funder
	}
}

// Credentials returns the credentials linked for userID.
func (r *UserRegistry) Credentials(userID string) (*Credentials, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.creds[userID]
	if !ok {
		return nil, false
	}
	return &c, true
}

// Funder returns the Safe address linked for userID.
func (r *UserRegistry) Funder(userID string) (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.funders[userID]
	return a, ok
}
