package router

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
)

// EscrowConfig is the escrow section of the configuration. Zero values
// select defaults.
type EscrowConfig struct {
	FeeBps          *int64         `mapstructure:"feeBps"`
	EscrowAddress   common.Address `mapstructure:"escrowAddress"`
	ChainID         int64          `mapstructure:"chainId"`
	Affiliate       common.Address `mapstructure:"affiliate"`
	DeadlineSeconds int64          `mapstructure:"deadlineSeconds"`
}

// ResolvedEscrowConfig is an EscrowConfig with all defaults applied.
type ResolvedEscrowConfig struct {
	FeeBps          int64
	EscrowAddress   common.Address
	ChainID         int64
	Affiliate       common.Address
	DeadlineSeconds int64
}

// Resolve applies the defaults: 25 bps, the Polygon escrow contract, chain
// 137, no affiliate and a one hour deadline.
func (c EscrowConfig) Resolve() (ResolvedEscrowConfig, error) {
	r := ResolvedEscrowConfig{
		FeeBps:          escrow.DefaultFeeBps,
		EscrowAddress:   common.HexToAddress(escrow.EscrowContractPolygon),
		ChainID:         escrow.DefaultChainID,
		Affiliate:       c.Affiliate,
		DeadlineSeconds: escrow.DefaultDeadlineSeconds,
	}
	if c.FeeBps != nil {
		r.FeeBps = *c.FeeBps
	}
	if c.EscrowAddress != (common.Address{}) {
		r.EscrowAddress = c.EscrowAddress
	}
	if c.ChainID != 0 {
		r.ChainID = c.ChainID
	}
	if c.DeadlineSeconds != 0 {
		r.DeadlineSeconds = c.DeadlineSeconds
	}

	if r.FeeBps < 0 || r.FeeBps > escrow.BasisPointsDenominator {
		return r, errors.Wrapf(escrow.ErrConfiguration, "fee of %d bps out of range", r.FeeBps)
	}
	if r.ChainID < 0 {
		return r, errors.Wrapf(escrow.ErrConfiguration, "invalid chain id %d", r.ChainID)
	}
	if r.DeadlineSeconds < escrow.MinDeadlineSeconds || r.DeadlineSeconds > escrow.MaxDeadlineSeconds {
		return r, errors.Wrapf(escrow.ErrConfiguration, "deadline of %ds out of range [%d, %d]",
			r.DeadlineSeconds, escrow.MinDeadlineSeconds, escrow.MaxDeadlineSeconds)
	}
	return r, nil
}
