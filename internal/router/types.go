package router

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
)

// PlaceOrderPath is the order endpoint relative to the API base URL.
const PlaceOrderPath = "/polymarket/placeOrder"

// WalletType says who holds the funds of an order.
type WalletType string

const (
	// WalletEOA orders are funded by the signing key itself.
	WalletEOA WalletType = "eoa"
	// WalletSafe orders are funded by a Safe the signer controls.
	WalletSafe WalletType = "safe"
)

// ParseWalletType accepts "eoa", "safe" and the empty string, which means
// WalletEOA.
func ParseWalletType(s string) (WalletType, error) {
	switch WalletType(s) {
	case "", WalletEOA:
		return WalletEOA, nil
	case WalletSafe:
		return WalletSafe, nil
	default:
		return "", errors.Wrapf(escrow.ErrValidation, "invalid wallet type %q", s)
	}
}

// Signature types of exchange orders.
const (
	SignatureEOA  = 0
	SignatureSafe = 2
)

// SignatureType returns the exchange signature type of orders funded by w.
func (w WalletType) SignatureType() int {
	if w == WalletSafe {
		return SignatureSafe
	}
	return SignatureEOA
}

type (
	// Credentials are the venue API credentials of a user.
	Credentials = message.Credentials

	// Result is the result object of an accepted order.
	Result = json.RawMessage

	// PlaceOrderParams describe one order. Either Signer or WalletID and
	// WalletAddress must be set.
	PlaceOrderParams struct {
		UserID   string
		MarketID string
		Side     string
		// Size in shares.
		Size float64
		// Price per share in [0, 1].
		Price float64

		Signer        escrow.TypedDataSigner
		WalletID      string
		WalletAddress string
		WalletType    WalletType
		// FunderAddress is the Safe paying for the order. Falls back to the
		// address linked for the user.
		FunderAddress string

		NegRisk   bool
		OrderType string

		// FeeBps overrides the configured fee for this order.
		FeeBps *int64
		// Affiliate overrides the configured affiliate for this order.
		Affiliate string
		// SkipEscrow places the order without a fee authorization.
		SkipEscrow bool
	}

	// OrderRequest is what the base order service needs to build and sign an
	// exchange order.
	OrderRequest struct {
		Signer        escrow.TypedDataSigner
		SignerAddress common.Address
		FunderAddress common.Address
		TokenID       string
		Side          escrow.Side
		Size          float64
		Price         float64
		SignatureType int
		NegRisk       bool
	}

	// BaseOrderService builds exchange orders and places them without escrow.
	BaseOrderService interface {
		CreateAndSignOrder(ctx context.Context, req OrderRequest) (message.SignedOrder, error)
		// PlaceOrder places an order without fee authorization. p.Signer is
		// set and creds is not nil.
		PlaceOrder(ctx context.Context, p PlaceOrderParams, creds *Credentials) (Result, error)
	}

	// Transport delivers requests to the API. Answers of any status are
	// returned with a nil error.
	Transport interface {
		Post(ctx context.Context, path, apiKey string, body []byte) (status int, respBody []byte, err error)
	}

	// SignerProvider builds the signer of a hosted wallet.
	SignerProvider func(walletID, walletAddress string) (escrow.TypedDataSigner, error)
)
