package router

import (
	"context"
	"encoding/json"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
)

// State is a step of an escrowed order placement.
type State string

const (
	StateInit                State = "init"
	StateValidated           State = "validated"
	StateIdentifierGenerated State = "identifier_generated"
	StateAuthorizationSigned State = "authorization_signed"
	StateBaseOrderSigned     State = "base_order_signed"
	StateSubmitted           State = "submitted"
	StateFulfilled           State = "fulfilled"
	StateRejected            State = "rejected"
	StateFailed              State = "failed"
)

// EscrowRouter places orders together with a signed fee authorization for
// the escrow contract. It wraps a BaseOrderService that builds the exchange
// orders and places orders that skip the escrow.
type EscrowRouter struct {
	apiKey    string
	base      BaseOrderService
	transport Transport
	users     *UserRegistry
	config    ResolvedEscrowConfig

	signers       SignerProvider
	now           func() time.Time
	clientOrderID func() string
	metrics       *Metrics
	log           log.FieldLogger
}

// Option configures an EscrowRouter.
type Option func(*EscrowRouter)

// WithSignerProvider sets the provider of hosted wallet signers.
func WithSignerProvider(p SignerProvider) Option {
	return func(r *EscrowRouter) { r.signers = p }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *EscrowRouter) { r.now = now }
}

// WithClientOrderIDs replaces the uuid generator of client order ids.
func WithClientOrderIDs(next func() string) Option {
	return func(r *EscrowRouter) { r.clientOrderID = next }
}

// WithMetrics sets the placement metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *EscrowRouter) { r.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l log.FieldLogger) Option {
	return func(r *EscrowRouter) { r.log = l }
}

// NewEscrowRouter creates a router. A missing apiKey is only reported when
// an order is placed.
func NewEscrowRouter(apiKey string, cfg EscrowConfig, base BaseOrderService, transport Transport, opts ...Option) (*EscrowRouter, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	r := &EscrowRouter{
		apiKey:        apiKey,
		base:          base,
		transport:     transport,
		users:         NewUserRegistry(),
		config:        resolved,
		now:           time.Now,
		clientOrderID: uuid.NewString,
		log:           log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}
	return r, nil
}

// EscrowConfig returns the resolved escrow configuration.
func (r *EscrowRouter) EscrowConfig() ResolvedEscrowConfig {
	return r.config
}

// LinkUser stores the credentials of userID and, if funder is not empty,
// the Safe that pays for the user's Safe orders.
func (r *EscrowRouter) LinkUser(userID string, creds Credentials, funder string) error {
	if userID == "" {
		return errors.Wrap(escrow.ErrValidation, "missing user id")
	}
	if creds.APIKey == "" {
		return errors.Wrapf(escrow.ErrValidation, "missing api key for user %s", userID)
	}
	var funderAddress *common.Address
	if funder != "" {
		if !escrow.IsAddress(funder) {
			return errors.Wrapf(escrow.ErrValidation, "invalid funder address %q", funder)
		}
		a := common.HexToAddress(funder)
		funderAddress = &a
	}
	r.users.link(userID, creds, funderAddress)
	r.log.WithField("user", userID).Info("user linked")
	return nil
}

// CalculateOrderFee returns the fee in USDC base units of an order of size
// shares at price. feeBps overrides the configured fee when not nil.
func (r *EscrowRouter) CalculateOrderFee(size, price float64, feeBps *int64) *big.Int {
	bps := r.config.FeeBps
	if feeBps != nil {
		bps = *feeBps
	}
	return escrow.CalculateFee(escrow.CalculateOrderSize(size, price), bps)
}

// placement carries the values the steps of one placement derive.
type placement struct {
	p     PlaceOrderParams
	creds *Credentials
	log   log.FieldLogger
	state State

	signer        escrow.TypedDataSigner
	side          escrow.Side
	walletType    WalletType
	orderType     string
	feeBps        int64
	affiliate     common.Address
	signerAddress common.Address
	payer         common.Address
	orderSize     *big.Int
	fee           *big.Int
	orderID       string
	feeAuth       escrow.SignedFeeAuthorization
	order         message.SignedOrder
}

func (pl *placement) advance(s State) {
	pl.state = s
	pl.log.WithField("state", s).Debug("placement advanced")
}

// PlaceOrder places an order with a fee authorization. creds overrides the
// credentials linked for p.UserID. With p.SkipEscrow set the order is
// placed by the base service instead.
//
// Nothing is sent to the API before the fee authorization and the order are
// signed; the order is then submitted exactly once.
func (r *EscrowRouter) PlaceOrder(ctx context.Context, p PlaceOrderParams, creds *Credentials) (res Result, err error) {
	start := r.now()
	pl := &placement{
		p:     p,
		creds: creds,
		log:   r.log.WithField("user", p.UserID),
		state: StateInit,
	}
	defer func() {
		final := TerminalState(err)
		r.metrics.observe(final, !p.SkipEscrow, r.now().Sub(start).Seconds())
		entry := pl.log.WithField("state", final)
		if err != nil {
			entry.WithError(err).Warnf("placement failed after %s", pl.state)
			return
		}
		entry.Info("order placed")
	}()

	if p.SkipEscrow {
		return r.placeWithoutEscrow(ctx, pl)
	}

	if err = r.validate(pl); err != nil {
		return nil, err
	}
	if err = r.identify(ctx, pl); err != nil {
		return nil, err
	}
	if err = r.authorize(ctx, pl); err != nil {
		return nil, err
	}
	if err = r.signOrder(ctx, pl); err != nil {
		return nil, err
	}
	return r.submit(ctx, pl)
}

func (r *EscrowRouter) placeWithoutEscrow(ctx context.Context, pl *placement) (Result, error) {
	signer, err := r.resolveSigner(pl.p)
	if err != nil {
		return nil, err
	}
	creds, err := r.resolveCredentials(pl.p.UserID, pl.creds)
	if err != nil {
		return nil, err
	}
	p := pl.p
	p.Signer = signer
	if p.WalletType == WalletSafe && p.FunderAddress == "" {
		if funder, ok := r.users.Funder(p.UserID); ok {
			p.FunderAddress = funder.Hex()
		}
	}
	pl.log.Debug("placing order without escrow")
	return r.base.PlaceOrder(ctx, p, creds)
}

func (r *EscrowRouter) resolveSigner(p PlaceOrderParams) (escrow.TypedDataSigner, error) {
	if p.Signer != nil {
		return p.Signer, nil
	}
	if p.WalletID == "" || p.WalletAddress == "" {
		return nil, errors.Wrap(escrow.ErrValidation, "either provide a signer or wallet id and wallet address")
	}
	if r.signers == nil {
		return nil, errors.Wrap(escrow.ErrConfiguration, "no signer provider for hosted wallets")
	}
	signer, err := r.signers(p.WalletID, p.WalletAddress)
	if err != nil {
		return nil, errors.WithMessagef(err, "signer of wallet %s", p.WalletID)
	}
	return signer, nil
}

func (r *EscrowRouter) resolveCredentials(userID string, creds *Credentials) (*Credentials, error) {
	if creds != nil {
		return creds, nil
	}
	if c, ok := r.users.Credentials(userID); ok {
		return c, nil
	}
	return nil, errors.Wrapf(escrow.ErrConfiguration, "no credentials found for user %s, link the user first", userID)
}

func (r *EscrowRouter) validate(pl *placement) (err error) {
	p := pl.p
	if r.apiKey == "" {
		return errors.Wrap(escrow.ErrConfiguration, "Dome API key not set")
	}
	if pl.signer, err = r.resolveSigner(p); err != nil {
		return err
	}
	if pl.creds, err = r.resolveCredentials(p.UserID, pl.creds); err != nil {
		return err
	}

	if p.MarketID == "" {
		return errors.Wrap(escrow.ErrValidation, "missing market id")
	}
	if pl.side, err = escrow.ParseSide(p.Side); err != nil {
		return err
	}
	if math.IsNaN(p.Size) || math.IsInf(p.Size, 0) || p.Size <= 0 {
		return errors.Wrapf(escrow.ErrValidation, "size must be positive, got %v", p.Size)
	}
	if math.IsNaN(p.Price) || p.Price < 0 || p.Price > 1 {
		return errors.Wrapf(escrow.ErrValidation, "price must be between 0 and 1, got %v", p.Price)
	}
	if pl.walletType, err = ParseWalletType(string(p.WalletType)); err != nil {
		return err
	}

	pl.feeBps = r.config.FeeBps
	if p.FeeBps != nil {
		pl.feeBps = *p.FeeBps
	}
	if pl.feeBps < 0 || pl.feeBps > escrow.BasisPointsDenominator {
		return errors.Wrapf(escrow.ErrValidation, "fee of %d bps out of range", pl.feeBps)
	}

	pl.affiliate = r.config.Affiliate
	if p.Affiliate != "" {
		if !escrow.IsAddress(p.Affiliate) {
			return errors.Wrapf(escrow.ErrValidation, "invalid affiliate address %q", p.Affiliate)
		}
		pl.affiliate = common.HexToAddress(p.Affiliate)
	}

	pl.orderType = p.OrderType
	if pl.orderType == "" {
		pl.orderType = message.DefaultOrderType
	}

	pl.advance(StateValidated)
	return nil
}

func (r *EscrowRouter) identify(ctx context.Context, pl *placement) (err error) {
	p := pl.p
	if pl.signerAddress, err = pl.signer.Address(ctx); err != nil {
		return errors.Wrapf(escrow.ErrSigning, "signer address: %v", err)
	}

	switch pl.walletType {
	case WalletSafe:
		switch {
		case p.FunderAddress != "":
			if !escrow.IsAddress(p.FunderAddress) {
				return errors.Wrapf(escrow.ErrValidation, "invalid funder address %q", p.FunderAddress)
			}
			pl.payer = common.HexToAddress(p.FunderAddress)
		default:
			funder, ok := r.users.Funder(p.UserID)
			if !ok {
				return errors.Wrap(escrow.ErrConfiguration, "funder address is required for Safe wallet orders")
			}
			pl.payer = funder
		}
	default:
		pl.payer = pl.signerAddress
	}

	pl.orderSize = escrow.CalculateOrderSize(p.Size, p.Price)
	pl.fee = escrow.CalculateFee(pl.orderSize, pl.feeBps)

	pl.orderID, err = escrow.GenerateOrderID(escrow.OrderParams{
		UserAddress: pl.payer.Hex(),
		MarketID:    p.MarketID,
		Side:        pl.side,
		Size:        pl.orderSize,
		Price:       p.Price,
		Timestamp:   r.now().UnixMilli(),
		ChainID:     r.config.ChainID,
	})
	if err != nil {
		return err
	}
	pl.log = pl.log.WithField("orderId", pl.orderID)
	pl.advance(StateIdentifierGenerated)
	return nil
}

func (r *EscrowRouter) authorize(ctx context.Context, pl *placement) error {
	auth, err := escrow.NewFeeAuthorizationAt(r.now(), pl.orderID, pl.payer.Hex(), pl.fee, r.config.DeadlineSeconds)
	if err != nil {
		return err
	}
	domain, err := escrow.NewDomain(r.config.EscrowAddress.Hex(), r.config.ChainID)
	if err != nil {
		return err
	}
	if pl.feeAuth, err = escrow.SignWithSigner(ctx, pl.signer, domain, auth); err != nil {
		return err
	}
	pl.advance(StateAuthorizationSigned)
	return nil
}

func (r *EscrowRouter) signOrder(ctx context.Context, pl *placement) (err error) {
	pl.order, err = r.base.CreateAndSignOrder(ctx, OrderRequest{
		Signer:        pl.signer,
		SignerAddress: pl.signerAddress,
		FunderAddress: pl.payer,
		TokenID:       pl.p.MarketID,
		Side:          pl.side,
		Size:          pl.p.Size,
		Price:         pl.p.Price,
		SignatureType: pl.walletType.SignatureType(),
		NegRisk:       pl.p.NegRisk,
	})
	if err != nil {
		return errors.WithMessage(err, "signing order")
	}
	pl.advance(StateBaseOrderSigned)
	return nil
}

func (r *EscrowRouter) submit(ctx context.Context, pl *placement) (Result, error) {
	clientOrderID := r.clientOrderID()
	pl.log = pl.log.WithField("clientOrderId", clientOrderID)

	params := message.PlaceOrderParams{
		PayerAddress:  pl.payer.Hex(),
		SignerAddress: pl.signerAddress.Hex(),
		SignedOrder:   pl.order,
		OrderType:     pl.orderType,
		Credentials:   *pl.creds,
		ClientOrderID: clientOrderID,
		FeeAuth:       message.NewFeeAuth(pl.feeAuth),
	}
	if pl.affiliate != (common.Address{}) {
		params.Affiliate = pl.affiliate.Hex()
	}
	body, err := json.Marshal(message.NewPlaceOrderRequest(params))
	if err != nil {
		return nil, errors.Wrap(err, "encoding order request")
	}

	pl.advance(StateSubmitted)
	status, respBody, err := r.transport.Post(ctx, PlaceOrderPath, r.apiKey, body)
	if err != nil {
		if errors.Is(err, escrow.ErrTransport) {
			return nil, err
		}
		return nil, errors.Wrapf(escrow.ErrTransport, "submitting order: %v", err)
	}

	res, err := ParseResponse(status, respBody)
	if err != nil {
		return nil, err
	}
	fee, _ := new(big.Float).SetInt(pl.fee).Float64()
	r.metrics.addFee(fee)
	return res, nil
}
