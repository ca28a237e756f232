package clob

import (
	"context"
	"encoding/json"
	"math/big"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
	"github.com/domeapi/dome-escrow-router/internal/router"
)

var _ router.BaseOrderService = (*Service)(nil)

// Config is the exchange section of the configuration. Zero values select
// the Polygon deployment.
type Config struct {
	ChainID                int64          `mapstructure:"chainId"`
	ExchangeAddress        common.Address `mapstructure:"exchangeAddress"`
	NegRiskExchangeAddress common.Address `mapstructure:"negRiskExchangeAddress"`
	FeeRateBps             int64          `mapstructure:"feeRateBps"`
}

// Service builds and signs exchange orders and places orders without fee
// escrow.
type Service struct {
	apiKey    string
	cfg       Config
	transport router.Transport
	salt      func() uint64
	log       log.FieldLogger
}

// NewService creates a service that submits through transport.
func NewService(apiKey string, cfg Config, transport router.Transport, logger log.FieldLogger) *Service {
	if cfg.ChainID == 0 {
		cfg.ChainID = escrow.DefaultChainID
	}
	if cfg.ExchangeAddress == (common.Address{}) {
		cfg.ExchangeAddress = common.HexToAddress(ExchangePolygon)
	}
	if cfg.NegRiskExchangeAddress == (common.Address{}) {
		cfg.NegRiskExchangeAddress = common.HexToAddress(NegRiskExchangePolygon)
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Service{
		apiKey:    apiKey,
		cfg:       cfg,
		transport: transport,
		salt:      randomSalt,
		log:       logger.WithField("component", "clob"),
	}
}

// Exchange returns the exchange that settles orders of negRisk markets or of
// regular ones.
func (s *Service) Exchange(negRisk bool) common.Address {
	if negRisk {
		return s.cfg.NegRiskExchangeAddress
	}
	return s.cfg.ExchangeAddress
}

// ChainID returns the chain of the exchange.
func (s *Service) ChainID() int64 {
	return s.cfg.ChainID
}

// CreateAndSignOrder builds an open order without expiration and signs it
// with req.Signer.
func (s *Service) CreateAndSignOrder(ctx context.Context, req router.OrderRequest) (message.SignedOrder, error) {
	if req.Signer == nil {
		return message.SignedOrder{}, errors.Wrap(escrow.ErrValidation, "missing signer")
	}
	if _, ok := new(big.Int).SetString(req.TokenID, 10); !ok {
		return message.SignedOrder{}, errors.Wrapf(escrow.ErrValidation, "invalid token id %q", req.TokenID)
	}
	if !(req.Size > 0) {
		return message.SignedOrder{}, errors.Wrapf(escrow.ErrValidation, "size must be positive, got %v", req.Size)
	}
	if !(req.Price >= 0 && req.Price <= 1) {
		return message.SignedOrder{}, errors.Wrapf(escrow.ErrValidation, "price must be between 0 and 1, got %v", req.Price)
	}

	maker, taker := Amounts(req.Side, req.Size, req.Price)
	order := message.SignedOrder{
		Salt:          s.salt(),
		Maker:         req.FunderAddress.Hex(),
		Signer:        req.SignerAddress.Hex(),
		Taker:         escrow.ZeroAddress,
		TokenID:       req.TokenID,
		MakerAmount:   maker.String(),
		TakerAmount:   taker.String(),
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    strconv.FormatInt(s.cfg.FeeRateBps, 10),
		Side:          exchangeSide(req.Side),
		SignatureType: req.SignatureType,
	}

	data, err := OrderTypedData(order, s.cfg.ChainID, s.Exchange(req.NegRisk))
	if err != nil {
		return message.SignedOrder{}, err
	}
	sig, err := req.Signer.SignTypedData(ctx, data)
	if err != nil {
		return message.SignedOrder{}, errors.Wrapf(escrow.ErrSigning, "signing order: %v", err)
	}
	order.Signature = hexutil.Encode(sig)

	s.log.WithFields(log.Fields{
		"tokenId": order.TokenID,
		"side":    order.Side,
		"maker":   order.Maker,
	}).Debug("order signed")
	return order, nil
}

// PlaceOrder places p without fee authorization.
func (s *Service) PlaceOrder(ctx context.Context, p router.PlaceOrderParams, creds *router.Credentials) (router.Result, error) {
	if s.apiKey == "" {
		return nil, errors.Wrap(escrow.ErrConfiguration, "Dome API key not set")
	}
	if p.Signer == nil {
		return nil, errors.Wrap(escrow.ErrValidation, "missing signer")
	}
	if creds == nil {
		return nil, errors.Wrapf(escrow.ErrConfiguration, "no credentials found for user %s", p.UserID)
	}
	side, err := escrow.ParseSide(p.Side)
	if err != nil {
		return nil, err
	}
	walletType, err := router.ParseWalletType(string(p.WalletType))
	if err != nil {
		return nil, err
	}

	signerAddress, err := p.Signer.Address(ctx)
	if err != nil {
		return nil, errors.Wrapf(escrow.ErrSigning, "signer address: %v", err)
	}
	funder := signerAddress
	if walletType == router.WalletSafe {
		if p.FunderAddress == "" {
			return nil, errors.Wrap(escrow.ErrConfiguration, "funder address is required for Safe wallet orders")
		}
		if !escrow.IsAddress(p.FunderAddress) {
			return nil, errors.Wrapf(escrow.ErrValidation, "invalid funder address %q", p.FunderAddress)
		}
		funder = common.HexToAddress(p.FunderAddress)
	}

	order, err := s.CreateAndSignOrder(ctx, router.OrderRequest{
		Signer:        p.Signer,
		SignerAddress: signerAddress,
		FunderAddress: funder,
		TokenID:       p.MarketID,
		Side:          side,
		Size:          p.Size,
		Price:         p.Price,
		SignatureType: walletType.SignatureType(),
		NegRisk:       p.NegRisk,
	})
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(message.NewPlaceOrderRequest(message.PlaceOrderParams{
		SignerAddress: signerAddress.Hex(),
		SignedOrder:   order,
		OrderType:     p.OrderType,
		Credentials:   *creds,
		ClientOrderID: uuid.NewString(),
	}))
	if err != nil {
		return nil, errors.Wrap(err, "encoding order request")
	}

	status, respBody, err := s.transport.Post(ctx, router.PlaceOrderPath, s.apiKey, body)
	if err != nil {
		if errors.Is(err, escrow.ErrTransport) {
			return nil, err
		}
		return nil, errors.Wrapf(escrow.ErrTransport, "submitting order: %v", err)
	}
	return router.ParseResponse(status, respBody)
}

// randomSalt scales the current unix time by a random factor.
func randomSalt() uint64 {
	return uint64(float64(time.Now().Unix()) * rand.Float64())
}
