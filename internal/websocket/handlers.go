package websocket

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
	"github.com/domeapi/dome-escrow-router/internal/router"
	"github.com/domeapi/dome-escrow-router/internal/wallet"
)

// requestTimeout bounds a request including the signatures the wallet is
// asked for.
const requestTimeout = 2 * time.Minute

// Session is a connected wallet. Its requests are placed through the shared
// router and signed by the wallet itself.
type Session struct {
	id      string
	addr    common.Address
	conn    *message.Connection
	account *wallet.RemoteAccount
	router  *router.EscrowRouter
	log     log.FieldLogger
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// HandleRequest maps requests to the corresponding handler.
func (s *Session) HandleRequest(req message.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var respMsg message.Message
	switch reqMsg := req.Message.Message.(type) {
	case *message.LinkUser:
		respMsg = s.handleLinkUser(reqMsg)
	case *message.PlaceOrder:
		respMsg = s.handlePlaceOrder(ctx, reqMsg)
	case *message.GetEscrowConfig:
		respMsg = s.handleGetEscrowConfig()
	case *message.GetOrderFee:
		respMsg = s.handleGetOrderFee(reqMsg)
	default:
		respMsg = &message.Error{Err: fmt.Sprintf("unexpected request %T", reqMsg), Kind: "validation"}
	}

	if err := s.conn.Write(message.NewResponse(req.ID, respMsg)); err != nil {
		s.log.WithError(err).Error("sending response")
	}
}

func (s *Session) handleLinkUser(msg *message.LinkUser) message.Message {
	if err := s.router.LinkUser(msg.UserID, msg.Credentials, msg.FunderAddress); err != nil {
		return errorMessage(err)
	}
	return &message.Success{}
}

func (s *Session) handlePlaceOrder(ctx context.Context, msg *message.PlaceOrder) message.Message {
	p := router.PlaceOrderParams{
		UserID:        msg.UserID,
		MarketID:      msg.MarketID,
		Side:          msg.Side,
		Size:          msg.Size,
		Price:         msg.Price,
		WalletID:      msg.WalletID,
		WalletAddress: msg.WalletAddress,
		WalletType:    router.WalletType(msg.WalletType),
		FunderAddress: msg.FunderAddress,
		NegRisk:       msg.NegRisk,
		OrderType:     msg.OrderType,
		FeeBps:        msg.FeeBps,
		Affiliate:     msg.Affiliate,
		SkipEscrow:    msg.SkipEscrow,
	}
	if msg.WalletID == "" {
		p.Signer = s.account
	}

	res, err := s.router.PlaceOrder(ctx, p, msg.Credentials)
	if err != nil {
		return errorMessage(err)
	}
	return &message.PlaceOrderResponse{Result: res}
}

func (s *Session) handleGetEscrowConfig() message.Message {
	cfg := s.router.EscrowConfig()
	return &message.EscrowConfigResponse{
		FeeBps:          cfg.FeeBps,
		EscrowAddress:   cfg.EscrowAddress,
		ChainID:         cfg.ChainID,
		Affiliate:       cfg.Affiliate,
		DeadlineSeconds: cfg.DeadlineSeconds,
	}
}

func (s *Session) handleGetOrderFee(msg *message.GetOrderFee) message.Message {
	if msg.FeeBps != nil && (*msg.FeeBps < 0 || *msg.FeeBps > escrow.BasisPointsDenominator) {
		return errorMessage(errors.Wrapf(escrow.ErrValidation, "fee of %d bps out of range", *msg.FeeBps))
	}
	fee := s.router.CalculateOrderFee(msg.Size, msg.Price, msg.FeeBps)
	return &message.OrderFeeResponse{
		Fee:       message.MakeAmount(fee),
		Formatted: escrow.FormatUSDC(fee),
	}
}

// errorMessage turns err into an Error reply whose kind names the error
// class.
func errorMessage(err error) *message.Error {
	e := message.NewError(err)
	e.Kind = errorKind(err)
	return e
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, escrow.ErrRejected):
		return "rejected"
	case errors.Is(err, escrow.ErrValidation):
		return "validation"
	case errors.Is(err, escrow.ErrConfiguration):
		return "configuration"
	case errors.Is(err, escrow.ErrSigning):
		return "signing"
	case errors.Is(err, escrow.ErrTransport):
		return "transport"
	case errors.Is(err, escrow.ErrProtocol):
		return "protocol"
	default:
		return ""
	}
}
