package message

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

type (
	// Message is the interface for all messages that can be sent over the
	// websocket connection.
	Message interface{ messageType() string }
	// JSONObject is a wrapper for a Message that includes the message type.
	JSONObject struct {
		Message
	}

	// Request is the wrapper for a message that expects a Response with the
	// same ID.
	Request struct {
		ID      uint64      `json:"id"`
		Message *JSONObject `json:"message"`
	}

	// Response answers the Request with the same ID.
	Response struct {
		ID      uint64      `json:"id"`
		Message *JSONObject `json:"message"`
	}

	// Initialize is the first message of a wallet. It names the address the
	// wallet signs for.
	//
	// This is the only message sent by the wallet that is not wrapped in a
	// Request or Response.
	Initialize struct {
		Address common.Address `json:"address"`
	}

	// Initialized is sent to the wallet once its session is ready.
	Initialized struct {
		Address   common.Address `json:"address"`
		SessionID string         `json:"sessionId"`
	}

	// LinkUser stores API credentials, and optionally the Safe funder
	// address, for a user id.
	LinkUser struct {
		UserID        string      `json:"userId"`
		Credentials   Credentials `json:"credentials"`
		FunderAddress string      `json:"funderAddress,omitempty"`
	}

	// PlaceOrder asks the gateway to place an order signed by the wallet of
	// the session.
	PlaceOrder struct {
		UserID        string       `json:"userId"`
		MarketID      string       `json:"marketId"`
		Side          string       `json:"side"`
		Size          float64      `json:"size"`
		Price         float64      `json:"price"`
		WalletType    string       `json:"walletType,omitempty"`
		FunderAddress string       `json:"funderAddress,omitempty"`
		OrderType     string       `json:"orderType,omitempty"`
		NegRisk       bool         `json:"negRisk,omitempty"`
		FeeBps        *int64       `json:"feeBps,omitempty"`
		Affiliate     string       `json:"affiliate,omitempty"`
		SkipEscrow    bool         `json:"skipEscrow,omitempty"`
		Credentials   *Credentials `json:"credentials,omitempty"`

		// WalletID and WalletAddress select the signing wallet by session
		// instead of the wallet that sent the request.
		WalletID      string `json:"walletId,omitempty"`
		WalletAddress string `json:"walletAddress,omitempty"`
	}

	// PlaceOrderResponse carries the result object returned by the server.
	PlaceOrderResponse struct {
		Result json.RawMessage `json:"result"`
	}

	// GetEscrowConfig queries the escrow settings of the gateway.
	GetEscrowConfig struct{}

	// EscrowConfigResponse is the response to GetEscrowConfig.
	EscrowConfigResponse struct {
		FeeBps          int64          `json:"feeBps"`
		EscrowAddress   common.Address `json:"escrowAddress"`
		ChainID         int64          `json:"chainId"`
		Affiliate       common.Address `json:"affiliate"`
		DeadlineSeconds int64          `json:"deadlineSeconds"`
	}

	// GetOrderFee previews the escrow fee of an order.
	GetOrderFee struct {
		Size   float64 `json:"size"`
		Price  float64 `json:"price"`
		FeeBps *int64  `json:"feeBps,omitempty"`
	}

	// OrderFeeResponse is the response to GetOrderFee. Fee is in USDC base
	// units.
	OrderFeeResponse struct {
		Fee       Amount `json:"fee"`
		Formatted string `json:"formatted"`
	}

	// SignTypedData is sent to the wallet to request an EIP-712 signature.
	SignTypedData struct {
		Address   common.Address     `json:"address"`
		TypedData apitypes.TypedData `json:"typedData"`
	}

	// SignResponse is sent by the wallet to respond to a SignTypedData
	// request.
	SignResponse struct {
		Signature hexutil.Bytes `json:"signature"`
	}

	// Success is sent in a Response to signal success of a Request.
	Success struct{}

	// Error is sent as a response to notify the other side about an error.
	// Kind names the error class, e.g. "validation" or "rejected".
	Error struct {
		Err  string `json:"error"`
		Kind string `json:"kind,omitempty"`
	}
)

func (*Request) messageType() string              { return "Request" }
func (*Response) messageType() string             { return "Response" }
func (*Initialize) messageType() string           { return "Initialize" }
func (*Initialized) messageType() string          { return "Initialized" }
func (*LinkUser) messageType() string             { return "LinkUser" }
func (*PlaceOrder) messageType() string           { return "PlaceOrder" }
func (*PlaceOrderResponse) messageType() string   { return "PlaceOrderResponse" }
func (*GetEscrowConfig) messageType() string      { return "GetEscrowConfig" }
func (*EscrowConfigResponse) messageType() string { return "EscrowConfigResponse" }
func (*GetOrderFee) messageType() string          { return "GetOrderFee" }
func (*OrderFeeResponse) messageType() string     { return "OrderFeeResponse" }
func (*SignTypedData) messageType() string        { return "SignTypedData" }
func (*SignResponse) messageType() string         { return "SignResponse" }
func (*Success) messageType() string              { return "Success" }
func (*Error) messageType() string                { return "Error" }

// NewRequest creates a new Request with the given ID and Message.
func NewRequest(id uint64, msg Message) *Request {
	return &Request{
		ID:      id,
		Message: &JSONObject{Message: msg},
	}
}

// NewResponse creates a new Response with the given ID and Message.
func NewResponse(id uint64, msg Message) *Response {
	return &Response{
		ID:      id,
		Message: &JSONObject{msg},
	}
}

// NewError creates a new Error with the given error.
func NewError(err error) *Error {
	return &Error{Err: err.Error()}
}

func (e *Error) Error() string {
	if e.Kind == "" {
		return e.Err
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}
