package message

import (
	"encoding/json"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
)

const (
	// JSONRPCVersion is the protocol version of every placement request.
	JSONRPCVersion = "2.0"
	// MethodPlaceOrder is the JSON-RPC method of order placements.
	MethodPlaceOrder = "placeOrder"
	// DefaultOrderType is used when an order names no type.
	DefaultOrderType = "GTC"
)

type (
	// Credentials are the venue API credentials of a user.
	Credentials struct {
		APIKey        string `json:"apiKey"`
		APISecret     string `json:"apiSecret"`
		APIPassphrase string `json:"apiPassphrase"`
	}

	// SignedOrder is a CTF exchange order together with its EIP-712
	// signature, in the form the venue expects it.
	SignedOrder struct {
		Salt          uint64 `json:"salt"`
		Maker         string `json:"maker"`
		Signer        string `json:"signer"`
		Taker         string `json:"taker"`
		TokenID       string `json:"tokenId"`
		MakerAmount   string `json:"makerAmount"`
		TakerAmount   string `json:"takerAmount"`
		Expiration    string `json:"expiration"`
		Nonce         string `json:"nonce"`
		FeeRateBps    string `json:"feeRateBps"`
		Side          string `json:"side"` // "BUY" or "SELL"
		SignatureType int    `json:"signatureType"`
		Signature     string `json:"signature"`
	}

	// FeeAuth is the wire form of a signed fee authorization. The fee amount
	// is a decimal string, the deadline a number.
	FeeAuth struct {
		OrderID   string `json:"orderId"`
		Payer     string `json:"payer"`
		FeeAmount string `json:"feeAmount"`
		Deadline  int64  `json:"deadline"`
		Signature string `json:"signature"`
	}

	// PlaceOrderParams are the params of a placeOrder call. Requests without
	// escrow leave PayerAddress, FeeAuth and Affiliate empty.
	PlaceOrderParams struct {
		PayerAddress  string      `json:"payerAddress,omitempty"`
		SignerAddress string      `json:"signerAddress"`
		SignedOrder   SignedOrder `json:"signedOrder"`
		OrderType     string      `json:"orderType"`
		Credentials   Credentials `json:"credentials"`
		ClientOrderID string      `json:"clientOrderId"`
		FeeAuth       *FeeAuth    `json:"feeAuth,omitempty"`
		Affiliate     string      `json:"affiliate,omitempty"`
	}

	// PlaceOrderRequest is the JSON-RPC envelope posted to the order
	// endpoint.
	PlaceOrderRequest struct {
		JSONRPC string           `json:"jsonrpc"`
		Method  string           `json:"method"`
		ID      string           `json:"id"`
		Params  PlaceOrderParams `json:"params"`
	}

	// RPCResponse is the envelope returned by the order endpoint. Error is
	// either a string or an RPCError object.
	RPCResponse struct {
		Result json.RawMessage `json:"result,omitempty"`
		Error  json.RawMessage `json:"error,omitempty"`
	}

	// RPCError is the structured error returned when an order is declined.
	RPCError struct {
		Message string          `json:"message"`
		Code    json.RawMessage `json:"code,omitempty"`
		Data    *struct {
			Reason string `json:"reason"`
		} `json:"data,omitempty"`
	}
)

// NewPlaceOrderRequest wraps params in a placeOrder call whose id is the
// client order id.
func NewPlaceOrderRequest(params PlaceOrderParams) *PlaceOrderRequest {
	if params.OrderType == "" {
		params.OrderType = DefaultOrderType
	}
	return &PlaceOrderRequest{
		JSONRPC: JSONRPCVersion,
		Method:  MethodPlaceOrder,
		ID:      params.ClientOrderID,
		Params:  params,
	}
}

// NewFeeAuth converts a signed fee authorization into its wire form.
func NewFeeAuth(signed escrow.SignedFeeAuthorization) *FeeAuth {
	fee := "0"
	if signed.FeeAmount != nil {
		fee = signed.FeeAmount.String()
	}
	return &FeeAuth{
		OrderID:   signed.OrderID,
		Payer:     signed.Payer,
		FeeAmount: fee,
		Deadline:  signed.Deadline,
		Signature: signed.Signature,
	}
}

// Reason returns the most specific explanation carried by the error.
func (e *RPCError) Reason() string {
	if e.Data != nil && e.Data.Reason != "" {
		return e.Data.Reason
	}
	return e.Message
}

// CodeString returns the error code as text, whether it was sent as a
// number or a string.
func (e *RPCError) CodeString() string {
	if len(e.Code) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Code, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(e.Code, &n); err == nil {
		return n.String()
	}
	return string(e.Code)
}
