package message_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
)

func testSignedOrder() message.SignedOrder {
	return message.SignedOrder{
		Salt:          12345,
		Maker:         "0x1111111111111111111111111111111111111111",
		Signer:        "0x1111111111111111111111111111111111111111",
		Taker:         escrow.ZeroAddress,
		TokenID:       "12345",
		MakerAmount:   "6500000",
		TakerAmount:   "10000000",
		Expiration:    "0",
		Nonce:         "0",
		FeeRateBps:    "0",
		Side:          "BUY",
		SignatureType: 0,
		Signature:     "0xdead",
	}
}

func TestPlaceOrderRequestWireShape(t *testing.T) {
	signed := escrow.SignedFeeAuthorization{
		FeeAuthorization: escrow.FeeAuthorization{
			OrderID:   "0x" + "ab",
			Payer:     "0x1111111111111111111111111111111111111111",
			FeeAmount: big.NewInt(2500),
			Deadline:  1700003600,
		},
		Signature: "0xbeef",
	}
	req := message.NewPlaceOrderRequest(message.PlaceOrderParams{
		PayerAddress:  signed.Payer,
		SignerAddress: signed.Payer,
		SignedOrder:   testSignedOrder(),
		Credentials:   message.Credentials{APIKey: "k", APISecret: "s", APIPassphrase: "p"},
		ClientOrderID: "client-1",
		FeeAuth:       message.NewFeeAuth(signed),
		Affiliate:     "0x2222222222222222222222222222222222222222",
	})

	b, err := json.Marshal(req)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"jsonrpc": "2.0",
		"method": "placeOrder",
		"id": "client-1",
		"params": {
			"payerAddress": "0x1111111111111111111111111111111111111111",
			"signerAddress": "0x1111111111111111111111111111111111111111",
			"signedOrder": {
				"salt": 12345,
				"maker": "0x1111111111111111111111111111111111111111",
				"signer": "0x1111111111111111111111111111111111111111",
				"taker": "0x0000000000000000000000000000000000000000",
				"tokenId": "12345",
				"makerAmount": "6500000",
				"takerAmount": "10000000",
				"expiration": "0",
				"nonce": "0",
				"feeRateBps": "0",
				"side": "BUY",
				"signatureType": 0,
				"signature": "0xdead"
			},
			"orderType": "GTC",
			"credentials": {"apiKey": "k", "apiSecret": "s", "apiPassphrase": "p"},
			"clientOrderId": "client-1",
			"feeAuth": {
				"orderId": "0xab",
				"payer": "0x1111111111111111111111111111111111111111",
				"feeAmount": "2500",
				"deadline": 1700003600,
				"signature": "0xbeef"
			},
			"affiliate": "0x2222222222222222222222222222222222222222"
		}
	}`, string(b))
}

func TestPlaceOrderRequestWithoutEscrow(t *testing.T) {
	req := message.NewPlaceOrderRequest(message.PlaceOrderParams{
		SignerAddress: "0x1111111111111111111111111111111111111111",
		SignedOrder:   testSignedOrder(),
		OrderType:     "FOK",
		ClientOrderID: "client-2",
	})

	b, err := json.Marshal(req)
	require.NoError(t, err)

	var raw struct {
		Params map[string]json.RawMessage `json:"params"`
	}
	require.NoError(t, json.Unmarshal(b, &raw))
	require.NotContains(t, raw.Params, "feeAuth")
	require.NotContains(t, raw.Params, "affiliate")
	require.NotContains(t, raw.Params, "payerAddress")
	require.JSONEq(t, `"FOK"`, string(raw.Params["orderType"]))
}

func TestRPCError(t *testing.T) {
	tests := []struct {
		body       string
		wantReason string
		wantCode   string
	}{
		{`{"message":"declined","code":4001,"data":{"reason":"insufficient balance"}}`, "insufficient balance", "4001"},
		{`{"message":"declined","code":"ORDER_REJECTED"}`, "declined", "ORDER_REJECTED"},
		{`{"message":"declined"}`, "declined", ""},
	}

	for _, tt := range tests {
		var e message.RPCError
		require.NoError(t, json.Unmarshal([]byte(tt.body), &e))
		require.Equal(t, tt.wantReason, e.Reason())
		require.Equal(t, tt.wantCode, e.CodeString())
	}
}
