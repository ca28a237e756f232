package websocket_test

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/domeapi/dome-escrow-router/internal/clob"
	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/message"
	"github.com/domeapi/dome-escrow-router/internal/router"
	"github.com/domeapi/dome-escrow-router/internal/websocket"
)

// fakeAPI records the bodies posted to the order endpoint.
type fakeAPI struct {
	mu     sync.Mutex
	bodies [][]byte
	reply  []byte
}

func (f *fakeAPI) Post(_ context.Context, _, _ string, body []byte) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, body)
	return http.StatusOK, f.reply, nil
}

func (f *fakeAPI) last(t *testing.T) message.PlaceOrderRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.bodies)
	var req message.PlaceOrderRequest
	require.NoError(t, json.Unmarshal(f.bodies[len(f.bodies)-1], &req))
	return req
}

type gateway struct {
	url      string
	sessions *websocket.Registry
	api      *fakeAPI
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	api := &fakeAPI{reply: []byte(`{"result":{"orderId":"venue-1","status":200}}`)}
	sessions := websocket.NewRegistry()
	base := clob.NewService("dome-key", clob.Config{}, api, nil)
	r, err := router.NewEscrowRouter("dome-key", router.EscrowConfig{}, base, api,
		router.WithSignerProvider(sessions.Signer))
	require.NoError(t, err)

	srv := httptest.NewServer(websocket.NewNode(r, sessions, nil).Handler())
	t.Cleanup(srv.Close)
	return &gateway{
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/connect",
		sessions: sessions,
		api:      api,
	}
}

// walletClient answers signature requests with its key.
type walletClient struct {
	conn    *message.Connection
	key     *ecdsa.PrivateKey
	addr    common.Address
	session string
}

func (w *walletClient) HandleRequest(req message.Request) {
	var resp message.Message
	switch msg := req.Message.Message.(type) {
	case *message.SignTypedData:
		if msg.Address != w.addr {
			resp = &message.Error{Err: "unknown account"}
			break
		}
		sig, err := escrow.SignTypedData(w.key, msg.TypedData)
		if err != nil {
			resp = message.NewError(err)
			break
		}
		resp = &message.SignResponse{Signature: sig}
	default:
		resp = &message.Error{Err: "unexpected request"}
	}
	_ = w.conn.Write(message.NewResponse(req.ID, resp))
}

func (w *walletClient) request(t *testing.T, msg message.Message) message.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	resp, err := w.conn.Request(ctx, msg)
	require.NoError(t, err)
	return resp
}

func dial(t *testing.T, url string) *message.Connection {
	t.Helper()
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return message.NewConnection(conn)
}

func (g *gateway) connect(t *testing.T) *walletClient {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := &walletClient{
		conn: dial(t, g.url),
		key:  key,
		addr: crypto.PubkeyToAddress(key.PublicKey),
	}
	require.NoError(t, w.conn.Write(&message.Initialize{Address: w.addr}))
	msg, err := w.conn.Read()
	require.NoError(t, err)
	initialized, ok := msg.(*message.Initialized)
	require.True(t, ok, "got %T", msg)
	require.Equal(t, w.addr, initialized.Address)
	require.NotEmpty(t, initialized.SessionID)
	w.session = initialized.SessionID

	go func() { _ = w.conn.Handle(w) }()
	t.Cleanup(func() { _ = w.conn.Close() })
	return w
}

var testCreds = message.Credentials{APIKey: "k", APISecret: "s", APIPassphrase: "p"}

func verifyFeeAuth(t *testing.T, req message.PlaceOrderRequest, signer common.Address) {
	t.Helper()
	auth := req.Params.FeeAuth
	require.NotNil(t, auth)
	require.Equal(t, signer.Hex(), auth.Payer)
	fee, ok := new(big.Int).SetString(auth.FeeAmount, 10)
	require.True(t, ok)
	signed := escrow.SignedFeeAuthorization{
		FeeAuthorization: escrow.FeeAuthorization{
			OrderID:   auth.OrderID,
			Payer:     auth.Payer,
			FeeAmount: fee,
			Deadline:  auth.Deadline,
		},
		Signature: auth.Signature,
	}
	require.True(t, escrow.VerifySignature(signed, escrow.EscrowContractPolygon, escrow.DefaultChainID, signer.Hex()))
}

func TestPlaceOrderSignedByWallet(t *testing.T) {
	g := newGateway(t)
	w := g.connect(t)

	resp := w.request(t, &message.LinkUser{UserID: "user-1", Credentials: testCreds})
	require.IsType(t, &message.Success{}, resp)

	resp = w.request(t, &message.PlaceOrder{
		UserID:   "user-1",
		MarketID: "12345",
		Side:     "buy",
		Size:     10,
		Price:    0.65,
	})
	placed, ok := resp.(*message.PlaceOrderResponse)
	require.True(t, ok, "got %#v", resp)
	require.JSONEq(t, `{"orderId":"venue-1","status":200}`, string(placed.Result))

	req := g.api.last(t)
	require.Equal(t, testCreds, req.Params.Credentials)
	require.Equal(t, "16250", req.Params.FeeAuth.FeeAmount)
	require.Equal(t, w.addr.Hex(), req.Params.SignedOrder.Signer)
	verifyFeeAuth(t, req, w.addr)
}

func TestPlaceOrderWithOtherSession(t *testing.T) {
	g := newGateway(t)
	operator := g.connect(t)
	hosted := g.connect(t)
	require.Equal(t, 2, g.sessions.Len())

	resp := operator.request(t, &message.PlaceOrder{
		UserID:        "user-1",
		MarketID:      "12345",
		Side:          "sell",
		Size:          2,
		Price:         0.5,
		Credentials:   &testCreds,
		WalletID:      hosted.session,
		WalletAddress: hosted.addr.Hex(),
	})
	require.IsType(t, &message.PlaceOrderResponse{}, resp)
	verifyFeeAuth(t, g.api.last(t), hosted.addr)

	resp = operator.request(t, &message.PlaceOrder{
		UserID:        "user-1",
		MarketID:      "12345",
		Side:          "sell",
		Size:          2,
		Price:         0.5,
		Credentials:   &testCreds,
		WalletID:      hosted.session,
		WalletAddress: operator.addr.Hex(),
	})
	errMsg, ok := resp.(*message.Error)
	require.True(t, ok, "got %#v", resp)
	require.Equal(t, "validation", errMsg.Kind)
}

func TestRequestErrors(t *testing.T) {
	g := newGateway(t)
	w := g.connect(t)
	tooHigh := int64(10001)

	tests := []struct {
		name string
		msg  message.Message
		kind string
	}{
		{"not_linked", &message.PlaceOrder{UserID: "nobody", MarketID: "1", Side: "buy", Size: 1, Price: 0.5}, "configuration"},
		{"invalid_side", &message.PlaceOrder{UserID: "u", MarketID: "1", Side: "hold", Size: 1, Price: 0.5, Credentials: &testCreds}, "validation"},
		{"invalid_funder", &message.LinkUser{UserID: "u", Credentials: testCreds, FunderAddress: "0x12"}, "validation"},
		{"fee_bps", &message.GetOrderFee{Size: 1, Price: 0.5, FeeBps: &tooHigh}, "validation"},
		{"unexpected", &message.Success{}, "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := w.request(t, tt.msg)
			errMsg, ok := resp.(*message.Error)
			require.True(t, ok, "got %#v", resp)
			require.Equal(t, tt.kind, errMsg.Kind)
		})
	}
}

func TestQueries(t *testing.T) {
	g := newGateway(t)
	w := g.connect(t)

	resp := w.request(t, &message.GetEscrowConfig{})
	cfg, ok := resp.(*message.EscrowConfigResponse)
	require.True(t, ok, "got %#v", resp)
	require.Equal(t, int64(escrow.DefaultFeeBps), cfg.FeeBps)
	require.Equal(t, common.HexToAddress(escrow.EscrowContractPolygon), cfg.EscrowAddress)
	require.Equal(t, int64(escrow.DefaultChainID), cfg.ChainID)
	require.Equal(t, common.Address{}, cfg.Affiliate)
	require.Equal(t, int64(escrow.DefaultDeadlineSeconds), cfg.DeadlineSeconds)

	resp = w.request(t, &message.GetOrderFee{Size: 10, Price: 0.65})
	fee, ok := resp.(*message.OrderFeeResponse)
	require.True(t, ok, "got %#v", resp)
	require.Equal(t, int64(16250), fee.Fee.Int64())
	require.Equal(t, "0.01625", fee.Formatted)
}

func TestSessionLifecycle(t *testing.T) {
	g := newGateway(t)
	w := g.connect(t)

	// A second wallet with the same address is turned away.
	dup := dial(t, g.url)
	defer dup.Close()
	require.NoError(t, dup.Write(&message.Initialize{Address: w.addr}))
	msg, err := dup.Read()
	require.NoError(t, err)
	require.IsType(t, &message.Error{}, msg)
	require.Equal(t, 1, g.sessions.Len())

	_, ok := g.sessions.Get(w.session)
	require.True(t, ok)
	_, err = g.sessions.Signer(w.session, w.addr.Hex())
	require.NoError(t, err)
	_, err = g.sessions.Signer("unknown", w.addr.Hex())
	require.ErrorIs(t, err, escrow.ErrValidation)

	require.NoError(t, w.conn.Close())
	require.Eventually(t, func() bool { return g.sessions.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestInitializeRequired(t *testing.T) {
	g := newGateway(t)
	conn := dial(t, g.url)
	defer conn.Close()

	require.NoError(t, conn.Write(&message.GetEscrowConfig{}))
	_, err := conn.Read()
	require.Error(t, err)
	require.Equal(t, 0, g.sessions.Len())
}
