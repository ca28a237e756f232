package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/transport"
)

func newTransport(url string) *transport.HTTP {
	return transport.NewHTTP(transport.Config{
		Endpoint:        url + "/",
		Timeout:         5 * time.Second,
		RateLimit:       -1,
		BreakerFailures: 2,
		BreakerTimeout:  time.Minute,
	}, nil)
}

func TestPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/polymarket/placeOrder", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
		b, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"hello":"world"}`, string(b))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"result":{"ok":true}}`))
	}))
	defer srv.Close()

	status, body, err := newTransport(srv.URL).Post(context.Background(), "/polymarket/placeOrder", "key-1", []byte(`{"hello":"world"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `{"result":{"ok":true}}`, string(body))
}

func TestPostReturnsErrorStatuses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad order"}`))
	}))
	defer srv.Close()

	status, body, err := newTransport(srv.URL).Post(context.Background(), "/x", "k", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, `{"error":"bad order"}`, string(body))
}

func TestPostNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, _, err := newTransport(url).Post(context.Background(), "/x", "k", nil)
	require.ErrorIs(t, err, escrow.ErrTransport)
}

func TestPostCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newTransport("http://127.0.0.1:1").Post(ctx, "/x", "k", nil)
	require.ErrorIs(t, err, escrow.ErrTransport)
}

func TestPostCircuitBreakerOpens(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := newTransport(srv.URL)
	for i := 0; i < 2; i++ {
		status, _, err := tr.Post(context.Background(), "/x", "k", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadGateway, status)
	}

	_, _, err := tr.Post(context.Background(), "/x", "k", nil)
	require.ErrorIs(t, err, escrow.ErrTransport)
	require.Contains(t, err.Error(), "circuit breaker is open")
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
