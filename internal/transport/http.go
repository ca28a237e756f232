package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.uber.org/ratelimit"

	"github.com/domeapi/dome-escrow-router/internal/escrow"
)

const (
	// DefaultEndpoint is the base URL of the Dome API.
	DefaultEndpoint = "https://api.domeapi.io/v1"

	defaultTimeout         = 30 * time.Second
	defaultRateLimit       = 10
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
	maxResponseSize        = 1 << 20
)

// Config configures an HTTP transport. Zero values select defaults; a
// negative RateLimit disables rate limiting.
type Config struct {
	Endpoint        string        `mapstructure:"endpoint"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RateLimit       int           `mapstructure:"rateLimit"`
	BreakerFailures uint32        `mapstructure:"breakerFailures"`
	BreakerTimeout  time.Duration `mapstructure:"breakerTimeout"`
}

// HTTP posts JSON bodies to the API. Requests pass a rate limiter and a
// circuit breaker that opens after consecutive network failures or 5xx
// answers.
type HTTP struct {
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
	limiter  ratelimit.Limiter
	log      log.FieldLogger
}

// errServerStatus marks 5xx answers so that the breaker counts them while
// the caller still receives the body.
var errServerStatus = errors.New("server status")

// NewHTTP creates a transport from cfg.
func NewHTTP(cfg Config, logger log.FieldLogger) *HTTP {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaultBreakerFailures
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = defaultBreakerTimeout
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	logger = logger.WithField("component", "transport")

	limiter := ratelimit.NewUnlimited()
	if cfg.RateLimit > 0 {
		limiter = ratelimit.New(cfg.RateLimit)
	}

	return &HTTP{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		client:   &http.Client{Timeout: cfg.Timeout},
		cb:       newCircuitBreaker(cfg, logger),
		limiter:  limiter,
		log:      logger,
	}
}

type response struct {
	status int
	body   []byte
}

// Post sends body to path with the API key as bearer token. It returns the
// status and body of every answer the server gave; only failures to get an
// answer are errors, and those match escrow.ErrTransport.
func (t *HTTP) Post(ctx context.Context, path, apiKey string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, errors.Wrapf(escrow.ErrTransport, "posting %s: %v", path, err)
	}
	t.limiter.Take()

	res, err := t.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))

		resp, err := t.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, errors.Wrap(err, "reading response")
		}
		r := &response{status: resp.StatusCode, body: b}
		if resp.StatusCode >= http.StatusInternalServerError {
			return r, errServerStatus
		}
		return r, nil
	})
	if errors.Is(err, errServerStatus) {
		r := res.(*response)
		t.log.Warnf("POST %s: server answered %d", path, r.status)
		return r.status, r.body, nil
	}
	if err != nil {
		return 0, nil, errors.Wrapf(escrow.ErrTransport, "posting %s: %v", path, err)
	}
	r := res.(*response)
	return r.status, r.body, nil
}

func newCircuitBreaker(cfg Config, logger log.FieldLogger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "dome-api",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				logger.Warn("api seems down, stop allowing requests")
			}
			if from == gobreaker.StateOpen && to == gobreaker.StateHalfOpen {
				logger.Info("checking api status")
			}
			if from == gobreaker.StateHalfOpen && to == gobreaker.StateClosed {
				logger.Info("api seems ok, restart allowing requests")
			}
		},
	})
}
