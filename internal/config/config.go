// Package config loads the gateway configuration from a file and DOME_
// prefixed environment variables.
package config

import (
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/domeapi/dome-escrow-router/internal/clob"
	"github.com/domeapi/dome-escrow-router/internal/escrow"
	"github.com/domeapi/dome-escrow-router/internal/router"
	"github.com/domeapi/dome-escrow-router/internal/transport"
)

// EnvPrefix prefixes the environment variables that override file values.
// Nested keys use underscores, e.g. DOME_ESCROW_FEEBPS.
const EnvPrefix = "DOME"

const (
	defaultWSAddress = "0.0.0.0:8080"
	defaultLogLevel  = "info"
)

// Config represents the parsed config file.
type Config struct {
	APIKey         string `mapstructure:"apiKey"`
	Endpoint       string `mapstructure:"endpoint"`
	WSAddress      string `mapstructure:"wsAddress"`
	TLSCertificate string `mapstructure:"tlsCertificate"`
	TLSPrivKey     string `mapstructure:"tlsPrivKey"`
	// MetricsAddress serves /metrics on a separate listener. When empty the
	// websocket listener serves it.
	MetricsAddress string `mapstructure:"metricsAddress"`
	LogLevel       string `mapstructure:"logLevel"`

	Escrow    router.EscrowConfig `mapstructure:"escrow"`
	Transport transport.Config    `mapstructure:"transport"`
	Clob      clob.Config         `mapstructure:"clob"`
}

var keys = []string{
	"apiKey",
	"endpoint",
	"wsAddress",
	"tlsCertificate",
	"tlsPrivKey",
	"metricsAddress",
	"logLevel",
	"escrow.feeBps",
	"escrow.escrowAddress",
	"escrow.chainId",
	"escrow.affiliate",
	"escrow.deadlineSeconds",
	"transport.endpoint",
	"transport.timeout",
	"transport.rateLimit",
	"transport.breakerFailures",
	"transport.breakerTimeout",
	"clob.chainId",
	"clob.exchangeAddress",
	"clob.negRiskExchangeAddress",
	"clob.feeRateBps",
}

// Load reads file, if given, and applies environment overrides.
func Load(file string) (Config, error) {
	var cfg Config

	v := viper.New()
	v.SetDefault("wsAddress", defaultWSAddress)
	v.SetDefault("logLevel", defaultLogLevel)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return cfg, errors.Wrapf(err, "binding %s", k)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return cfg, errors.Wrapf(escrow.ErrConfiguration, "reading %s: %v", file, err)
		}
	}

	opts := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		parseConfigTypes(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, opts); err != nil {
		return cfg, errors.Wrapf(escrow.ErrConfiguration, "decoding config: %v", err)
	}

	if cfg.Endpoint != "" && cfg.Transport.Endpoint == "" {
		cfg.Transport.Endpoint = cfg.Endpoint
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	// Orders are signed for the chain of the fee escrow unless set apart.
	if cfg.Clob.ChainID == 0 {
		resolved, err := cfg.Escrow.Resolve()
		if err != nil {
			return cfg, err
		}
		cfg.Clob.ChainID = resolved.ChainID
	}
	return cfg, nil
}

// Validate checks the values that are not checked by the components
// consuming them.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(escrow.ErrConfiguration, "log level: %v", err)
	}
	if (c.TLSCertificate == "") != (c.TLSPrivKey == "") {
		return errors.Wrap(escrow.ErrConfiguration, "tlsCertificate and tlsPrivKey must be set together")
	}
	if _, err := c.Escrow.Resolve(); err != nil {
		return err
	}
	return nil
}

// Level returns the parsed log level. It falls back to info for configs that
// were not validated.
func (c Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// parseConfigTypes is used by viper to parse the custom types out of the
// config file.
func parseConfigTypes() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(common.Address{}) {
			return data, nil
		}
		addr, ok := data.(string)
		if !ok {
			return nil, errors.New("expected a string for an address")
		}
		if addr == "" {
			return common.Address{}, nil
		}
		if len(addr) != 42 {
			return nil, errors.New("ethereum address must be 42 characters long")
		}
		if !escrow.IsAddress(addr) {
			return nil, errors.Errorf("invalid ethereum address %s", addr)
		}
		return common.HexToAddress(addr), nil
	}
}
