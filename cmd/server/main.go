package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/domeapi/dome-escrow-router/internal/clob"
	"github.com/domeapi/dome-escrow-router/internal/config"
	"github.com/domeapi/dome-escrow-router/internal/router"
	"github.com/domeapi/dome-escrow-router/internal/transport"
	"github.com/domeapi/dome-escrow-router/internal/websocket"
)

func main() {
	app := cli.NewApp()
	app.Name = "dome-escrow-router"
	app.Usage = "websocket gateway placing fee escrowed orders signed by remote wallets"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to the config file (yaml or json)",
			EnvVars: []string{config.EnvPrefix + "_CONFIG"},
		},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("gateway stopped")
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	log.SetOutput(os.Stdout)
	log.SetLevel(cfg.Level())
	if cfg.APIKey == "" {
		log.Warn("no Dome API key configured, placements will fail")
	}

	logger := log.StandardLogger()
	httpTransport := transport.NewHTTP(cfg.Transport, logger)
	base := clob.NewService(cfg.APIKey, cfg.Clob, httpTransport, logger)

	sessions := websocket.NewRegistry()
	escrowRouter, err := router.NewEscrowRouter(cfg.APIKey, cfg.Escrow, base, httpTransport,
		router.WithSignerProvider(sessions.Signer),
		router.WithMetrics(router.NewMetrics(prometheus.DefaultRegisterer)),
		router.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	resolved := escrowRouter.EscrowConfig()
	log.WithFields(log.Fields{
		"escrow":  resolved.EscrowAddress.Hex(),
		"chainId": resolved.ChainID,
		"feeBps":  resolved.FeeBps,
	}).Info("escrow router ready")

	node := websocket.NewNode(escrowRouter, sessions, logger)
	if cfg.MetricsAddress == "" {
		node.Handle("/metrics", promhttp.Handler())
	} else {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			log.Infof("Metrics served on %s", cfg.MetricsAddress)
			log.Fatal(http.ListenAndServe(cfg.MetricsAddress, mux))
		}()
	}

	return node.Run(websocket.Config{
		WSAddress:      cfg.WSAddress,
		TLSCertificate: cfg.TLSCertificate,
		TLSPrivKey:     cfg.TLSPrivKey,
	})
}
