package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/domeapi/dome-escrow-router/internal/router"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Node accepts wallet connections on /connect and places their orders
// through one router.
type Node struct {
	router   *router.EscrowRouter
	sessions *Registry
	mux      *http.ServeMux
	log      log.FieldLogger
}

// NewNode creates a node. The router should resolve hosted wallets through
// sessions.Signer so that requests may name another connected wallet.
func NewNode(r *router.EscrowRouter, sessions *Registry, logger log.FieldLogger) *Node {
	if logger == nil {
		logger = log.StandardLogger()
	}
	n := &Node{
		router:   r,
		sessions: sessions,
		mux:      http.NewServeMux(),
		log:      logger.WithField("component", "websocket"),
	}
	n.mux.HandleFunc("/connect", n.connect)
	return n
}

// Handle registers an additional handler, e.g. for metrics.
func (n *Node) Handle(pattern string, h http.Handler) {
	n.mux.Handle(pattern, h)
}

// Handler returns the HTTP handler of the node.
func (n *Node) Handler() http.Handler {
	return n.mux
}

// Run serves the node on cfg.WSAddress until the listener fails.
func (n *Node) Run(cfg Config) error {
	n.log.Infof("Websocket running on %s", cfg.WSAddress)
	if cfg.useTLS() {
		return http.ListenAndServeTLS(cfg.WSAddress, cfg.TLSCertificate, cfg.TLSPrivKey, n.mux)
	}
	return http.ListenAndServe(cfg.WSAddress, n.mux)
}

// connect is started whenever a wallet connects to the entrypoint of the
// websocket.
func (n *Node) connect(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.log.WithError(err).Warn("upgrade")
		return
	}
	n.startSession(conn)
}
