package websocket

// Config configures the listener of the node.
type Config struct {
	WSAddress      string
	TLSCertificate string
	TLSPrivKey     string
}

func (c Config) useTLS() bool {
	return c.TLSCertificate != "" && c.TLSPrivKey != ""
}
