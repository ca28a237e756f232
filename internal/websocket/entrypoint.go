package websocket

import (
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/domeapi/dome-escrow-router/internal/message"
)

// startSession registers a session for the address sent in the wallet's
// Initialize message and serves its requests. A second wallet with the same
// address is turned away.
func (n *Node) startSession(conn *websocket.Conn) {
	mconn := message.NewConnection(conn)

	msg, err := mconn.Read()
	if err != nil {
		n.log.WithError(err).Warn("read message")
		_ = conn.Close()
		return
	}

	initMsg, ok := msg.(*message.Initialize)
	if !ok {
		n.log.Warnf("expected initialization message, got %T", msg)
		_ = conn.Close()
		return
	}

	s, err := n.sessions.register(initMsg.Address, mconn)
	if err != nil {
		if err := mconn.CloseWithError(err); err != nil {
			n.log.Error(err)
		}
		return
	}
	s.router = n.router
	s.log = n.log.WithFields(log.Fields{"session": s.id, "wallet": s.addr.Hex()})
	mconn.SetLogger(s.log)

	mconn.SetOnCloseHandler(func() {
		n.sessions.Remove(s.id)
	})

	if err := mconn.Write(&message.Initialized{Address: s.addr, SessionID: s.id}); err != nil {
		s.log.WithError(err).Warn("sending initialized")
		_ = mconn.Close()
		return
	}
	s.log.Info("wallet connected")

	go func() {
		err := mconn.Handle(s)
		s.log.WithError(err).Info("wallet disconnected")
		_ = mconn.Close()
	}()
}
