package message

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	pkgsync "polycry.pt/poly-go/sync"
)

const (
	// MaxNumRequests is the number of requests of the peer that are served
	// concurrently. Further requests are answered with an Error.
	MaxNumRequests = 16

	// pingInterval has to be shorter than pongTimeout.
	pingInterval = 20 * time.Second
	pongTimeout  = 60 * time.Second
)

// ErrConnectionClosed is returned by requests that were pending when the
// connection closed.
var ErrConnectionClosed = errors.New("connection closed")

// A Handler serves the requests of the peer.
type Handler interface {
	// HandleRequest answers req with a Response carrying the same ID. It is
	// called concurrently.
	HandleRequest(req Request)
}

// Connection is a JSON message connection to a wallet over a websocket.
// Requests can be sent in both directions.
type Connection struct {
	ws      *websocket.Conn
	readMu  sync.Mutex
	writeMu sync.Mutex

	closer  pkgsync.Closer
	onClose func()

	lastID  atomic.Uint64
	pending *pendingRequests
	slots   chan struct{}
	log     log.FieldLogger
}

// NewConnection wraps an established websocket connection.
func NewConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ws:      ws,
		pending: newPendingRequests(),
		slots:   make(chan struct{}, MaxNumRequests),
		log:     log.StandardLogger(),
	}
}

// SetLogger replaces the logger of the connection.
func (c *Connection) SetLogger(l log.FieldLogger) {
	c.log = l
}

// SetOnCloseHandler sets a function that is called once when the connection
// is closed. It has to be set before Handle is called.
func (c *Connection) SetOnCloseHandler(onClose func()) {
	c.onClose = onClose
}

// Read reads the next message.
func (c *Connection) Read() (Message, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	mt, b, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	if mt != websocket.TextMessage {
		return nil, errors.Errorf("invalid message type: %v", mt)
	}
	var obj JSONObject
	if err := obj.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return obj.Message, nil
}

// Write sends msg.
func (c *Connection) Write(msg Message) error {
	b, err := (&JSONObject{Message: msg}).MarshalJSON()
	if err != nil {
		return err
	}
	return c.writeFrame(websocket.TextMessage, b)
}

func (c *Connection) writeFrame(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(messageType, data)
}

// Handle reads from the connection until reading fails. Responses are
// delivered to the pending Request calls, requests are passed to h.
func (c *Connection) Handle(h Handler) error {
	if err := c.keepAlive(); err != nil {
		return errors.Wrap(err, "connection keep alive")
	}
	for {
		msg, err := c.Read()
		if err != nil {
			return err
		}
		switch msg := msg.(type) {
		case *Response:
			c.handleResponse(msg)
		case *Request:
			c.handleRequest(h, msg)
		default:
			c.log.Warnf("unexpected message %T outside of request", msg)
		}
	}
}

func (c *Connection) handleResponse(resp *Response) {
	if resp.Message == nil {
		c.log.Errorf("received empty response %d", resp.ID)
		return
	}
	if !c.pending.resolve(resp.ID, resp.Message.Message) {
		c.log.Warnf("no pending request for response %d", resp.ID)
	}
}

func (c *Connection) handleRequest(h Handler, req *Request) {
	if req.Message == nil {
		c.log.Errorf("received empty request %d", req.ID)
		return
	}
	select {
	case c.slots <- struct{}{}:
	default:
		busy := &Error{Err: "exceeding maximum number of open requests"}
		if err := c.Write(NewResponse(req.ID, busy)); err != nil {
			c.log.WithError(err).Error("sending max requests error")
		}
		return
	}
	go func() {
		defer func() { <-c.slots }()
		h.HandleRequest(*req)
	}()
}

// CloseWithError sends err to the peer and closes the connection.
func (c *Connection) CloseWithError(err error) error {
	if werr := c.Write(NewError(err)); werr != nil {
		return werr
	}
	return c.Close()
}

// Close closes the connection and fails all pending requests.
func (c *Connection) Close() error {
	if err := c.closer.Close(); err != nil {
		return err
	}
	if c.onClose != nil {
		c.onClose()
	}
	return c.ws.Close()
}

// IsClosed reports whether Close was called.
func (c *Connection) IsClosed() bool {
	return c.closer.IsClosed()
}

// keepAlive pings the peer every pingInterval. Reads fail once no pong
// arrived for pongTimeout.
func (c *Connection) keepAlive() error {
	renew := func() error {
		return c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	}
	if err := renew(); err != nil {
		return errors.Wrap(err, "setting read deadline")
	}
	c.ws.SetPongHandler(func(string) error {
		if err := renew(); err != nil {
			c.log.WithError(err).Error("renewing read deadline")
		}
		return nil
	})

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := c.writeFrame(websocket.PingMessage, nil); err != nil {
					c.log.WithError(err).Debug("sending ping")
					return
				}
			case <-c.closer.Closed():
				return
			}
		}
	}()
	return nil
}
