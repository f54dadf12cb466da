package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsConn is the slice of *websocket.Conn the client handle needs. Narrowed to
// an interface so registry and relay tests can run without a network handshake.
type wsConn interface {
	WriteJSON(v any) error
	SetWriteDeadline(t time.Time) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	Close() error
}

// Client is the live connection handle for one anonymous id. It is owned by
// the presence registry entry for that id and destroyed when the connection
// closes. The mutex serializes writers: the owning loop, registry broadcasts
// and deliveries from other connections' loops.
type Client struct {
	ID string

	conn         wsConn
	writeTimeout time.Duration
	mu           sync.Mutex
}

func NewClient(id string, conn wsConn, writeTimeout time.Duration) *Client {
	return &Client{ID: id, conn: conn, writeTimeout: writeTimeout}
}

// Send writes one JSON frame under the write deadline, so a stalled peer can
// not block a sender indefinitely.
func (c *Client) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.conn.WriteJSON(v)
}

// CloseGoingAway signals a server-initiated shutdown before closing.
func (c *Client) CloseGoingAway(reason string) {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
	c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
	c.conn.Close()
}
