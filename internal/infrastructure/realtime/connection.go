package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	pingPeriod  = 30 * time.Second
	readTimeout = 60 * time.Second
	maxFrame    = 1 << 20 // 1MB payload cap
)

// ErrConnectionClosed reports a send on a connection that already shut down.
var ErrConnectionClosed = errors.New("realtime: connection closed")

// Connection wraps a websocket and coordinates outbound writes via a
// buffered channel. One connection belongs to exactly one authenticated
// user session and is safe for concurrent Send calls.
type Connection struct {
	ID       string
	Username string

	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

// NewConnection constructs a Connection for the given user and installs the
// read limits and pong handling.
func NewConnection(username string, ws *websocket.Conn) *Connection {
	ws.SetReadLimit(maxFrame)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	return &Connection{
		ID:       uuid.NewString(),
		Username: username,
		ws:       ws,
		send:     make(chan []byte, 128),
		close:    make(chan struct{}),
	}
}

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Read blocks for the next text frame from the client.
func (c *Connection) Read() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

// Send enqueues payload for delivery. If the client is slow and the buffer is
// full, the connection is closed to keep backpressure bounded. Send never
// blocks and is safe to race with Close.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return ErrConnectionClosed
	default:
	}
	select {
	case <-c.close:
		return ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("realtime: send buffer exceeded")
	}
}

// Close terminates the connection and stops the write loop. Safe to call
// more than once; only the first call takes effect. The send channel is
// never closed: concurrent Senders may still be selecting on it, and the
// write loop exits through the close signal instead.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
