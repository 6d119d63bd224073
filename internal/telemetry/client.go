package telemetry

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

// Client is one diagnostics connection. All frames are msgpack binary
// messages in both directions.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	log        *zap.Logger

	mu     sync.Mutex
	watch  WatchMsg
	narrow bool
}

func newClient(hub *Hub, conn *websocket.Conn, remoteAddr string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = 32
	}
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, queueSize),
		remoteAddr: remoteAddr,
		log:        hub.log,
	}
}

// ReadPump consumes inbound messages until the connection drops.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("telemetry read error",
					zap.String("remote", c.remoteAddr), zap.Error(err))
			}
			break
		}
		c.handleMessage(message)
	}
}

// WritePump drains the send channel and keeps the connection alive with
// pings. A closed send channel (hub shutdown or unregister) ends it.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send queues a pre-marshaled frame. Full queue means the client is too
// slow; the frame is dropped, the next snapshot supersedes it anyway.
func (c *Client) Send(data []byte) {
	defer func() { recover() }() // send channel may close under us
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := msgpack.Unmarshal(raw, &env); err != nil {
		c.log.Debug("telemetry bad envelope",
			zap.String("remote", c.remoteAddr), zap.Error(err))
		return
	}

	switch env.T {
	case MsgWatch:
		var msg WatchMsg
		if err := msgpack.Unmarshal(env.D, &msg); err != nil {
			return
		}
		c.setWatch(msg)
	case MsgUnwatch:
		c.clearWatch()
	}
}

func (c *Client) setWatch(w WatchMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w.Radius <= 0 {
		c.watch = WatchMsg{}
		c.narrow = false
		return
	}
	c.watch = w
	c.narrow = true
}

func (c *Client) clearWatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watch = WatchMsg{}
	c.narrow = false
}

func (c *Client) watchRegion() (WatchMsg, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watch, c.narrow
}
