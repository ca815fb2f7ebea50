package server

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"snakeclash/server/protocol"
)

// Network tuning
const (
	WriteChannelSize = 256
	PingInterval     = 2 * time.Second
	ReadTimeout      = 60 * time.Second
	WriteTimeout     = 10 * time.Second
	MaxMessageSize   = 4096
	MaxPlayerNameLen = 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  2048,
	WriteBufferSize: 8192,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Sink receives encoded frames for one connection. The dispatcher calls it
// with its lock held, so implementations must not call back into it.
type Sink interface {
	// Send queues a frame without blocking and reports whether it was accepted
	Send(data []byte) bool
	Close()
}

// Client is one websocket connection. ReadPump decodes frames and hands them
// to the dispatcher; WritePump drains the send queue.
type Client struct {
	ID      string
	Session uint64

	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	dispatcher *Dispatcher
}

// NewClient creates a client for an upgraded connection
func NewClient(conn *websocket.Conn, d *Dispatcher) *Client {
	return &Client{
		ID:         uuid.NewString(),
		conn:       conn,
		send:       make(chan []byte, WriteChannelSize),
		done:       make(chan struct{}),
		dispatcher: d,
	}
}

// Send queues a frame. A client whose queue is full is too slow and gets
// disconnected.
func (c *Client) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		log.Printf("Client %s send channel full, closing connection", c.ID)
		c.Close()
		return false
	}
}

// Close stops both pumps. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// ReadPump reads frames until the connection fails, then unregisters the
// session. Frames that fail to decode are dropped.
func (c *Client) ReadPump() {
	defer func() {
		c.dispatcher.Unregister(c.Session)
		c.Close()
	}()

	c.conn.SetReadLimit(MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(ReadTimeout))

		msg, err := protocol.DecodeClient(data)
		if err != nil {
			log.Printf("Client %s: dropping frame: %v", c.ID, err)
			continue
		}
		c.dispatcher.HandleInbound(c.Session, msg)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := c.conn.WriteMessage(frameType(data), data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// frameType sends JSON fallback frames as text so browsers can read them
func frameType(data []byte) int {
	if len(data) > 0 && data[0] == '{' {
		return websocket.TextMessage
	}
	return websocket.BinaryMessage
}

// HandleWebSocket upgrades a request and starts the connection's pumps
func HandleWebSocket(d *Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := NewClient(conn, d)
		client.Session = d.Register(client)
		log.Printf("Client %s connected as session %d", client.ID, client.Session)

		go client.WritePump()
		go client.ReadPump()
	}
}
