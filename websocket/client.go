package websocket

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"media54/types"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	// surfaces only send control frames and the occasional ack
	maxMessageSize = 512
)

// WebSocket upgrader with CORS support
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Presentation windows are opened by the local launcher and may load
		// from file:// or another port.
		return true
	},
}

// Client is a surface connected over WebSocket
type Client struct {
	id   string
	role types.SurfaceRole
	hub  Hub
	conn *websocket.Conn
	send chan types.SurfaceMessage

	closed    chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new WebSocket surface with a fresh ID
func NewClient(hub Hub, conn *websocket.Conn, role types.SurfaceRole, buffer int) *Client {
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{
		id:     uuid.New().String(),
		role:   role,
		hub:    hub,
		conn:   conn,
		send:   make(chan types.SurfaceMessage, buffer),
		closed: make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Role() types.SurfaceRole {
	return c.role
}

// Send queues msg for the write pump. A full queue counts as a failed send so
// one stalled window cannot hold up the others.
func (c *Client) Send(msg types.SurfaceMessage) error {
	select {
	case <-c.closed:
		return fmt.Errorf("surface %s closed", c.id)
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return fmt.Errorf("surface %s send queue full", c.id)
	}
}

// Close stops the pumps; the write pump sends a close frame on the way out
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

// StartPumps starts the read and write pumps for the client
func (c *Client) StartPumps() {
	go c.writePump()
	go c.readPump()
}

// readPump watches the connection; its end is the surface's closure signal
func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterSurface(c.id)
		c.Close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error on surface %s: %v", c.id, err)
			}
			return
		}
	}
}

// writePump handles writing to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("WebSocket write error on surface %s: %v", c.id, err)
				c.Close()
				return
			}

		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteJSON(types.SurfaceMessage{Type: types.MessageTypeClosed, SurfaceID: c.id})
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

// GetUpgrader returns the WebSocket upgrader
func GetUpgrader() websocket.Upgrader {
	return upgrader
}
