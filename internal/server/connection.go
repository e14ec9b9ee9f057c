package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// Connection wraps one player's WebSocket. A read pump decodes envelopes and
// hands them to the current handler; a write pump drains the send channel.
// The context is cancelled when either pump fails, which is how a disconnect
// surfaces to the matchmaker and the session.
type Connection struct {
	conn      *websocket.Conn
	playerID  string
	send      chan *Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	handler   func(*Message)
	closeOnce sync.Once
}

// NewConnection creates a connection wrapper for an upgraded socket. The
// player id comes from the request path and never changes.
func NewConnection(conn *websocket.Conn, playerID string, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:     conn,
		playerID: playerID,
		send:     make(chan *Message, 64),
		logger:   logger.WithPrefix("conn").With("player", playerID),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the read and write pumps
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// PlayerID returns the player id bound to this connection
func (c *Connection) PlayerID() string {
	return c.playerID
}

// Done is closed once the connection is finished, for any reason
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// SetHandler installs the function that receives inbound envelopes. Messages
// arriving while no handler is set are answered with an error.
func (c *Connection) SetHandler(handler func(*Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *Connection) currentHandler() func(*Message) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.handler
}

// Close closes the connection and cancels both pumps
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send enqueues a message for delivery. Delivery is best effort and Send
// never fails: a full buffer or closed connection means the peer is already
// gone and the read pump will surface the disconnect.
func (c *Connection) Send(msg *Message) {
	defer func() {
		if r := recover(); r != nil {
			// Send raced with Close; the channel is gone.
			c.logger.Debug("Dropped message on closed connection", "type", msg.Type)
		}
	}()

	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		c.logger.Warn("Send buffer full, closing connection")
		_ = c.Close()
	}
}

// SendError sends an error message to the client
func (c *Connection) SendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	c.Send(msg)
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		// Malformed JSON is a protocol error, not a disconnect: answer with
		// an error message and keep reading.
		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.logger.Debug("Received malformed message", "error", err)
			c.SendError("invalid_message", "Failed to parse message")
			continue
		}

		if handler := c.currentHandler(); handler != nil {
			handler(&msg)
		} else {
			c.SendError("no_session", "Not in a game yet")
		}
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Debug("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			// Flush whatever was queued before the close, so a final
			// game_over still reaches the peer.
			for {
				select {
				case message, ok := <-c.send:
					if !ok {
						_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
						return
					}
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.conn.WriteJSON(message); err != nil {
						return
					}
				default:
					return
				}
			}
		}
	}
}
