package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/cardroom/blackjack-online/internal/server"
)

// Client connects a terminal player to a blackjack server and drives the
// Bubble Tea UI from the server's message stream.
type Client struct {
	serverURL string
	playerID  string
	logger    *log.Logger

	conn    *websocket.Conn
	writeMu sync.Mutex
}

// NewClient creates a client for one player
func NewClient(serverURL, playerID string, logger *log.Logger) *Client {
	return &Client{
		serverURL: serverURL,
		playerID:  playerID,
		logger:    logger.WithPrefix("client"),
	}
}

// Connect dials the game endpoint. http and https URLs are accepted and
// converted to their WebSocket schemes.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/blackjack/" + c.playerID

	c.logger.Debug("Connecting", "url", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", u.String(), err)
	}
	c.conn = conn
	return nil
}

// sendAction writes one action envelope. Update is the only caller, but the
// mutex keeps the websocket's single-writer rule explicit.
func (c *Client) sendAction(action string) error {
	msg, err := server.NewMessage(server.MessageTypeAction, server.ActionData{Action: action})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Run plays one session: it starts the UI and a read loop that feeds server
// messages into it, and returns when either side ends the session.
func (c *Client) Run(ctx context.Context) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = c.conn.Close() }()

	model := NewModel(c.playerID, c.sendAction)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := program.Run()
		// Unblock the read loop once the UI is gone.
		_ = c.conn.Close()
		return err
	})

	g.Go(func() error {
		for {
			var msg server.Message
			if err := c.conn.ReadJSON(&msg); err != nil {
				program.Send(connClosedMsg{err: err})
				return nil
			}
			program.Send(envelopeMsg{msg: &msg})
		}
	})

	return g.Wait()
}
