package server

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrDuplicatePlayerID is returned when a connection tries to match against
// a waiting player using the same id.
var ErrDuplicatePlayerID = errors.New("player id already waiting")

// Matchmaker pairs incoming connections using a single waiting slot. The
// read-slot-decide-clear step happens under one lock, so two connections can
// never both decide they are the second player.
type Matchmaker struct {
	mu      sync.Mutex
	waiting *Connection
	logger  *log.Logger
}

// NewMatchmaker creates an empty matchmaker
func NewMatchmaker(logger *log.Logger) *Matchmaker {
	return &Matchmaker{logger: logger.WithPrefix("matchmaker")}
}

// Match offers a connection for pairing. If another player is waiting, the
// slot is cleared and the waiting connection is returned as the peer. If not,
// the connection occupies the slot and waits without consuming CPU; the
// arrival of its opponent or a disconnect moves it on.
//
// A second connection reusing the id of the waiting player is rejected, since
// a session cannot tell two identical ids apart.
func (m *Matchmaker) Match(conn *Connection) (peer *Connection, matched bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting == nil {
		m.waiting = conn
		m.logger.Info("Player waiting for opponent", "player", conn.PlayerID())
		return nil, false, nil
	}

	if m.waiting.PlayerID() == conn.PlayerID() {
		return nil, false, ErrDuplicatePlayerID
	}

	peer = m.waiting
	m.waiting = nil
	m.logger.Info("Players matched", "first", peer.PlayerID(), "second", conn.PlayerID())
	return peer, true, nil
}

// Cancel clears the slot if it still holds the given connection. Called when
// a waiting player disconnects before an opponent arrives.
func (m *Matchmaker) Cancel(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting == conn {
		m.waiting = nil
		m.logger.Info("Waiting player left", "player", conn.PlayerID())
	}
}

// Waiting returns the id of the player currently in the slot, if any
func (m *Matchmaker) Waiting() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.waiting == nil {
		return "", false
	}
	return m.waiting.PlayerID(), true
}
