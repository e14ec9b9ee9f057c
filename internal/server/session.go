package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/cardroom/blackjack-online/internal/game"
)

// DefaultResultDelay is the pause between announcing a round result and
// asking both players whether to continue. Purely pacing, not correctness.
const DefaultResultDelay = 2 * time.Second

// Session coordinates one two-player match: the game state machine, both
// connections, and the continue votes. Two read pumps feed handleMessage
// concurrently, so every mutation happens under one mutex; state broadcasts
// are enqueued while it is held, which keeps the pair of per-action
// broadcasts ordered for both players.
type Session struct {
	id          string
	game        *game.Game
	conns       map[string]*Connection
	firstID     string
	secondID    string
	votes       map[string]struct{}
	registry    *Registry
	clock       quartz.Clock
	resultDelay time.Duration
	logger      *log.Logger

	mu       sync.Mutex
	closed   bool
	askTimer *quartz.Timer
}

// NewSession binds a fresh game to the two matched connections. The first
// connection is the player who was waiting; they act first each round.
func NewSession(first, second *Connection, g *game.Game, registry *Registry, clock quartz.Clock, resultDelay time.Duration, logger *log.Logger) *Session {
	id := SessionID(first.PlayerID(), second.PlayerID())

	return &Session{
		id:       id,
		game:     g,
		conns:    map[string]*Connection{first.PlayerID(): first, second.PlayerID(): second},
		firstID:  first.PlayerID(),
		secondID: second.PlayerID(),
		votes:    make(map[string]struct{}),
		registry: registry,
		clock:    clock,
		resultDelay: resultDelay,
		logger:   logger.WithPrefix("session").With("session", id),
	}
}

// ID returns the deterministic session id
func (s *Session) ID() string {
	return s.id
}

// Start announces the pairing, wires both connections into the dispatcher,
// and begins the first round.
func (s *Session) Start() {
	for id, conn := range s.conns {
		playerID := id
		conn.SetHandler(func(msg *Message) {
			s.handleMessage(playerID, msg)
		})
		go s.watchDisconnect(conn)
	}

	s.sendTo(s.firstID, MessageTypeMatched, MatchedData{Opponent: s.secondID})
	s.sendTo(s.secondID, MessageTypeMatched, MatchedData{Opponent: s.firstID})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.startRoundLocked()
}

// watchDisconnect tears the session down when a connection dies for any
// reason, notifying the surviving peer first.
func (s *Session) watchDisconnect(conn *Connection) {
	<-conn.Done()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	lost := conn.PlayerID()
	s.logger.Info("Player disconnected", "player", lost)

	other := s.opponentID(lost)
	s.sendTo(other, MessageTypeGameOver, GameOverData{
		Reason: fmt.Sprintf("%s disconnected", lost),
	})
	s.closeLocked()
}

func (s *Session) opponentID(playerID string) string {
	if playerID == s.firstID {
		return s.secondID
	}
	return s.firstID
}

// handleMessage dispatches one inbound envelope from either read pump
func (s *Session) handleMessage(playerID string, msg *Message) {
	if msg.Type != MessageTypeAction {
		s.conns[playerID].SendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
		return
	}

	var data ActionData
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		s.conns[playerID].SendError("invalid_message", "Failed to parse action data")
		return
	}

	s.logger.Debug("Player action", "player", playerID, "action", data.Action)

	switch data.Action {
	case ActionHit:
		s.handleHit(playerID)
	case ActionStand:
		s.handleStand(playerID)
	case ActionContinue:
		s.handleContinue(playerID)
	case ActionQuit:
		s.handleQuit(playerID)
	default:
		s.conns[playerID].SendError("unknown_action", "Unknown action: "+data.Action)
	}
}

func (s *Session) handleHit(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	adv, err := s.game.Hit(playerID)
	if err != nil {
		s.failLocked(err)
		return
	}
	if !adv.Applied {
		// Stale or out-of-turn; network latency makes these legitimate.
		s.logger.Debug("Ignoring out-of-turn hit", "player", playerID)
		return
	}

	s.broadcastStateLocked()
	if adv.RoundOver {
		s.roundEndLocked()
	}
}

func (s *Session) handleStand(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	adv := s.game.Stand(playerID)
	if !adv.Applied {
		s.logger.Debug("Ignoring out-of-turn stand", "player", playerID)
		return
	}

	s.broadcastStateLocked()
	if adv.RoundOver {
		s.roundEndLocked()
	}
}

// handleContinue records a continue vote. Two votes start the next round;
// votes cast outside the finished state are stale and ignored.
func (s *Session) handleContinue(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.game.State() != game.StateFinished {
		s.logger.Debug("Ignoring continue vote mid-round", "player", playerID)
		return
	}

	s.votes[playerID] = struct{}{}
	s.logger.Info("Continue vote", "player", playerID, "votes", len(s.votes))

	if len(s.votes) == 2 {
		s.startRoundLocked()
	}
}

// handleQuit ends the session for both players. Quit is unilateral: the
// other player's vote, or absence of one, does not matter.
func (s *Session) handleQuit(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.logger.Info("Player quit", "player", playerID)

	over := GameOverData{
		Reason: fmt.Sprintf("%s left the game", playerID),
		QuitBy: playerID,
	}
	s.sendTo(s.firstID, MessageTypeGameOver, over)
	s.sendTo(s.secondID, MessageTypeGameOver, over)
	s.closeLocked()
}

// startRoundLocked resets for a new round and deals. Callers hold s.mu.
func (s *Session) startRoundLocked() {
	if err := s.game.StartRound(); err != nil {
		s.failLocked(err)
		return
	}
	s.votes = make(map[string]struct{})

	s.logger.Info("Round started", "round", s.game.Round())

	start := RoundStartData{Round: s.game.Round()}
	s.sendTo(s.firstID, MessageTypeRoundStart, start)
	s.sendTo(s.secondID, MessageTypeRoundStart, start)
	s.broadcastStateLocked()
}

// roundEndLocked reveals both hands, announces results, and schedules the
// continue prompt after the pacing delay. Callers hold s.mu.
func (s *Session) roundEndLocked() {
	s.logger.Info("Round finished", "round", s.game.Round())

	// The round is finished, so this snapshot shows both hands in full.
	s.broadcastStateLocked()

	for _, id := range []string{s.firstID, s.secondID} {
		result, ok := RoundResultDataFor(s.game, id)
		if !ok {
			continue
		}
		s.sendTo(id, MessageTypeRoundResult, result)
	}

	s.askTimer = s.clock.AfterFunc(s.resultDelay, s.askContinue)
}

// askContinue solicits the continue vote from both players once the pacing
// delay has elapsed.
func (s *Session) askContinue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.sendTo(s.firstID, MessageTypeAskContinue, struct{}{})
	s.sendTo(s.secondID, MessageTypeAskContinue, struct{}{})
}

// broadcastStateLocked pushes a freshly redacted snapshot to each player.
// Callers hold s.mu, so the two sends of one action are never interleaved
// with another action's.
func (s *Session) broadcastStateLocked() {
	for _, id := range []string{s.firstID, s.secondID} {
		s.sendTo(id, MessageTypeGameState, GameStateDataFor(s.game, id))
	}
}

// failLocked handles an internal consistency error: fatal to this session,
// invisible to every other one. Callers hold s.mu.
func (s *Session) failLocked(err error) {
	s.logger.Error("Session failed", "error", err)

	over := GameOverData{Reason: "internal error"}
	s.sendTo(s.firstID, MessageTypeGameOver, over)
	s.sendTo(s.secondID, MessageTypeGameOver, over)
	s.closeLocked()
}

// closeLocked removes the session from the registry and closes both
// connections. Queued messages (game_over in particular) are flushed by the
// write pumps before the sockets drop. Callers hold s.mu.
func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true

	if s.askTimer != nil {
		s.askTimer.Stop()
	}

	s.registry.Remove(s.id)
	for _, conn := range s.conns {
		_ = conn.Close()
	}

	s.logger.Info("Session closed")
}

// sendTo delivers a payload to one player, best effort
func (s *Session) sendTo(playerID string, messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		s.logger.Error("Failed to create message", "type", messageType, "error", err)
		return
	}
	s.conns[playerID].Send(msg)
}
