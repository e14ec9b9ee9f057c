package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/cardroom/blackjack-online/internal/game"
	"github.com/cardroom/blackjack-online/internal/randutil"
)

// Server accepts WebSocket connections at /blackjack/{player_id}, pairs them
// through the matchmaker, and runs one session per pair. Sessions share
// nothing except the matchmaking slot.
type Server struct {
	upgrader         websocket.Upgrader
	matchmaker       *Matchmaker
	registry         *Registry
	logger           *log.Logger
	clock            quartz.Clock
	seed             int64
	sessionSeq       atomic.Int64
	resultDelay      time.Duration
	rebuildThreshold int
	httpSrv          *http.Server
}

// ServerOption configures a Server during creation
type ServerOption func(*Server)

// WithClock replaces the real clock, letting tests control the pacing delay
func WithClock(clock quartz.Clock) ServerOption {
	return func(s *Server) {
		s.clock = clock
	}
}

// WithSeed fixes the base RNG seed so card sequences are reproducible
func WithSeed(seed int64) ServerOption {
	return func(s *Server) {
		s.seed = seed
	}
}

// WithResultDelay overrides the pause before the continue prompt
func WithResultDelay(d time.Duration) ServerOption {
	return func(s *Server) {
		s.resultDelay = d
	}
}

// WithRebuildThreshold overrides the deck rebuild threshold for new games
func WithRebuildThreshold(n int) ServerOption {
	return func(s *Server) {
		s.rebuildThreshold = n
	}
}

// NewServer creates a server with an empty matchmaking slot and registry
func NewServer(logger *log.Logger, opts ...ServerOption) *Server {
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Terminal clients connect from anywhere.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		matchmaker:       NewMatchmaker(logger),
		registry:         NewRegistry(),
		logger:           logger.WithPrefix("server"),
		clock:            quartz.NewReal(),
		seed:             time.Now().UnixNano(),
		resultDelay:      DefaultResultDelay,
		rebuildThreshold: game.DefaultRebuildThreshold,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Registry exposes the session registry, mainly for tests and monitoring
func (s *Server) Registry() *Registry {
	return s.registry
}

// Matchmaker exposes the matchmaking slot, mainly for tests and monitoring
func (s *Server) Matchmaker() *Matchmaker {
	return s.matchmaker
}

// Handler returns the HTTP handler serving the game and health endpoints
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/blackjack/", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start listens on addr and serves until Shutdown
func (s *Server) Start(addr string) error {
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	s.logger.Info("Starting blackjack server", "addr", addr)
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops accepting connections and drains the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// handleWebSocket upgrades a connection and runs matchmaking for it
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	playerID := strings.TrimPrefix(r.URL.Path, "/blackjack/")
	if playerID == "" || strings.Contains(playerID, "/") {
		http.Error(w, "player id required", http.StatusBadRequest)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(wsConn, playerID, s.logger)
	conn.Start()
	s.logger.Info("Player connected", "player", playerID)

	peer, matched, err := s.matchmaker.Match(conn)
	if err != nil {
		conn.SendError("duplicate_player_id", fmt.Sprintf("player %q is already waiting", playerID))
		_ = conn.Close()
		return
	}

	if !matched {
		if msg, err := NewMessage(MessageTypeWaiting, WaitingData{Message: "waiting for an opponent..."}); err == nil {
			conn.Send(msg)
		}
		// Free the slot if the waiting player gives up before a match.
		go func() {
			<-conn.Done()
			s.matchmaker.Cancel(conn)
		}()
		return
	}

	s.startSession(peer, conn)
}

// startSession creates and launches a session for a freshly matched pair.
// Each session gets its own RNG stream derived from the base seed.
func (s *Server) startSession(first, second *Connection) {
	rng := randutil.New(s.seed + s.sessionSeq.Add(1))
	g := game.New(first.PlayerID(), second.PlayerID(), rng,
		game.WithRebuildThreshold(s.rebuildThreshold))

	sess := NewSession(first, second, g, s.registry, s.clock, s.resultDelay, s.logger)
	s.registry.Add(sess)

	s.logger.Info("Session started",
		"session", sess.ID(),
		"first", first.PlayerID(),
		"second", second.PlayerID())

	sess.Start()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}
