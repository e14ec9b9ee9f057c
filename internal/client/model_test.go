package client

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cardroom/blackjack-online/internal/server"
)

// recorder captures actions the model tries to send
type recorder struct {
	actions []string
}

func (r *recorder) send(action string) error {
	r.actions = append(r.actions, action)
	return nil
}

func envelope(t *testing.T, messageType server.MessageType, data interface{}) envelopeMsg {
	t.Helper()
	msg, err := server.NewMessage(messageType, data)
	if err != nil {
		t.Fatal(err)
	}
	return envelopeMsg{msg: msg}
}

func key(s string) tea.KeyMsg {
	if s == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func myTurnState(isMyTurn bool) server.GameStateData {
	return server.GameStateData{
		State:       "player_turn",
		Round:       1,
		CurrentTurn: "alice",
		IsMyTurn:    isMyTurn,
		MyInfo: server.PlayerInfo{
			PlayerID: "alice",
			Hand: server.HandView{
				Cards: []server.CardView{{Suit: "♠", Rank: "5"}, {Suit: "♥", Rank: "6"}},
				Value: 11,
			},
		},
		OpponentInfo: server.PlayerInfo{
			PlayerID: "bob",
			Hand: server.HandView{
				Cards:  []server.CardView{{Suit: "?", Rank: "?"}, {Suit: "?", Rank: "?"}},
				Hidden: true,
			},
		},
	}
}

func TestModelFollowsSessionLifecycle(t *testing.T) {
	rec := &recorder{}
	m := NewModel("alice", rec.send)

	if m.phase != phaseConnecting {
		t.Fatalf("initial phase = %d, want connecting", m.phase)
	}

	m.Update(envelope(t, server.MessageTypeWaiting, server.WaitingData{Message: "waiting for an opponent..."}))
	if m.phase != phaseWaiting {
		t.Errorf("phase = %d after waiting, want waiting", m.phase)
	}

	m.Update(envelope(t, server.MessageTypeMatched, server.MatchedData{Opponent: "bob"}))
	if m.opponent != "bob" {
		t.Errorf("opponent = %q, want bob", m.opponent)
	}

	m.Update(envelope(t, server.MessageTypeRoundStart, server.RoundStartData{Round: 1}))
	m.Update(envelope(t, server.MessageTypeGameState, myTurnState(true)))
	if m.phase != phasePlaying {
		t.Errorf("phase = %d after game_state, want playing", m.phase)
	}
	if m.state == nil || !m.state.IsMyTurn {
		t.Fatal("state not applied")
	}

	m.Update(envelope(t, server.MessageTypeAskContinue, struct{}{}))
	if m.phase != phaseAskContinue {
		t.Errorf("phase = %d after ask_continue, want askContinue", m.phase)
	}

	m.Update(envelope(t, server.MessageTypeGameOver, server.GameOverData{Reason: "bob left the game", QuitBy: "bob"}))
	if m.phase != phaseOver {
		t.Errorf("phase = %d after game_over, want over", m.phase)
	}
	if m.overText != "bob left the game" {
		t.Errorf("over text = %q", m.overText)
	}
}

func TestModelSendsActionsOnKeys(t *testing.T) {
	rec := &recorder{}
	m := NewModel("alice", rec.send)

	m.Update(envelope(t, server.MessageTypeRoundStart, server.RoundStartData{Round: 1}))
	m.Update(envelope(t, server.MessageTypeGameState, myTurnState(true)))

	m.Update(key("h"))
	m.Update(key("s"))

	m.Update(envelope(t, server.MessageTypeAskContinue, struct{}{}))
	m.Update(key("y"))

	want := []string{server.ActionHit, server.ActionStand, server.ActionContinue}
	if len(rec.actions) != len(want) {
		t.Fatalf("sent %v, want %v", rec.actions, want)
	}
	for i, action := range want {
		if rec.actions[i] != action {
			t.Errorf("action[%d] = %q, want %q", i, rec.actions[i], action)
		}
	}
}

func TestModelIgnoresActionKeysWhenNotMyTurn(t *testing.T) {
	rec := &recorder{}
	m := NewModel("bob", rec.send)

	m.Update(envelope(t, server.MessageTypeRoundStart, server.RoundStartData{Round: 1}))
	m.Update(envelope(t, server.MessageTypeGameState, myTurnState(false)))

	m.Update(key("h"))
	m.Update(key("s"))

	if len(rec.actions) != 0 {
		t.Errorf("sent %v while not on turn, want none", rec.actions)
	}
}

func TestModelQuitKeys(t *testing.T) {
	rec := &recorder{}
	m := NewModel("alice", rec.send)

	m.Update(envelope(t, server.MessageTypeAskContinue, struct{}{}))
	_, cmd := m.Update(key("n"))
	if len(rec.actions) != 1 || rec.actions[0] != server.ActionQuit {
		t.Errorf("sent %v, want quit", rec.actions)
	}
	// The session ends server-side; the client waits for game_over.
	if cmd != nil {
		t.Error("n should not quit the program directly")
	}

	rec2 := &recorder{}
	m2 := NewModel("alice", rec2.send)
	_, cmd = m2.Update(key("ctrl+c"))
	if len(rec2.actions) != 1 || rec2.actions[0] != server.ActionQuit {
		t.Errorf("ctrl+c sent %v, want quit", rec2.actions)
	}
	if cmd == nil {
		t.Error("ctrl+c should quit the program")
	}
}

func TestViewShowsHandsAndRedaction(t *testing.T) {
	rec := &recorder{}
	m := NewModel("alice", rec.send)

	m.Update(envelope(t, server.MessageTypeRoundStart, server.RoundStartData{Round: 1}))
	m.Update(envelope(t, server.MessageTypeGameState, myTurnState(true)))

	view := m.View()
	if !strings.Contains(view, "5♠") {
		t.Error("view missing own card")
	}
	if !strings.Contains(view, "(11)") {
		t.Error("view missing own hand value")
	}
	if !strings.Contains(view, "[??]") {
		t.Error("view missing hidden opponent cards")
	}
	if !strings.Contains(view, "your turn") {
		t.Error("view missing turn prompt")
	}
}

func TestViewShowsRoundResult(t *testing.T) {
	rec := &recorder{}
	m := NewModel("alice", rec.send)

	m.Update(envelope(t, server.MessageTypeRoundStart, server.RoundStartData{Round: 1}))
	m.Update(envelope(t, server.MessageTypeGameState, myTurnState(false)))
	m.Update(envelope(t, server.MessageTypeRoundResult, server.RoundResultData{
		Result:  "win",
		Message: "You win! (19 vs 11)",
	}))

	if !strings.Contains(m.View(), "You win! (19 vs 11)") {
		t.Error("view missing round result message")
	}
}

func TestErrorMessageShownAndCleared(t *testing.T) {
	rec := &recorder{}
	m := NewModel("alice", rec.send)

	m.Update(envelope(t, server.MessageTypeRoundStart, server.RoundStartData{Round: 1}))
	m.Update(envelope(t, server.MessageTypeGameState, myTurnState(true)))
	m.Update(envelope(t, server.MessageTypeError, server.ErrorData{Code: "unknown_action", Message: "Unknown action: dance"}))

	if !strings.Contains(m.View(), "Unknown action: dance") {
		t.Error("view missing error line")
	}

	// The next action clears the stale error.
	m.Update(key("h"))
	if strings.Contains(m.View(), "Unknown action") {
		t.Error("error line not cleared on next action")
	}
}
