package server

import (
	"encoding/json"
	"fmt"

	"github.com/cardroom/blackjack-online/internal/deck"
	"github.com/cardroom/blackjack-online/internal/game"
)

// Message is the envelope used in both directions on the wire
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data"`
}

// NewMessage creates a message with the payload marshalled into the envelope
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type: messageType,
		Data: dataBytes,
	}, nil
}

// Client → Server Messages

type ActionData struct {
	Action string `json:"action"`
}

// Server → Client Messages

type WaitingData struct {
	Message string `json:"message"`
}

type MatchedData struct {
	Opponent string `json:"opponent"`
}

type RoundStartData struct {
	Round int `json:"round"`
}

// CardView is a card on the wire. Redacted cards carry "?" for both fields.
type CardView struct {
	Suit string `json:"suit"`
	Rank string `json:"rank"`
}

// HandView is a hand on the wire. A hidden hand shows placeholder cards and
// no value, so nothing leaks about an active opponent hand.
type HandView struct {
	Cards       []CardView `json:"cards"`
	Value       int        `json:"value"`
	IsBlackjack bool       `json:"isBlackjack"`
	IsBust      bool       `json:"isBust"`
	Hidden      bool       `json:"hidden"`
}

type RecordData struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

type PlayerInfo struct {
	PlayerID string     `json:"playerId"`
	Wins     int        `json:"wins"`
	Losses   int        `json:"losses"`
	Draws    int        `json:"draws"`
	Hand     HandView   `json:"hand"`
}

type GameStateData struct {
	State        string     `json:"state"`
	Round        int        `json:"round"`
	MyInfo       PlayerInfo `json:"myInfo"`
	OpponentInfo PlayerInfo `json:"opponentInfo"`
	CurrentTurn  string     `json:"currentTurn"`
	IsMyTurn     bool       `json:"isMyTurn"`
}

type RoundResultData struct {
	Result         string     `json:"result"`
	Message        string     `json:"message"`
	MyValue        int        `json:"myValue"`
	OpponentValue  int        `json:"opponentValue"`
	MyRecord       RecordData `json:"myRecord"`
	OpponentRecord RecordData `json:"opponentRecord"`
}

type GameOverData struct {
	Reason string `json:"reason"`
	QuitBy string `json:"quitBy,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Helper functions to convert internal types to wire types

func CardViewFrom(c deck.Card) CardView {
	return CardView{Suit: c.Suit.String(), Rank: c.Rank.String()}
}

// HandViewFrom renders a hand for the wire. When hidden, every card becomes a
// placeholder and the value and flags are withheld.
func HandViewFrom(h *deck.Hand, hidden bool) HandView {
	cards := make([]CardView, len(h.Cards))
	for i, c := range h.Cards {
		if hidden {
			cards[i] = CardView{Suit: "?", Rank: "?"}
		} else {
			cards[i] = CardViewFrom(c)
		}
	}

	if hidden {
		return HandView{Cards: cards, Hidden: true}
	}
	return HandView{
		Cards:       cards,
		Value:       h.Value(),
		IsBlackjack: h.IsBlackjack(),
		IsBust:      h.IsBust(),
	}
}

func RecordFrom(p *game.Player) RecordData {
	return RecordData{Wins: p.Wins, Losses: p.Losses, Draws: p.Draws}
}

func playerInfoFrom(p *game.Player, hideHand bool) PlayerInfo {
	return PlayerInfo{
		PlayerID: p.ID,
		Wins:     p.Wins,
		Losses:   p.Losses,
		Draws:    p.Draws,
		Hand:     HandViewFrom(p.Hand, hideHand),
	}
}

// GameStateDataFor builds the per-player snapshot. The opponent's hand stays
// hidden until the round reaches the finished state.
func GameStateDataFor(g *game.Game, playerID string) GameStateData {
	me, _ := g.Player(playerID)
	opp, _ := g.Opponent(playerID)

	hideOpponent := g.State() != game.StateFinished

	return GameStateData{
		State:        g.State().String(),
		Round:        g.Round(),
		MyInfo:       playerInfoFrom(me, false),
		OpponentInfo: playerInfoFrom(opp, hideOpponent),
		CurrentTurn:  g.CurrentTurn(),
		IsMyTurn:     g.CurrentTurn() == playerID,
	}
}

// RoundResultDataFor builds the end-of-round summary for one side
func RoundResultDataFor(g *game.Game, playerID string) (RoundResultData, bool) {
	res, ok := g.ResultFor(playerID)
	if !ok {
		return RoundResultData{}, false
	}

	me, _ := g.Player(playerID)
	opp, _ := g.Opponent(playerID)

	var message string
	myBust := me.Hand.IsBust()
	oppBust := opp.Hand.IsBust()
	switch {
	case myBust && oppBust:
		message = "Both bust! Draw!"
	case myBust:
		message = "Bust! You lose!"
	case oppBust:
		message = "Opponent bust! You win!"
	case res.Outcome == game.OutcomeWin:
		message = fmt.Sprintf("You win! (%d vs %d)", res.MyValue, res.OpponentValue)
	case res.Outcome == game.OutcomeLose:
		message = fmt.Sprintf("You lose! (%d vs %d)", res.MyValue, res.OpponentValue)
	default:
		message = fmt.Sprintf("Draw! (%d vs %d)", res.MyValue, res.OpponentValue)
	}

	return RoundResultData{
		Result:         res.Outcome.String(),
		Message:        message,
		MyValue:        res.MyValue,
		OpponentValue:  res.OpponentValue,
		MyRecord:       RecordFrom(me),
		OpponentRecord: RecordFrom(opp),
	}, true
}
