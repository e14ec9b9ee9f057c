package server

import (
	"testing"

	"github.com/cardroom/blackjack-online/internal/deck"
	"github.com/cardroom/blackjack-online/internal/game"
)

func scriptedGame(t *testing.T) *game.Game {
	t.Helper()
	// alice 5♠ 6♥ (11), bob 10♦ 9♣ (19); deal order is p1, p2, p1, p2.
	return game.New("alice", "bob", nil, game.WithDeck(deck.NewStacked(
		deck.NewCard(deck.Spades, deck.Five),
		deck.NewCard(deck.Diamonds, deck.Ten),
		deck.NewCard(deck.Hearts, deck.Six),
		deck.NewCard(deck.Clubs, deck.Nine),
	)))
}

func TestGameStateRedactsOpponentHandMidRound(t *testing.T) {
	g := scriptedGame(t)
	if err := g.StartRound(); err != nil {
		t.Fatal(err)
	}

	state := GameStateDataFor(g, "alice")

	if state.State != "player_turn" {
		t.Errorf("state = %q, want player_turn", state.State)
	}
	if !state.IsMyTurn || state.CurrentTurn != "alice" {
		t.Errorf("turn = %q isMyTurn=%v, want alice's turn", state.CurrentTurn, state.IsMyTurn)
	}

	if state.MyInfo.Hand.Hidden {
		t.Error("own hand must never be hidden")
	}
	if state.MyInfo.Hand.Value != 11 {
		t.Errorf("own value = %d, want 11", state.MyInfo.Hand.Value)
	}

	opp := state.OpponentInfo.Hand
	if !opp.Hidden {
		t.Fatal("opponent hand must be hidden mid-round")
	}
	if opp.Value != 0 || opp.IsBlackjack || opp.IsBust {
		t.Error("hidden hand leaks value or flags")
	}
	if len(opp.Cards) != 2 {
		t.Fatalf("hidden hand shows %d cards, want 2 placeholders", len(opp.Cards))
	}
	for _, c := range opp.Cards {
		if c.Suit != "?" || c.Rank != "?" {
			t.Errorf("placeholder card = %+v, want ?/?", c)
		}
	}
}

func TestGameStateRevealsOpponentHandWhenFinished(t *testing.T) {
	g := scriptedGame(t)
	if err := g.StartRound(); err != nil {
		t.Fatal(err)
	}
	g.Stand("alice")
	g.Stand("bob")

	state := GameStateDataFor(g, "alice")
	if state.State != "finished" {
		t.Fatalf("state = %q, want finished", state.State)
	}

	opp := state.OpponentInfo.Hand
	if opp.Hidden {
		t.Fatal("opponent hand must be revealed once finished")
	}
	if opp.Value != 19 {
		t.Errorf("opponent value = %d, want 19", opp.Value)
	}
	if opp.Cards[0].Rank != "10" || opp.Cards[0].Suit != "♦" {
		t.Errorf("opponent card = %+v, want 10♦", opp.Cards[0])
	}
}

func TestRoundResultData(t *testing.T) {
	g := scriptedGame(t)
	if err := g.StartRound(); err != nil {
		t.Fatal(err)
	}

	if _, ok := RoundResultDataFor(g, "alice"); ok {
		t.Fatal("no result expected before the round finishes")
	}

	g.Stand("alice")
	g.Stand("bob")

	aliceRes, ok := RoundResultDataFor(g, "alice")
	if !ok {
		t.Fatal("expected result after finish")
	}
	if aliceRes.Result != "lose" {
		t.Errorf("alice result = %q, want lose", aliceRes.Result)
	}
	if aliceRes.MyValue != 11 || aliceRes.OpponentValue != 19 {
		t.Errorf("values = %d vs %d, want 11 vs 19", aliceRes.MyValue, aliceRes.OpponentValue)
	}
	if aliceRes.Message != "You lose! (11 vs 19)" {
		t.Errorf("message = %q", aliceRes.Message)
	}
	if aliceRes.MyRecord.Losses != 1 || aliceRes.OpponentRecord.Wins != 1 {
		t.Errorf("records = %+v / %+v", aliceRes.MyRecord, aliceRes.OpponentRecord)
	}

	bobRes, _ := RoundResultDataFor(g, "bob")
	if bobRes.Result != "win" {
		t.Errorf("bob result = %q, want win", bobRes.Result)
	}
	if bobRes.Message != "You win! (19 vs 11)" {
		t.Errorf("message = %q", bobRes.Message)
	}
}

func TestNewMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage(MessageTypeMatched, MatchedData{Opponent: "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if msg.Type != MessageTypeMatched {
		t.Errorf("type = %q, want matched", msg.Type)
	}
	if string(msg.Data) != `{"opponent":"bob"}` {
		t.Errorf("data = %s", msg.Data)
	}
}
