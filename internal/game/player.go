package game

import "github.com/cardroom/blackjack-online/internal/deck"

// Player holds one side's identity, current hand, and the cumulative record
// that persists across rounds within a session.
type Player struct {
	ID     string
	Hand   *deck.Hand
	Wins   int
	Losses int
	Draws  int
}

// NewPlayer creates a player with an empty hand and a zeroed record
func NewPlayer(id string) *Player {
	return &Player{
		ID:   id,
		Hand: deck.NewHand(),
	}
}

// ResetHand replaces the hand with an empty one at the start of a round
func (p *Player) ResetHand() {
	p.Hand = deck.NewHand()
}

// Record is a snapshot of a player's cumulative results
type Record struct {
	Wins   int
	Losses int
	Draws  int
}

// Record returns the player's cumulative results
func (p *Player) Record() Record {
	return Record{Wins: p.Wins, Losses: p.Losses, Draws: p.Draws}
}
