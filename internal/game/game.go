package game

import (
	"errors"

	rand "math/rand/v2"

	"github.com/cardroom/blackjack-online/internal/deck"
)

// DefaultRebuildThreshold is the card count below which the deck is rebuilt
// to a full 52 before the next round, so a round never runs out of cards.
const DefaultRebuildThreshold = 15

var (
	// ErrDeckExhausted indicates a deal from an empty deck. Given the rebuild
	// threshold this cannot happen in normal play; callers treat it as an
	// internal consistency failure fatal to the session.
	ErrDeckExhausted = errors.New("deck exhausted mid-round")

	// ErrRoundInProgress indicates StartRound was called while a round was
	// still being played.
	ErrRoundInProgress = errors.New("round already in progress")
)

// Advance reports the effect of a hit or stand. A zero Advance means the
// action was stale or out of turn and nothing changed.
type Advance struct {
	Applied   bool // the action was legal and mutated state
	Busted    bool // hit only: the drawn card busted the hand
	RoundOver bool // the round reached Finished as a result
}

// Result is a finished round seen from one player's side
type Result struct {
	Outcome       Outcome
	MyValue       int
	OpponentValue int
}

// Game is the state machine for one two-player session. It is not safe for
// concurrent use; the owning session serializes access.
type Game struct {
	deck             *deck.Deck
	players          [2]*Player
	byID             map[string]*Player
	state            State
	current          string // active player id, empty outside PLAYER_TURN
	round            int
	rebuildThreshold int
}

// Option configures a Game during creation
type Option func(*Game)

// WithDeck replaces the shuffled deck, letting tests script exact deals
func WithDeck(d *deck.Deck) Option {
	return func(g *Game) {
		g.deck = d
	}
}

// WithRebuildThreshold overrides the card count that triggers a deck rebuild
func WithRebuildThreshold(n int) Option {
	return func(g *Game) {
		g.rebuildThreshold = n
	}
}

// New creates a game bound to exactly two players. The RNG drives deck
// shuffling and is required unless WithDeck supplies a stacked deck.
func New(firstID, secondID string, rng *rand.Rand, opts ...Option) *Game {
	g := &Game{
		players:          [2]*Player{NewPlayer(firstID), NewPlayer(secondID)},
		state:            StateWaiting,
		rebuildThreshold: DefaultRebuildThreshold,
	}
	g.byID = map[string]*Player{
		firstID:  g.players[0],
		secondID: g.players[1],
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.deck == nil {
		if rng == nil {
			panic("rng is required unless a deck is provided")
		}
		g.deck = deck.New(rng)
	}

	return g
}

// StartRound begins a new round: hands reset, the deck is rebuilt when it has
// fallen below the threshold, reshuffled, and two cards are dealt to each
// player in turn order. The first player acts first.
func (g *Game) StartRound() error {
	if g.state != StateWaiting && g.state != StateFinished {
		return ErrRoundInProgress
	}

	g.round++
	g.players[0].ResetHand()
	g.players[1].ResetHand()

	if g.deck.CardsRemaining() < g.rebuildThreshold {
		g.deck.Rebuild()
	}
	g.deck.Shuffle()

	g.state = StateDealing
	for i := 0; i < 2; i++ {
		for _, p := range g.players {
			card, ok := g.deck.Deal()
			if !ok {
				return ErrDeckExhausted
			}
			p.Hand.Add(card)
		}
	}

	g.current = g.players[0].ID
	g.state = StatePlayerTurn
	return nil
}

// Hit deals one card to the acting player's hand. A bust advances the turn
// exactly as a stand would. Out-of-turn or wrong-state calls change nothing.
func (g *Game) Hit(playerID string) (Advance, error) {
	if g.state != StatePlayerTurn || playerID != g.current {
		return Advance{}, nil
	}

	p := g.byID[playerID]
	card, ok := g.deck.Deal()
	if !ok {
		return Advance{}, ErrDeckExhausted
	}
	p.Hand.Add(card)

	adv := Advance{Applied: true}
	if p.Hand.IsBust() {
		adv.Busted = true
		adv.RoundOver = g.advanceTurn()
	}
	return adv, nil
}

// Stand ends the acting player's turn. Out-of-turn or wrong-state calls
// change nothing.
func (g *Game) Stand(playerID string) Advance {
	if g.state != StatePlayerTurn || playerID != g.current {
		return Advance{}
	}
	return Advance{Applied: true, RoundOver: g.advanceTurn()}
}

// advanceTurn moves play to the second player, or finishes the round when the
// second player is done. Returns true once the round is over.
func (g *Game) advanceTurn() bool {
	if g.current == g.players[0].ID {
		g.current = g.players[1].ID
		return false
	}

	g.current = ""
	g.state = StateFinished
	g.recordOutcome()
	return true
}

// recordOutcome updates both cumulative records, exactly once per round.
// Precedence: double bust draws, a single bust loses, otherwise the higher
// value wins and equal values draw.
func (g *Game) recordOutcome() {
	p1, p2 := g.players[0], g.players[1]
	switch outcomeFor(p1.Hand, p2.Hand) {
	case OutcomeWin:
		p1.Wins++
		p2.Losses++
	case OutcomeLose:
		p1.Losses++
		p2.Wins++
	case OutcomeDraw:
		p1.Draws++
		p2.Draws++
	}
}

func outcomeFor(mine, theirs *deck.Hand) Outcome {
	myBust, theirBust := mine.IsBust(), theirs.IsBust()
	switch {
	case myBust && theirBust:
		return OutcomeDraw
	case myBust:
		return OutcomeLose
	case theirBust:
		return OutcomeWin
	case mine.Value() > theirs.Value():
		return OutcomeWin
	case mine.Value() < theirs.Value():
		return OutcomeLose
	default:
		return OutcomeDraw
	}
}

// State returns the current round phase
func (g *Game) State() State {
	return g.state
}

// Round returns the 1-based round number, 0 before the first round
func (g *Game) Round() int {
	return g.round
}

// CurrentTurn returns the acting player's id, or empty outside PLAYER_TURN
func (g *Game) CurrentTurn() string {
	return g.current
}

// Player returns the player with the given id
func (g *Game) Player(id string) (*Player, bool) {
	p, ok := g.byID[id]
	return p, ok
}

// Opponent returns the other player's entry for the given id
func (g *Game) Opponent(id string) (*Player, bool) {
	if _, ok := g.byID[id]; !ok {
		return nil, false
	}
	if g.players[0].ID == id {
		return g.players[1], true
	}
	return g.players[0], true
}

// Players returns both players in seating order
func (g *Game) Players() [2]*Player {
	return g.players
}

// CardsRemaining returns the number of undealt cards
func (g *Game) CardsRemaining() int {
	return g.deck.CardsRemaining()
}

// ResultFor returns the finished round from playerID's side. The second
// return is false while the round is still running or the id is unknown.
func (g *Game) ResultFor(playerID string) (Result, bool) {
	if g.state != StateFinished {
		return Result{}, false
	}
	p, ok := g.byID[playerID]
	if !ok {
		return Result{}, false
	}
	opp, _ := g.Opponent(playerID)
	return Result{
		Outcome:       outcomeFor(p.Hand, opp.Hand),
		MyValue:       p.Hand.Value(),
		OpponentValue: opp.Hand.Value(),
	}, true
}
