package game

// State represents the phase of a round. It is the single authority for
// which actions are currently legal.
type State int

const (
	StateWaiting State = iota
	StateDealing
	StatePlayerTurn
	StateFinished
)

// String returns the wire representation of the state
func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateDealing:
		return "dealing"
	case StatePlayerTurn:
		return "player_turn"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Outcome is a round result from one player's point of view
type Outcome int

const (
	OutcomeWin Outcome = iota
	OutcomeLose
	OutcomeDraw
)

// String returns the wire representation of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLose:
		return "lose"
	case OutcomeDraw:
		return "draw"
	default:
		return "unknown"
	}
}
