package server

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeAction MessageType = "action"

	// Server to client messages
	MessageTypeWaiting     MessageType = "waiting"
	MessageTypeMatched     MessageType = "matched"
	MessageTypeRoundStart  MessageType = "round_start"
	MessageTypeGameState   MessageType = "game_state"
	MessageTypeRoundResult MessageType = "round_result"
	MessageTypeAskContinue MessageType = "ask_continue"
	MessageTypeGameOver    MessageType = "game_over"
	MessageTypeError       MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Client action names carried in ActionData
const (
	ActionHit      = "hit"
	ActionStand    = "stand"
	ActionContinue = "continue"
	ActionQuit     = "quit"
)
