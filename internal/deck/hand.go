package deck

import "strings"

// Hand is the ordered set of cards a player holds during one round.
type Hand struct {
	Cards []Card
}

// NewHand returns an empty hand
func NewHand() *Hand {
	return &Hand{}
}

// Add appends a card to the hand
func (h *Hand) Add(card Card) {
	h.Cards = append(h.Cards, card)
}

// Value returns the sum of the fixed per-rank card values. Aces always count
// 1, so there is no soft total.
func (h *Hand) Value() int {
	value := 0
	for _, c := range h.Cards {
		value += c.Value()
	}
	return value
}

// IsBlackjack reports whether the hand is exactly two cards totalling 21
func (h *Hand) IsBlackjack() bool {
	return len(h.Cards) == 2 && h.Value() == 21
}

// IsBust reports whether the hand value exceeds 21
func (h *Hand) IsBust() bool {
	return h.Value() > 21
}

// String returns the hand as space-separated cards (e.g., "A♠ 10♥")
func (h *Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
