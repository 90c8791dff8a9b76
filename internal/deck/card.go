package deck

import (
	"fmt"
	"strconv"
	"strings"
)

// Suit represents a card suit
type Suit int

const (
	Hearts Suit = iota
	Diamonds
	Clubs
	Spades
)

// String returns the lowercase suit name used on the wire
func (s Suit) String() string {
	switch s {
	case Hearts:
		return "hearts"
	case Diamonds:
		return "diamonds"
	case Clubs:
		return "clubs"
	case Spades:
		return "spades"
	default:
		return "unknown"
	}
}

// Symbol returns the single-character suit symbol (e.g. "♥")
func (s Suit) Symbol() string {
	switch s {
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// IsRed returns true if the suit is red (Hearts or Diamonds)
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Aces are high (14); the only place an ace
// plays low is the wheel straight, which the evaluator handles itself.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// String returns the display form of a rank ("2".."10", "J", "Q", "K", "A")
func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return strconv.Itoa(int(r))
	}
}

// Card represents a playing card
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the short form of a card (e.g. "A♠", "10♥")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit.Symbol())
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// CardView is the wire representation of a card
type CardView struct {
	Rank    int    `json:"rank"`
	RankStr string `json:"rank_str"`
	Suit    string `json:"suit"`
}

// View returns the JSON projection of a card
func (c Card) View() CardView {
	return CardView{
		Rank:    int(c.Rank),
		RankStr: c.Rank.String(),
		Suit:    c.Suit.String(),
	}
}

// Views projects a slice of cards for serialization
func Views(cards []Card) []CardView {
	views := make([]CardView, len(cards))
	for i, c := range cards {
		views[i] = c.View()
	}
	return views
}

// ParseCard parses a short card string such as "As", "Th" or "10h".
// Used by tests, not by the game protocol.
func ParseCard(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card: %q", s)
	}

	var suit Suit
	switch strings.ToLower(s[len(s)-1:]) {
	case "h":
		suit = Hearts
	case "d":
		suit = Diamonds
	case "c":
		suit = Clubs
	case "s":
		suit = Spades
	default:
		return Card{}, fmt.Errorf("invalid suit in card: %q", s)
	}

	var rank Rank
	switch strings.ToUpper(s[:len(s)-1]) {
	case "T", "10":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		n, err := strconv.Atoi(s[:len(s)-1])
		if err != nil || n < 2 || n > 9 {
			return Card{}, fmt.Errorf("invalid rank in card: %q", s)
		}
		rank = Rank(n)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// ParseCards parses a space-separated list of card strings
func ParseCards(s string) ([]Card, error) {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		card, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}
