package deck

import (
	"math/rand"
	"testing"
)

func TestNewDeckHas52UniqueCards(t *testing.T) {
	d := NewDeck()
	if d.Remaining() != 52 {
		t.Fatalf("expected 52 cards, got %d", d.Remaining())
	}

	seen := make(map[Card]bool)
	for {
		card, ok := d.Deal()
		if !ok {
			break
		}
		if seen[card] {
			t.Errorf("duplicate card dealt: %s", card)
		}
		seen[card] = true
	}

	if len(seen) != 52 {
		t.Errorf("expected 52 unique cards, got %d", len(seen))
	}
}

func TestDealRemovesTopCard(t *testing.T) {
	d := NewDeckWithRand(rand.New(rand.NewSource(1)))

	before := d.Remaining()
	if _, ok := d.Deal(); !ok {
		t.Fatal("expected a card from a full deck")
	}
	if d.Remaining() != before-1 {
		t.Errorf("expected %d cards remaining, got %d", before-1, d.Remaining())
	}
}

func TestDealEmptyDeck(t *testing.T) {
	d := NewDeck()
	d.DealN(52)

	if _, ok := d.Deal(); ok {
		t.Error("expected no card from an empty deck")
	}
	if got := d.DealN(3); len(got) != 0 {
		t.Errorf("expected no cards from DealN on empty deck, got %d", len(got))
	}
}

func TestShuffleIsSeedDependent(t *testing.T) {
	a := NewDeckWithRand(rand.New(rand.NewSource(1)))
	b := NewDeckWithRand(rand.New(rand.NewSource(2)))

	same := true
	for i := 0; i < 10; i++ {
		ca, _ := a.Deal()
		cb, _ := b.Deal()
		if ca != cb {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different seeds to produce different orderings")
	}
}

func TestCardString(t *testing.T) {
	tests := []struct {
		card     Card
		expected string
	}{
		{NewCard(Ace, Spades), "A♠"},
		{NewCard(Ten, Hearts), "10♥"},
		{NewCard(Two, Clubs), "2♣"},
		{NewCard(Queen, Diamonds), "Q♦"},
	}

	for _, tt := range tests {
		if got := tt.card.String(); got != tt.expected {
			t.Errorf("String() = %s, want %s", got, tt.expected)
		}
	}
}

func TestCardView(t *testing.T) {
	v := NewCard(King, Hearts).View()
	if v.Rank != 13 || v.RankStr != "K" || v.Suit != "hearts" {
		t.Errorf("unexpected view: %+v", v)
	}

	v = NewCard(Ten, Spades).View()
	if v.Rank != 10 || v.RankStr != "10" || v.Suit != "spades" {
		t.Errorf("unexpected view: %+v", v)
	}
}

func TestParseCards(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Card
		wantErr  bool
	}{
		{
			name:  "royal flush",
			input: "As Ks Qs Js Ts",
			expected: []Card{
				{Rank: Ace, Suit: Spades},
				{Rank: King, Suit: Spades},
				{Rank: Queen, Suit: Spades},
				{Rank: Jack, Suit: Spades},
				{Rank: Ten, Suit: Spades},
			},
		},
		{
			name:  "mixed suits with 10",
			input: "Ah 10d 2c",
			expected: []Card{
				{Rank: Ace, Suit: Hearts},
				{Rank: Ten, Suit: Diamonds},
				{Rank: Two, Suit: Clubs},
			},
		},
		{name: "invalid rank", input: "Xs", wantErr: true},
		{name: "invalid suit", input: "Ax", wantErr: true},
		{name: "empty", input: "", expected: []Card{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCards(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCards() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d cards, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("card %d = %v, want %v", i, got[i], tt.expected[i])
				}
			}
		})
	}
}
