// Package poker contains the 5-card hand evaluator and the cooperative
// win adjudicator. Hands compare by category first, then by a per-category
// tie-break vector, so two hands of equal strength compare equal even when
// built from different cards.
package poker

import (
	"sort"

	"github.com/louten/chiprank/internal/deck"
)

// Category is the rank class of a 5-card poker hand
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// Name returns the identifier form of a category (e.g. "FULL_HOUSE")
func (c Category) Name() string {
	switch c {
	case HighCard:
		return "HIGH_CARD"
	case OnePair:
		return "ONE_PAIR"
	case TwoPair:
		return "TWO_PAIR"
	case ThreeOfAKind:
		return "THREE_OF_A_KIND"
	case Straight:
		return "STRAIGHT"
	case Flush:
		return "FLUSH"
	case FullHouse:
		return "FULL_HOUSE"
	case FourOfAKind:
		return "FOUR_OF_A_KIND"
	case StraightFlush:
		return "STRAIGHT_FLUSH"
	case RoyalFlush:
		return "ROYAL_FLUSH"
	default:
		return "UNKNOWN"
	}
}

// String returns the display form of a category (e.g. "Full House")
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// Hand is an evaluated 5-card hand. Cards are held rank-descending.
// TieBreaks is the per-category kicker vector; two hands with the same
// Category and TieBreaks are equal in strength.
type Hand struct {
	Cards     []deck.Card
	Category  Category
	TieBreaks []int
}

// Evaluate classifies exactly 5 cards into a Hand
func Evaluate(cards []deck.Card) Hand {
	sorted := make([]deck.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Rank > sorted[j].Rank
	})

	h := Hand{Cards: sorted}
	h.Category, h.TieBreaks = classify(sorted)
	return h
}

func classify(cards []deck.Card) (Category, []int) {
	ranks := make([]int, len(cards))
	for i, c := range cards {
		ranks[i] = int(c.Rank) // already descending
	}

	isFlush := true
	for _, c := range cards[1:] {
		if c.Suit != cards[0].Suit {
			isFlush = false
			break
		}
	}

	isStraight, straightHigh := checkStraight(ranks)

	counts := make(map[int]int)
	for _, r := range ranks {
		counts[r]++
	}

	// Royal flush is a straight flush to the ace, checked as a
	// specialization so it never classifies twice.
	if isFlush && isStraight {
		if ranks[0] == 14 && ranks[len(ranks)-1] == 10 {
			return RoyalFlush, []int{14}
		}
		return StraightFlush, []int{straightHigh}
	}

	quad, trips, pairs, singles := groupByCount(counts)

	switch {
	case quad != 0:
		return FourOfAKind, []int{quad, singles[0]}
	case trips != 0 && len(pairs) == 1:
		return FullHouse, []int{trips, pairs[0]}
	case isFlush:
		return Flush, ranks
	case isStraight:
		return Straight, []int{straightHigh}
	case trips != 0:
		return ThreeOfAKind, append([]int{trips}, singles...)
	case len(pairs) == 2:
		return TwoPair, append(pairs, singles[0])
	case len(pairs) == 1:
		return OnePair, append([]int{pairs[0]}, singles...)
	default:
		return HighCard, ranks
	}
}

// groupByCount splits ranks by multiplicity, each group sorted descending
func groupByCount(counts map[int]int) (quad, trips int, pairs, singles []int) {
	for r, n := range counts {
		switch n {
		case 4:
			quad = r
		case 3:
			trips = r
		case 2:
			pairs = append(pairs, r)
		case 1:
			singles = append(singles, r)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pairs)))
	sort.Sort(sort.Reverse(sort.IntSlice(singles)))
	return quad, trips, pairs, singles
}

// checkStraight reports whether the descending ranks form a straight and
// returns the straight's high card. In the wheel (A-5-4-3-2) the ace plays
// low and the straight is 5-high.
func checkStraight(ranks []int) (bool, int) {
	unique := make(map[int]bool, len(ranks))
	for _, r := range ranks {
		unique[r] = true
	}
	if len(unique) != 5 {
		return false, 0
	}

	if ranks[0]-ranks[4] == 4 {
		return true, ranks[0]
	}

	if ranks[0] == 14 && ranks[1] == 5 && ranks[2] == 4 && ranks[3] == 3 && ranks[4] == 2 {
		return true, 5
	}

	return false, 0
}

// Compare returns -1, 0 or 1 as h is weaker than, equal to or stronger
// than other
func (h Hand) Compare(other Hand) int {
	if h.Category != other.Category {
		if h.Category < other.Category {
			return -1
		}
		return 1
	}

	for i := 0; i < len(h.TieBreaks) && i < len(other.TieBreaks); i++ {
		if h.TieBreaks[i] != other.TieBreaks[i] {
			if h.TieBreaks[i] < other.TieBreaks[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Equal reports whether two hands are identical in strength
func (h Hand) Equal(other Hand) bool {
	return h.Compare(other) == 0
}

// FindBestHand selects the strongest 5-card hand from 5 to 7 cards by
// evaluating every 5-card subset. Ties between subsets are equal in
// strength, so keeping the first maximum is fine.
func FindBestHand(cards []deck.Card) (Hand, bool) {
	if len(cards) < 5 {
		return Hand{}, false
	}
	if len(cards) == 5 {
		return Evaluate(cards), true
	}

	var best Hand
	found := false
	combinations(len(cards), 5, func(idx []int) {
		subset := make([]deck.Card, 5)
		for i, j := range idx {
			subset[i] = cards[j]
		}
		hand := Evaluate(subset)
		if !found || hand.Compare(best) > 0 {
			best = hand
			found = true
		}
	})

	return best, true
}

// combinations calls fn with every k-subset of [0,n) in lexicographic order
func combinations(n, k int, fn func([]int)) {
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	for {
		fn(idx)

		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// HandView is the wire representation of an evaluated hand
type HandView struct {
	Rank        string          `json:"rank"`
	RankDisplay string          `json:"rank_display"`
	Cards       []deck.CardView `json:"cards"`
	TieBreakers []int           `json:"tie_breakers"`
}

// View returns the JSON projection of a hand
func (h Hand) View() HandView {
	return HandView{
		Rank:        h.Category.Name(),
		RankDisplay: h.Category.String(),
		Cards:       deck.Views(h.Cards),
		TieBreakers: h.TieBreaks,
	}
}
