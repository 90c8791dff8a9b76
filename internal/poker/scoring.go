package poker

import "sort"

// RankedPlayer pairs a player with their best hand, in ranking order
type RankedPlayer struct {
	Player string
	Hand   Hand
}

// RankPlayers orders players ascending by hand strength, weakest first.
// The sort is stable with respect to the given roster order so tied
// players keep a deterministic ordering.
func RankPlayers(players []string, hands map[string]Hand) []RankedPlayer {
	ranked := make([]RankedPlayer, 0, len(players))
	for _, p := range players {
		if hand, ok := hands[p]; ok {
			ranked = append(ranked, RankedPlayer{Player: p, Hand: hand})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Hand.Compare(ranked[j].Hand) < 0
	})
	return ranked
}

// CheckCooperativeWin decides the cooperative outcome. Sorting players
// ascending by hand strength defines the correct chip numbering 1..N
// (weakest=1). A strictly-ordered player must hold exactly their rank
// number; players tied in strength may hold any permutation of the
// numbers spanning their tie group's positions. A player with no chip
// loses the game outright.
func CheckCooperativeWin(players []string, hands map[string]Hand, redChips map[string]int) (bool, []RankedPlayer, map[string]int) {
	ranked := RankPlayers(players, hands)

	win := true
	for i, rp := range ranked {
		chip, ok := redChips[rp.Player]
		if !ok {
			win = false
			continue
		}

		// Positions (1-indexed) of every player whose hand equals this one.
		// The tie group is contiguous in the sorted order.
		minPos, maxPos := i+1, i+1
		for j, other := range ranked {
			if rp.Hand.Equal(other.Hand) {
				if j+1 < minPos {
					minPos = j + 1
				}
				if j+1 > maxPos {
					maxPos = j + 1
				}
			}
		}

		if chip < minPos || chip > maxPos {
			win = false
		}
	}

	return win, ranked, redChips
}
