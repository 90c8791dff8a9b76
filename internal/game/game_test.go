package game

import (
	"encoding/json"
	"io"
	"math/rand"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newTestGame(t *testing.T, players ...string) *Game {
	t.Helper()
	if len(players) == 0 {
		players = []string{"alice", "bob", "carol"}
	}
	return NewWithRand(players, rand.New(rand.NewSource(42)), testLogger())
}

// giveEveryoneChips hands chip i+1 to player i for the current color
func giveEveryoneChips(t *testing.T, g *Game) {
	t.Helper()
	for i, p := range g.Players() {
		require.True(t, g.TakeFromPublic(p, i+1), "player %s should take chip %d", p, i+1)
	}
}

// requireConservation checks that available plus held chips of a color
// form exactly {1..N}
func requireConservation(t *testing.T, g *Game, color ChipColor) {
	t.Helper()
	seen := make(map[int]int)
	for _, n := range g.availableSorted(color) {
		seen[n]++
	}
	for _, p := range g.Players() {
		if n, ok := g.HeldChip(p, color); ok {
			seen[n]++
		}
	}

	require.Len(t, seen, len(g.Players()), "%s chips should cover 1..N", color)
	for n := 1; n <= len(g.Players()); n++ {
		require.Equal(t, 1, seen[n], "%s chip %d should exist exactly once", color, n)
	}
}

func TestNewGameDealsAndOpensWhitePool(t *testing.T) {
	g := newTestGame(t)

	assert.Equal(t, Preflop, g.Round())
	assert.Empty(t, g.CommunityCards())
	for _, p := range g.Players() {
		assert.Len(t, g.PocketCards(p), 2)
	}

	color, ok := g.CurrentChipColor()
	require.True(t, ok)
	assert.Equal(t, White, color)
	assert.Equal(t, []int{1, 2, 3}, g.availableSorted(White))
}

func TestPocketCardsAreUnique(t *testing.T) {
	g := newTestGame(t, "a", "b", "c", "d", "e", "f")

	seen := make(map[string]bool)
	for _, p := range g.Players() {
		for _, c := range g.PocketCards(p) {
			require.False(t, seen[c.String()], "card %s dealt twice", c)
			seen[c.String()] = true
		}
	}
	assert.Len(t, seen, 12)
}

func TestTakeFromPublic(t *testing.T) {
	g := newTestGame(t)

	assert.True(t, g.TakeFromPublic("alice", 1))
	chip, ok := g.HeldChip("alice", White)
	require.True(t, ok)
	assert.Equal(t, 1, chip)
	assert.Equal(t, []int{2, 3}, g.availableSorted(White))

	// Unavailable chip fails, even repeatedly.
	assert.False(t, g.TakeFromPublic("bob", 1))
	assert.False(t, g.TakeFromPublic("alice", 7))
	requireConservation(t, g, White)
}

func TestTakeFromPublicSwapsExistingChip(t *testing.T) {
	g := newTestGame(t)

	require.True(t, g.TakeFromPublic("alice", 1))
	require.True(t, g.TakeFromPublic("alice", 2))

	chip, _ := g.HeldChip("alice", White)
	assert.Equal(t, 2, chip)
	// Chip 1 is back in the pool; alice never held both at once.
	assert.Equal(t, []int{1, 3}, g.availableSorted(White))
	requireConservation(t, g, White)
}

func TestTakeFromPlayer(t *testing.T) {
	g := newTestGame(t)
	require.True(t, g.TakeFromPublic("alice", 1))

	assert.True(t, g.TakeFromPlayer("carol", "alice"))

	chip, ok := g.HeldChip("carol", White)
	require.True(t, ok)
	assert.Equal(t, 1, chip)
	_, ok = g.HeldChip("alice", White)
	assert.False(t, ok)
	// The chip moved directly between players; the pool is untouched.
	assert.Equal(t, []int{2, 3}, g.availableSorted(White))
	requireConservation(t, g, White)
}

func TestTakeFromPlayerWithOwnChip(t *testing.T) {
	g := newTestGame(t)
	require.True(t, g.TakeFromPublic("alice", 1))
	require.True(t, g.TakeFromPublic("carol", 3))

	assert.True(t, g.TakeFromPlayer("carol", "alice"))

	chip, _ := g.HeldChip("carol", White)
	assert.Equal(t, 1, chip)
	assert.Equal(t, []int{2, 3}, g.availableSorted(White))
	requireConservation(t, g, White)
}

func TestTakeFromPlayerWithoutChipFails(t *testing.T) {
	g := newTestGame(t)
	assert.False(t, g.TakeFromPlayer("carol", "alice"))
}

func TestTakeFromSelfRejected(t *testing.T) {
	g := newTestGame(t)
	require.True(t, g.TakeFromPublic("alice", 1))

	assert.False(t, g.TakeFromPlayer("alice", "alice"))

	chip, ok := g.HeldChip("alice", White)
	require.True(t, ok)
	assert.Equal(t, 1, chip)
	// The chip stayed out of the pool; nobody else can grab a duplicate.
	assert.Equal(t, []int{2, 3}, g.availableSorted(White))
	assert.False(t, g.TakeFromPublic("bob", 1))
	requireConservation(t, g, White)
}

func TestTakeFromSelfWithoutChipFails(t *testing.T) {
	g := newTestGame(t)
	assert.False(t, g.TakeFromPlayer("alice", "alice"))
	requireConservation(t, g, White)
}

func TestReturnToPublic(t *testing.T) {
	g := newTestGame(t)

	assert.False(t, g.ReturnToPublic("alice"))

	require.True(t, g.TakeFromPublic("alice", 2))
	assert.True(t, g.ReturnToPublic("alice"))

	_, ok := g.HeldChip("alice", White)
	assert.False(t, ok)
	assert.Equal(t, []int{1, 2, 3}, g.availableSorted(White))
	requireConservation(t, g, White)
}

func TestAdvanceRequiresAllChips(t *testing.T) {
	g := newTestGame(t)

	assert.False(t, g.CanAdvance())
	assert.False(t, g.AdvanceRound())
	assert.Equal(t, Preflop, g.Round())

	require.True(t, g.TakeFromPublic("alice", 1))
	require.True(t, g.TakeFromPublic("bob", 2))
	assert.False(t, g.AdvanceRound(), "missing carol's chip")

	require.True(t, g.TakeFromPublic("carol", 3))
	assert.True(t, g.AdvanceRound())
	assert.Equal(t, Flop, g.Round())
}

func TestFullRoundProgression(t *testing.T) {
	g := newTestGame(t)

	expected := []struct {
		round     Round
		color     ChipColor
		community int
	}{
		{Flop, Yellow, 3},
		{Turn, Orange, 4},
		{River, Red, 5},
	}

	for _, want := range expected {
		giveEveryoneChips(t, g)
		require.True(t, g.AdvanceRound())

		assert.Equal(t, want.round, g.Round())
		assert.Len(t, g.CommunityCards(), want.community)

		color, ok := g.CurrentChipColor()
		require.True(t, ok)
		assert.Equal(t, want.color, color)
		assert.Equal(t, []int{1, 2, 3}, g.availableSorted(color))
	}

	// River into scoring: no new cards, no new color.
	giveEveryoneChips(t, g)
	require.True(t, g.AdvanceRound())
	assert.Equal(t, Scoring, g.Round())
	assert.Len(t, g.CommunityCards(), 5)

	_, ok := g.CurrentChipColor()
	assert.False(t, ok)

	result := g.ScoringResult()
	require.NotNil(t, result)
	assert.Len(t, result.RankedPlayers, 3)
	assert.Len(t, result.RedChipAssignments, 3)

	// Earlier colors keep their conservation invariant after the game ends.
	for _, color := range chipColors {
		requireConservation(t, g, color)
	}
}

func TestNoChipOperationsDuringScoring(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 4; i++ {
		giveEveryoneChips(t, g)
		require.True(t, g.AdvanceRound())
	}
	require.Equal(t, Scoring, g.Round())

	assert.False(t, g.TakeFromPublic("alice", 1))
	assert.False(t, g.TakeFromPlayer("alice", "bob"))
	assert.False(t, g.ReturnToPublic("alice"))
	assert.False(t, g.AllPlayersHaveChip())
	assert.False(t, g.AdvanceRound())
}

func TestPlayersReturnsCopy(t *testing.T) {
	g := newTestGame(t)

	roster := g.Players()
	roster[0] = "mallory"

	assert.Equal(t, []string{"alice", "bob", "carol"}, g.Players())
	assert.True(t, g.TakeFromPublic("alice", 1), "roster is unaffected by caller mutation")
}

func TestUnknownPlayerCannotTakeChips(t *testing.T) {
	g := newTestGame(t)
	assert.False(t, g.TakeFromPublic("mallory", 1))
	assert.Equal(t, []int{1, 2, 3}, g.availableSorted(White))
}

func TestSnapshotHidesOtherPockets(t *testing.T) {
	g := newTestGame(t)

	snap := g.Snapshot("alice")
	assert.Equal(t, "preflop", snap.Round)
	assert.Len(t, snap.PocketCards, 2)
	assert.Equal(t, "white", snap.CurrentChipColor)
	assert.Equal(t, []int{1, 2, 3}, snap.AvailableChips)
	assert.Nil(t, snap.Scoring)

	// A non-player viewer sees no pocket cards at all.
	outsider := g.Snapshot("watcher")
	assert.Empty(t, outsider.PocketCards)
}

func TestSnapshotChipHistoryIsPublic(t *testing.T) {
	g := newTestGame(t)
	require.True(t, g.TakeFromPublic("alice", 2))
	giveEveryoneChips(t, g)
	require.True(t, g.AdvanceRound())
	require.True(t, g.TakeFromPublic("bob", 3))

	snap := g.Snapshot("carol")
	assert.Equal(t, 1, snap.ChipHistory["alice"]["white"])
	assert.Equal(t, 3, snap.ChipHistory["bob"]["yellow"])
	// Current round chips only show yellow holdings.
	assert.Equal(t, map[string]int{"bob": 3}, snap.PlayerChips)
}

func TestSnapshotAtScoringRevealsEverything(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 4; i++ {
		giveEveryoneChips(t, g)
		require.True(t, g.AdvanceRound())
	}

	snap := g.Snapshot("alice")
	require.NotNil(t, snap.Scoring)
	assert.Len(t, snap.Scoring.PlayerAllCards, 3)
	for _, p := range g.Players() {
		cards := snap.Scoring.PlayerAllCards[p]
		assert.Len(t, cards.PocketCards, 2)
		assert.Len(t, cards.CommunityCards, 5)
		assert.Len(t, cards.AllCards, 7)
		assert.NotEmpty(t, cards.BestHand.Rank)
	}
}

func TestRankedPlayersSerializeAsPairs(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 4; i++ {
		giveEveryoneChips(t, g)
		require.True(t, g.AdvanceRound())
	}

	data, err := json.Marshal(g.ScoringResult())
	require.NoError(t, err)

	// Each ranking entry goes over the wire as a [player, hand] pair.
	var result struct {
		RankedPlayers [][2]json.RawMessage `json:"ranked_players"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.RankedPlayers, 3)

	var player string
	require.NoError(t, json.Unmarshal(result.RankedPlayers[0][0], &player))
	assert.Contains(t, g.Players(), player)

	var hand struct {
		Rank string `json:"rank"`
	}
	require.NoError(t, json.Unmarshal(result.RankedPlayers[0][1], &hand))
	assert.NotEmpty(t, hand.Rank)
}

func TestScoringComputedOnce(t *testing.T) {
	g := newTestGame(t)
	for i := 0; i < 4; i++ {
		giveEveryoneChips(t, g)
		require.True(t, g.AdvanceRound())
	}

	first := g.ScoringResult()
	assert.False(t, g.AdvanceRound())
	assert.Same(t, first, g.ScoringResult())
}
