// Package game implements the round engine for a single cooperative poker
// game: dealing, round progression, chip custody and exchange, and the
// terminal scoring step.
package game

import (
	"math/rand"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/louten/chiprank/internal/deck"
	"github.com/louten/chiprank/internal/poker"
)

// Game owns one game instance over a fixed roster. All mutating methods
// must be serialized by the caller (the room holds the lock); the engine
// itself does no locking.
type Game struct {
	players   []string
	deck      *deck.Deck
	round     Round
	pocket    map[string][]deck.Card
	community []deck.Card

	// available[color] holds the chip numbers in the public pool for every
	// color that has been activated. held[player][color] is the single chip
	// a player holds of that color; absence means no chip. Together they
	// partition {1..N} exactly for every activated color.
	available map[ChipColor]map[int]bool
	held      map[string]map[ChipColor]int

	scoring *ScoringResult
	logger  *log.Logger
}

// New creates a game over the given roster, shuffles a fresh deck, deals
// two pocket cards to each player in roster order and opens the white
// chip pool.
func New(players []string, logger *log.Logger) *Game {
	return NewWithDeck(players, deck.NewDeck(), logger)
}

// NewWithDeck is New with an explicit deck, used by tests for
// deterministic deals.
func NewWithDeck(players []string, d *deck.Deck, logger *log.Logger) *Game {
	g := &Game{
		players:   append([]string(nil), players...),
		deck:      d,
		round:     Preflop,
		pocket:    make(map[string][]deck.Card, len(players)),
		available: make(map[ChipColor]map[int]bool),
		held:      make(map[string]map[ChipColor]int, len(players)),
		logger:    logger.WithPrefix("game"),
	}

	for _, p := range g.players {
		g.pocket[p] = g.deck.DealN(2)
		g.held[p] = make(map[ChipColor]int)
	}

	g.activateColor(White)
	g.logger.Info("Started pre-flop round", "players", len(g.players))
	return g
}

// activateColor opens a color's public pool with chips 1..N
func (g *Game) activateColor(color ChipColor) {
	pool := make(map[int]bool, len(g.players))
	for n := 1; n <= len(g.players); n++ {
		pool[n] = true
	}
	g.available[color] = pool
}

// NewWithRand seeds New with a specific rng
func NewWithRand(players []string, rng *rand.Rand, logger *log.Logger) *Game {
	return NewWithDeck(players, deck.NewDeckWithRand(rng), logger)
}

// Players returns a copy of the roster in seating order
func (g *Game) Players() []string {
	return append([]string(nil), g.players...)
}

// Round returns the current round
func (g *Game) Round() Round {
	return g.round
}

// CommunityCards returns the board dealt so far
func (g *Game) CommunityCards() []deck.Card {
	return g.community
}

// PocketCards returns a player's two private cards
func (g *Game) PocketCards(player string) []deck.Card {
	return g.pocket[player]
}

// CurrentChipColor returns the active chip color, or false during scoring
func (g *Game) CurrentChipColor() (ChipColor, bool) {
	return colorForRound(g.round)
}

// HeldChip returns the chip a player holds of a color, if any
func (g *Game) HeldChip(player string, color ChipColor) (int, bool) {
	n, ok := g.held[player][color]
	return n, ok
}

// ScoringResult returns the stored result once the game has reached
// scoring, or nil before that.
func (g *Game) ScoringResult() *ScoringResult {
	return g.scoring
}

// TakeFromPublic moves a chip of the current color from the public pool
// to the player. A chip the player already holds of that color returns to
// the pool first, so no player ever holds two chips of one color.
func (g *Game) TakeFromPublic(player string, chipNumber int) bool {
	color, ok := g.CurrentChipColor()
	if !ok || !g.available[color][chipNumber] {
		return false
	}
	if _, isPlayer := g.held[player]; !isPlayer {
		return false
	}

	g.releaseChip(player, color)
	delete(g.available[color], chipNumber)
	g.held[player][color] = chipNumber

	g.logger.Info("Chip taken from public", "player", player, "color", color, "chip", chipNumber)
	return true
}

// TakeFromPlayer reassigns the target's current-color chip directly to the
// taker; the chip never passes through the public pool. The taker's own
// chip, if any, returns to the pool first. Taking from yourself is
// rejected: releasing and re-taking the same chip would duplicate it.
func (g *Game) TakeFromPlayer(taker, target string) bool {
	color, ok := g.CurrentChipColor()
	if !ok || taker == target {
		return false
	}
	if _, isPlayer := g.held[taker]; !isPlayer {
		return false
	}

	chip, has := g.held[target][color]
	if !has {
		return false
	}

	g.releaseChip(taker, color)
	delete(g.held[target], color)
	g.held[taker][color] = chip

	g.logger.Info("Chip taken from player", "taker", taker, "target", target, "color", color, "chip", chip)
	return true
}

// ReturnToPublic moves the player's current-color chip back to the pool
func (g *Game) ReturnToPublic(player string) bool {
	color, ok := g.CurrentChipColor()
	if !ok {
		return false
	}
	if _, has := g.held[player][color]; !has {
		return false
	}

	chip := g.releaseChip(player, color)
	g.logger.Info("Chip returned to public", "player", player, "color", color, "chip", chip)
	return true
}

// releaseChip puts the player's chip of the given color back into the
// public pool and clears their slot. Returns the released chip number,
// or 0 if the player held none.
func (g *Game) releaseChip(player string, color ChipColor) int {
	chip, has := g.held[player][color]
	if !has {
		return 0
	}
	g.available[color][chip] = true
	delete(g.held[player], color)
	return chip
}

// AllPlayersHaveChip reports whether every player holds a chip of the
// current color. Always false during scoring.
func (g *Game) AllPlayersHaveChip() bool {
	color, ok := g.CurrentChipColor()
	if !ok {
		return false
	}
	for _, p := range g.players {
		if _, has := g.held[p][color]; !has {
			return false
		}
	}
	return true
}

// CanAdvance reports whether the round may advance
func (g *Game) CanAdvance() bool {
	return g.AllPlayersHaveChip()
}

// AdvanceRound moves the game to the next round once every player holds a
// chip of the current color. Community cards are dealt and the next color
// activated; the river advances into scoring instead.
func (g *Game) AdvanceRound() bool {
	if !g.CanAdvance() {
		return false
	}

	switch g.round {
	case Preflop:
		g.dealCommunity(3)
		g.round = Flop
		g.activateColor(Yellow)
	case Flop:
		g.dealCommunity(1)
		g.round = Turn
		g.activateColor(Orange)
	case Turn:
		g.dealCommunity(1)
		g.round = River
		g.activateColor(Red)
	case River:
		g.round = Scoring
		g.computeScoring()
	default:
		return false
	}

	g.logger.Info("Advanced round", "round", g.round, "community", len(g.community))
	return true
}

func (g *Game) dealCommunity(n int) {
	g.community = append(g.community, g.deck.DealN(n)...)
}

// computeScoring evaluates every player's best 7-card hand, collects red
// chips and stores the cooperative outcome. Runs exactly once per game.
func (g *Game) computeScoring() {
	if len(g.community) != 5 {
		// State machine bug: scoring is only reachable after the river.
		g.logger.Error("Cannot score without 5 community cards", "community", len(g.community))
		return
	}

	hands := make(map[string]poker.Hand, len(g.players))
	for _, p := range g.players {
		all := append(append([]deck.Card(nil), g.pocket[p]...), g.community...)
		best, _ := poker.FindBestHand(all)
		hands[p] = best
	}

	redChips := make(map[string]int)
	for _, p := range g.players {
		if chip, has := g.held[p][Red]; has {
			redChips[p] = chip
		}
	}

	win, ranked, chips := poker.CheckCooperativeWin(g.players, hands, redChips)
	g.scoring = newScoringResult(g, hands, win, ranked, chips)

	outcome := "LOSS"
	if win {
		outcome = "WIN"
	}
	g.logger.Info("Scoring complete", "outcome", outcome)
}

// availableSorted returns the public pool of a color in ascending order
func (g *Game) availableSorted(color ChipColor) []int {
	pool := g.available[color]
	chips := make([]int, 0, len(pool))
	for n := range pool {
		chips = append(chips, n)
	}
	sort.Ints(chips)
	return chips
}
