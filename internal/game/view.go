package game

import (
	"encoding/json"

	"github.com/louten/chiprank/internal/deck"
	"github.com/louten/chiprank/internal/poker"
)

// PlayerCards is the full card reveal for one player, included in the
// scoring result only.
type PlayerCards struct {
	PocketCards    []deck.CardView `json:"pocket_cards"`
	CommunityCards []deck.CardView `json:"community_cards"`
	AllCards       []deck.CardView `json:"all_cards"`
	BestHand       poker.HandView  `json:"best_hand"`
}

// RankedEntry is one position in the strength-sorted ranking, weakest
// first. It serializes as a [player, hand] pair, which is what the
// frontend's results table consumes.
type RankedEntry struct {
	Player string
	Hand   poker.HandView
}

func (e RankedEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{e.Player, e.Hand})
}

// ScoringResult is the immutable outcome of a finished game. It is
// computed once at the river-to-scoring transition and shown to every
// viewer; this is the only point where pocket cards become public.
type ScoringResult struct {
	Win                bool                      `json:"win"`
	PlayerHands        map[string]poker.HandView `json:"player_hands"`
	PlayerAllCards     map[string]PlayerCards    `json:"player_all_cards"`
	RankedPlayers      []RankedEntry             `json:"ranked_players"`
	RedChipAssignments map[string]int            `json:"red_chip_assignments"`
}

func newScoringResult(g *Game, hands map[string]poker.Hand, win bool, ranked []poker.RankedPlayer, redChips map[string]int) *ScoringResult {
	result := &ScoringResult{
		Win:                win,
		PlayerHands:        make(map[string]poker.HandView, len(g.players)),
		PlayerAllCards:     make(map[string]PlayerCards, len(g.players)),
		RankedPlayers:      make([]RankedEntry, 0, len(ranked)),
		RedChipAssignments: redChips,
	}

	for _, p := range g.players {
		all := append(append([]deck.Card(nil), g.pocket[p]...), g.community...)
		result.PlayerHands[p] = hands[p].View()
		result.PlayerAllCards[p] = PlayerCards{
			PocketCards:    deck.Views(g.pocket[p]),
			CommunityCards: deck.Views(g.community),
			AllCards:       deck.Views(all),
			BestHand:       hands[p].View(),
		}
	}

	for _, rp := range ranked {
		result.RankedPlayers = append(result.RankedPlayers, RankedEntry{
			Player: rp.Player,
			Hand:   rp.Hand.View(),
		})
	}

	return result
}

// Snapshot is the per-viewer projection of the game state. Pocket cards
// are the viewer's own only; chip history is deliberately public.
type Snapshot struct {
	Round              string                    `json:"round"`
	Players            []string                  `json:"players"`
	CommunityCards     []deck.CardView           `json:"community_cards"`
	PocketCards        []deck.CardView           `json:"pocket_cards"`
	CurrentChipColor   string                    `json:"current_chip_color,omitempty"`
	PlayerChips        map[string]int            `json:"player_chips"`
	AvailableChips     []int                     `json:"available_chips"`
	ChipHistory        map[string]map[string]int `json:"chip_history"`
	AllPlayersHaveChip bool                      `json:"all_players_have_chip"`
	CanAdvance         bool                      `json:"can_advance"`
	Scoring            *ScoringResult            `json:"scoring,omitempty"`
}

// Snapshot projects the game state for one viewer. The projection is
// read-only and may be computed once per recipient.
func (g *Game) Snapshot(viewer string) Snapshot {
	snap := Snapshot{
		Round:          g.round.String(),
		Players:        g.Players(),
		CommunityCards: deck.Views(g.community),
		PocketCards:    []deck.CardView{},
		PlayerChips:    make(map[string]int),
		AvailableChips: []int{},
		ChipHistory:    make(map[string]map[string]int, len(g.players)),
	}

	if pocket, ok := g.pocket[viewer]; ok {
		snap.PocketCards = deck.Views(pocket)
	}

	if color, ok := g.CurrentChipColor(); ok {
		snap.CurrentChipColor = color.String()
		for _, p := range g.players {
			if chip, has := g.held[p][color]; has {
				snap.PlayerChips[p] = chip
			}
		}
		snap.AvailableChips = g.availableSorted(color)
	}

	for _, p := range g.players {
		history := make(map[string]int)
		for _, color := range chipColors {
			if chip, has := g.held[p][color]; has {
				history[color.String()] = chip
			}
		}
		snap.ChipHistory[p] = history
	}

	snap.AllPlayersHaveChip = g.AllPlayersHaveChip()
	snap.CanAdvance = g.CanAdvance()

	if g.round == Scoring {
		snap.Scoring = g.scoring
	}

	return snap
}
