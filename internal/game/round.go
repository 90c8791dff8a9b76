package game

// Round is one of the five ordered phases of a game. A game only ever
// moves forward; restarting builds a fresh Game instance.
type Round int

const (
	Preflop Round = iota
	Flop
	Turn
	River
	Scoring
)

// String returns the wire name of a round
func (r Round) String() string {
	switch r {
	case Preflop:
		return "preflop"
	case Flop:
		return "flop"
	case Turn:
		return "turn"
	case River:
		return "river"
	case Scoring:
		return "scoring"
	default:
		return "unknown"
	}
}

// ChipColor is the per-round token type players trade to signal relative
// hand strength. Each color is bound to exactly one round; no color is
// active during scoring.
type ChipColor int

const (
	White ChipColor = iota
	Yellow
	Orange
	Red
)

// String returns the wire name of a chip color
func (c ChipColor) String() string {
	switch c {
	case White:
		return "white"
	case Yellow:
		return "yellow"
	case Orange:
		return "orange"
	case Red:
		return "red"
	default:
		return "unknown"
	}
}

// chipColors lists every color in activation order
var chipColors = []ChipColor{White, Yellow, Orange, Red}

// colorForRound returns the chip color bound to a round. Scoring has no
// active color.
func colorForRound(r Round) (ChipColor, bool) {
	switch r {
	case Preflop:
		return White, true
	case Flop:
		return Yellow, true
	case Turn:
		return Orange, true
	case River:
		return Red, true
	default:
		return 0, false
	}
}
