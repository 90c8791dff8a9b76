// Package room implements the room lifecycle and the process-wide room
// registry. A room wraps one game engine with a player roster and
// connection tracking; the registry owns every active room.
package room

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/louten/chiprank/internal/game"
)

// State is the lifecycle state of a room
type State int

const (
	Waiting State = iota
	Started
)

// String returns the wire name of a room state
func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Started:
		return "started"
	default:
		return "unknown"
	}
}

// Room is one isolated party with its own roster and game instance.
// Exported methods take the room's lock, so all mutations on one room are
// serialized while independent rooms proceed in parallel.
type Room struct {
	mu           sync.Mutex
	name         string
	players      []string
	connected    map[string]bool
	state        State
	game         *game.Game
	lastActivity time.Time

	minPlayers int
	maxPlayers int
	clock      quartz.Clock
	logger     *log.Logger
}

func newRoom(name string, minPlayers, maxPlayers int, clock quartz.Clock, logger *log.Logger) *Room {
	return &Room{
		name:         name,
		connected:    make(map[string]bool),
		state:        Waiting,
		lastActivity: clock.Now(),
		minPlayers:   minPlayers,
		maxPlayers:   maxPlayers,
		clock:        clock,
		logger:       logger.WithPrefix("room").With("room", name),
	}
}

// Name returns the room's unique name
func (r *Room) Name() string {
	return r.name
}

// touch must be called with the lock held
func (r *Room) touch() {
	r.lastActivity = r.clock.Now()
}

// AddPlayer appends a player to the roster. Only possible while the room
// is waiting; duplicate names and full rosters are rejected.
func (r *Room) AddPlayer(player string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Waiting {
		return false
	}
	if len(r.players) >= r.maxPlayers {
		return false
	}
	for _, p := range r.players {
		if p == player {
			return false
		}
	}

	r.players = append(r.players, player)
	r.touch()
	r.logger.Info("Player joined", "player", player, "players", len(r.players))
	return true
}

// RemovePlayer drops a player from the roster and the connected set.
// Allowed in any state.
func (r *Room) RemovePlayer(player string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.players {
		if p == player {
			r.players = append(r.players[:i], r.players[i+1:]...)
			delete(r.connected, player)
			r.touch()
			r.logger.Info("Player left", "player", player, "players", len(r.players))
			return true
		}
	}
	return false
}

// IsMember reports roster membership
func (r *Room) IsMember(player string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p == player {
			return true
		}
	}
	return false
}

// PlayerCount returns the roster size
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Players returns a copy of the roster in join order
func (r *Room) Players() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.players...)
}

// State returns the room's lifecycle state
func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CanStart reports whether a game may start: waiting, with an in-bounds
// roster
func (r *Room) CanStart() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canStartLocked()
}

func (r *Room) canStartLocked() bool {
	return r.state == Waiting && len(r.players) >= r.minPlayers && len(r.players) <= r.maxPlayers
}

// StartGame builds a fresh game engine over a snapshot of the roster
func (r *Room) StartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.canStartLocked() {
		return false
	}

	r.state = Started
	r.game = game.New(append([]string(nil), r.players...), r.logger)
	r.touch()
	r.logger.Info("Game started", "players", len(r.players))
	return true
}

// EndGame discards the game engine and returns the room to waiting
func (r *Room) EndGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Started {
		return false
	}

	r.state = Waiting
	r.game = nil
	r.touch()
	r.logger.Info("Game ended")
	return true
}

// RestartGame builds a brand-new engine with a fresh shuffle and deal.
// Permitted from waiting, or from a started game that has finished
// scoring. Previous scoring data is never carried over.
func (r *Room) RestartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	finished := r.state == Started && r.game != nil && r.game.Round() == game.Scoring
	if r.state != Waiting && !finished {
		return false
	}
	if len(r.players) < r.minPlayers || len(r.players) > r.maxPlayers {
		return false
	}

	r.state = Started
	r.game = game.New(append([]string(nil), r.players...), r.logger)
	r.touch()
	r.logger.Info("Game restarted", "players", len(r.players))
	return true
}

// Connect marks a roster member as attached. Bookkeeping only; roster and
// game state are unaffected.
func (r *Room) Connect(player string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected[player] = true
	r.touch()
}

// Disconnect marks a player as detached
func (r *Room) Disconnect(player string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connected, player)
	r.touch()
}

// HasConnectedPlayers reports whether anyone is attached
func (r *Room) HasConnectedPlayers() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connected) > 0
}

// IsConnected reports whether a specific player is attached
func (r *Room) IsConnected(player string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected[player]
}

// LastActivity returns when the room last saw any action
func (r *Room) LastActivity() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastActivity
}

// idleFor reports whether the room has had no connected players for at
// least d
func (r *Room) idleFor(d time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connected) == 0 && r.clock.Now().Sub(r.lastActivity) >= d
}

// Game command wrappers. Each applies to the active game and refreshes
// the room's activity timestamp on success.

// TakeChipFromPublic moves an available chip of the current color to the
// player
func (r *Room) TakeChipFromPublic(player string, chipNumber int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game == nil {
		return false
	}
	ok := r.game.TakeFromPublic(player, chipNumber)
	if ok {
		r.touch()
	}
	return ok
}

// TakeChipFromPlayer reassigns the target's chip to the taker
func (r *Room) TakeChipFromPlayer(taker, target string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game == nil {
		return false
	}
	ok := r.game.TakeFromPlayer(taker, target)
	if ok {
		r.touch()
	}
	return ok
}

// ReturnChip returns the player's current-color chip to the public pool
func (r *Room) ReturnChip(player string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game == nil {
		return false
	}
	ok := r.game.ReturnToPublic(player)
	if ok {
		r.touch()
	}
	return ok
}

// AdvanceRound moves the game to its next round when every player holds a
// chip
func (r *Room) AdvanceRound() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game == nil {
		return false
	}
	ok := r.game.AdvanceRound()
	if ok {
		r.touch()
	}
	return ok
}

// HasGame reports whether a game engine is active
func (r *Room) HasGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game != nil
}

// View is the wire projection of a room
type View struct {
	Name        string         `json:"name"`
	Players     []string       `json:"players"`
	State       string         `json:"state"`
	PlayerCount int            `json:"player_count"`
	CanStart    bool           `json:"can_start"`
	PokerGame   *game.Snapshot `json:"poker_game,omitempty"`
}

// Snapshot projects the room for one viewer. Game state is included only
// while a game is running, through the viewer's own projection.
func (r *Room) Snapshot(viewer string) View {
	r.mu.Lock()
	defer r.mu.Unlock()

	view := View{
		Name:        r.name,
		Players:     append([]string(nil), r.players...),
		State:       r.state.String(),
		PlayerCount: len(r.players),
		CanStart:    r.canStartLocked(),
	}

	if r.game != nil && r.state == Started {
		snap := r.game.Snapshot(viewer)
		view.PokerGame = &snap
	}

	return view
}
