package room

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Config bounds room rosters and tunes idle eviction
type Config struct {
	MinPlayers int
	MaxPlayers int
	// WaitingIdle is how long a waiting room with no connections survives
	// after a leave or disconnect re-evaluates it.
	WaitingIdle time.Duration
	// StaleAfter is the janitor threshold: rooms with no connections for
	// this long are removed regardless of state.
	StaleAfter time.Duration
}

// DefaultConfig returns the standard room bounds and eviction thresholds
func DefaultConfig() Config {
	return Config{
		MinPlayers:  3,
		MaxPlayers:  6,
		WaitingIdle: time.Minute,
		StaleAfter:  10 * time.Minute,
	}
}

// Registry is the process-wide map of room name to room. It is shared by
// every connection's command handling; the registry lock serializes map
// mutation while each room serializes its own state.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	cfg    Config
	clock  quartz.Clock
	logger *log.Logger
}

// NewRegistry creates an empty registry. The clock is injected so idle
// eviction is testable.
func NewRegistry(cfg Config, clock quartz.Clock, logger *log.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		cfg:    cfg,
		clock:  clock,
		logger: logger.WithPrefix("registry"),
	}
}

// CreateRoom returns the named room, creating a waiting room if absent
func (reg *Registry) CreateRoom(name string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.createLocked(name)
}

func (reg *Registry) createLocked(name string) *Room {
	if r, ok := reg.rooms[name]; ok {
		return r
	}
	r := newRoom(name, reg.cfg.MinPlayers, reg.cfg.MaxPlayers, reg.clock, reg.logger)
	reg.rooms[name] = r
	reg.logger.Info("Created room", "room", name)
	return r
}

// GetRoom looks up a room by name
func (reg *Registry) GetRoom(name string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.rooms[name]
	return r, ok
}

// RoomCount returns the number of active rooms
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// JoinRoom adds a player to the named room, creating it if necessary.
// The reason string is client-visible.
func (reg *Registry) JoinRoom(name, player string) (bool, string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := reg.createLocked(name)
	if r.State() != Waiting {
		return false, fmt.Sprintf("Room %s is not accepting new players", name)
	}
	if !r.AddPlayer(player) {
		if r.IsMember(player) {
			return false, fmt.Sprintf("Player %s is already in the room", player)
		}
		return false, fmt.Sprintf("Room %s is full", name)
	}
	return true, fmt.Sprintf("Successfully joined room %s", name)
}

// LeaveRoom removes a player. An emptied room is deleted immediately; a
// waiting room with nobody connected is deleted once it has idled long
// enough.
func (reg *Registry) LeaveRoom(name, player string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[name]
	if !ok {
		return false
	}

	// Idleness is judged against activity before this leave; the removal
	// itself refreshes the timestamp.
	wasIdle := reg.clock.Now().Sub(r.LastActivity()) >= reg.cfg.WaitingIdle

	if !r.RemovePlayer(player) {
		return false
	}

	if r.PlayerCount() == 0 {
		delete(reg.rooms, name)
		reg.logger.Info("Deleted empty room", "room", name)
	} else if r.State() == Waiting && wasIdle && !r.HasConnectedPlayers() {
		delete(reg.rooms, name)
		reg.logger.Info("Deleted idle waiting room", "room", name)
	}
	return true
}

// ConnectToRoom marks a roster member as attached
func (reg *Registry) ConnectToRoom(name, player string) bool {
	reg.mu.RLock()
	r, ok := reg.rooms[name]
	reg.mu.RUnlock()

	if !ok || !r.IsMember(player) {
		return false
	}
	r.Connect(player)
	return true
}

// DisconnectFromRoom marks a player detached and re-evaluates the same
// idle-deletion condition as LeaveRoom.
func (reg *Registry) DisconnectFromRoom(name, player string) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[name]
	if !ok || !r.IsMember(player) {
		return false
	}

	wasIdle := reg.clock.Now().Sub(r.LastActivity()) >= reg.cfg.WaitingIdle
	r.Disconnect(player)

	if r.State() == Waiting && wasIdle && !r.HasConnectedPlayers() {
		delete(reg.rooms, name)
		reg.logger.Info("Deleted idle waiting room", "room", name)
	}
	return true
}

// CleanupStaleRooms deletes every room with zero connected players idle
// beyond the stale threshold, regardless of state. This is the safety net
// for abandoned games whose players never sent a leave.
func (reg *Registry) CleanupStaleRooms() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	cleaned := 0
	for name, r := range reg.rooms {
		if r.idleFor(reg.cfg.StaleAfter) {
			delete(reg.rooms, name)
			cleaned++
			reg.logger.Info("Cleaned up stale room", "room", name)
		}
	}
	return cleaned
}

// Snapshot projects the named room for a viewer. The second return is
// false if the room does not exist.
func (reg *Registry) Snapshot(name, viewer string) (View, bool) {
	r, ok := reg.GetRoom(name)
	if !ok {
		return View{}, false
	}
	return r.Snapshot(viewer), true
}
