// Package server is the transport collaborator for the game core: it
// turns WebSocket frames into typed commands, fans engine state back out
// as per-viewer events, and exposes the out-of-band HTTP endpoints.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/louten/chiprank/internal/room"
)

// Server hosts the WebSocket endpoint and the HTTP API over one registry
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	registry    *room.Registry
	devCommands bool
	logger      *log.Logger

	mu    sync.RWMutex
	conns map[*Connection]bool

	httpServer *http.Server
}

// New creates a server bound to the given registry
func New(cfg *Config, registry *room.Registry, logger *log.Logger) *Server {
	return &Server{
		addr: cfg.ListenAddress(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The frontend is served from arbitrary dev hosts.
				return true
			},
		},
		registry:    registry,
		devCommands: cfg.Rooms.DevCommands,
		logger:      logger.WithPrefix("server"),
		conns:       make(map[*Connection]bool),
	}
}

// Handler returns the HTTP handler for all endpoints
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/game/", s.handleWebSocket)
	mux.HandleFunc("/api/join-room/", s.handleJoinRoom)
	mux.HandleFunc("/api/room-status/", s.handleRoomStatus)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Run serves until the context is cancelled, then shuts down cleanly
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down server")

		s.mu.Lock()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.mu.Unlock()

		_ = s.httpServer.Shutdown(context.Background())
	}()

	s.logger.Info("Starting server", "addr", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleWebSocket upgrades /ws/game/{room}/{player}/ connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	roomName, player, ok := parseGamePath(r.URL.Path)
	if !ok {
		http.Error(w, "invalid websocket path", http.StatusBadRequest)
		return
	}

	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := NewConnection(wsConn, roomName, player, s)
	s.register(conn)
	conn.Start()
	s.logger.Info("WebSocket connected", "room", roomName, "player", player)

	// Late joiners over the socket get the same treatment as the HTTP
	// join endpoint; a room that is mid-game simply won't add them.
	if rm, found := s.registry.GetRoom(roomName); !found || !rm.IsMember(player) {
		s.registry.JoinRoom(roomName, player)
	}
	s.registry.ConnectToRoom(roomName, player)

	s.sendInitialState(conn)
}

// parseGamePath extracts (room, player) from /ws/game/{room}/{player}/
func parseGamePath(path string) (string, string, bool) {
	trimmed := strings.Trim(strings.TrimPrefix(path, "/ws/game/"), "/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// sendInitialState delivers the room's current state to a fresh
// connection: a private game view mid-game, a room view otherwise.
func (s *Server) sendInitialState(conn *Connection) {
	rm, found := s.registry.GetRoom(conn.roomName)
	if !found {
		return
	}

	if rm.State() == room.Started {
		_ = conn.Send(NewRoomEvent(EventGameUpdate, rm.Snapshot(conn.player)))
		return
	}

	_ = conn.Send(NewRoomEvent(EventRoomUpdate, rm.Snapshot(conn.player)))
	s.broadcastRoomWide(conn.roomName, EventRoomUpdate)
}

// handleDisconnect applies the close-code policy after a socket drops.
// An explicit close removes the player immediately; navigation away only
// does so in a waiting room; any drop that leaves nobody connected also
// removes the player so solo rooms don't linger.
func (s *Server) handleDisconnect(conn *Connection, closeCode int) {
	s.unregister(conn)
	s.registry.DisconnectFromRoom(conn.roomName, conn.player)

	rm, found := s.registry.GetRoom(conn.roomName)

	remove := false
	switch {
	case closeCode == websocket.CloseNormalClosure:
		remove = true
	case closeCode == websocket.CloseGoingAway:
		remove = found && rm.State() == room.Waiting
	case found && !rm.HasConnectedPlayers():
		remove = true
	}

	if remove && s.registry.LeaveRoom(conn.roomName, conn.player) {
		s.broadcastRoomWide(conn.roomName, EventRoomUpdate)
	}

	s.logger.Info("WebSocket disconnected",
		"room", conn.roomName, "player", conn.player,
		"code", closeCode, "removed", remove)
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = true
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// broadcastRoomWide sends the same neutral projection to every member of
// a room. Used for events that carry no per-player data.
func (s *Server) broadcastRoomWide(roomName, eventType string) {
	view, found := s.registry.Snapshot(roomName, "")
	if !found {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		if conn.roomName == roomName {
			_ = conn.Send(NewRoomEvent(eventType, view))
		}
	}
}

// broadcastGameViews computes one projection per player and delivers each
// only to that player's connections. Pocket cards never cross viewers.
func (s *Server) broadcastGameViews(roomName, eventType string) {
	rm, found := s.registry.GetRoom(roomName)
	if !found {
		return
	}

	views := make(map[string]room.View)
	for _, player := range rm.Players() {
		views[player] = rm.Snapshot(player)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.conns {
		if conn.roomName != roomName {
			continue
		}
		if view, ok := views[conn.player]; ok {
			_ = conn.Send(NewRoomEvent(eventType, view))
		}
	}
}

// HTTP API

type joinRoomRequest struct {
	RoomName   string `json:"room_name"`
	PlayerName string `json:"player_name"`
}

type joinRoomResponse struct {
	Success  bool       `json:"success"`
	Message  string     `json:"message"`
	RoomData *room.View `json:"room_data,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type roomStatusResponse struct {
	Exists   bool       `json:"exists"`
	RoomData *room.View `json:"room_data,omitempty"`
}

// handleJoinRoom is the out-of-band join endpoint used before the
// WebSocket is opened
func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "POST required"})
		return
	}

	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON"})
		return
	}

	roomName := strings.TrimSpace(req.RoomName)
	playerName := strings.TrimSpace(req.PlayerName)
	if roomName == "" || playerName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Room name and player name are required"})
		return
	}
	if !isAlphanumeric(roomName) || !isAlphanumeric(playerName) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Room name and player name must be alphanumeric"})
		return
	}

	ok, message := s.registry.JoinRoom(roomName, playerName)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: message})
		return
	}

	view, _ := s.registry.Snapshot(roomName, playerName)
	writeJSON(w, http.StatusOK, joinRoomResponse{
		Success:  true,
		Message:  message,
		RoomData: &view,
	})
}

// handleRoomStatus reports whether a room exists and its public state
func (s *Server) handleRoomStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "GET required"})
		return
	}

	roomName := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/room-status/"), "/")
	if roomName == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Room name required"})
		return
	}

	view, found := s.registry.Snapshot(roomName, "")
	if !found {
		writeJSON(w, http.StatusOK, roomStatusResponse{Exists: false})
		return
	}
	writeJSON(w, http.StatusOK, roomStatusResponse{Exists: true, RoomData: &view})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9') {
			return false
		}
	}
	return true
}
