package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// Connection is one player's WebSocket attachment to a room. The room and
// player identity are fixed by the URL at upgrade time.
type Connection struct {
	id       string
	conn     *websocket.Conn
	send     chan *Event
	roomName string
	player   string

	server    *Server
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection wraps an upgraded websocket for a (room, player) pair
func NewConnection(conn *websocket.Conn, roomName, player string, srv *Server) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		id:       uuid.NewString(),
		conn:     conn,
		send:     make(chan *Event, 64),
		roomName: roomName,
		player:   player,
		server:   srv,
		logger:   srv.logger.WithPrefix("conn").With("room", roomName, "player", player),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start begins the read and write pumps
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down once
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// Send queues an event for delivery. A full buffer closes the connection.
func (c *Connection) Send(event *Event) error {
	defer func() {
		if r := recover(); r != nil {
			// Send channel closed during shutdown.
			c.logger.Debug("Send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- event:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Send buffer full, closing connection")
		_ = c.Close()
		return websocket.ErrCloseSent
	}
}

// readPump consumes inbound frames until the peer goes away, then reports
// the close code to the server for roster handling.
func (c *Connection) readPump() {
	closeCode := websocket.CloseAbnormalClosure

	defer func() {
		c.server.handleDisconnect(c, closeCode)
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if ce, ok := err.(*websocket.CloseError); ok {
				closeCode = ce.Code
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug("WebSocket read error", "error", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			c.logger.Warn("Malformed command payload", "error", err)
			_ = c.Send(NewErrorEvent("Invalid message format"))
			continue
		}

		c.handleCommand(cmd)
	}
}

// writePump delivers queued events and keeps the connection alive with
// pings.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				c.logger.Debug("Failed to write event", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleCommand dispatches one inbound command. Core operations report
// failure as a no-op; only successes are broadcast.
func (c *Connection) handleCommand(cmd Command) {
	c.logger.Debug("Received command", "type", cmd.Type)

	switch cmd.Type {
	case CmdStartGame:
		c.handleStartGame()
	case CmdEndGame:
		c.handleEndGame()
	case CmdRestartGame:
		c.handleRestartGame()
	case CmdLeaveRoom:
		c.handleLeaveRoom()
	case CmdTakeChipPublic:
		c.handleTakeChipPublic(cmd)
	case CmdTakeChipPlayer:
		c.handleTakeChipPlayer(cmd)
	case CmdReturnChip:
		c.handleReturnChip()
	case CmdAdvanceRound:
		c.handleAdvanceRound()
	case CmdPing:
		c.handlePing()
	case CmdDevDistributeChips:
		c.handleDevDistributeChips()
	default:
		_ = c.Send(NewErrorEvent("Unknown message type: " + cmd.Type))
	}
}

func (c *Connection) handleStartGame() {
	r, ok := c.server.registry.GetRoom(c.roomName)
	if !ok || !r.StartGame() {
		return
	}
	c.server.broadcastGameViews(c.roomName, EventGameStarted)
}

func (c *Connection) handleEndGame() {
	r, ok := c.server.registry.GetRoom(c.roomName)
	if !ok || !r.EndGame() {
		return
	}
	c.server.broadcastRoomWide(c.roomName, EventGameEnded)
}

func (c *Connection) handleRestartGame() {
	r, ok := c.server.registry.GetRoom(c.roomName)
	if !ok || !r.RestartGame() {
		return
	}
	c.server.broadcastGameViews(c.roomName, EventGameStarted)
}

func (c *Connection) handleLeaveRoom() {
	if !c.server.registry.LeaveRoom(c.roomName, c.player) {
		return
	}
	c.server.broadcastRoomWide(c.roomName, EventRoomUpdate)
	_ = c.Close()
}

func (c *Connection) handleTakeChipPublic(cmd Command) {
	if cmd.ChipNumber == nil {
		return
	}
	r, ok := c.server.registry.GetRoom(c.roomName)
	if !ok || !r.TakeChipFromPublic(c.player, *cmd.ChipNumber) {
		return
	}
	c.server.broadcastGameViews(c.roomName, EventGameUpdate)
}

func (c *Connection) handleTakeChipPlayer(cmd Command) {
	if cmd.TargetPlayer == "" {
		return
	}
	r, ok := c.server.registry.GetRoom(c.roomName)
	if !ok || !r.TakeChipFromPlayer(c.player, cmd.TargetPlayer) {
		return
	}
	c.server.broadcastGameViews(c.roomName, EventGameUpdate)
}

func (c *Connection) handleReturnChip() {
	r, ok := c.server.registry.GetRoom(c.roomName)
	if !ok || !r.ReturnChip(c.player) {
		return
	}
	c.server.broadcastGameViews(c.roomName, EventGameUpdate)
}

func (c *Connection) handleAdvanceRound() {
	r, ok := c.server.registry.GetRoom(c.roomName)
	if !ok || !r.AdvanceRound() {
		return
	}
	c.server.broadcastGameViews(c.roomName, EventGameUpdate)
}

// handlePing refreshes connection liveness so the idle sweeps leave the
// room alone.
func (c *Connection) handlePing() {
	c.server.registry.ConnectToRoom(c.roomName, c.player)
	_ = c.Send(&Event{Type: EventPong})
}

// handleDevDistributeChips hands the lowest available chips to players in
// roster order. Gated by the dev_commands config flag.
func (c *Connection) handleDevDistributeChips() {
	if !c.server.devCommands {
		_ = c.Send(NewErrorEvent("Unknown message type: " + CmdDevDistributeChips))
		return
	}

	r, ok := c.server.registry.GetRoom(c.roomName)
	if !ok || !r.HasGame() {
		return
	}

	snap := r.Snapshot(c.player)
	if snap.PokerGame == nil {
		return
	}
	available := append([]int(nil), snap.PokerGame.AvailableChips...)
	for i, player := range r.Players() {
		if i >= len(available) {
			break
		}
		if r.TakeChipFromPublic(player, available[i]) {
			c.logger.Info("Distributed chip", "player", player, "chip", available[i])
		}
	}

	c.server.broadcastGameViews(c.roomName, EventGameUpdate)
}
