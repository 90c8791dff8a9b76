package server

import "github.com/louten/chiprank/internal/room"

// Command types accepted from clients
const (
	CmdStartGame          = "start_game"
	CmdEndGame            = "end_game"
	CmdRestartGame        = "restart_game"
	CmdLeaveRoom          = "leave_room"
	CmdTakeChipPublic     = "take_chip_public"
	CmdTakeChipPlayer     = "take_chip_player"
	CmdReturnChip         = "return_chip"
	CmdAdvanceRound       = "advance_round"
	CmdPing               = "ping"
	CmdDevDistributeChips = "dev_distribute_chips"
)

// Event types sent to clients
const (
	EventRoomUpdate  = "room_update"
	EventGameStarted = "game_started"
	EventGameUpdate  = "game_update"
	EventGameEnded   = "game_ended"
	EventPong        = "pong"
	EventError       = "error"
)

// Command is an inbound client message. Only the fields relevant to the
// command's type are set.
type Command struct {
	Type         string `json:"type"`
	ChipNumber   *int   `json:"chip_number,omitempty"`
	TargetPlayer string `json:"target_player,omitempty"`
}

// Event is an outbound message. Room data is a per-viewer projection for
// game_started/game_update and a neutral projection otherwise.
type Event struct {
	Type     string     `json:"type"`
	RoomData *room.View `json:"room_data,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// NewRoomEvent builds an event carrying a room projection
func NewRoomEvent(eventType string, view room.View) *Event {
	return &Event{Type: eventType, RoomData: &view}
}

// NewErrorEvent builds a client-visible error event
func NewErrorEvent(message string) *Event {
	return &Event{Type: EventError, Message: message}
}
