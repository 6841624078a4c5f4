package types

import "encoding/json"

// Client -> Server. Every message is {"type": ..., <fields>}.
//
// setName:    name
// createRoom: roomName (optional)
// joinRoom:   roomId
// leaveRoom:  {}
// listRooms:  {}
// gameAction: roomId (informational), action, data
//
// gameAction data by action:
//   changePhase: {phase}
//   playCard:    {cardId | card: {id}, slot?}
//   attack:      {cardId | attacker: {id}, target: {type: "PLAYER"|"UNIT", id}}
//   endTurn:     {}
//   selectCard:  {cardId}
//
// A message without a type but with a roomId is treated as joinRoom.
const (
	MsgSetName    = "setName"
	MsgCreateRoom = "createRoom"
	MsgJoinRoom   = "joinRoom"
	MsgLeaveRoom  = "leaveRoom"
	MsgListRooms  = "listRooms"
	MsgGameAction = "gameAction"
)

type ClientMessage struct {
	Type     string          `json:"type"`
	Name     string          `json:"name,omitempty"`
	RoomName string          `json:"roomName,omitempty"`
	RoomID   string          `json:"roomId,omitempty"`
	Action   string          `json:"action,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type CardRef struct {
	ID string `json:"id"`
}

type TargetRef struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
}

// ActionData is the union of every gameAction data shape.
type ActionData struct {
	Phase    string     `json:"phase,omitempty"`
	CardID   string     `json:"cardId,omitempty"`
	Card     *CardRef   `json:"card,omitempty"`
	Attacker *CardRef   `json:"attacker,omitempty"`
	Target   *TargetRef `json:"target,omitempty"`
	Slot     *int       `json:"slot,omitempty"`
}

// Server -> Client. Every message is {"type": ..., "data": {...}}.
//
// connected:       {clientId, name}
// nameUpdated:     {name}
// roomCreated:     {roomId, roomName}
// joinedRoom:      {room}
// roomUpdated:     {room}
// playerJoined:    {players}
// playerLeft:      {playerId, name, players}
// leftRoom:        {roomId}
// roomList:        {rooms}
// gameStart:       {gameState, players}
// gameStateUpdate: {gameState}
// error:           {code, message}
//
// Game events (phaseChanged, cardDrawn, cardPlayed, attackResolved,
// battleResolved, unitDestroyed, gameOver, ...) carry the event itself as
// data. cardDrawn is only sent to the drawing player.
const (
	MsgConnected       = "connected"
	MsgNameUpdated     = "nameUpdated"
	MsgRoomCreated     = "roomCreated"
	MsgJoinedRoom      = "joinedRoom"
	MsgRoomUpdated     = "roomUpdated"
	MsgPlayerJoined    = "playerJoined"
	MsgPlayerLeft      = "playerLeft"
	MsgLeftRoom        = "leftRoom"
	MsgRoomList        = "roomList"
	MsgGameStart       = "gameStart"
	MsgGameStateUpdate = "gameStateUpdate"
	MsgError           = "error"
)

type ServerMessage struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Envelope is the decoding side of ServerMessage.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Connected struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
}

type NameUpdated struct {
	Name string `json:"name"`
}

type RoomCreated struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
}

type JoinedRoom struct {
	Room RoomInfo `json:"room"`
}

type RoomUpdated struct {
	Room RoomInfo `json:"room"`
}

type PlayerJoined struct {
	Players []Participant `json:"players"`
}

type PlayerLeft struct {
	PlayerID string        `json:"playerId"`
	Name     string        `json:"name"`
	Players  []Participant `json:"players"`
}

type LeftRoom struct {
	RoomID string `json:"roomId"`
}

type RoomList struct {
	Rooms []RoomSummary `json:"rooms"`
}

// GameStart and GameStateUpdate carry the engine's game state as-is.
type GameStart struct {
	GameState any           `json:"gameState"`
	Players   []Participant `json:"players"`
}

type GameStateUpdate struct {
	GameState any `json:"gameState"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
