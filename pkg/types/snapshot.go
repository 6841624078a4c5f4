package types

// Participant is a seated player as seen by the room.
type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomInfo describes a room to its members.
type RoomInfo struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Players []Participant `json:"players"`
	Started bool          `json:"started"`
}

// RoomSummary is the lobby listing entry for a room still waiting for players.
type RoomSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	HostName string `json:"hostName"`
	Players  int    `json:"players"`
}
