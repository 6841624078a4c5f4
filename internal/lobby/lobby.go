// Package lobby is the room registry: matchmaking, game start and
// cleanup when players leave. A Registry is not safe for concurrent use;
// the hub owns it and calls it from a single goroutine.
package lobby

import (
	"cmp"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/DoyleJ11/card-duel-backend/internal/engine"
	"github.com/DoyleJ11/card-duel-backend/pkg/types"
	"github.com/google/uuid"
)

const MaxPlayers = 2

var ErrRoomNotFound = errors.New("room not found")
var ErrRoomFull = errors.New("room is full")
var ErrAlreadyInRoom = errors.New("already in a room")
var ErrNotInRoom = errors.New("not in a room")
var ErrGameNotStarted = errors.New("game has not started")

type Room struct {
	ID      string
	Name    string
	Players []types.Participant // host first
	Started bool
	Game    *engine.State // non-nil iff Started
	seq     uint64
}

func (r *Room) Info() types.RoomInfo {
	return types.RoomInfo{
		ID:      r.ID,
		Name:    r.Name,
		Players: slices.Clone(r.Players),
		Started: r.Started,
	}
}

func (r *Room) Host() types.Participant {
	if len(r.Players) == 0 {
		return types.Participant{}
	}
	return r.Players[0]
}

// LeaveResult reports what happened to the room a player left.
// Room is nil when the room was deleted; Events holds the forfeit of a
// running game.
type LeaveResult struct {
	RoomID  string
	Room    *Room
	Left    types.Participant
	Events  []engine.Event
	Deleted bool
}

type Registry struct {
	rooms    map[string]*Room
	byPlayer map[string]string
	cards    []engine.Card
	rules    engine.Rules
	rng      *rand.Rand
	seq      uint64
}

// NewRegistry builds decks from cards under rules. rng drives every
// shuffle; pass a seeded source for reproducible games.
func NewRegistry(cards []engine.Card, rules engine.Rules, rng *rand.Rand) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		byPlayer: make(map[string]string),
		cards:    cards,
		rules:    rules,
		rng:      rng,
	}
}

// Create opens a room with p as its only participant.
func (r *Registry) Create(p types.Participant, name string) (*Room, error) {
	if _, busy := r.byPlayer[p.ID]; busy {
		return nil, ErrAlreadyInRoom
	}
	id := uuid.NewString()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Room_" + id[:6]
	}
	r.seq++
	room := &Room{ID: id, Name: name, Players: []types.Participant{p}, seq: r.seq}
	r.rooms[id] = room
	r.byPlayer[p.ID] = id
	return room, nil
}

// Join seats p in the room. The second seat starts the game; started
// reports whether this call did so.
func (r *Registry) Join(roomID string, p types.Participant) (room *Room, started bool, err error) {
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, false, ErrRoomNotFound
	}
	if _, busy := r.byPlayer[p.ID]; busy {
		return nil, false, ErrAlreadyInRoom
	}
	if len(room.Players) >= MaxPlayers {
		return nil, false, ErrRoomFull
	}

	room.Players = append(room.Players, p)
	r.byPlayer[p.ID] = room.ID
	if len(room.Players) == MaxPlayers {
		r.start(room)
		started = true
	}
	return room, started, nil
}

func (r *Registry) start(room *Room) {
	host, guest := room.Players[0], room.Players[1]
	room.Game = engine.NewState(r.rules,
		engine.Seat{ID: host.ID, Name: host.Name},
		engine.Seat{ID: guest.ID, Name: guest.Name},
		engine.BuildDeck(r.cards, r.rules.DeckSize, r.rng),
		engine.BuildDeck(r.cards, r.rules.DeckSize, r.rng),
	)
	room.Started = true
}

// Leave removes playerID from its room. Leaving a running game forfeits it
// to the remaining player; the room then waits for a new opponent with the
// remaining player as host. An empty room is deleted.
func (r *Registry) Leave(playerID string) (LeaveResult, error) {
	roomID, ok := r.byPlayer[playerID]
	if !ok {
		return LeaveResult{}, ErrNotInRoom
	}
	room := r.rooms[roomID]
	delete(r.byPlayer, playerID)

	res := LeaveResult{RoomID: roomID}
	if room.Started && !room.Game.GameOver {
		events, err := engine.Forfeit(room.Game, playerID)
		if err != nil {
			return LeaveResult{}, fmt.Errorf("forfeit: %w", err)
		}
		res.Events = events
	}

	i := slices.IndexFunc(room.Players, func(p types.Participant) bool { return p.ID == playerID })
	res.Left = room.Players[i]
	room.Players = slices.Delete(room.Players, i, i+1)
	room.Started = false
	room.Game = nil

	if len(room.Players) == 0 {
		delete(r.rooms, roomID)
		res.Deleted = true
		return res, nil
	}
	res.Room = room
	return res, nil
}

// Apply runs a game action for playerID against its room's game.
func (r *Registry) Apply(playerID string, cmd engine.Command) (*Room, []engine.Event, error) {
	room, ok := r.RoomOf(playerID)
	if !ok {
		return nil, nil, ErrNotInRoom
	}
	if !room.Started {
		return room, nil, ErrGameNotStarted
	}
	events, err := engine.Apply(room.Game, playerID, cmd)
	return room, events, err
}

// Rename updates playerID's display name in its room and game, if any.
func (r *Registry) Rename(playerID, name string) (*Room, bool) {
	room, ok := r.RoomOf(playerID)
	if !ok {
		return nil, false
	}
	for i := range room.Players {
		if room.Players[i].ID == playerID {
			room.Players[i].Name = name
		}
	}
	if room.Game != nil {
		if p := room.Game.Player(playerID); p != nil {
			p.Name = name
		}
	}
	return room, true
}

func (r *Registry) Get(roomID string) (*Room, bool) {
	room, ok := r.rooms[roomID]
	return room, ok
}

func (r *Registry) RoomOf(playerID string) (*Room, bool) {
	id, ok := r.byPlayer[playerID]
	if !ok {
		return nil, false
	}
	return r.Get(id)
}

// Waiting lists rooms that have not started, oldest first.
func (r *Registry) Waiting() []types.RoomSummary {
	var open []*Room
	for _, room := range r.rooms {
		if !room.Started {
			open = append(open, room)
		}
	}
	slices.SortFunc(open, func(a, b *Room) int { return cmp.Compare(a.seq, b.seq) })

	out := make([]types.RoomSummary, 0, len(open))
	for _, room := range open {
		out = append(out, types.RoomSummary{
			ID:       room.ID,
			Name:     room.Name,
			HostName: room.Host().Name,
			Players:  len(room.Players),
		})
	}
	return out
}

func (r *Registry) Len() int { return len(r.rooms) }
