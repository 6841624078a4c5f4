// Package hub is the connection gateway. One goroutine owns every session
// and the room registry, so each inbound message is handled to completion
// before the next one is read.
package hub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DoyleJ11/card-duel-backend/internal/engine"
	"github.com/DoyleJ11/card-duel-backend/internal/lobby"
	"github.com/DoyleJ11/card-duel-backend/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrMalformedMessage = errors.New("malformed message")
var ErrUnknownMessage = errors.New("unknown message type")

type HubMsg interface{ isHubMsg() }

// Connect registers a new session. Every message for it is written to
// Outbox as encoded JSON; the hub closes Outbox when the session ends.
type Connect struct {
	Outbox chan []byte
	Reply  chan string // session id
}

// Disconnect ends a session. Unknown ids are ignored.
type Disconnect struct {
	SessionID string
}

type Inbound struct {
	SessionID string
	Payload   []byte
}

type ListRooms struct {
	Reply chan []types.RoomSummary
}

// GetSession reflects a session without data races. Reply receives ok=false
// for unknown ids.
type GetSession struct {
	SessionID string
	Reply     chan SessionView
}

type ShutdownHub struct{}

func (Connect) isHubMsg()     {}
func (Disconnect) isHubMsg()  {}
func (Inbound) isHubMsg()     {}
func (ListRooms) isHubMsg()   {}
func (GetSession) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type SessionView struct {
	ID     string
	Name   string
	RoomID string
	OK     bool
}

type session struct {
	id     string
	name   string
	roomID string
	out    chan []byte
}

type Hub struct {
	inbox    chan HubMsg
	rooms    *lobby.Registry
	sessions map[string]*session
	evict    []string // sessions whose outbox overflowed
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(parent context.Context, rooms *lobby.Registry, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    rooms,
		sessions: make(map[string]*session),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub has stopped and released every session.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Send queues msg unless ctx ends or the hub stops first.
func (h *Hub) Send(ctx context.Context, msg HubMsg) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.inbox <- msg:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Connect:
				h.connect(msg)

			case Disconnect:
				h.disconnect(msg.SessionID, "closed")

			case Inbound:
				s := h.sessions[msg.SessionID]
				if s == nil {
					break // already gone
				}
				if err := h.dispatch(s, msg.Payload); err != nil {
					h.fail(s, err)
				}

			case ListRooms:
				msg.Reply <- h.rooms.Waiting()

			case GetSession:
				s := h.sessions[msg.SessionID]
				if s == nil {
					msg.Reply <- SessionView{}
					break
				}
				msg.Reply <- SessionView{ID: s.id, Name: s.name, RoomID: s.roomID, OK: true}

			case ShutdownHub:
				h.shutdown()
				return
			}

			for len(h.evict) > 0 {
				id := h.evict[0]
				h.evict = h.evict[1:]
				h.disconnect(id, "slow consumer")
			}
		}
	}
}

func (h *Hub) connect(msg Connect) {
	id := uuid.NewString()
	s := &session{id: id, name: "Player_" + id[:6], out: msg.Outbox}
	h.sessions[id] = s
	msg.Reply <- id
	h.log.Info("session connected", zap.String("session", id))
	h.send(s, types.MsgConnected, types.Connected{ClientID: id, Name: s.name})
}

func (h *Hub) disconnect(id, reason string) {
	s := h.sessions[id]
	if s == nil {
		return
	}
	if s.roomID != "" {
		h.leave(s)
	}
	delete(h.sessions, id)
	close(s.out)
	h.log.Info("session disconnected", zap.String("session", id), zap.String("reason", reason))
}

func (h *Hub) shutdown() {
	for id, s := range h.sessions {
		close(s.out)
		delete(h.sessions, id)
	}
	h.cancel()
}

func (h *Hub) encode(msgType string, data any) []byte {
	payload, err := json.Marshal(types.ServerMessage{Type: msgType, Data: data})
	if err != nil {
		h.log.Error("encode server message", zap.String("type", msgType), zap.Error(err))
		return nil
	}
	return payload
}

func (h *Hub) send(s *session, msgType string, data any) {
	if payload := h.encode(msgType, data); payload != nil {
		h.deliver(s, payload)
	}
}

func (h *Hub) deliver(s *session, payload []byte) {
	if _, live := h.sessions[s.id]; !live {
		return
	}
	select {
	case s.out <- payload:
	default:
		// Client is slow/full - drop them once this message is done.
		h.evict = append(h.evict, s.id)
	}
}

// broadcast sends one message to every member of the room, encoding it once.
func (h *Hub) broadcast(room *lobby.Room, msgType string, data any) {
	payload := h.encode(msgType, data)
	if payload == nil {
		return
	}
	for _, p := range room.Players {
		if s := h.sessions[p.ID]; s != nil {
			h.deliver(s, payload)
		}
	}
}

// sendViews gives each member the game as they may see it.
func (h *Hub) sendViews(room *lobby.Room, msgType string, payload func(view *engine.State) any) {
	for _, p := range room.Players {
		if s := h.sessions[p.ID]; s != nil {
			h.send(s, msgType, payload(room.Game.ViewFor(p.ID)))
		}
	}
}

func (h *Hub) fail(s *session, err error) {
	code := errorCode(err)
	if code == codeMalformed || code == codeUnknown || code == codeInternal {
		h.log.Warn("rejected message", zap.String("session", s.id), zap.String("code", code), zap.Error(err))
	} else {
		h.log.Debug("rejected action", zap.String("session", s.id), zap.String("code", code), zap.Error(err))
	}
	h.send(s, types.MsgError, types.Error{Code: code, Message: err.Error()})
}
