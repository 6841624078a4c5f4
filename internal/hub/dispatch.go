package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/DoyleJ11/card-duel-backend/internal/engine"
	"github.com/DoyleJ11/card-duel-backend/internal/lobby"
	"github.com/DoyleJ11/card-duel-backend/pkg/types"
	"go.uber.org/zap"
)

const maxNameLen = 32

func (h *Hub) dispatch(s *session, payload []byte) error {
	var cm types.ClientMessage
	if err := json.Unmarshal(payload, &cm); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if cm.Type == "" {
		if cm.RoomID == "" {
			return fmt.Errorf("%w: missing type", ErrMalformedMessage)
		}
		cm.Type = types.MsgJoinRoom
	}

	switch cm.Type {
	case types.MsgSetName:
		return h.setName(s, cm.Name)
	case types.MsgCreateRoom:
		return h.createRoom(s, cm.RoomName)
	case types.MsgJoinRoom:
		return h.joinRoom(s, cm.RoomID)
	case types.MsgLeaveRoom:
		if s.roomID == "" {
			return lobby.ErrNotInRoom
		}
		roomID := s.roomID
		h.leave(s)
		h.send(s, types.MsgLeftRoom, types.LeftRoom{RoomID: roomID})
		return nil
	case types.MsgListRooms:
		h.send(s, types.MsgRoomList, types.RoomList{Rooms: h.rooms.Waiting()})
		return nil
	case types.MsgGameAction:
		return h.gameAction(s, cm)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMessage, cm.Type)
	}
}

func (h *Hub) setName(s *session, name string) error {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLen {
		return fmt.Errorf("%w: name must be 1-%d characters", ErrMalformedMessage, maxNameLen)
	}
	s.name = name
	h.send(s, types.MsgNameUpdated, types.NameUpdated{Name: name})
	if room, ok := h.rooms.Rename(s.id, name); ok {
		h.broadcast(room, types.MsgRoomUpdated, types.RoomUpdated{Room: room.Info()})
	}
	return nil
}

func (h *Hub) createRoom(s *session, roomName string) error {
	room, err := h.rooms.Create(types.Participant{ID: s.id, Name: s.name}, roomName)
	if err != nil {
		return err
	}
	s.roomID = room.ID
	h.log.Info("room created", zap.String("session", s.id), zap.String("room", room.ID), zap.String("name", room.Name))
	h.send(s, types.MsgRoomCreated, types.RoomCreated{RoomID: room.ID, RoomName: room.Name})
	h.send(s, types.MsgJoinedRoom, types.JoinedRoom{Room: room.Info()})
	return nil
}

func (h *Hub) joinRoom(s *session, roomID string) error {
	if roomID == "" {
		return fmt.Errorf("%w: missing roomId", ErrMalformedMessage)
	}
	room, started, err := h.rooms.Join(roomID, types.Participant{ID: s.id, Name: s.name})
	if err != nil {
		return err
	}
	s.roomID = room.ID
	h.log.Info("room joined", zap.String("session", s.id), zap.String("room", room.ID), zap.Bool("started", started))

	h.send(s, types.MsgJoinedRoom, types.JoinedRoom{Room: room.Info()})
	h.broadcast(room, types.MsgPlayerJoined, types.PlayerJoined{Players: room.Info().Players})
	if started {
		players := room.Info().Players
		h.sendViews(room, types.MsgGameStart, func(view *engine.State) any {
			return types.GameStart{GameState: view, Players: players}
		})
	}
	return nil
}

// leave removes s from its room and tells whoever remains.
func (h *Hub) leave(s *session) {
	res, err := h.rooms.Leave(s.id)
	s.roomID = ""
	if err != nil {
		if !errors.Is(err, lobby.ErrNotInRoom) {
			h.log.Error("leave room", zap.String("session", s.id), zap.Error(err))
		}
		return
	}
	h.log.Info("room left",
		zap.String("session", s.id),
		zap.String("room", res.RoomID),
		zap.Bool("deleted", res.Deleted),
		zap.Bool("forfeit", len(res.Events) > 0))
	if res.Room == nil {
		return
	}
	for _, ev := range res.Events {
		h.broadcast(res.Room, string(ev.Type), ev)
	}
	h.broadcast(res.Room, types.MsgPlayerLeft, types.PlayerLeft{
		PlayerID: res.Left.ID,
		Name:     res.Left.Name,
		Players:  res.Room.Info().Players,
	})
}

func (h *Hub) gameAction(s *session, cm types.ClientMessage) error {
	cmd, err := toEngineCommand(cm)
	if err != nil {
		return err
	}
	room, events, err := h.rooms.Apply(s.id, cmd)
	if err != nil {
		return err
	}

	for _, ev := range events {
		if ev.Private {
			if owner := h.sessions[ev.Player]; owner != nil {
				h.send(owner, string(ev.Type), ev)
			}
			continue
		}
		h.broadcast(room, string(ev.Type), ev)
		if ev.Type == engine.EvtGameOver {
			h.log.Info("game over",
				zap.String("room", room.ID),
				zap.String("winner", ev.Winner),
				zap.Bool("draw", ev.Draw))
		}
	}
	h.sendViews(room, types.MsgGameStateUpdate, func(view *engine.State) any {
		return types.GameStateUpdate{GameState: view}
	})
	return nil
}

// toEngineCommand decodes a gameAction payload. Only the shape is checked
// here; legality is the engine's call.
func toEngineCommand(cm types.ClientMessage) (engine.Command, error) {
	var data types.ActionData
	if len(cm.Data) > 0 {
		if err := json.Unmarshal(cm.Data, &data); err != nil {
			return engine.Command{}, fmt.Errorf("%w: action data: %v", ErrMalformedMessage, err)
		}
	}
	cardID := data.CardID

	switch engine.CommandType(cm.Action) {
	case engine.CmdChangePhase:
		if data.Phase == "" {
			return engine.Command{}, fmt.Errorf("%w: missing phase", ErrMalformedMessage)
		}
		phase, ok := engine.ParsePhase(data.Phase)
		if !ok {
			phase = engine.Phase(data.Phase)
		}
		return engine.Command{Type: engine.CmdChangePhase, Phase: phase}, nil

	case engine.CmdPlayCard:
		if cardID == "" && data.Card != nil {
			cardID = data.Card.ID
		}
		if cardID == "" {
			return engine.Command{}, fmt.Errorf("%w: missing card", ErrMalformedMessage)
		}
		return engine.Command{Type: engine.CmdPlayCard, CardID: cardID, Slot: data.Slot}, nil

	case engine.CmdAttack:
		if cardID == "" && data.Attacker != nil {
			cardID = data.Attacker.ID
		}
		if cardID == "" || data.Target == nil {
			return engine.Command{}, fmt.Errorf("%w: attack needs attacker and target", ErrMalformedMessage)
		}
		target := engine.Target{
			Kind: engine.TargetKind(strings.ToUpper(data.Target.Type)),
			ID:   data.Target.ID,
		}
		return engine.Command{Type: engine.CmdAttack, CardID: cardID, Target: target}, nil

	case engine.CmdEndTurn:
		return engine.Command{Type: engine.CmdEndTurn}, nil

	case engine.CmdSelectCard:
		if cardID == "" && data.Card != nil {
			cardID = data.Card.ID
		}
		return engine.Command{Type: engine.CmdSelectCard, CardID: cardID}, nil

	default:
		return engine.Command{}, fmt.Errorf("%w: %q", engine.ErrUnknownAction, cm.Action)
	}
}
