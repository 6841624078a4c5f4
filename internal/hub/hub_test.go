package hub

import (
	"context"
	"encoding/json"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/DoyleJ11/card-duel-backend/internal/catalog"
	"github.com/DoyleJ11/card-duel-backend/internal/engine"
	"github.com/DoyleJ11/card-duel-backend/internal/lobby"
	"github.com/DoyleJ11/card-duel-backend/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const wait = 200 * time.Millisecond

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	reg := lobby.NewRegistry(cat.Cards(), engine.DefaultRules(), rand.New(rand.NewPCG(1, 1)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewHub(ctx, reg, zap.NewNop())
}

// helper: receive one message with a timeout so tests never hang
func recv(t *testing.T, ch <-chan []byte, within time.Duration) types.Envelope {
	t.Helper()
	select {
	case payload, ok := <-ch:
		if !ok {
			t.Fatalf("outbox closed unexpectedly")
		}
		var env types.Envelope
		require.NoError(t, json.Unmarshal(payload, &env))
		return env
	case <-time.After(within):
		t.Fatalf("timed out waiting for message")
		return types.Envelope{} // unreachable
	}
}

func recvType(t *testing.T, ch <-chan []byte, want string) types.Envelope {
	t.Helper()
	env := recv(t, ch, wait)
	require.Equal(t, want, env.Type, "payload: %s", env.Data)
	return env
}

func recvNone(t *testing.T, ch <-chan []byte, within time.Duration) {
	t.Helper()
	select {
	case payload, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected no message within %v, but got: %s", within, payload)
	case <-time.After(within):
	}
}

func recvClosed(t *testing.T, ch <-chan []byte, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("outbox not closed within %v", within)
		}
	}
}

func decode[T any](t *testing.T, env types.Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func connect(t *testing.T, h *Hub, buf int) (string, chan []byte) {
	t.Helper()
	out := make(chan []byte, buf)
	reply := make(chan string, 1)
	h.Inbox() <- Connect{Outbox: out, Reply: reply}
	id := <-reply
	hello := decode[types.Connected](t, recvType(t, out, types.MsgConnected))
	require.Equal(t, id, hello.ClientID)
	return id, out
}

func say(t *testing.T, h *Hub, id string, msg any) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	h.Inbox() <- Inbound{SessionID: id, Payload: payload}
}

func action(name string, data any) map[string]any {
	return map[string]any{"type": types.MsgGameAction, "action": name, "data": data}
}

// startGame seats two fresh sessions in a room and drains the join traffic.
func startGame(t *testing.T, h *Hub) (a, b string, aOut, bOut chan []byte, state engine.State) {
	t.Helper()
	a, aOut = connect(t, h, 32)
	b, bOut = connect(t, h, 32)

	say(t, h, a, types.ClientMessage{Type: types.MsgCreateRoom, RoomName: "duel"})
	created := decode[types.RoomCreated](t, recvType(t, aOut, types.MsgRoomCreated))
	recvType(t, aOut, types.MsgJoinedRoom)

	say(t, h, b, types.ClientMessage{Type: types.MsgJoinRoom, RoomID: created.RoomID})
	recvType(t, bOut, types.MsgJoinedRoom)
	recvType(t, bOut, types.MsgPlayerJoined)
	recvType(t, aOut, types.MsgPlayerJoined)
	recvType(t, aOut, types.MsgGameStart)
	start := recvType(t, bOut, types.MsgGameStart)

	var gs struct {
		GameState engine.State `json:"gameState"`
	}
	require.NoError(t, json.Unmarshal(start.Data, &gs))
	return a, b, aOut, bOut, gs.GameState
}

func TestConnect_AssignsNameAndID(t *testing.T) {
	h := newTestHub(t)
	id, _ := connect(t, h, 4)

	reply := make(chan SessionView, 1)
	h.Inbox() <- GetSession{SessionID: id, Reply: reply}
	v := <-reply
	require.True(t, v.OK)
	assert.Equal(t, "Player_"+id[:6], v.Name)
	assert.Empty(t, v.RoomID)
}

func TestCreateAndJoin_StartsGameForBoth(t *testing.T) {
	h := newTestHub(t)
	a, b, _, _, gs := startGame(t, h)

	assert.Equal(t, a, gs.CurrentPlayer)
	assert.Equal(t, engine.PhaseStart, gs.Phase)
	require.NotNil(t, gs.Players[0])
	require.NotNil(t, gs.Players[1])
	assert.Equal(t, a, gs.Players[0].ID)
	assert.Equal(t, b, gs.Players[1].ID)
	for _, p := range gs.Players {
		assert.Equal(t, 10000, p.LP)
		assert.Empty(t, p.Deck, "deck order must not leak")
	}
	// the state came from bob's outbox: alice's hand is hidden
	assert.Empty(t, gs.Players[0].Hand)
	assert.Len(t, gs.Players[1].Hand, 3)
}

func TestJoin_TypelessMessageWithRoomID(t *testing.T) {
	h := newTestHub(t)
	a, aOut := connect(t, h, 8)
	b, bOut := connect(t, h, 8)

	say(t, h, a, types.ClientMessage{Type: types.MsgCreateRoom})
	created := decode[types.RoomCreated](t, recvType(t, aOut, types.MsgRoomCreated))

	say(t, h, b, map[string]string{"roomId": created.RoomID})
	joined := decode[types.JoinedRoom](t, recvType(t, bOut, types.MsgJoinedRoom))
	assert.Equal(t, created.RoomID, joined.Room.ID)
	assert.True(t, joined.Room.Started)
}

func TestErrors_GoOnlyToSender(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		code    string
	}{
		{name: "bad json", payload: `{"type":`, code: codeMalformed},
		{name: "no type", payload: `{"name":"x"}`, code: codeMalformed},
		{name: "unknown type", payload: `{"type":"dance"}`, code: codeUnknown},
		{name: "unknown action", payload: `{"type":"gameAction","action":"fly"}`, code: codeUnknown},
		{name: "bad action data", payload: `{"type":"gameAction","action":"playCard","data":[1]}`, code: codeMalformed},
		{name: "missing card", payload: `{"type":"gameAction","action":"playCard","data":{}}`, code: codeMalformed},
		{name: "not your turn", payload: `{"type":"gameAction","action":"endTurn"}`, code: "NOT_YOUR_TURN"},
		{name: "join unknown room", payload: `{"type":"joinRoom","roomId":"nope"}`, code: "ROOM_NOT_FOUND"},
		{name: "create while seated", payload: `{"type":"createRoom"}`, code: "ALREADY_IN_ROOM"},
		{name: "empty name", payload: `{"type":"setName","name":"  "}`, code: codeMalformed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHub(t)
			_, b, aOut, bOut, _ := startGame(t, h)

			h.Inbox() <- Inbound{SessionID: b, Payload: []byte(tc.payload)}

			env := recvType(t, bOut, types.MsgError)
			e := decode[types.Error](t, env)
			assert.Equal(t, tc.code, e.Code)
			assert.NotEmpty(t, e.Message)
			recvNone(t, aOut, 50*time.Millisecond)
		})
	}
}

func TestJoin_UnknownAndFullRooms(t *testing.T) {
	h := newTestHub(t)
	a, _, _, _, _ := startGame(t, h)
	c, cOut := connect(t, h, 8)

	say(t, h, c, types.ClientMessage{Type: types.MsgJoinRoom, RoomID: "nope"})
	assert.Equal(t, "ROOM_NOT_FOUND", decode[types.Error](t, recvType(t, cOut, types.MsgError)).Code)

	view := make(chan SessionView, 1)
	h.Inbox() <- GetSession{SessionID: a, Reply: view}
	roomID := (<-view).RoomID
	require.NotEmpty(t, roomID)

	say(t, h, c, types.ClientMessage{Type: types.MsgJoinRoom, RoomID: roomID})
	assert.Equal(t, "ROOM_FULL", decode[types.Error](t, recvType(t, cOut, types.MsgError)).Code)

	rooms := make(chan []types.RoomSummary, 1)
	h.Inbox() <- ListRooms{Reply: rooms}
	assert.Empty(t, <-rooms)
}

func TestGameAction_DrawIsPrivate(t *testing.T) {
	h := newTestHub(t)
	a, _, aOut, bOut, _ := startGame(t, h)

	say(t, h, a, action("changePhase", map[string]string{"phase": "DRAW"}))

	recvType(t, aOut, string(engine.EvtPhaseChanged))
	drawn := decode[engine.Event](t, recvType(t, aOut, string(engine.EvtCardDrawn)))
	require.NotNil(t, drawn.Card)
	update := recvType(t, aOut, types.MsgGameStateUpdate)

	recvType(t, bOut, string(engine.EvtPhaseChanged))
	theirs := recvType(t, bOut, types.MsgGameStateUpdate)
	recvNone(t, bOut, 50*time.Millisecond)

	var gs struct {
		GameState engine.State `json:"gameState"`
	}
	require.NoError(t, json.Unmarshal(update.Data, &gs))
	assert.Equal(t, engine.PhaseDraw, gs.GameState.Phase)
	assert.Len(t, gs.GameState.Players[0].Hand, 4)

	var seen struct {
		GameState struct {
			Players []struct {
				ID       string            `json:"id"`
				Hand     []json.RawMessage `json:"hand"`
				HandSize int               `json:"handSize"`
			} `json:"players"`
		} `json:"gameState"`
	}
	require.NoError(t, json.Unmarshal(theirs.Data, &seen))
	require.Len(t, seen.GameState.Players, 2)
	assert.Equal(t, a, seen.GameState.Players[0].ID)
	assert.Empty(t, seen.GameState.Players[0].Hand)
	assert.Equal(t, 4, seen.GameState.Players[0].HandSize)
	assert.Len(t, seen.GameState.Players[1].Hand, 3)
}

func TestGameAction_PhaseOrderRejected(t *testing.T) {
	h := newTestHub(t)
	a, _, aOut, bOut, _ := startGame(t, h)

	say(t, h, a, action("changePhase", map[string]string{"phase": "BATTLE"}))
	assert.Equal(t, "PHASE_ORDER", decode[types.Error](t, recvType(t, aOut, types.MsgError)).Code)
	recvNone(t, bOut, 50*time.Millisecond)
}

func TestGameAction_EndTurnPassesControl(t *testing.T) {
	h := newTestHub(t)
	a, b, aOut, bOut, _ := startGame(t, h)

	say(t, h, a, action("endTurn", nil))
	ended := decode[engine.Event](t, recvType(t, bOut, string(engine.EvtTurnEnded)))
	assert.Equal(t, b, ended.TargetPlayer)
	recvType(t, bOut, types.MsgGameStateUpdate)
	recvType(t, aOut, string(engine.EvtTurnEnded))
	recvType(t, aOut, types.MsgGameStateUpdate)

	say(t, h, a, action("endTurn", nil))
	assert.Equal(t, "NOT_YOUR_TURN", decode[types.Error](t, recvType(t, aOut, types.MsgError)).Code)

	say(t, h, b, action("selectCard", map[string]string{"cardId": "x"}))
	sel := decode[engine.Event](t, recvType(t, aOut, string(engine.EvtCardSelected)))
	assert.Equal(t, "x", sel.CardID)
}

func TestDisconnect_ForfeitsAndIsIdempotent(t *testing.T) {
	h := newTestHub(t)
	a, b, aOut, bOut, _ := startGame(t, h)

	h.Inbox() <- Disconnect{SessionID: a}

	over := decode[engine.Event](t, recvType(t, bOut, string(engine.EvtGameOver)))
	assert.Equal(t, b, over.Winner)
	assert.Equal(t, "forfeit", over.Reason)
	left := decode[types.PlayerLeft](t, recvType(t, bOut, types.MsgPlayerLeft))
	assert.Equal(t, a, left.PlayerID)
	require.Len(t, left.Players, 1)
	assert.Equal(t, b, left.Players[0].ID)
	recvClosed(t, aOut, wait)

	h.Inbox() <- Disconnect{SessionID: a}
	h.Inbox() <- Inbound{SessionID: a, Payload: []byte(`{"type":"listRooms"}`)}

	reply := make(chan SessionView, 1)
	h.Inbox() <- GetSession{SessionID: a, Reply: reply}
	assert.False(t, (<-reply).OK)

	rooms := make(chan []types.RoomSummary, 1)
	h.Inbox() <- ListRooms{Reply: rooms}
	waiting := <-rooms
	require.Len(t, waiting, 1)
	assert.Equal(t, 1, waiting[0].Players)
	recvNone(t, bOut, 50*time.Millisecond)
}

func TestLeaveRoom(t *testing.T) {
	h := newTestHub(t)
	a, aOut := connect(t, h, 8)

	say(t, h, a, types.ClientMessage{Type: types.MsgLeaveRoom})
	assert.Equal(t, "NOT_IN_ROOM", decode[types.Error](t, recvType(t, aOut, types.MsgError)).Code)

	say(t, h, a, types.ClientMessage{Type: types.MsgCreateRoom})
	created := decode[types.RoomCreated](t, recvType(t, aOut, types.MsgRoomCreated))
	recvType(t, aOut, types.MsgJoinedRoom)

	say(t, h, a, types.ClientMessage{Type: types.MsgLeaveRoom})
	left := decode[types.LeftRoom](t, recvType(t, aOut, types.MsgLeftRoom))
	assert.Equal(t, created.RoomID, left.RoomID)

	say(t, h, a, types.ClientMessage{Type: types.MsgListRooms})
	list := decode[types.RoomList](t, recvType(t, aOut, types.MsgRoomList))
	assert.Empty(t, list.Rooms)
}

func TestSetName_UpdatesRoom(t *testing.T) {
	h := newTestHub(t)
	a, aOut := connect(t, h, 8)

	say(t, h, a, types.ClientMessage{Type: types.MsgSetName, Name: "Alice"})
	assert.Equal(t, "Alice", decode[types.NameUpdated](t, recvType(t, aOut, types.MsgNameUpdated)).Name)

	say(t, h, a, types.ClientMessage{Type: types.MsgCreateRoom})
	recvType(t, aOut, types.MsgRoomCreated)
	recvType(t, aOut, types.MsgJoinedRoom)

	say(t, h, a, types.ClientMessage{Type: types.MsgSetName, Name: "Ally"})
	recvType(t, aOut, types.MsgNameUpdated)
	updated := decode[types.RoomUpdated](t, recvType(t, aOut, types.MsgRoomUpdated))
	require.Len(t, updated.Room.Players, 1)
	assert.Equal(t, "Ally", updated.Room.Players[0].Name)

	say(t, h, a, types.ClientMessage{Type: types.MsgListRooms})
	list := decode[types.RoomList](t, recvType(t, aOut, types.MsgRoomList))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, "Ally", list.Rooms[0].HostName)
}

func TestSlowClientIsDropped(t *testing.T) {
	h := newTestHub(t)
	out := make(chan []byte, 1)
	reply := make(chan string, 1)
	h.Inbox() <- Connect{Outbox: out, Reply: reply}
	id := <-reply

	// the greeting fills the buffer; the reply to listRooms overflows it
	say(t, h, id, types.ClientMessage{Type: types.MsgListRooms})

	// the inbox is ordered, so this answer comes after listRooms was handled
	view := make(chan SessionView, 1)
	h.Inbox() <- GetSession{SessionID: id, Reply: view}
	assert.False(t, (<-view).OK)

	env := recv(t, out, wait)
	assert.Equal(t, types.MsgConnected, env.Type)
	recvClosed(t, out, wait)
}

func TestShutdown_ClosesOutboxes(t *testing.T) {
	h := newTestHub(t)
	_, out := connect(t, h, 4)

	h.Inbox() <- ShutdownHub{}
	recvClosed(t, out, wait)

	select {
	case <-h.Done():
	case <-time.After(wait):
		t.Fatalf("hub did not stop")
	}
	assert.False(t, h.Send(context.Background(), ListRooms{Reply: make(chan []types.RoomSummary, 1)}))
}
