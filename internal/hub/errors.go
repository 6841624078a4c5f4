package hub

import (
	"errors"

	"github.com/DoyleJ11/card-duel-backend/internal/engine"
	"github.com/DoyleJ11/card-duel-backend/internal/lobby"
)

const (
	codeMalformed = "MALFORMED_MESSAGE"
	codeUnknown   = "UNKNOWN_ACTION"
	codeInternal  = "INTERNAL"
)

// errorCodes maps sentinels to the stable code sent to clients.
var errorCodes = []struct {
	err  error
	code string
}{
	{ErrMalformedMessage, codeMalformed},
	{ErrUnknownMessage, codeUnknown},
	{engine.ErrUnknownAction, codeUnknown},
	{lobby.ErrRoomNotFound, "ROOM_NOT_FOUND"},
	{lobby.ErrRoomFull, "ROOM_FULL"},
	{lobby.ErrAlreadyInRoom, "ALREADY_IN_ROOM"},
	{lobby.ErrNotInRoom, "NOT_IN_ROOM"},
	{lobby.ErrGameNotStarted, "GAME_NOT_STARTED"},
	{engine.ErrGameOver, "GAME_OVER"},
	{engine.ErrNotSeated, "NOT_SEATED"},
	{engine.ErrNotYourTurn, "NOT_YOUR_TURN"},
	{engine.ErrInvalidPhase, "INVALID_PHASE"},
	{engine.ErrPhaseOrder, "PHASE_ORDER"},
	{engine.ErrInsufficientCore, "INSUFFICIENT_RESOURCE"},
	{engine.ErrCardNotInHand, "CARD_NOT_IN_HAND"},
	{engine.ErrZoneFull, "ZONE_FULL"},
	{engine.ErrInvalidSlot, "INVALID_SLOT"},
	{engine.ErrUnplayableCard, "UNPLAYABLE_CARD"},
	{engine.ErrCardNotFound, "CARD_NOT_FOUND"},
	{engine.ErrAlreadyAttacked, "UNIT_ALREADY_ATTACKED"},
	{engine.ErrSummoningSickness, "SUMMONING_SICKNESS"},
	{engine.ErrTargetNotFound, "TARGET_NOT_FOUND"},
	{engine.ErrTauntBlocks, "TAUNT_BLOCKS"},
}

func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return codeInternal
}
