package engine

import "strings"

type Phase string

const (
	PhaseStart  Phase = "START"
	PhaseDraw   Phase = "DRAW"
	PhaseMain   Phase = "MAIN"
	PhaseBattle Phase = "BATTLE"
	PhaseEnd    Phase = "END"
)

// PhaseOrder is the fixed order of phases within one player's turn.
var PhaseOrder = []Phase{
	PhaseStart,
	PhaseDraw,
	PhaseMain,
	PhaseBattle,
	PhaseEnd,
}

// Index returns the position of p in PhaseOrder, or -1.
func (p Phase) Index() int {
	for i, ph := range PhaseOrder {
		if ph == p {
			return i
		}
	}
	return -1
}

// ParsePhase accepts phase names case-insensitively. "attack" is an alias
// for BATTLE.
func ParsePhase(s string) (Phase, bool) {
	up := Phase(strings.ToUpper(strings.TrimSpace(s)))
	if up == "ATTACK" {
		return PhaseBattle, true
	}
	if up.Index() < 0 {
		return "", false
	}
	return up, true
}

// nextPhaseAllowed reports whether a changePhase request from cur to next
// is legal. The END -> START wrap belongs to endTurn only.
func nextPhaseAllowed(cur, next Phase) bool {
	ci, ni := cur.Index(), next.Index()
	if ci < 0 || ni < 0 {
		return false
	}
	return ni == ci+1
}
