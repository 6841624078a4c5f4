package engine

import (
	"errors"
	"fmt"
)

var ErrGameOver = errors.New("game is over")
var ErrNotSeated = errors.New("player is not seated in this game")
var ErrNotYourTurn = errors.New("not your turn")
var ErrInvalidPhase = errors.New("action not allowed in current phase")
var ErrPhaseOrder = errors.New("phase order violation")
var ErrInsufficientCore = errors.New("insufficient core")
var ErrCardNotInHand = errors.New("card not in hand")
var ErrZoneFull = errors.New("zone full")
var ErrInvalidSlot = errors.New("invalid zone slot")
var ErrUnplayableCard = errors.New("card type cannot be played")
var ErrCardNotFound = errors.New("unit not found on field")
var ErrAlreadyAttacked = errors.New("unit already attacked this turn")
var ErrSummoningSickness = errors.New("unit has summoning sickness")
var ErrTargetNotFound = errors.New("attack target not found")
var ErrTauntBlocks = errors.New("a taunt unit must be attacked first")
var ErrUnknownAction = errors.New("unknown action")

// DrawResult is the Winner value when both players reach 0 LP together.
const DrawResult = "draw"

// Rules holds the tunable constants of a game.
type Rules struct {
	InitialLP       int `json:"initialLp"`
	InitialCore     int `json:"initialCore"`
	TurnCoreGain    int `json:"turnCoreGain"`
	MaxCore         int `json:"maxCore"`
	DeckSize        int `json:"deckSize"`
	InitialHandSize int `json:"initialHandSize"`
	MaxHandSize     int `json:"maxHandSize"`
	DeckOutDamage   int `json:"deckOutDamage"`
}

type ActionRecord struct {
	Player string      `json:"playerId"`
	Action CommandType `json:"action"`
	Turn   int         `json:"turn"`
	Phase  Phase       `json:"phase"`
}

// State is the authoritative state of one game. Seat 0 moves first.
type State struct {
	Players       [2]*Player    `json:"players"`
	Phase         Phase         `json:"currentPhase"`
	CurrentPlayer string        `json:"currentPlayer"`
	Turn          int           `json:"turnNumber"`
	GameOver      bool          `json:"isGameOver"`
	Winner        string        `json:"winner,omitempty"`
	LastAction    *ActionRecord `json:"lastAction,omitempty"`
	Rules         Rules         `json:"rules"`
}

type CommandType string

const (
	CmdChangePhase CommandType = "changePhase"
	CmdPlayCard    CommandType = "playCard"
	CmdAttack      CommandType = "attack"
	CmdEndTurn     CommandType = "endTurn"
	CmdSelectCard  CommandType = "selectCard"
)

type TargetKind string

const (
	TargetKindPlayer TargetKind = "PLAYER"
	TargetKindUnit   TargetKind = "UNIT"
)

type Target struct {
	Kind TargetKind `json:"type"`
	ID   string     `json:"id,omitempty"`
}

/*
	CmdChangePhase -> EvtPhaseChanged (+ EvtCardDrawn | EvtCardDiscarded | EvtDeckOut on DRAW)
	CmdPlayCard    -> EvtCardPlayed -> EvtEffectApplied*
	CmdAttack      -> EvtTrapTriggered? -> EvtEffectApplied* -> EvtAttackResolved | EvtBattleResolved -> EvtUnitDestroyed*
	CmdEndTurn     -> EvtEffectApplied* -> EvtTurnEnded
	CmdSelectCard  -> EvtCardSelected
	any LP change may append EvtGameOver, after which nothing else is emitted.
*/

// Command is one decoded player action. CardID names the played card,
// the attacker, or the selected card depending on Type.
type Command struct {
	Type   CommandType
	Phase  Phase
	CardID string
	Slot   *int
	Target Target
}

type EventType string

const (
	EvtPhaseChanged   EventType = "phaseChanged"
	EvtCardDrawn      EventType = "cardDrawn"
	EvtCardDiscarded  EventType = "cardDiscarded"
	EvtDeckOut        EventType = "deckOut"
	EvtCardPlayed     EventType = "cardPlayed"
	EvtEffectApplied  EventType = "effectApplied"
	EvtTrapTriggered  EventType = "trapTriggered"
	EvtAttackResolved EventType = "attackResolved"
	EvtBattleResolved EventType = "battleResolved"
	EvtUnitDestroyed  EventType = "unitDestroyed"
	EvtTurnEnded      EventType = "turnEnded"
	EvtCardSelected   EventType = "cardSelected"
	EvtGameOver       EventType = "gameOver"
)

// Event describes one observable outcome. Cards are snapshots taken at
// emission time.
type Event struct {
	Type         EventType    `json:"type"`
	Player       string       `json:"playerId,omitempty"`
	Card         *Card        `json:"card,omitempty"`
	CardID       string       `json:"cardId,omitempty"`
	Target       *Card        `json:"target,omitempty"`
	TargetPlayer string       `json:"targetPlayerId,omitempty"`
	Zone         CardType     `json:"zone,omitempty"`
	Slot         int          `json:"slot"`
	Effect       EffectAction `json:"effect,omitempty"`
	Amount       int          `json:"amount,omitempty"`
	Remaining    int          `json:"remaining"`
	Phase        Phase        `json:"phase,omitempty"`
	Turn         int          `json:"turn,omitempty"`
	Winner       string       `json:"winner,omitempty"`
	Draw         bool         `json:"draw,omitempty"`
	Reason       string       `json:"reason,omitempty"`
	Private      bool         `json:"-"` // only Player should receive it
}

// Apply validates cmd on behalf of playerID and, if legal, mutates s.
// A rejected command leaves s untouched.
func Apply(s *State, playerID string, cmd Command) ([]Event, error) {
	if s.GameOver {
		return nil, ErrGameOver
	}
	me, opp, ok := s.seats(playerID)
	if !ok {
		return nil, ErrNotSeated
	}
	if s.CurrentPlayer != playerID {
		return nil, ErrNotYourTurn
	}

	record := &ActionRecord{Player: playerID, Action: cmd.Type, Turn: s.Turn, Phase: s.Phase}
	t := &turn{s: s, me: me, opp: opp}

	var err error
	switch cmd.Type {
	case CmdChangePhase:
		err = t.changePhase(cmd.Phase)
	case CmdPlayCard:
		err = t.playCard(cmd.CardID, cmd.Slot)
	case CmdAttack:
		err = t.attack(cmd.CardID, cmd.Target)
	case CmdEndTurn:
		t.endTurn()
	case CmdSelectCard:
		t.selectCard(cmd.CardID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Type)
	}
	if err != nil {
		return nil, err
	}

	s.LastAction = record
	return t.events, nil
}

// Forfeit ends the game in favour of playerID's opponent regardless of
// whose turn it is.
func Forfeit(s *State, playerID string) ([]Event, error) {
	if s.GameOver {
		return nil, ErrGameOver
	}
	_, opp, ok := s.seats(playerID)
	if !ok {
		return nil, ErrNotSeated
	}
	s.GameOver = true
	s.Winner = opp.ID
	return []Event{{Type: EvtGameOver, Player: playerID, Winner: opp.ID, Reason: "forfeit"}}, nil
}

// turn carries one action's working set: acting player, opponent and the
// events emitted so far.
type turn struct {
	s      *State
	me     *Player
	opp    *Player
	events []Event
}

func (t *turn) emit(e Event) {
	if e.Turn == 0 {
		e.Turn = t.s.Turn
	}
	t.events = append(t.events, e)
}

// settle evaluates the win condition and reports whether the game is over.
func (t *turn) settle() bool {
	if t.s.GameOver {
		return true
	}
	ev, over := t.s.checkWin()
	if over {
		t.emit(ev)
	}
	return over
}

func (t *turn) changePhase(next Phase) error {
	if !nextPhaseAllowed(t.s.Phase, next) {
		return fmt.Errorf("%w: %s -> %q", ErrPhaseOrder, t.s.Phase, next)
	}
	t.s.Phase = next
	t.emit(Event{Type: EvtPhaseChanged, Player: t.me.ID, Phase: next})
	if next == PhaseDraw {
		t.drawCard(t.me)
	}
	return nil
}

// drawCard moves the top of p's deck into hand. A full hand discards the
// drawn card; an empty deck costs DeckOutDamage instead.
func (t *turn) drawCard(p *Player) {
	c := p.popDeck()
	if c == nil {
		p.LP -= t.s.Rules.DeckOutDamage
		t.emit(Event{Type: EvtDeckOut, Player: p.ID, Amount: t.s.Rules.DeckOutDamage, Remaining: p.LP})
		t.settle()
		return
	}
	if len(p.Hand) >= t.s.Rules.MaxHandSize {
		p.Graveyard = append(p.Graveyard, c)
		t.emit(Event{Type: EvtCardDiscarded, Player: p.ID, Card: c.Clone()})
		return
	}
	p.Hand = append(p.Hand, c)
	t.emit(Event{Type: EvtCardDrawn, Player: p.ID, Card: c.Clone(), Private: true})
}

func (t *turn) playCard(cardID string, slot *int) error {
	if t.s.Phase != PhaseMain {
		return fmt.Errorf("%w: playCard needs %s, phase is %s", ErrInvalidPhase, PhaseMain, t.s.Phase)
	}
	hi := t.me.handIndex(cardID)
	if hi < 0 {
		return ErrCardNotInHand
	}
	card := t.me.Hand[hi]
	if card.Cost > t.me.Core {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientCore, card.Cost, t.me.Core)
	}
	zone := t.me.zone(card.Type)
	if zone == nil {
		return fmt.Errorf("%w: %q", ErrUnplayableCard, card.Type)
	}
	idx := freeSlot(zone)
	if slot != nil {
		if *slot < 0 || *slot >= len(zone) {
			return fmt.Errorf("%w: %d", ErrInvalidSlot, *slot)
		}
		if zone[*slot] != nil {
			return ErrZoneFull
		}
		idx = *slot
	}
	if idx < 0 {
		return ErrZoneFull
	}

	t.me.Core -= card.Cost
	t.me.removeFromHand(hi)
	card.place()
	zone[idx] = card
	t.emit(Event{Type: EvtCardPlayed, Player: t.me.ID, Card: card.Clone(), Zone: card.Type, Slot: idx})

	// traps stay dormant until an opposing attack springs them
	if card.Type != CardTrap {
		t.resolveOnPlay(card)
	}
	return nil
}

func (t *turn) endTurn() {
	t.resolveContinuousHeal(t.me)

	next := t.opp
	next.gainCore(t.s.Rules.TurnCoreGain, t.s.Rules.MaxCore)
	for _, u := range next.Units() {
		if u.Field != nil {
			u.Field.HasAttacked = false
			u.Field.SummoningSickness = false
		}
	}
	t.me.SelectedCard = ""

	t.s.CurrentPlayer = next.ID
	t.s.Phase = PhaseStart
	t.s.Turn++
	t.emit(Event{Type: EvtTurnEnded, Player: t.me.ID, TargetPlayer: next.ID, Phase: PhaseStart})
}

func (t *turn) selectCard(cardID string) {
	t.me.SelectedCard = cardID
	t.emit(Event{Type: EvtCardSelected, Player: t.me.ID, CardID: cardID})
}
