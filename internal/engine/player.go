package engine

import "encoding/json"

const (
	UnitZoneSize     = 5
	TrapZoneSize     = 1
	ResourceZoneSize = 1
)

// Player is one seated participant's side of the table.
type Player struct {
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	LP            int                     `json:"lp"`
	Core          int                     `json:"core"`
	Hand          []*Card                 `json:"hand"`
	Deck          []*Card                 `json:"-"` // top of deck is the last element
	UnitZone      [UnitZoneSize]*Card     `json:"unitZone"`
	TrapZone      [TrapZoneSize]*Card     `json:"trapZone"`
	ResourceZone  [ResourceZoneSize]*Card `json:"resourceZone"`
	Graveyard     []*Card                 `json:"graveyard"`
	IsFirstPlayer bool                    `json:"isFirstPlayer"`
	SelectedCard  string                  `json:"selectedCard,omitempty"`

	// set on copies made by State.ViewFor for the opposing seat
	handHidden bool
	handSize   int
}

func newPlayer(id, name string, rules Rules, deck []*Card, first bool) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		LP:            rules.InitialLP,
		Core:          rules.InitialCore,
		Hand:          []*Card{},
		Deck:          deck,
		Graveyard:     []*Card{},
		IsFirstPlayer: first,
	}
}

// MarshalJSON hides deck order and exposes only its size. A hidden hand
// is sent as its size alone.
func (p *Player) MarshalJSON() ([]byte, error) {
	type alias Player
	handSize := len(p.Hand)
	if p.handHidden {
		handSize = p.handSize
	}
	return json.Marshal(struct {
		*alias
		DeckSize int `json:"deckSize"`
		HandSize int `json:"handSize"`
	}{(*alias)(p), len(p.Deck), handSize})
}

// popDeck removes and returns the top card, or nil if the deck is empty.
func (p *Player) popDeck() *Card {
	if len(p.Deck) == 0 {
		return nil
	}
	c := p.Deck[len(p.Deck)-1]
	p.Deck = p.Deck[:len(p.Deck)-1]
	return c
}

func (p *Player) handIndex(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

func (p *Player) removeFromHand(i int) *Card {
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return c
}

// zone returns the slot array matching a card type.
func (p *Player) zone(t CardType) []*Card {
	switch t {
	case CardUnit:
		return p.UnitZone[:]
	case CardTrap:
		return p.TrapZone[:]
	case CardResource:
		return p.ResourceZone[:]
	}
	return nil
}

func freeSlot(zone []*Card) int {
	for i, c := range zone {
		if c == nil {
			return i
		}
	}
	return -1
}

func (p *Player) unitIndex(cardID string) int {
	for i, u := range p.UnitZone {
		if u != nil && u.ID == cardID {
			return i
		}
	}
	return -1
}

// Units returns the occupied unit slots in order.
func (p *Player) Units() []*Card {
	var out []*Card
	for _, u := range p.UnitZone {
		if u != nil {
			out = append(out, u)
		}
	}
	return out
}

func (p *Player) hasTaunt(flyingOnly bool) bool {
	for _, u := range p.Units() {
		if u.HasKeyword(KeywordTaunt) && (!flyingOnly || u.HasKeyword(KeywordFlying)) {
			return true
		}
	}
	return false
}

// EffectiveAttack is the unit's current attack plus continuous buffs
// from its owner's resource zone.
func (p *Player) EffectiveAttack(u *Card) int {
	atk := u.Attack
	if u.Field != nil {
		atk = u.Field.Attack
	}
	for _, r := range p.ResourceZone {
		if r == nil {
			continue
		}
		for _, e := range r.effectsFor(TriggerContinuous) {
			if e.Action == EffectBuffAttack && e.Target == TargetAllPlayerUnits {
				atk += e.Value
			}
		}
	}
	if atk < 0 {
		atk = 0
	}
	return atk
}

// destroyUnit moves the unit in slot i to the graveyard, discarding its
// runtime fields.
func (p *Player) destroyUnit(i int) *Card {
	u := p.UnitZone[i]
	p.UnitZone[i] = nil
	u.Field = nil
	p.Graveyard = append(p.Graveyard, u)
	return u
}

func (p *Player) gainCore(n, max int) {
	p.Core += n
	if p.Core > max {
		p.Core = max
	}
}
