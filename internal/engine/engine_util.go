package engine

func DefaultRules() Rules {
	return Rules{
		InitialLP:       10000,
		InitialCore:     5,
		TurnCoreGain:    3,
		MaxCore:         10,
		DeckSize:        20,
		InitialHandSize: 3,
		MaxHandSize:     7,
		DeckOutDamage:   1000,
	}
}

// Seat identifies a participant taking one side of a new game.
type Seat struct {
	ID   string
	Name string
}

// NewState seats first and second, deals each an opening hand from their
// deck and hands the first turn to first. A short deck simply deals fewer
// cards.
func NewState(rules Rules, first, second Seat, firstDeck, secondDeck []*Card) *State {
	s := &State{
		Players: [2]*Player{
			newPlayer(first.ID, first.Name, rules, firstDeck, true),
			newPlayer(second.ID, second.Name, rules, secondDeck, false),
		},
		Phase:         PhaseStart,
		CurrentPlayer: first.ID,
		Turn:          1,
		Rules:         rules,
	}
	for _, p := range s.Players {
		for i := 0; i < rules.InitialHandSize; i++ {
			c := p.popDeck()
			if c == nil {
				break
			}
			p.Hand = append(p.Hand, c)
		}
	}
	return s
}

// Player returns the seated player with the given id, or nil.
func (s *State) Player(id string) *Player {
	for _, p := range s.Players {
		if p != nil && p.ID == id {
			return p
		}
	}
	return nil
}

// Opponent returns the player across the table from id, or nil.
func (s *State) Opponent(id string) *Player {
	_, opp, ok := s.seats(id)
	if !ok {
		return nil
	}
	return opp
}

// ViewFor returns a shallow copy of s as viewer may see it: the opponent's
// hand is reduced to its size. The copy must not be passed to Apply.
func (s *State) ViewFor(viewer string) *State {
	v := *s
	opp := s.Opponent(viewer)
	for i, p := range v.Players {
		if p == nil || p != opp {
			continue
		}
		hidden := *p
		hidden.Hand = []*Card{}
		hidden.handHidden = true
		hidden.handSize = len(p.Hand)
		v.Players[i] = &hidden
	}
	return &v
}

func (s *State) seats(id string) (me, opp *Player, ok bool) {
	switch {
	case s.Players[0] != nil && s.Players[0].ID == id:
		return s.Players[0], s.Players[1], s.Players[1] != nil
	case s.Players[1] != nil && s.Players[1].ID == id:
		return s.Players[1], s.Players[0], s.Players[0] != nil
	}
	return nil, nil, false
}

// checkWin marks the game over once either side is at or below 0 LP.
func (s *State) checkWin() (Event, bool) {
	a, b := s.Players[0], s.Players[1]
	aDead, bDead := a.LP <= 0, b.LP <= 0
	if !aDead && !bDead {
		return Event{}, false
	}
	s.GameOver = true
	ev := Event{Type: EvtGameOver, Reason: "lp"}
	switch {
	case aDead && bDead:
		s.Winner = DrawResult
		ev.Draw = true
	case aDead:
		s.Winner = b.ID
	default:
		s.Winner = a.ID
	}
	ev.Winner = s.Winner
	return ev, true
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

// CountEvents returns how many events of eventType occur in events.
func CountEvents(events []Event, eventType EventType) int {
	n := 0
	for _, event := range events {
		if event.Type == eventType {
			n++
		}
	}
	return n
}
