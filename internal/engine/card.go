package engine

type CardType string

const (
	CardUnit     CardType = "UNIT"
	CardTrap     CardType = "TRAP"
	CardResource CardType = "RESOURCE"
)

type Trigger string

const (
	TriggerOnPlay      Trigger = "onPlay"
	TriggerOnAttack    Trigger = "onAttack"
	TriggerOnDestroyed Trigger = "onDestroyed"
	TriggerKeyword     Trigger = "keyword"
	TriggerContinuous  Trigger = "continuous"
)

type EffectAction string

const (
	EffectDraw         EffectAction = "draw"
	EffectDamageUnit   EffectAction = "damageUnit"
	EffectDamagePlayer EffectAction = "damagePlayer"
	EffectHealPlayer   EffectAction = "healPlayer"
	EffectBuffAttack   EffectAction = "buffAttack"
	EffectAddCore      EffectAction = "addCore"
)

type EffectTarget string

const (
	TargetSelf           EffectTarget = "self"
	TargetOpponentUnit   EffectTarget = "opponentUnit"
	TargetOpponentPlayer EffectTarget = "opponentPlayer"
	TargetAllPlayerUnits EffectTarget = "allPlayerUnits"
)

const (
	KeywordCharge = "charge"
	KeywordFlying = "flying"
	KeywordTaunt  = "taunt"
	KeywordPoison = "poison"
)

type Effect struct {
	Trigger Trigger      `json:"trigger" yaml:"trigger"`
	Action  EffectAction `json:"action,omitempty" yaml:"action,omitempty"`
	Keyword string       `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Value   int          `json:"value,omitempty" yaml:"value,omitempty"`
	Target  EffectTarget `json:"target,omitempty" yaml:"target,omitempty"`
}

// FieldStatus holds the runtime fields of a card resident on the field.
// It is nil while the card is in a deck, hand or graveyard.
type FieldStatus struct {
	Health            int  `json:"health"`
	Attack            int  `json:"attack"`
	HasAttacked       bool `json:"hasAttacked"`
	SummoningSickness bool `json:"summoningSickness"`
}

// Card is a single card instance. The template fields are copied from the
// catalog at deck-build time; ID is unique per instance.
type Card struct {
	ID          string       `json:"id"`
	TemplateID  string       `json:"templateId"`
	Name        string       `json:"name"`
	Type        CardType     `json:"type"`
	Cost        int          `json:"cost"`
	Attack      int          `json:"attack"`
	Health      int          `json:"health"`
	Effects     []Effect     `json:"effects"`
	Description string       `json:"description"`
	Field       *FieldStatus `json:"field,omitempty"`
}

// Clone returns a deep copy that shares nothing with c.
func (c *Card) Clone() *Card {
	out := *c
	out.Effects = append([]Effect{}, c.Effects...)
	if c.Field != nil {
		f := *c.Field
		out.Field = &f
	}
	return &out
}

func (c *Card) HasKeyword(kw string) bool {
	for _, e := range c.Effects {
		if e.Trigger == TriggerKeyword && e.Keyword == kw {
			return true
		}
	}
	return false
}

func (c *Card) effectsFor(t Trigger) []Effect {
	var out []Effect
	for _, e := range c.Effects {
		if e.Trigger == t {
			out = append(out, e)
		}
	}
	return out
}

// place attaches fresh runtime fields for a card entering the field.
func (c *Card) place() {
	if c.Type != CardUnit {
		return
	}
	c.Field = &FieldStatus{
		Health:            c.Health,
		Attack:            c.Attack,
		SummoningSickness: !c.HasKeyword(KeywordCharge),
	}
}
