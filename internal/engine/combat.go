package engine

import "fmt"

func (t *turn) attack(attackerID string, target Target) error {
	if t.s.Phase != PhaseBattle {
		return fmt.Errorf("%w: attack needs %s, phase is %s", ErrInvalidPhase, PhaseBattle, t.s.Phase)
	}
	ai := t.me.unitIndex(attackerID)
	if ai < 0 {
		return ErrCardNotFound
	}
	attacker := t.me.UnitZone[ai]
	if attacker.Field.HasAttacked {
		return ErrAlreadyAttacked
	}
	if attacker.Field.SummoningSickness {
		return ErrSummoningSickness
	}

	ti := -1
	switch target.Kind {
	case TargetKindPlayer:
		if target.ID != "" && target.ID != t.opp.ID {
			return ErrTargetNotFound
		}
	case TargetKindUnit:
		if ti = t.opp.unitIndex(target.ID); ti < 0 {
			return ErrTargetNotFound
		}
	default:
		return fmt.Errorf("%w: kind %q", ErrTargetNotFound, target.Kind)
	}
	if t.tauntBlocks(attacker, ti) {
		return ErrTauntBlocks
	}

	attacker.Field.HasAttacked = true
	if t.springTraps(attacker, ai) {
		return nil
	}
	if t.resolveOnAttack(attacker, ti) {
		return nil
	}
	// an onAttack hit may already have finished the defender
	if ti >= 0 && t.opp.UnitZone[ti].Field.Health <= 0 {
		t.destroy(t.opp, ti)
		t.settle()
		return nil
	}

	if ti < 0 {
		dmg := t.me.EffectiveAttack(attacker)
		t.opp.LP -= dmg
		t.emit(Event{
			Type:         EvtAttackResolved,
			Player:       t.me.ID,
			Card:         attacker.Clone(),
			TargetPlayer: t.opp.ID,
			Amount:       dmg,
			Remaining:    t.opp.LP,
		})
		t.settle()
		return nil
	}

	// both sides deal damage from their pre-combat attack values
	defender := t.opp.UnitZone[ti]
	toDefender := t.me.EffectiveAttack(attacker)
	toAttacker := t.opp.EffectiveAttack(defender)
	hit(defender, toDefender, attacker.HasKeyword(KeywordPoison))
	hit(attacker, toAttacker, defender.HasKeyword(KeywordPoison))
	t.emit(Event{
		Type:         EvtBattleResolved,
		Player:       t.me.ID,
		Card:         attacker.Clone(),
		Target:       defender.Clone(),
		TargetPlayer: t.opp.ID,
		Amount:       toDefender,
	})

	if defender.Field.Health <= 0 {
		t.destroy(t.opp, ti)
	}
	if attacker.Field.Health <= 0 {
		t.destroy(t.me, ai)
	}
	t.settle()
	return nil
}

func hit(u *Card, dmg int, poison bool) {
	u.Field.Health -= dmg
	if poison && dmg > 0 && u.Field.Health > 0 {
		u.Field.Health = 0
	}
}

// tauntBlocks reports whether the defender's taunt units forbid attacking
// the chosen target. Flying attackers pass over non-flying taunt units.
func (t *turn) tauntBlocks(attacker *Card, ti int) bool {
	if !t.opp.hasTaunt(false) {
		return false
	}
	if attacker.HasKeyword(KeywordFlying) && !t.opp.hasTaunt(true) {
		return false
	}
	return ti < 0 || !t.opp.UnitZone[ti].HasKeyword(KeywordTaunt)
}

// springTraps fires the defender's set traps against the attacker. It
// reports true when the attack cannot continue.
func (t *turn) springTraps(attacker *Card, ai int) bool {
	for i, trap := range t.opp.TrapZone {
		if trap == nil {
			continue
		}
		t.opp.TrapZone[i] = nil
		t.opp.Graveyard = append(t.opp.Graveyard, trap)
		t.emit(Event{Type: EvtTrapTriggered, Player: t.opp.ID, Card: trap.Clone(), Target: attacker.Clone()})

		for _, e := range trap.effectsFor(TriggerOnPlay) {
			switch e.Action {
			case EffectDamageUnit:
				attacker.Field.Health -= e.Value
				t.emitEffect(t.opp, trap, e, t.me.ID)
			case EffectDamagePlayer:
				t.me.LP -= e.Value
				t.emitEffect(t.opp, trap, e, t.me.ID)
			}
		}
	}
	dead := attacker.Field.Health <= 0
	if dead {
		t.destroy(t.me, ai)
	}
	return t.settle() || dead
}

// resolveOnAttack applies the attacker's onAttack effects. It reports true
// when the game ended.
func (t *turn) resolveOnAttack(attacker *Card, ti int) bool {
	for _, e := range attacker.effectsFor(TriggerOnAttack) {
		switch e.Action {
		case EffectDamagePlayer:
			t.opp.LP -= e.Value
			t.emitEffect(t.me, attacker, e, t.opp.ID)
			if t.settle() {
				return true
			}
		case EffectDamageUnit:
			if ti >= 0 {
				t.opp.UnitZone[ti].Field.Health -= e.Value
				t.emitEffect(t.me, attacker, e, t.opp.ID)
			}
		}
	}
	return false
}

func (t *turn) destroy(owner *Player, slot int) {
	u := owner.destroyUnit(slot)
	t.emit(Event{Type: EvtUnitDestroyed, Player: owner.ID, Card: u.Clone(), Slot: slot})
	for _, e := range u.effectsFor(TriggerOnDestroyed) {
		if e.Action == EffectHealPlayer {
			owner.LP += e.Value
			t.emitEffect(owner, u, e, owner.ID)
		}
	}
}

// resolveOnPlay applies a freshly placed card's onPlay effects.
func (t *turn) resolveOnPlay(card *Card) {
	for _, e := range card.effectsFor(TriggerOnPlay) {
		if t.s.GameOver {
			return
		}
		switch e.Action {
		case EffectHealPlayer:
			t.me.LP += e.Value
			t.emitEffect(t.me, card, e, t.me.ID)
		case EffectAddCore:
			t.me.gainCore(e.Value, t.s.Rules.MaxCore)
			t.emitEffect(t.me, card, e, t.me.ID)
		case EffectBuffAttack:
			if card.Field != nil {
				card.Field.Attack += e.Value
				t.emitEffect(t.me, card, e, t.me.ID)
			}
		case EffectDamagePlayer:
			t.opp.LP -= e.Value
			t.emitEffect(t.me, card, e, t.opp.ID)
			t.settle()
		case EffectDraw:
			for n := 0; n < max(e.Value, 1) && !t.s.GameOver; n++ {
				t.drawCard(t.me)
			}
		}
	}
}

// resolveContinuousHeal applies end-of-turn heals from p's resource zone.
func (t *turn) resolveContinuousHeal(p *Player) {
	for _, r := range p.ResourceZone {
		if r == nil {
			continue
		}
		for _, e := range r.effectsFor(TriggerContinuous) {
			if e.Action == EffectHealPlayer {
				p.LP += e.Value
				t.emitEffect(p, r, e, p.ID)
			}
		}
	}
}

func (t *turn) emitEffect(owner *Player, source *Card, e Effect, targetPlayer string) {
	var remaining int
	if targetPlayer == t.me.ID {
		remaining = t.me.LP
	} else {
		remaining = t.opp.LP
	}
	t.emit(Event{
		Type:         EvtEffectApplied,
		Player:       owner.ID,
		Card:         source.Clone(),
		TargetPlayer: targetPlayer,
		Effect:       e.Action,
		Amount:       e.Value,
		Remaining:    remaining,
	})
}
