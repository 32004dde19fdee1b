package game

// EffectKind tags a temporary modifier held by a match. Most kinds are pushed
// by catalog items. EffectFreePlay and EffectDiscardDraw have no catalog item
// yet; they are reached through Match.AddEffect, so new items or front-end
// cheats can grant them without touching the cost or discard code.
type EffectKind string

const (
	EffectEnergySaver    EffectKind = "energy_saver"     // costs halved, rounded up
	EffectBackwater      EffectKind = "backwater"        // cost -1 while holding more than 20 cards
	EffectChainReaction  EffectKind = "chain_reaction"   // stronger combo
	EffectScoreDouble    EffectKind = "score_double"     // next play scores double, once
	EffectFreePlay       EffectKind = "free_play"        // plays cost nothing
	EffectDesperateStake EffectKind = "desperate_stake"  // leftover AP becomes next round's penalty
	EffectRiskyVictory   EffectKind = "risky_victory"    // +2 DP at round end when hand <= 5
	EffectDiscardDraw    EffectKind = "discard_draw"     // next discard draws Amount extra
	EffectSingleCardKing EffectKind = "single_card_king" // singles score 30
)

// EffectScope controls when an effect expires.
type EffectScope int

const (
	ScopeRound EffectScope = iota // cleared by EndRound
	ScopeLevel                    // lasts until the next deal
)

// Effect is one active modifier.
type Effect struct {
	Kind   EffectKind  `json:"kind"`
	Scope  EffectScope `json:"scope"`
	Amount int         `json:"amount,omitempty"`
	Used   bool        `json:"used,omitempty"`
}

// Effects is the ordered modifier stack of a match.
type Effects []Effect

// Active reports whether an unused effect of the kind is present.
func (es Effects) Active(kind EffectKind) bool {
	for _, e := range es {
		if e.Kind == kind && !e.Used {
			return true
		}
	}
	return false
}

// Amount sums the amounts of unused effects of the kind.
func (es Effects) Amount(kind EffectKind) int {
	total := 0
	for _, e := range es {
		if e.Kind == kind && !e.Used {
			total += e.Amount
		}
	}
	return total
}

// Add pushes an effect. Flag-style effects (zero Amount) are not stacked.
func (es *Effects) Add(e Effect) {
	if e.Amount == 0 && es.Active(e.Kind) {
		return
	}
	*es = append(*es, e)
}

// Consume marks every unused effect of the kind as used.
func (es Effects) Consume(kind EffectKind) bool {
	found := false
	for i := range es {
		if es[i].Kind == kind && !es[i].Used {
			es[i].Used = true
			found = true
		}
	}
	return found
}

// Remove drops every effect of the kind.
func (es *Effects) Remove(kind EffectKind) {
	out := (*es)[:0]
	for _, e := range *es {
		if e.Kind != kind {
			out = append(out, e)
		}
	}
	*es = out
}

// ExpireRound drops round-scoped effects and spent effects.
func (es *Effects) ExpireRound() {
	out := (*es)[:0]
	for _, e := range *es {
		if e.Scope == ScopeLevel && !e.Used {
			out = append(out, e)
		}
	}
	*es = out
}

func (es Effects) clone() Effects {
	return append(Effects(nil), es...)
}
