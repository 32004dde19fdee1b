package game

import "math"

// BaseCosts is the action point cost table before modifiers. Single uses
// its first-play cost here; the single stage prices later singles at 1.5.
var BaseCosts = map[PatternKind]float64{
	PatternSingle:              2,
	PatternPair:                2,
	PatternTriple:              2.5,
	PatternTripleSingle:        3.5,
	PatternTriplePair:          4,
	PatternStraight:            3,
	PatternDoubleStraight:      4.5,
	PatternAirplane:            4.5,
	PatternAirplaneSingleWings: 5.5,
	PatternAirplanePairWings:   6.5,
	PatternFourPair:            5,
	PatternBomb:                5,
	PatternRocket:              5,
}

func baseCost(kind PatternKind) float64 {
	if c, ok := BaseCosts[kind]; ok {
		return c
	}
	return 1
}

// costStage rewrites a cost. Stages run in a fixed order and each sees the
// previous stage's output.
type costStage struct {
	name  string
	apply func(m *Match, kind PatternKind, cost float64) float64
}

var costStages = []costStage{
	{"boss swap", func(m *Match, kind PatternKind, cost float64) float64 {
		if m.st.Boss == nil {
			return cost
		}
		return bossRuleFor(m.st.Boss.Kind).swapCost(m.st.Boss, kind, cost)
	}},
	// Singles are priced after the swap, so a swapped Single keeps 2/1.5.
	{"single", func(m *Match, kind PatternKind, cost float64) float64 {
		switch {
		case kind != PatternSingle:
			return cost
		case m.run.HasTrait(TraitPrecisionStrike):
			return 1
		case m.st.SinglesThisRound > 0:
			return 1.5
		default:
			return 2
		}
	}},
	{"trait", func(m *Match, kind PatternKind, cost float64) float64 {
		switch {
		case m.run.HasTrait(TraitBombExpert) && kind == PatternBomb:
			return cost + 2
		case m.run.HasTrait(TraitStraightMaster) && kind == PatternStraight:
			return math.Max(1, cost-1)
		case m.run.HasTrait(TraitStraightMaster) && kind == PatternPair:
			return cost + 1
		}
		return cost
	}},
	{"energy saver", func(m *Match, _ PatternKind, cost float64) float64 {
		if m.st.Effects.Active(EffectEnergySaver) {
			return math.Ceil(cost / 2)
		}
		return cost
	}},
	{"backwater", func(m *Match, _ PatternKind, cost float64) float64 {
		if m.st.Effects.Active(EffectBackwater) && len(m.st.Hand) > 20 {
			return math.Max(1, cost-1)
		}
		return cost
	}},
	{"double cost", func(m *Match, kind PatternKind, cost float64) float64 {
		if m.st.Rules.Special == SpecialDoubleCost && m.st.Rules.DoubleCostKind == kind {
			return cost * 2
		}
		return cost
	}},
	{"cost increase", func(m *Match, kind PatternKind, cost float64) float64 {
		if m.st.Rules.Negative == NegativeCostIncrease {
			return cost + float64(m.st.PatternPlays[kind])
		}
		return cost
	}},
}

// PatternCost returns the action point cost of playing kind now. It is a
// pure read of the state; calling it twice yields the same value.
func (m *Match) PatternCost(kind PatternKind) float64 {
	if m.st.Effects.Active(EffectFreePlay) {
		return 0
	}
	cost := baseCost(kind)
	for _, stage := range costStages {
		cost = stage.apply(m, kind, cost)
	}
	return math.Max(1, cost)
}

// CanAfford reports whether the current action points cover kind.
func (m *Match) CanAfford(kind PatternKind) bool {
	return m.st.ActionPoints >= m.PatternCost(kind)
}

// CurrentDiscardCost is the discard point cost of the next discard.
func (m *Match) CurrentDiscardCost() int {
	if m.run.HasTalent(TalentSecondhandPrep) && !m.st.FirstDiscardUsed {
		return 0
	}
	return m.st.DiscardCost
}

// --- Scoring ---

// scoreInput carries what the score stages read besides the match.
type scoreInput struct {
	pattern    Pattern
	firstPlay  bool
	useDouble  bool
	streak     int
	chainBoost bool
}

// scoreStage rewrites a running score. Fractional intermediate values are
// kept until a stage floors them.
type scoreStage struct {
	name  string
	apply func(m *Match, in scoreInput, score float64) float64
}

var scoreStages = []scoreStage{
	{"bomb expert", func(m *Match, in scoreInput, score float64) float64 {
		if m.run.HasTrait(TraitBombExpert) && in.pattern.Kind == PatternBomb {
			return math.Floor(score * 1.5)
		}
		return score
	}},
	{"upgrades", func(_ *Match, in scoreInput, score float64) float64 {
		for _, c := range in.pattern.Cards {
			if c.Upgraded {
				score += UpgradeBonus
			}
		}
		return score
	}},
	{"score double", func(_ *Match, in scoreInput, score float64) float64 {
		if in.useDouble {
			return score * 2
		}
		return score
	}},
	{"aggressive assault", func(m *Match, in scoreInput, score float64) float64 {
		if m.run.HasTrait(TraitAggressiveAssault) && in.firstPlay {
			return math.Floor(score * 1.5)
		}
		return score
	}},
	{"combo and decay", func(m *Match, in scoreInput, score float64) float64 {
		combo := m.st.Combo
		if in.chainBoost {
			combo += 0.2
		}
		decay := math.Max(0.1, 1-0.1*float64(in.streak))
		return math.Floor(score * combo * decay)
	}},
	{"boss bonus", func(m *Match, _ scoreInput, score float64) float64 {
		if b := m.run.BossScoreBonus; b > 0 {
			return math.Floor(score * (1 + b))
		}
		return score
	}},
	{"level multiplier", func(m *Match, _ scoreInput, score float64) float64 {
		return math.Floor(score * m.st.Multiplier)
	}},
}

// baseScoreFor applies the single-card-king override.
func (m *Match) baseScoreFor(p Pattern) float64 {
	if p.Kind == PatternSingle && m.st.Effects.Active(EffectSingleCardKing) {
		return 30
	}
	return float64(p.BaseScore)
}

// scorePlay runs the scoring pipeline for a play about to be made.
func (m *Match) scorePlay(p Pattern, firstPlay, useDouble bool) int {
	in := scoreInput{
		pattern:    p,
		firstPlay:  firstPlay,
		useDouble:  useDouble,
		streak:     m.st.PatternStreak[p.Kind],
		chainBoost: m.st.Effects.Active(EffectChainReaction),
	}
	score := m.baseScoreFor(p)
	for _, stage := range scoreStages {
		score = stage.apply(m, in, score)
	}
	return int(score)
}

// PreviewScore returns the score a pattern would earn if played now, without
// consuming one-shot effects.
func (m *Match) PreviewScore(p Pattern) int {
	return m.scorePlay(p, m.st.PlaysThisRound == 0, m.st.Effects.Active(EffectScoreDouble))
}

// comboCap is the upper bound of the combo multiplier.
func (m *Match) comboCap() float64 {
	if m.run.HasTrait(TraitComboMaster) {
		return 2.5
	}
	return 2.2
}
