package game

import (
	"math"
	"slices"
	"strings"

	"github.com/peterkuimelis/ddzrogue/internal/log"
)

// BossState is the tagged record of the active boss rule. Kind selects the
// variant; only the fields of that variant are meaningful.
type BossState struct {
	Kind     BossKind `json:"kind"`
	Required int      `json:"required,omitempty"`

	// order guardian
	Groups     [][]PatternKind `json:"groups,omitempty"`
	GroupIndex int             `json:"group_index,omitempty"`
	GroupDone  bool            `json:"group_done,omitempty"`

	// chaos mage
	Swap []PatternKind `json:"swap,omitempty"`

	// sacrificer
	Pending []Rank `json:"pending,omitempty"`
}

func (b BossState) clone() BossState {
	cp := b
	cp.Groups = make([][]PatternKind, len(b.Groups))
	for i, g := range b.Groups {
		cp.Groups[i] = slices.Clone(g)
	}
	cp.Swap = slices.Clone(b.Swap)
	cp.Pending = slices.Clone(b.Pending)
	return cp
}

// Unlocked lists the pattern kinds the order guardian currently allows.
func (b *BossState) Unlocked() []PatternKind {
	var out []PatternKind
	for i := 0; i <= b.GroupIndex && i < len(b.Groups); i++ {
		out = append(out, b.Groups[i]...)
	}
	return out
}

// OrderGuardianGroups is the unlock sequence of the order guardian.
var OrderGuardianGroups = [][]PatternKind{
	{PatternSingle},
	{PatternPair},
	{PatternTriple, PatternTripleSingle, PatternTriplePair},
	{PatternStraight},
	{PatternDoubleStraight},
	{PatternAirplane, PatternAirplaneSingleWings, PatternAirplanePairWings},
	{PatternBomb},
	{PatternFourPair},
}

// ChaosSwapPool holds the kinds whose costs the chaos mage may swap.
var ChaosSwapPool = []PatternKind{PatternSingle, PatternPair, PatternTriple, PatternStraight, PatternBomb}

// BossReward is what clearing a boss level grants.
type BossReward struct {
	Boss        BossKind `json:"boss"`
	Description string   `json:"description"`
	FreeItems   int      `json:"free_items,omitempty"`
}

// bossRule is the behavior of one boss variant at the state machine's hook
// points. Implementations are stateless; state lives in BossState.
type bossRule interface {
	setup(b *BossState, spec *BossSpec, m *Match)
	graceRound() bool
	allowPlay(b *BossState, kind PatternKind) error
	swapCost(b *BossState, kind PatternKind, cost float64) float64
	onPlay(b *BossState, m *Match, p Pattern)
	afterPlay(b *BossState, m *Match) []*Card
	allowDiscard(b *BossState) error
	roundPenalty(b *BossState, m *Match) float64
	roundStart(b *BossState, m *Match)
	reward(r *Run) BossReward
}

// noBoss supplies the no-op hooks every variant embeds.
type noBoss struct{}

func (noBoss) setup(*BossState, *BossSpec, *Match)                     {}
func (noBoss) graceRound() bool                                        { return true }
func (noBoss) allowPlay(*BossState, PatternKind) error                 { return nil }
func (noBoss) swapCost(_ *BossState, _ PatternKind, c float64) float64 { return c }
func (noBoss) onPlay(*BossState, *Match, Pattern)                      {}
func (noBoss) afterPlay(*BossState, *Match) []*Card                    { return nil }
func (noBoss) allowDiscard(*BossState) error                           { return nil }
func (noBoss) roundPenalty(*BossState, *Match) float64                 { return 0 }
func (noBoss) roundStart(*BossState, *Match)                           {}
func (noBoss) reward(*Run) BossReward                                  { return BossReward{} }

func bossRuleFor(kind BossKind) bossRule {
	switch kind {
	case BossPerfectionist:
		return perfectionist{}
	case BossOrderGuardian:
		return orderGuardian{}
	case BossChaosMage:
		return chaosMage{}
	case BossPressureTester:
		return pressureTester{}
	case BossSacrificer:
		return sacrificer{}
	default:
		return noBoss{}
	}
}

// --- perfectionist ---

type perfectionist struct{ noBoss }

func (perfectionist) setup(b *BossState, spec *BossSpec, m *Match) {
	factor, rounds := 1.5, 2
	if spec != nil {
		factor, rounds = spec.PerfectionistFactor, spec.PerfectionistRounds
	}
	b.Required = int(math.Floor(float64(m.st.Requirement) * factor))
	m.st.RoundLimit = rounds
}

func (perfectionist) graceRound() bool { return false }

func (perfectionist) reward(r *Run) BossReward {
	r.BossScoreBonus += 0.2
	return BossReward{Boss: BossPerfectionist, Description: "+20% score on every play"}
}

// --- order guardian ---

type orderGuardian struct{ noBoss }

func (orderGuardian) setup(b *BossState, spec *BossSpec, _ *Match) {
	b.Groups = make([][]PatternKind, len(OrderGuardianGroups))
	for i, g := range OrderGuardianGroups {
		b.Groups[i] = slices.Clone(g)
	}
	b.GroupIndex = 0
	b.GroupDone = false
	if spec != nil && spec.OrderGuardianScore > 0 {
		b.Required = spec.OrderGuardianScore
	}
}

func (orderGuardian) allowPlay(b *BossState, kind PatternKind) error {
	if kind == PatternRocket || slices.Contains(b.Unlocked(), kind) {
		return nil
	}
	return reject(CodeRuleForbidden, "%s is still sealed by the order guardian", kind)
}

func (orderGuardian) onPlay(b *BossState, m *Match, p Pattern) {
	if b.GroupDone || b.GroupIndex >= len(b.Groups) || !slices.Contains(b.Groups[b.GroupIndex], p.Kind) {
		return
	}
	if b.GroupIndex == len(b.Groups)-1 {
		b.GroupDone = true
		return
	}
	b.GroupIndex++
	next := b.Groups[b.GroupIndex]
	names := make([]string, len(next))
	for i, k := range next {
		names[i] = k.String()
	}
	m.log(log.NewUnlockEvent(m.st.Level, m.st.Round, strings.Join(names, ", ")))
}

func (orderGuardian) reward(r *Run) BossReward {
	r.BossActionBonus += 2
	return BossReward{Boss: BossOrderGuardian, Description: "+2 max action points"}
}

// --- chaos mage ---

type chaosMage struct{ noBoss }

func (c chaosMage) setup(b *BossState, _ *BossSpec, m *Match) {
	c.roundStart(b, m)
}

func (chaosMage) swapCost(b *BossState, kind PatternKind, cost float64) float64 {
	if len(b.Swap) != 2 {
		return cost
	}
	switch kind {
	case b.Swap[0]:
		return baseCost(b.Swap[1])
	case b.Swap[1]:
		return baseCost(b.Swap[0])
	default:
		return cost
	}
}

// roundStart draws two distinct kinds in one decision.
func (chaosMage) roundStart(b *BossState, m *Match) {
	i := m.rng.Intn(len(ChaosSwapPool))
	j := m.rng.Intn(len(ChaosSwapPool) - 1)
	if j >= i {
		j++
	}
	b.Swap = []PatternKind{ChaosSwapPool[i], ChaosSwapPool[j]}
	m.log(log.NewChaosSwapEvent(m.st.Level, m.st.Round, b.Swap[0].String(), b.Swap[1].String()))
}

func (chaosMage) reward(r *Run) BossReward {
	r.FreeItems += 2
	return BossReward{Boss: BossChaosMage, Description: "2 free shop items", FreeItems: 2}
}

// --- pressure tester ---

type pressureTester struct{ noBoss }

func (pressureTester) allowDiscard(*BossState) error {
	return reject(CodeRuleForbidden, "the pressure tester forbids discarding")
}

func (pressureTester) roundPenalty(_ *BossState, m *Match) float64 {
	if over := len(m.st.Hand) - 15; over > 0 {
		return float64(over)
	}
	return 0
}

func (pressureTester) reward(r *Run) BossReward {
	r.BossActionBonus++
	return BossReward{Boss: BossPressureTester, Description: "+1 max action point"}
}

// --- sacrificer ---

type sacrificer struct{ noBoss }

func (sacrificer) onPlay(b *BossState, _ *Match, p Pattern) {
	b.Pending = b.Pending[:0]
	for _, c := range p.Cards {
		if !slices.Contains(b.Pending, c.Rank) {
			b.Pending = append(b.Pending, c.Rank)
		}
	}
}

// afterPlay removes one card sharing a played rank, or two random cards.
func (sacrificer) afterPlay(b *BossState, m *Match) []*Card {
	ranks := b.Pending
	b.Pending = nil
	if len(m.st.Hand) == 0 {
		return nil
	}
	var matching []*Card
	for _, c := range m.st.Hand {
		if slices.Contains(ranks, c.Rank) {
			matching = append(matching, c)
		}
	}
	var lost []*Card
	if len(matching) > 0 {
		lost = append(lost, matching[m.rng.Intn(len(matching))])
	} else {
		n := min(2, len(m.st.Hand))
		for _, i := range m.rng.Perm(len(m.st.Hand))[:n] {
			lost = append(lost, m.st.Hand[i])
		}
	}
	m.removeFromHand(lost...)
	m.log(log.NewSacrificeEvent(m.st.Level, m.st.Round, CardsString(lost)))
	return lost
}

func (sacrificer) reward(r *Run) BossReward {
	r.BossDiscardBonus += 2
	return BossReward{Boss: BossSacrificer, Description: "+2 max discard points"}
}
