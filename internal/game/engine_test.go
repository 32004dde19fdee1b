package game

import (
	"errors"
	"testing"
	"time"

	"github.com/peterkuimelis/ddzrogue/internal/log"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(Config{Seed: 42, Clock: newFakeClock().Now}, NewRun("run-1", 0, nil, nil))
}

func TestStartLevel(t *testing.T) {
	e := newEngine(t)
	m := e.StartLevel()
	st := m.State()
	if len(st.Hand) != 13 || len(st.Deck) != DeckSize-13 || !st.CardsAccounted() {
		t.Errorf("hand %d deck %d", len(st.Hand), len(st.Deck))
	}
	if st.ActionPoints != 8 || st.MaxActionPoints != 8 {
		t.Errorf("ap %v/%v, want 8", st.ActionPoints, st.MaxActionPoints)
	}
	if st.DiscardPoints != 2 || st.MaxDiscardPoints != 4 || st.RoundLimit != 3 {
		t.Errorf("dp %d/%d limit %d", st.DiscardPoints, st.MaxDiscardPoints, st.RoundLimit)
	}
	if st.Multiplier != 0.6 || st.Rules != (LevelRules{}) {
		t.Errorf("multiplier %v rules %+v", st.Multiplier, st.Rules)
	}
	offers := e.Run().TraitOffers
	if len(offers) != 3 || offers[0] == offers[1] || offers[1] == offers[2] || offers[0] == offers[2] {
		t.Errorf("trait offers %v", offers)
	}
	logger := e.Logger().(*log.MemoryLogger)
	if len(logger.EventsOfType(log.EventLevelStart)) != 1 || len(logger.EventsOfType(log.EventDeal)) != 1 {
		t.Error("missing level start or deal event")
	}
}

func TestDealLevelCarriesRunBonuses(t *testing.T) {
	run := NewRun("r", 0, []Talent{TalentEmergencyReserve}, nil)
	run.PermanentItems = []string{"permanent_action_boost"}
	run.BossActionBonus = 2
	run.BossDiscardBonus = 2
	run.ActionPenaltyNextDeal = 1
	e := NewEngine(Config{Seed: 1}, run)
	m := e.StartLevel()
	// 6 base + 2 level + 1 permanent + 2 boss, -1 queued penalty, +1 talent
	if m.st.MaxActionPoints != 11 || m.ActionPoints() != 11 {
		t.Errorf("ap %v/%v", m.ActionPoints(), m.st.MaxActionPoints)
	}
	if m.st.MaxDiscardPoints != 6 {
		t.Errorf("max dp %d", m.st.MaxDiscardPoints)
	}
	if run.ActionPenaltyNextDeal != 0 {
		t.Error("queued penalty not consumed")
	}
}

func TestDealLevelClampsQueuedPenalty(t *testing.T) {
	tests := []struct {
		penalty float64
		want    float64
	}{
		{0, 8},
		{3, 5},
		{8, 1},
		{40, 1},
	}
	for _, tt := range tests {
		run := NewRun("r", 0, nil, nil)
		run.ActionPenaltyNextDeal = tt.penalty
		m := NewEngine(Config{Seed: 1}, run).StartLevel()
		if m.ActionPoints() != tt.want {
			t.Errorf("penalty %v: ap %v, want %v", tt.penalty, m.ActionPoints(), tt.want)
		}
	}
}

func TestLevelTableEconomy(t *testing.T) {
	levels, err := ParseLevelTable([]byte(`
base_action_points: 6
round_limit: 3
draw_per_round: 1
discard: {start_points: 4, max_points: 6, income: 1, base_cost: 2, max_select: 2, min_hand: 12}
levels:
  - {level: 1, requirement: 500, multiplier: 1}
`))
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(Config{Levels: levels, Seed: 1}, NewRun("r", 0, nil, nil))
	m := e.StartLevel()

	if _, err := m.Discard([]int{0, 1, 2}); !errors.Is(err, ErrBoundsViolation) {
		t.Fatalf("three-card discard: %v", err)
	}
	res, err := m.Discard([]int{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if res.Cost != 2 || m.CurrentDiscardCost() != 3 {
		t.Errorf("cost %d then %d, want 2 then 3", res.Cost, m.CurrentDiscardCost())
	}

	if _, err := m.EndRound(); err != nil {
		t.Fatal(err)
	}
	if m.HandSize() != 14 {
		t.Errorf("hand %d after drawing 1, want 14", m.HandSize())
	}
	if m.DiscardPoints() != 3 || m.CurrentDiscardCost() != 2 {
		t.Errorf("dp %d cost %d, want 3 and 2", m.DiscardPoints(), m.CurrentDiscardCost())
	}

	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Discard([]int{0}); !errors.Is(err, ErrBoundsViolation) {
		t.Errorf("discard at min hand: %v", err)
	}
}

func TestDealUpgradedCards(t *testing.T) {
	run := NewRun("r", 0, nil, StandardRanks)
	e := NewEngine(Config{Seed: 5}, run)
	m := e.DealLevel(DeckSize)
	upgraded := 0
	for _, c := range m.Hand() {
		if c.Upgraded {
			upgraded++
		}
	}
	if upgraded == 0 || upgraded > 80 {
		t.Errorf("%d upgraded cards out of %d", upgraded, m.HandSize())
	}
}

func TestChooseTrait(t *testing.T) {
	e := newEngine(t)
	if err := e.ChooseTrait(0); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("choose before dealing: %v", err)
	}
	e.StartLevel()
	e.run.TraitOffers = []Trait{TraitRestAndWait, TraitBombExpert, TraitEconomicMind}
	if err := e.ChooseTrait(3); !errors.Is(err, ErrBoundsViolation) {
		t.Errorf("out of range: %v", err)
	}
	if err := e.ChooseTrait(0); err != nil {
		t.Fatal(err)
	}
	if e.run.Trait != TraitRestAndWait || e.match.st.MaxDiscardPoints != 3 {
		t.Errorf("trait %s max dp %d", e.run.Trait, e.match.st.MaxDiscardPoints)
	}
	if err := e.ChooseTrait(1); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("second choice: %v", err)
	}
}

func TestTimeLimitRule(t *testing.T) {
	clk := newFakeClock()
	e := NewEngine(Config{Seed: 1, Clock: clk.Now}, NewRun("r", 0, nil, nil))
	e.rules = LevelRules{Special: SpecialTimeLimit}
	m := e.DealLevel(13)
	if m.Timer() == nil || m.Timer().Remaining() != 30 {
		t.Fatalf("timer %+v", m.Timer())
	}
	clk.Advance(31 * time.Second)
	if !m.CheckTimeout() {
		t.Error("expected a timeout")
	}

	e = NewEngine(Config{Seed: 1, Clock: clk.Now, TimeLimit: 10 * time.Second}, NewRun("r", 0, nil, nil))
	e.rules = LevelRules{Special: SpecialTimeLimit}
	if got := e.DealLevel(13).Timer().Remaining(); got != 10 {
		t.Errorf("override limit: remaining %d", got)
	}
}

func TestSettle(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h"))
	if _, err := e.Settle(); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("settle before winning: %v", err)
	}
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	s, err := e.Settle()
	if err != nil {
		t.Fatal(err)
	}
	if s.Rating != RatingS || s.ScoreBefore != 10 || s.ScoreAfter != 12 || e.run.Score != 12 {
		t.Errorf("settlement %+v score %d", s, e.run.Score)
	}
	again, err := e.Settle()
	if err != nil {
		t.Fatal(err)
	}
	if again != s || e.run.Score != 12 {
		t.Errorf("second settle changed things: %+v score %d", again, e.run.Score)
	}
}

func TestSettleGamble(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h 3s"))
	if err := m.DeclareGamble(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Play([]int{0, 1}); err != nil {
		t.Fatal(err)
	}
	s, err := e.Settle()
	if err != nil {
		t.Fatal(err)
	}
	if s.Multiplier != 2 || e.run.Score != 40 {
		t.Errorf("multiplier %v score %d", s.Multiplier, e.run.Score)
	}
}

func TestSettleBossRewardOnce(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h"), withBoss(BossPressureTester))
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	s, err := e.Settle()
	if err != nil {
		t.Fatal(err)
	}
	if s.Reward == nil || s.Reward.Boss != BossPressureTester {
		t.Fatalf("reward %+v", s.Reward)
	}
	if _, err := e.Settle(); err != nil {
		t.Fatal(err)
	}
	if _, ok := e.ApplyBossReward(); ok {
		t.Error("boss reward granted twice")
	}
	if e.run.BossActionBonus != 1 {
		t.Errorf("boss action bonus %d", e.run.BossActionBonus)
	}
}

func TestNextLevel(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h"))
	if _, err := e.NextLevel(); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("advance before winning: %v", err)
	}
	e.run.ScorePenaltyNextLevel = 30
	m.st.ActionPenalty = 1
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	next, err := e.NextLevel()
	if err != nil {
		t.Fatal(err)
	}
	// 10 * 1.2 + 50 reward - 30 penalty
	if e.run.Score != 32 || e.run.Level != 2 || e.run.ScorePenaltyNextLevel != 0 {
		t.Errorf("score %d level %d", e.run.Score, e.run.Level)
	}
	if next.Level() != 2 || next.HandSize() != 15 || e.Match() != next {
		t.Errorf("next level %d hand %d", next.Level(), next.HandSize())
	}
	if next.ActionPoints() != next.st.MaxActionPoints-1 {
		t.Errorf("carried penalty not applied: %v/%v", next.ActionPoints(), next.st.MaxActionPoints)
	}
}

func TestNextLevelEconomicMind(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h"), withTrait(TraitEconomicMind))
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.NextLevel(); err != nil {
		t.Fatal(err)
	}
	if e.run.Score != 12+35 {
		t.Errorf("score %d", e.run.Score)
	}
	if e.run.Trait != "" {
		t.Error("trait carried into the next level")
	}
}

func TestFinalLevel(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h"))
	e.run.Level = e.levels.MaxLevel()
	m.st.Level = e.run.Level
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	if !e.RunComplete() {
		t.Error("run not complete")
	}
	if _, err := e.NextLevel(); !errors.Is(err, ErrRunComplete) {
		t.Errorf("err = %v", err)
	}
	if e.run.Coins != 500 {
		t.Errorf("clear coins %d, want 500", e.run.Coins)
	}
}

func TestRetryLevel(t *testing.T) {
	e := newEngine(t)
	e.run.Level = 6
	first := e.StartLevel()
	rules := e.Rules()
	e.run.ActionPenaltyNextDeal = 3
	retry := e.RetryLevel()
	if retry == first || retry.Level() != 6 || e.Rules() != rules {
		t.Errorf("retry level %d rules %+v, want %+v", retry.Level(), e.Rules(), rules)
	}
	if retry.ActionPoints() != retry.st.MaxActionPoints {
		t.Error("retry kept a queued penalty")
	}
	if len(e.run.TraitOffers) != 3 {
		t.Errorf("trait offers %v", e.run.TraitOffers)
	}
}

func TestRunSeedIsDeterministic(t *testing.T) {
	a := NewEngine(Config{Seed: 9}, NewRun("a", 0, nil, nil)).StartLevel()
	b := NewEngine(Config{Seed: 9}, NewRun("b", 0, nil, nil)).StartLevel()
	if CardsString(a.Hand()) != CardsString(b.Hand()) {
		t.Errorf("same seed dealt %s and %s", CardsString(a.Hand()), CardsString(b.Hand()))
	}
}

func TestBuyTalentAndUpgrade(t *testing.T) {
	r := NewRun("r", 450, nil, nil)
	if err := r.BuyTalent(TalentEmergencyReserve); err != nil {
		t.Fatal(err)
	}
	if err := r.BuyTalent(TalentEmergencyReserve); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("second purchase: %v", err)
	}
	if err := r.BuyUpgrade(RankA); !errors.Is(err, ErrInsufficientResource) {
		t.Errorf("unaffordable upgrade: %v", err)
	}
	if err := r.BuyUpgrade(Rank5); err != nil {
		t.Fatal(err)
	}
	if r.Coins != 50 || !r.HasTalent(TalentEmergencyReserve) || len(r.Upgrades) != 1 {
		t.Errorf("run %+v", r)
	}
	if err := r.BuyTalent("nope"); err == nil {
		t.Error("expected an error for an unknown talent")
	}
}
