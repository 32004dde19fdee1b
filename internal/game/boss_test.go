package game

import (
	"errors"
	"testing"
)

func TestOrderGuardianUnlocksInOrder(t *testing.T) {
	m := newTestMatch(t, withHand("3h 3s 9c 7d SJ BJ"), withBoss(BossOrderGuardian))

	if _, err := m.Play([]int{0, 1}); !errors.Is(err, ErrRuleForbidden) {
		t.Fatalf("pair before any single: %v", err)
	}
	if _, err := m.Play([]int{2}); err != nil {
		t.Fatalf("single: %v", err)
	}
	if got := m.st.Boss.GroupIndex; got != 1 {
		t.Errorf("group index %d, want 1", got)
	}
	if _, err := m.Play([]int{0, 1}); err != nil {
		t.Fatalf("pair after single: %v", err)
	}
	// hand is now 7d SJ BJ; the rocket is never sealed
	if _, err := m.Play([]int{1, 2}); err != nil {
		t.Fatalf("rocket: %v", err)
	}
}

func TestOrderGuardianKeepsEarlierGroups(t *testing.T) {
	m := newTestMatch(t, withHand("3h 5s 7d 7c 9h 9s 9d"), withBoss(BossOrderGuardian))
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Play([]int{1, 2}); err != nil {
		t.Fatal(err)
	}
	// triples are open now, and singles stay open
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatalf("single after unlocking triples: %v", err)
	}
	unlocked := m.st.Boss.Unlocked()
	if len(unlocked) != 5 {
		t.Errorf("unlocked %v", unlocked)
	}
}

func TestPerfectionist(t *testing.T) {
	m := newTestMatch(t, withHand("3h 3s 5c"), withRequirement(100), withBoss(BossPerfectionist))
	if got := m.st.RequiredScore(); got != 150 {
		t.Errorf("required %d, want 150", got)
	}
	if m.st.RoundLimit != 2 || m.st.RoundCeiling() != 2 {
		t.Errorf("limit %d ceiling %d", m.st.RoundLimit, m.st.RoundCeiling())
	}
	for i := 0; i < 2; i++ {
		if _, err := m.EndRound(); err != nil {
			t.Fatal(err)
		}
	}
	if m.Status() != StatusLost {
		t.Errorf("status %s in round %d, want lost without a grace round", m.Status(), m.Round())
	}
}

func TestPerfectionistRating(t *testing.T) {
	m := newTestMatch(t, withHand("3h"), withBoss(BossPerfectionist))
	if _, err := m.EndRound(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Play([]int{0}); err != nil {
		t.Fatal(err)
	}
	if m.Rating() != RatingA {
		t.Errorf("round 2 clear rated %s, want A", m.Rating())
	}
	if !m.st.BossRewardPending {
		t.Error("boss reward not pending")
	}
}

func TestPressureTester(t *testing.T) {
	m := newTestMatch(t, withHand(bigHand(17)), withDeck(bigHand(5)), withBoss(BossPressureTester))
	if _, err := m.Discard([]int{0}); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("discard: %v", err)
	}
	res, err := m.EndRound()
	if err != nil {
		t.Fatal(err)
	}
	if res.Penalty != 2 || m.ActionPoints() != 18 {
		t.Errorf("penalty %v ap %v, want 2 and 18", res.Penalty, m.ActionPoints())
	}
}

func TestSacrificerMatchingRank(t *testing.T) {
	m := newTestMatch(t, withHand("3h 3s 3d 9c"), withBoss(BossSacrificer))
	res, err := m.Play([]int{0})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Sacrificed) != 1 || res.Sacrificed[0].Rank != Rank3 {
		t.Fatalf("sacrificed %s, want one 3", CardsString(res.Sacrificed))
	}
	if m.HandSize() != 2 || !m.st.CardsAccounted() {
		t.Errorf("hand %d, accounted %v", m.HandSize(), m.st.CardsAccounted())
	}
}

func TestSacrificerRandomCardsCanWin(t *testing.T) {
	m := newTestMatch(t, withHand("5h 9c 10d"), withBoss(BossSacrificer))
	res, err := m.Play([]int{0})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Sacrificed) != 2 {
		t.Fatalf("sacrificed %d cards, want 2", len(res.Sacrificed))
	}
	if !res.TriggersWin || m.Status() != StatusWon {
		t.Errorf("emptied hand did not win: %+v", res)
	}
}

func TestChaosMageSwapsCosts(t *testing.T) {
	m := newTestMatch(t, withHand(bigHand(10)), withBoss(BossChaosMage))
	for round := 0; round < 5; round++ {
		swap := m.st.Boss.Swap
		if len(swap) != 2 || swap[0] == swap[1] {
			t.Fatalf("round %d: bad swap %v", m.Round(), swap)
		}
		for i, kind := range swap {
			want := baseCost(swap[1-i])
			if kind == PatternSingle {
				want = 2
			}
			if got := m.PatternCost(kind); got != want {
				t.Errorf("round %d: %s costs %v, want %v", m.Round(), kind, got, want)
			}
		}
		if m.GameOver() {
			break
		}
		if _, err := m.EndRound(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestChaosMageSingleKeepsItsOwnCost(t *testing.T) {
	m := newTestMatch(t, withHand(bigHand(10)), withBoss(BossChaosMage))
	m.st.Boss.Swap = []PatternKind{PatternSingle, PatternBomb}

	if got := m.PatternCost(PatternBomb); got != 2 {
		t.Errorf("bomb costs %v, want the single's 2", got)
	}
	if got := m.PatternCost(PatternSingle); got != 2 {
		t.Errorf("first single costs %v, want 2", got)
	}
	m.st.SinglesThisRound = 1
	if got := m.PatternCost(PatternSingle); got != 1.5 {
		t.Errorf("second single costs %v, want 1.5", got)
	}
}

func TestBossRewards(t *testing.T) {
	tests := []struct {
		boss  BossKind
		check func(r *Run) bool
	}{
		{BossPerfectionist, func(r *Run) bool { return r.BossScoreBonus == 0.2 }},
		{BossOrderGuardian, func(r *Run) bool { return r.BossActionBonus == 2 }},
		{BossChaosMage, func(r *Run) bool { return r.FreeItems == 2 }},
		{BossPressureTester, func(r *Run) bool { return r.BossActionBonus == 1 }},
		{BossSacrificer, func(r *Run) bool { return r.BossDiscardBonus == 2 }},
	}
	for _, tt := range tests {
		r := NewRun("reward", 0, nil, nil)
		reward := bossRuleFor(tt.boss).reward(r)
		if reward.Boss != tt.boss || !tt.check(r) {
			t.Errorf("%s: reward %+v, run %+v", tt.boss, reward, r)
		}
	}
}
