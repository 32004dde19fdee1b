package game

import (
	"errors"
	"slices"
	"testing"
)

func useItem(t *testing.T, m *Match, id string, sel ...int) (ItemOutcome, error) {
	t.Helper()
	item, err := LookupItem(id)
	if err != nil {
		t.Fatal(err)
	}
	return m.UseItem(item, sel)
}

func TestHandRemover(t *testing.T) {
	m := newTestMatch(t, withHand("3h 5s 9d"))
	if _, err := useItem(t, m, "hand_remover", 1); err != nil {
		t.Fatal(err)
	}
	if got := handCodes(m); got != "3h 9d" {
		t.Errorf("hand %q", got)
	}
	if !m.st.CardsAccounted() {
		t.Error("cards not accounted for")
	}
}

func TestHandRemoverEmptiesHand(t *testing.T) {
	m := newTestMatch(t, withHand("3h"))
	out, err := useItem(t, m, "hand_remover", 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusWon || m.Rating() != RatingS {
		t.Errorf("status %s rating %s", out.Status, m.Rating())
	}

	m = newTestMatch(t, withHand("3h"), withRequirement(100))
	out, err = useItem(t, m, "hand_remover", 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != StatusPlaying || out.UnmetReason != "insufficient score" {
		t.Errorf("status %s reason %q", out.Status, out.UnmetReason)
	}
}

func TestFailedItemLeavesMatch(t *testing.T) {
	tests := []struct {
		id   string
		hand string
		sel  []int
		want error
	}{
		{"hand_remover", "3h 5s", []int{0, 1}, ErrBoundsViolation},
		{"card_upgrader", "2h 5s", []int{0}, ErrRuleForbidden},
		{"card_upgrader", "Ah", []int{0}, ErrRuleForbidden},
		{"bomb_factory", "3h 5s 9d", []int{0, 1, 2}, ErrBoundsViolation},
		{"bomb_factory", "SJ 5s 9d Kc", []int{0, 1, 2, 3}, ErrRuleForbidden},
		{"rocket_booster", "3h 5s 9d", nil, ErrResourceExhausted},
		{"abandon_weapon", "3h 5s", nil, ErrRuleForbidden},
		{"exchange_card", "3h 5s", []int{5}, ErrBoundsViolation},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			m := newTestMatch(t, withHand(tt.hand))
			before := handCodes(m)
			_, err := useItem(t, m, tt.id, tt.sel...)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if handCodes(m) != before || m.st.TotalCards != len(m.st.Hand) {
				t.Error("failed item changed the hand")
			}
		})
	}
}

func TestBombFactory(t *testing.T) {
	m := newTestMatch(t, withHand("8h 5s 9d Kc 7h"))
	if _, err := useItem(t, m, "bomb_factory", 0, 1, 2, 3); err != nil {
		t.Fatal(err)
	}
	if got := Classify(m.st.Hand[:4]).Kind; got != PatternBomb {
		t.Fatalf("forged %s, want a bomb", CardsString(m.st.Hand[:4]))
	}
	if m.st.Hand[0].Rank != Rank8 || m.st.Hand[4].Code() != "7h" {
		t.Errorf("hand %s", handCodes(m))
	}
	if !m.st.CardsAccounted() {
		t.Error("cards not accounted for")
	}
}

func TestCardUpgrader(t *testing.T) {
	m := newTestMatch(t, withHand("Kh 5s"))
	if _, err := useItem(t, m, "card_upgrader", 0); err != nil {
		t.Fatal(err)
	}
	if m.st.Hand[0].Rank != RankA {
		t.Errorf("rank %v, want A", m.st.Hand[0].Rank)
	}
}

func TestRocketBooster(t *testing.T) {
	m := newTestMatch(t, withHand("Kh 3s 9d 4c 2h 5s Ah"))
	if _, err := useItem(t, m, "rocket_booster"); err != nil {
		t.Fatal(err)
	}
	if got := handCodes(m); got != "2h Ah" {
		t.Errorf("hand %q, want 2h Ah", got)
	}
}

func TestAbandonWeapon(t *testing.T) {
	m := newTestMatch(t, withHand("3h 3s 9d"))
	if _, err := m.Play([]int{0, 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := useItem(t, m, "abandon_weapon"); err != nil {
		t.Fatal(err)
	}
	if m.ActionPoints() != 20 || m.DiscardPoints() != 0 {
		t.Errorf("ap %v dp %d", m.ActionPoints(), m.DiscardPoints())
	}
	if _, err := useItem(t, m, "abandon_weapon"); !errors.Is(err, ErrInsufficientResource) {
		t.Errorf("second use: %v", err)
	}
}

func TestOffenseDefenseSwap(t *testing.T) {
	m := newTestMatch(t, withHand("3h"), withAP(7.5), withDP(3))
	if _, err := useItem(t, m, "offense_defense_swap"); err != nil {
		t.Fatal(err)
	}
	if m.ActionPoints() != 3 || m.DiscardPoints() != 7 {
		t.Errorf("ap %v dp %d", m.ActionPoints(), m.DiscardPoints())
	}
}

func TestPerfectMomentEndsRound(t *testing.T) {
	m := newTestMatch(t, withHand("3h 5s"), withAP(6), withDP(1))
	m.st.ActionPoints = 5.5
	out, err := useItem(t, m, "perfect_moment")
	if err != nil {
		t.Fatal(err)
	}
	if out.EndRound == nil || m.Round() != 2 {
		t.Fatalf("round %d, end round %v", m.Round(), out.EndRound)
	}
	// 1 + 5 converted, clamped to 4, then +2 round income clamped again
	if m.DiscardPoints() != 4 || m.ActionPoints() != 6 {
		t.Errorf("dp %d ap %v", m.DiscardPoints(), m.ActionPoints())
	}
}

func TestJokerMaskAddsCard(t *testing.T) {
	m := newTestMatch(t, withHand("3h"))
	if _, err := useItem(t, m, "joker_mask"); err != nil {
		t.Fatal(err)
	}
	if m.HandSize() != 2 || !m.st.Hand[1].Rank.IsJoker() {
		t.Errorf("hand %s", handCodes(m))
	}
	if m.st.Hand[1].ID == m.st.Hand[0].ID || !m.st.CardsAccounted() {
		t.Error("new card reused an id or broke the card count")
	}
}

func TestDeckReforgeKeepsHandSize(t *testing.T) {
	m := newTestMatch(t, withHand("3h 3s 5c 9d"))
	if _, err := useItem(t, m, "deck_reforge"); err != nil {
		t.Fatal(err)
	}
	if m.HandSize() != 4 || !m.st.CardsAccounted() {
		t.Errorf("hand %d accounted %v", m.HandSize(), m.st.CardsAccounted())
	}
}

func TestCompass(t *testing.T) {
	m := newTestMatch(t, withHand("3h 3s 3d 5c 5d 9h"))
	out, err := useItem(t, m, "compass")
	if err != nil {
		t.Fatal(err)
	}
	hints := out.Result.Hints
	if len(hints) != 3 {
		t.Fatalf("got %d hints", len(hints))
	}
	for i := 1; i < len(hints); i++ {
		if hints[i].Value > hints[i-1].Value {
			t.Errorf("hints not sorted by value: %v then %v", hints[i-1].Value, hints[i].Value)
		}
	}
	if hints[0].Kind != PatternTriplePair {
		t.Errorf("best hint %s, want triple with pair", hints[0].Kind)
	}
	for _, h := range hints {
		var sel []*Card
		for _, i := range h.Indices {
			sel = append(sel, m.st.Hand[i])
		}
		if Classify(sel).Kind != h.Kind {
			t.Errorf("hint indices %v do not form %s", h.Indices, h.Kind)
		}
	}
}

func TestCompassSkipsLockedCards(t *testing.T) {
	m := newTestMatch(t, withHand("3h"))
	m.st.Locked[m.st.Hand[0].ID] = true
	if _, err := useItem(t, m, "compass"); !errors.Is(err, ErrIllegalPattern) {
		t.Errorf("err = %v", err)
	}
}

func TestRuleRewriter(t *testing.T) {
	m := newTestMatch(t, withHand("3h 3s"), withNegative(NegativeMonotone))
	m.st.Rules.Special = SpecialDoubleCost
	m.st.Rules.DoubleCostKind = PatternPair
	if _, err := useItem(t, m, "rule_rewriter"); err != nil {
		t.Fatal(err)
	}
	if m.st.Rules.Negative != NegativeNone || m.st.Rules.Special != SpecialDoubleCost {
		t.Errorf("rules %+v, want only the negative rule removed", m.st.Rules)
	}
	if _, err := useItem(t, m, "rule_rewriter"); err != nil {
		t.Fatal(err)
	}
	if m.st.Rules.Special != SpecialNone || m.PatternCost(PatternPair) != 2 {
		t.Errorf("special rule survived: %+v", m.st.Rules)
	}
	if _, err := useItem(t, m, "rule_rewriter"); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("nothing left to remove: %v", err)
	}
}

func TestSingleCardKing(t *testing.T) {
	m := newTestMatch(t, withHand("3h 4s 5d 6c 7h 9s"))
	if _, err := useItem(t, m, "single_card_king"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Play(indices(5)); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("straight: %v", err)
	}
	res, err := m.Play([]int{5})
	if err != nil {
		t.Fatal(err)
	}
	if res.ScoreDelta != 30 {
		t.Errorf("single scored %d, want 30", res.ScoreDelta)
	}
	if _, err := m.EndRound(); err != nil {
		t.Fatal(err)
	}
	if !m.st.Effects.Active(EffectSingleCardKing) {
		t.Error("level effect expired at round end")
	}
}

// --- Purchases ---

func TestBuyItemToInventoryAndUse(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h 5s"))
	e.run.Score = 500
	if _, err := e.BuyItem("hand_remover", 280); err != nil {
		t.Fatal(err)
	}
	if e.run.Score != 220 || !slices.Equal(e.run.Inventory, []string{"hand_remover"}) {
		t.Fatalf("score %d inventory %v", e.run.Score, e.run.Inventory)
	}
	if _, err := e.UseItem("hand_remover", []int{0, 1}); !errors.Is(err, ErrBoundsViolation) {
		t.Fatalf("bad selection: %v", err)
	}
	if len(e.run.Inventory) != 1 {
		t.Fatal("failed use consumed the item")
	}
	if _, err := e.UseItem("hand_remover", []int{0}); err != nil {
		t.Fatal(err)
	}
	if len(e.run.Inventory) != 0 || m.HandSize() != 1 {
		t.Errorf("inventory %v hand %d", e.run.Inventory, m.HandSize())
	}
	if _, err := e.UseItem("hand_remover", []int{0}); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("use without owning: %v", err)
	}
}

func TestBuyItemUnaffordable(t *testing.T) {
	e, _ := newTestEngine(t, withHand("3h"))
	e.run.Score = 100
	if _, err := e.BuyItem("compass", 150); !errors.Is(err, ErrInsufficientResource) {
		t.Errorf("err = %v", err)
	}
	if e.run.Score != 100 || len(e.run.Inventory) != 0 {
		t.Error("failed purchase changed the run")
	}
	if _, err := e.BuyItem("no_such_item", 0); err == nil {
		t.Error("expected an error for an unknown item")
	}
}

func TestBuyInstantNegative(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h 5s"))
	if _, err := e.BuyItem("overdraw", -200); err != nil {
		t.Fatal(err)
	}
	if e.run.Score != 200 || e.run.ScorePenaltyNextLevel != 100 || len(e.run.Inventory) != 0 {
		t.Errorf("score %d penalty %d", e.run.Score, e.run.ScorePenaltyNextLevel)
	}

	if _, err := e.BuyItem("chaos_shuffle", 0); err != nil {
		t.Fatal(err)
	}
	if e.run.Score != 280 {
		t.Errorf("score %d, want 280", e.run.Score)
	}
	if _, err := m.Play([]int{0}); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("play while locked: %v", err)
	}
	if _, err := m.EndRound(); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Play([]int{0}); err != nil {
		t.Errorf("play after the locked round: %v", err)
	}
}

func TestBuyInstantRefundsOnFailure(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h"))
	m.st.RoundLimit = 1
	if _, err := e.BuyItem("time_accel", -150); !errors.Is(err, ErrRuleForbidden) {
		t.Fatalf("err = %v", err)
	}
	if e.run.Score != 0 || m.st.RoundLimit != 1 {
		t.Errorf("score %d round limit %d", e.run.Score, m.st.RoundLimit)
	}
}

func TestBuyInstantNeedsLevel(t *testing.T) {
	e := NewEngine(Config{Seed: 1}, NewRun("r", 0, nil, nil))
	if _, err := e.BuyItem("pattern_seal", -100); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("err = %v", err)
	}
}

func TestBuyPermanentOnce(t *testing.T) {
	e, m := newTestEngine(t, withHand("3h"), withAP(6))
	e.run.Score = 2000
	if _, err := e.BuyItem("permanent_action_boost", 1000); err != nil {
		t.Fatal(err)
	}
	if m.st.MaxActionPoints != 7 || m.ActionPoints() != 7 || e.run.PermanentActionBonus() != 1 {
		t.Errorf("max ap %v ap %v", m.st.MaxActionPoints, m.ActionPoints())
	}
	if _, err := e.BuyItem("permanent_action_boost", 1000); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("second purchase: %v", err)
	}
	if e.run.Score != 1000 {
		t.Errorf("score %d", e.run.Score)
	}
}

func TestPermanentDiscardItems(t *testing.T) {
	m := newTestMatch(t, withHand(bigHand(8)), withDeck(bigHand(5)))
	m.run.PermanentItems = []string{"permanent_discard_draw_extra", "permanent_discard_score_bonus"}
	res, err := m.Discard([]int{0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Drawn) != 3 || res.ScoreGained != 6 || m.run.Score != 6 {
		t.Errorf("drew %d gained %d score %d", len(res.Drawn), res.ScoreGained, m.run.Score)
	}
}

func TestPiggyGold(t *testing.T) {
	m := newTestMatch(t, withHand("3h 5s"))
	m.run.PermanentItems = []string{"piggy_gold"}
	if _, err := m.EndRound(); err != nil {
		t.Fatal(err)
	}
	if m.run.Score != 20 || m.LevelScore() != 20 {
		t.Errorf("run %d level %d", m.run.Score, m.LevelScore())
	}
}

func TestBuyLegendary(t *testing.T) {
	e, _ := newTestEngine(t, withHand("3h"))
	e.run.Score = 2000
	if _, err := e.BuyItem("destiny_scale", 1500); err != nil {
		t.Fatal(err)
	}
	if e.run.Score != 250 || e.run.Coins != 250 {
		t.Errorf("score %d coins %d", e.run.Score, e.run.Coins)
	}
	e.run.Score = 2000
	if _, err := e.BuyItem("destiny_scale", 1500); !errors.Is(err, ErrRuleForbidden) {
		t.Errorf("second purchase: %v", err)
	}

	if _, err := e.BuyItem("perfect_moment", 1000); err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(e.run.Inventory, "perfect_moment") {
		t.Error("kept legendary not stored")
	}
	if len(e.run.LegendaryBought) != 2 {
		t.Errorf("legendary bought %v", e.run.LegendaryBought)
	}
}

func TestGamblerDice(t *testing.T) {
	m := newTestMatch(t, withHand("3h"))
	if _, err := useItem(t, m, "gambler_dice"); err != nil {
		t.Fatal(err)
	}
	switch m.run.Score {
	case 20, 80, 140, 200:
	default:
		t.Errorf("dice paid %d", m.run.Score)
	}
}

func TestPatternSeal(t *testing.T) {
	m := newTestMatch(t, withHand("3h"))
	if _, err := useItem(t, m, "pattern_seal"); err != nil {
		t.Fatal(err)
	}
	if len(m.st.Sealed) != 1 {
		t.Fatalf("sealed %v", m.st.Sealed)
	}
	for k := range m.st.Sealed {
		if !slices.Contains(PatternSealCandidates, k) {
			t.Errorf("sealed %s", k)
		}
	}
}

// --- Catalog ---

func TestRegistryConstructsEveryItem(t *testing.T) {
	for _, id := range ItemIDs() {
		item, err := LookupItem(id)
		if err != nil {
			t.Fatal(err)
		}
		if item.ID != id || item.Name == "" || item.Kind == "" {
			t.Errorf("%s: bad catalog entry %+v", id, item)
		}
		if item.Kind != ItemPermanent && item.Effect == nil {
			t.Errorf("%s has no effect", id)
		}
	}
	for _, id := range LegendaryItems {
		item, _ := LookupItem(id)
		if item == nil || item.Kind != ItemLegendary {
			t.Errorf("%s is not legendary", id)
		}
	}
}

func TestItemPool(t *testing.T) {
	early, middle, late := ItemPool(1), ItemPool(5), ItemPool(9)
	if len(early) >= len(middle) || len(middle) >= len(late) {
		t.Errorf("pool sizes %d %d %d", len(early), len(middle), len(late))
	}
	for _, id := range middle {
		if _, ok := ItemRegistry[id]; !ok {
			t.Errorf("pool item %s not registered", id)
		}
	}
}

func TestStandardPrice(t *testing.T) {
	tests := []struct {
		name    string
		base    int
		level   int
		trait   Trait
		talents []Talent
		kind    ItemKind
		want    int
	}{
		{"early level", 150, 3, "", nil, ItemPositive, 150},
		{"level 5", 150, 5, "", nil, ItemPositive, 172},
		{"level 8", 100, 8, "", nil, ItemPositive, 190},
		{"capped", 100, 12, "", nil, ItemPositive, 250},
		{"economic mind", 150, 1, TraitEconomicMind, nil, ItemPositive, 120},
		{"long term coop", 100, 1, "", []Talent{TalentLongTermCoop}, ItemPositive, 90},
		{"both discounts", 100, 1, TraitEconomicMind, []Talent{TalentLongTermCoop}, ItemPositive, 72},
		{"negative untouched", 30, 10, TraitEconomicMind, nil, ItemNegative, 30},
		{"instant negative untouched", -200, 9, "", nil, ItemInstantNegative, -200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StandardPrice(tt.base, tt.level, tt.trait, tt.talents, tt.kind); got != tt.want {
				t.Errorf("price %d, want %d", got, tt.want)
			}
		})
	}
}
