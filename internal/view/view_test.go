package view

import (
	"errors"
	"fmt"
	"testing"

	"github.com/peterkuimelis/ddzrogue/internal/game"
	"github.com/peterkuimelis/ddzrogue/internal/log"
)

func TestBuildStateViewIdle(t *testing.T) {
	e := game.NewEngine(game.Config{Seed: 1}, game.NewRun("run-9", 40, nil, nil))
	sv := BuildStateView(e)
	if sv.Status != "idle" || sv.RunID != "run-9" || sv.Coins != 40 || sv.MaxLevel != 10 {
		t.Errorf("idle view %+v", sv)
	}
	if sv.Hand != nil || sv.TimeRemaining != nil {
		t.Error("idle view has match fields")
	}
}

func TestBuildStateView(t *testing.T) {
	e := game.NewEngine(game.Config{Seed: 1}, game.NewRun("r", 0, nil, nil))
	m := e.StartLevel()
	sv := BuildStateView(e)
	if sv.Status != "playing" || sv.Round != 1 || len(sv.Hand) != m.HandSize() {
		t.Fatalf("view %+v", sv)
	}
	if len(sv.TraitOffers) != 3 || sv.TraitOffers[2].Index != 2 || sv.TraitOffers[0].Name == "" {
		t.Errorf("trait offers %+v", sv.TraitOffers)
	}
	if sv.Costs["SINGLE"] != 2 || len(sv.Costs) != len(game.PatternKinds) {
		t.Errorf("costs %v", sv.Costs)
	}
	for i, c := range sv.Hand {
		if c.Index != i || c.Code != m.Hand()[i].Code() {
			t.Errorf("card %d = %+v", i, c)
		}
	}

	if err := e.ChooseTrait(0); err != nil {
		t.Fatal(err)
	}
	if sv = BuildStateView(e); sv.Trait == "" || sv.TraitOffers != nil {
		t.Errorf("after choosing: trait %q offers %v", sv.Trait, sv.TraitOffers)
	}
}

func TestCardViews(t *testing.T) {
	cards := []*game.Card{
		{ID: 4, Rank: game.Rank10, Suit: game.SuitHearts},
		{ID: 9, Rank: game.RankBigJoker, Suit: game.SuitJoker, Upgraded: true},
	}
	views := CardViews(cards, map[int]bool{9: true})
	if views[0].Code != "10h" || views[0].Locked || views[0].Rank != "10" {
		t.Errorf("first card %+v", views[0])
	}
	if views[1].Code != "BJ" || !views[1].Locked || !views[1].Upgraded || views[1].Index != 1 {
		t.Errorf("second card %+v", views[1])
	}
}

func TestEventViews(t *testing.T) {
	l := log.NewMemoryLogger()
	l.Log(log.NewTimeoutEvent(2, 3, 15))
	views := EventViews(l.Events())
	if len(views) != 1 || views[0].Type != "Timeout" || views[0].Level != 2 || views[0].Round != 3 || views[0].Seq != 1 {
		t.Errorf("views %+v", views)
	}
}

func TestBuildErrorView(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{&game.ActionError{Code: game.CodeInsufficientResource, Reason: "need 3 AP"}, "insufficient_resource"},
		{fmt.Errorf("wrapped: %w", &game.ActionError{Code: game.CodeRuleForbidden, Reason: "sealed"}), "rule_forbidden"},
		{game.ErrRunComplete, "run_complete"},
		{errors.New("disk full"), "internal"},
	}
	for _, tt := range tests {
		if got := BuildErrorView(tt.err); got.Code != tt.code || got.Reason == "" {
			t.Errorf("BuildErrorView(%v) = %+v, want code %s", tt.err, got, tt.code)
		}
	}
}

func TestLevelBriefs(t *testing.T) {
	briefs := LevelBriefs(game.DefaultLevels())
	if len(briefs) != 10 {
		t.Fatalf("%d levels", len(briefs))
	}
	if !briefs[3].Boss || !briefs[9].Boss || briefs[0].Boss {
		t.Error("boss levels should be 4 and 10")
	}
	if briefs[0].Cards != 13 || briefs[1].Cards != 15 {
		t.Errorf("card counts %d %d", briefs[0].Cards, briefs[1].Cards)
	}
}

func TestItemCatalog(t *testing.T) {
	items := ItemCatalog()
	if len(items) != len(game.ItemRegistry) {
		t.Fatalf("%d items, registry has %d", len(items), len(game.ItemRegistry))
	}
	for i := 1; i < len(items); i++ {
		if items[i-1].ID >= items[i].ID {
			t.Errorf("catalog not sorted at %s", items[i].ID)
		}
	}
}
