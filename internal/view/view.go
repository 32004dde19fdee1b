package view

import (
	"errors"
	"fmt"
	"strings"

	"github.com/peterkuimelis/ddzrogue/internal/game"
	"github.com/peterkuimelis/ddzrogue/internal/log"
)

// StateView is the engine state as one player sees it.
type StateView struct {
	RunID    string `json:"run_id"`
	Level    int    `json:"level"`
	MaxLevel int    `json:"max_level"`
	Score    int    `json:"score"`
	Coins    int    `json:"coins"`

	Round       int     `json:"round"`
	RoundLimit  int     `json:"round_limit"`
	Status      string  `json:"status"`
	Rating      string  `json:"rating,omitempty"`
	LevelScore  int     `json:"level_score"`
	Requirement int     `json:"requirement"`
	Multiplier  float64 `json:"multiplier"`
	Combo       float64 `json:"combo"`
	UnmetReason string  `json:"unmet_reason,omitempty"`

	ActionPoints     float64 `json:"action_points"`
	MaxActionPoints  float64 `json:"max_action_points"`
	DiscardPoints    int     `json:"discard_points"`
	MaxDiscardPoints int     `json:"max_discard_points"`
	DiscardCost      int     `json:"discard_cost"`

	Hand      []CardView         `json:"hand"`
	DeckCount int                `json:"deck_count"`
	Costs     map[string]float64 `json:"costs,omitempty"`
	Sealed    []string           `json:"sealed,omitempty"`
	Unlocked  []string           `json:"unlocked,omitempty"`
	Effects   []string           `json:"effects,omitempty"`

	Rules         string `json:"rules,omitempty"`
	Boss          string `json:"boss,omitempty"`
	PlayLocked    bool   `json:"play_locked,omitempty"`
	Gamble        bool   `json:"gamble,omitempty"`
	TimeRemaining *int   `json:"time_remaining,omitempty"`

	Trait       string      `json:"trait,omitempty"`
	TraitOffers []TraitView `json:"trait_offers,omitempty"`
	Inventory   []string    `json:"inventory,omitempty"`
	Permanents  []string    `json:"permanents,omitempty"`
	Talents     []string    `json:"talents,omitempty"`
}

// BuildStateView creates a StateView of the engine's run and current level.
func BuildStateView(e *game.Engine) *StateView {
	run := e.Run()
	sv := &StateView{
		RunID:      run.ID,
		Level:      run.Level,
		MaxLevel:   e.Levels().MaxLevel(),
		Score:      run.Score,
		Coins:      run.Coins,
		Rules:      e.Rules().String(),
		Trait:      string(run.Trait),
		Inventory:  append([]string(nil), run.Inventory...),
		Permanents: append([]string(nil), run.PermanentItems...),
	}
	for _, t := range run.Talents {
		sv.Talents = append(sv.Talents, string(t))
	}
	if run.Trait == "" {
		for i, t := range run.TraitOffers {
			info, _ := game.TraitByID(t)
			sv.TraitOffers = append(sv.TraitOffers, TraitView{
				Index: i, ID: string(t), Name: info.Name, Description: info.Description,
			})
		}
	}

	m := e.Match()
	if m == nil {
		sv.Status = "idle"
		return sv
	}
	st := m.State()
	sv.Round = st.Round
	sv.RoundLimit = st.RoundLimit
	sv.Status = string(st.Status)
	sv.Rating = string(st.Rating)
	sv.LevelScore = st.LevelScore
	sv.Requirement = st.RequiredScore()
	sv.Multiplier = st.Multiplier
	sv.Combo = st.Combo
	sv.UnmetReason = st.UnmetReason
	sv.ActionPoints = st.ActionPoints
	sv.MaxActionPoints = st.MaxActionPoints
	sv.DiscardPoints = st.DiscardPoints
	sv.MaxDiscardPoints = st.MaxDiscardPoints
	sv.DiscardCost = m.CurrentDiscardCost()
	sv.DeckCount = len(st.Deck)
	sv.PlayLocked = st.PlayLocked
	sv.Gamble = st.Gamble
	sv.Hand = CardViews(st.Hand, st.Locked)

	sv.Costs = make(map[string]float64, len(game.PatternKinds))
	for _, k := range game.PatternKinds {
		sv.Costs[k.Key()] = m.PatternCost(k)
		if st.Sealed[k] {
			sv.Sealed = append(sv.Sealed, k.Key())
		}
	}
	if st.Boss != nil {
		sv.Boss = string(st.Boss.Kind)
		if st.Boss.Kind == game.BossOrderGuardian {
			for _, k := range st.Boss.Unlocked() {
				sv.Unlocked = append(sv.Unlocked, k.Key())
			}
		}
	}
	for _, eff := range st.Effects {
		if !eff.Used {
			sv.Effects = append(sv.Effects, string(eff.Kind))
		}
	}
	if t := m.Timer(); t != nil && t.Running() {
		left := t.Remaining()
		sv.TimeRemaining = &left
	}
	return sv
}

// CardViews numbers cards in hand order.
func CardViews(cards []*game.Card, locked map[int]bool) []CardView {
	views := make([]CardView, 0, len(cards))
	for i, c := range cards {
		views = append(views, CardView{
			Index:    i,
			ID:       c.ID,
			Code:     c.Code(),
			Label:    c.String(),
			Rank:     c.Rank.String(),
			Suit:     c.Suit.String(),
			Upgraded: c.Upgraded,
			Locked:   locked[c.ID],
		})
	}
	return views
}

// EventViews converts logged events.
func EventViews(events []log.GameEvent) []EventView {
	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, EventView{
			Seq:     ev.Seq,
			Level:   ev.Level,
			Round:   ev.Round,
			Type:    ev.Type.String(),
			Cards:   ev.Cards,
			Details: ev.Details,
		})
	}
	return views
}

// BuildErrorView classifies err. Action errors carry their code, anything
// else is reported as "internal".
func BuildErrorView(err error) *ErrorView {
	var ae *game.ActionError
	if errors.As(err, &ae) {
		return &ErrorView{Code: strings.ReplaceAll(ae.Code.String(), " ", "_"), Reason: ae.Reason}
	}
	if errors.Is(err, game.ErrRunComplete) {
		return &ErrorView{Code: "run_complete", Reason: err.Error()}
	}
	return &ErrorView{Code: "internal", Reason: err.Error()}
}

// LevelBriefs summarises a level table.
func LevelBriefs(t *game.LevelTable) []LevelBrief {
	out := make([]LevelBrief, 0, t.MaxLevel())
	for lv := 1; lv <= t.MaxLevel(); lv++ {
		s := t.Spec(lv)
		out = append(out, LevelBrief{
			Level:       lv,
			Requirement: s.Requirement,
			Multiplier:  s.Multiplier,
			ActionBonus: s.ActionBonus,
			Cards:       game.CardCount(lv),
			Boss:        t.IsBossLevel(lv),
		})
	}
	return out
}

// ItemBrief describes a catalog entry.
type ItemBrief struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Price       int    `json:"price"`
	Description string `json:"description"`
}

// ItemCatalog lists every registered item in ID order.
func ItemCatalog() []ItemBrief {
	var out []ItemBrief
	for _, id := range game.ItemIDs() {
		item, err := game.LookupItem(id)
		if err != nil {
			continue
		}
		out = append(out, ItemBrief{
			ID: item.ID, Name: item.Name, Kind: string(item.Kind),
			Price: item.Price, Description: item.Description,
		})
	}
	return out
}

// Summary is a one-line description of the state, used in logs and the
// terminal status bar.
func (sv *StateView) Summary() string {
	if sv.Status == "idle" {
		return fmt.Sprintf("level %d/%d  score %d  coins %d", sv.Level, sv.MaxLevel, sv.Score, sv.Coins)
	}
	return fmt.Sprintf("level %d/%d  round %d/%d  %d/%d pts  AP %.1f/%.0f  DP %d/%d  combo x%.1f  [%s]",
		sv.Level, sv.MaxLevel, sv.Round, sv.RoundLimit, sv.LevelScore, sv.Requirement,
		sv.ActionPoints, sv.MaxActionPoints, sv.DiscardPoints, sv.MaxDiscardPoints, sv.Combo, sv.Status)
}
