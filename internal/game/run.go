package game

import (
	"fmt"
	"math/rand"
	"slices"
)

// Run is the run-level aggregate. It outlives every Match; the engine reads
// it while dealing and writes it only on purchases, rewards and level changes.
type Run struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
	Score int    `json:"score"`
	Coins int    `json:"coins"`

	Trait       Trait    `json:"trait,omitempty"`
	TraitOffers []Trait  `json:"trait_offers,omitempty"`
	Talents     []Talent `json:"talents,omitempty"`
	Upgrades    []Rank   `json:"upgrades,omitempty"`

	PermanentItems  []string `json:"permanent_items,omitempty"`
	Inventory       []string `json:"inventory,omitempty"`
	LegendaryBought []string `json:"legendary_bought,omitempty"`
	FreeItems       int      `json:"free_items,omitempty"`

	BossScoreBonus   float64 `json:"boss_score_bonus,omitempty"`
	BossActionBonus  int     `json:"boss_action_bonus,omitempty"`
	BossDiscardBonus int     `json:"boss_discard_bonus,omitempty"`

	ScorePenaltyNextLevel int     `json:"score_penalty_next_level,omitempty"`
	ActionPenaltyNextDeal float64 `json:"action_penalty_next_deal,omitempty"`

	CardsPlayed int `json:"cards_played,omitempty"`
}

// NewRun starts a run on level 1 carrying the persistent coins, talents and
// upgrades.
func NewRun(id string, coins int, talents []Talent, upgrades []Rank) *Run {
	return &Run{
		ID:       id,
		Level:    1,
		Coins:    coins,
		Talents:  append([]Talent(nil), talents...),
		Upgrades: append([]Rank(nil), upgrades...),
	}
}

func (r *Run) HasTrait(t Trait) bool {
	return r.Trait == t
}

func (r *Run) HasTalent(t Talent) bool {
	return slices.Contains(r.Talents, t)
}

func (r *Run) HasPermanent(id string) bool {
	return slices.Contains(r.PermanentItems, id)
}

func (r *Run) countPermanent(id string) int {
	n := 0
	for _, p := range r.PermanentItems {
		if p == id {
			n++
		}
	}
	return n
}

// PermanentActionBonus is the max AP granted by permanent items.
func (r *Run) PermanentActionBonus() int {
	return r.countPermanent("permanent_action_boost")
}

// DiscardDrawBonus is the extra cards drawn per discard from permanent items.
func (r *Run) DiscardDrawBonus() int {
	return r.countPermanent("permanent_discard_draw_extra")
}

// DiscardScorePerCard is the score earned per discarded card.
func (r *Run) DiscardScorePerCard() int {
	return 3 * r.countPermanent("permanent_discard_score_bonus")
}

func (r *Run) addScore(n int) {
	r.Score += n
	if r.Score < 0 {
		r.Score = 0
	}
}

func (r *Run) removeInventory(id string) bool {
	i := slices.Index(r.Inventory, id)
	if i < 0 {
		return false
	}
	r.Inventory = slices.Delete(r.Inventory, i, i+1)
	return true
}

func (r *Run) clone() *Run {
	cp := *r
	cp.TraitOffers = slices.Clone(r.TraitOffers)
	cp.Talents = slices.Clone(r.Talents)
	cp.Upgrades = slices.Clone(r.Upgrades)
	cp.PermanentItems = slices.Clone(r.PermanentItems)
	cp.Inventory = slices.Clone(r.Inventory)
	cp.LegendaryBought = slices.Clone(r.LegendaryBought)
	return &cp
}

// --- Traits ---

// TraitInfo describes a trait for selection screens.
type TraitInfo struct {
	ID          Trait  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var Traits = []TraitInfo{
	{TraitBombExpert, "Bomb Expert", "Bombs score x1.5 but cost 2 more"},
	{TraitStraightMaster, "Straight Master", "Straights cost 1 less, pairs cost 1 more"},
	{TraitComboMaster, "Combo Master", "Combo cap 2.5; ending a round with a combo costs 1 AP"},
	{TraitRestAndWait, "Rest and Wait", "+1 AP next round if you did not discard; max DP 3"},
	{TraitPrecisionStrike, "Precision Strike", "Singles cost 1; straights are forbidden"},
	{TraitAggressiveAssault, "Aggressive Assault", "First play of a round x1.5; -20 score when ending a round above 15 cards"},
	{TraitResourceRecycling, "Resource Recycling", "+2 coins per discarded card; discards draw one fewer"},
	{TraitEconomicMind, "Economic Mind", "Shop 20% cheaper; level reward 35 instead of 50"},
}

// TraitByID looks up a trait description.
func TraitByID(t Trait) (TraitInfo, bool) {
	for _, info := range Traits {
		if info.ID == t {
			return info, true
		}
	}
	return TraitInfo{}, false
}

// drawTraitOffers picks three distinct traits.
func drawTraitOffers(rng *rand.Rand) []Trait {
	perm := rng.Perm(len(Traits))
	offers := make([]Trait, 0, 3)
	for _, i := range perm[:3] {
		offers = append(offers, Traits[i].ID)
	}
	return offers
}

// --- Coin shop: talents and card upgrades ---

var TalentPrices = map[Talent]int{
	TalentEmergencyReserve: 300,
	TalentSecondhandPrep:   400,
	TalentLongTermCoop:     500,
}

// UpgradePrice is the coin price of upgrading every card of rank.
func UpgradePrice(rank Rank) int {
	switch {
	case rank >= Rank3 && rank <= Rank10:
		return 100
	case rank >= RankJ && rank <= RankK:
		return 150
	case rank == RankA:
		return 200
	case rank == Rank2:
		return 250
	case rank == RankSmallJoker:
		return 300
	case rank == RankBigJoker:
		return 350
	default:
		return 0
	}
}

// BuyTalent spends coins on a talent.
func (r *Run) BuyTalent(t Talent) error {
	price, ok := TalentPrices[t]
	if !ok {
		return fmt.Errorf("unknown talent %q", t)
	}
	if r.HasTalent(t) {
		return reject(CodeRuleForbidden, "talent %s already owned", t)
	}
	if r.Coins < price {
		return reject(CodeInsufficientResource, "talent %s costs %d coins, have %d", t, price, r.Coins)
	}
	r.Coins -= price
	r.Talents = append(r.Talents, t)
	return nil
}

// BuyUpgrade spends coins so that future decks deal rank upgraded.
func (r *Run) BuyUpgrade(rank Rank) error {
	price := UpgradePrice(rank)
	if price == 0 {
		return fmt.Errorf("rank %v cannot be upgraded", rank)
	}
	if slices.Contains(r.Upgrades, rank) {
		return reject(CodeRuleForbidden, "rank %v already upgraded", rank)
	}
	if r.Coins < price {
		return reject(CodeInsufficientResource, "upgrade %v costs %d coins, have %d", rank, price, r.Coins)
	}
	r.Coins -= price
	r.Upgrades = append(r.Upgrades, rank)
	return nil
}
