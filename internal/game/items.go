package game

import (
	"fmt"
	"math"
	"slices"

	"github.com/peterkuimelis/ddzrogue/internal/log"
)

// ItemKind decides where a purchased item goes.
type ItemKind string

const (
	ItemPositive        ItemKind = "positive"         // inventory, used later
	ItemNegative        ItemKind = "negative"         // inventory, used later
	ItemInstantNegative ItemKind = "instant_negative" // applied on purchase
	ItemPermanent       ItemKind = "permanent"        // joins the run's permanent list
	ItemLegendary       ItemKind = "legendary"        // once per run
)

// SideEffect is a flag an item returns for the match to honor after the
// effect function has run.
type SideEffect uint8

const (
	SideEffectEndRound SideEffect = 1 << iota
	SideEffectCheckWin
)

func (s SideEffect) Has(f SideEffect) bool { return s&f != 0 }

// ItemResult is what an item effect reports.
type ItemResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Flags   SideEffect `json:"flags,omitempty"`
	Hints   []Hint     `json:"hints,omitempty"`

	code ErrorCode
}

func itemOK(format string, args ...any) ItemResult {
	return ItemResult{Success: true, Message: fmt.Sprintf(format, args...)}
}

func itemFail(code ErrorCode, format string, args ...any) ItemResult {
	return ItemResult{Message: fmt.Sprintf(format, args...), code: code}
}

// ItemEffect applies an item to a match. A failing effect must leave the
// match untouched.
type ItemEffect func(m *Match, selected []*Card) ItemResult

// Item is one catalog entry. Price is the base price; a negative price pays
// the buyer.
type Item struct {
	ID              string
	Name            string
	Price           int
	Kind            ItemKind
	Description     string
	KeepInInventory bool // legendary that is stored instead of applied on purchase
	Effect          ItemEffect
}

// ItemOutcome describes an item use or purchase.
type ItemOutcome struct {
	Item        string          `json:"item"`
	Result      ItemResult      `json:"result"`
	EndRound    *EndRoundResult `json:"end_round,omitempty"`
	UnmetReason string          `json:"unmet_reason,omitempty"`
	Status      Status          `json:"status,omitempty"`
	Rating      Rating          `json:"rating,omitempty"`
}

// UseItem runs an item effect against the selected hand cards and honors the
// side-effect flags it returns.
func (m *Match) UseItem(item *Item, indices []int) (ItemOutcome, error) {
	st := &m.st
	out := ItemOutcome{Item: item.ID}
	if st.GameOver() {
		return out, reject(CodeRuleForbidden, "game over")
	}
	if item.Effect == nil {
		return out, reject(CodeRuleForbidden, "%s cannot be used", item.Name)
	}
	selected, err := m.selectCards(indices)
	if err != nil {
		return out, err
	}
	res := item.Effect(m, selected)
	out.Result = res
	if !res.Success {
		return out, reject(res.code, "%s", res.Message)
	}
	m.log(log.NewItemUsedEvent(st.Level, st.Round, item.Name, res.Message))
	m.applySideEffects(res.Flags, &out)
	return out, nil
}

func (m *Match) applySideEffects(flags SideEffect, out *ItemOutcome) {
	st := &m.st
	if flags.Has(SideEffectCheckWin) && len(st.Hand) == 0 {
		if m.CheckWinCondition() {
			m.markWon()
		} else {
			out.UnmetReason = m.winFailure()
			st.UnmetReason = out.UnmetReason
		}
	}
	if flags.Has(SideEffectEndRound) && !st.GameOver() {
		er := m.endRound()
		out.EndRound = &er
	}
	out.Status = st.Status
	out.Rating = st.Rating
}

// replaceInHand swaps old for a new card at the same hand position.
func (m *Match) replaceInHand(old, c *Card) {
	for i, h := range m.st.Hand {
		if h.ID == old.ID {
			m.st.Hand[i] = c
			m.st.Removed++
			m.st.TotalCards++
			delete(m.st.Locked, old.ID)
			return
		}
	}
}

// --- Engine purchase and use ---

// BuyItem buys an item at an already computed price. Instant items are
// applied to the current match; a failing effect refunds the price.
func (e *Engine) BuyItem(id string, price int) (ItemOutcome, error) {
	item, err := LookupItem(id)
	if err != nil {
		return ItemOutcome{}, err
	}
	run := e.run
	out := ItemOutcome{Item: id}
	switch item.Kind {
	case ItemPermanent:
		if run.HasPermanent(id) {
			return out, reject(CodeRuleForbidden, "%s is already owned", item.Name)
		}
	case ItemLegendary:
		if slices.Contains(run.LegendaryBought, id) {
			return out, reject(CodeRuleForbidden, "%s was already bought this run", item.Name)
		}
	}
	m := e.match
	live := m != nil && !m.GameOver()
	instant := item.Kind == ItemInstantNegative || (item.Kind == ItemLegendary && !item.KeepInInventory)
	if instant && !live {
		return out, reject(CodeRuleForbidden, "%s needs a level in progress", item.Name)
	}
	if cost := max(0, price); run.Score < cost {
		return out, reject(CodeInsufficientResource, "%s costs %d score, have %d", item.Name, cost, run.Score)
	}

	run.Score -= price
	switch {
	case instant:
		res := item.Effect(m, nil)
		out.Result = res
		if !res.Success {
			run.Score += price
			return out, reject(res.code, "%s", res.Message)
		}
		m.log(log.NewItemUsedEvent(m.st.Level, m.st.Round, item.Name, res.Message))
		m.applySideEffects(res.Flags, &out)
	case item.Kind == ItemPermanent:
		run.PermanentItems = append(run.PermanentItems, id)
		out.Result = itemOK("%s joins the permanent items", item.Name)
		if live && item.Effect != nil {
			out.Result = item.Effect(m, nil)
		}
	default:
		run.Inventory = append(run.Inventory, id)
		out.Result = itemOK("%s added to the inventory", item.Name)
	}
	if item.Kind == ItemLegendary {
		run.LegendaryBought = append(run.LegendaryBought, id)
	}
	e.logEvent(log.NewPurchaseEvent(run.Level, e.round(), item.Name, price))
	return out, nil
}

// UseItem uses an item from the run inventory on the current match.
func (e *Engine) UseItem(id string, indices []int) (ItemOutcome, error) {
	if e.match == nil {
		return ItemOutcome{Item: id}, reject(CodeRuleForbidden, "no level in progress")
	}
	if !slices.Contains(e.run.Inventory, id) {
		return ItemOutcome{Item: id}, reject(CodeRuleForbidden, "%s is not in the inventory", id)
	}
	item, err := LookupItem(id)
	if err != nil {
		return ItemOutcome{Item: id}, err
	}
	out, err := e.match.UseItem(item, indices)
	if err != nil {
		return out, err
	}
	e.run.removeInventory(id)
	return out, nil
}

func (e *Engine) round() int {
	if e.match == nil {
		return 0
	}
	return e.match.st.Round
}

func (e *Engine) logEvent(ev log.GameEvent) {
	if e.match != nil {
		e.match.log(ev)
		return
	}
	e.logger.Log(ev)
}

// --- Positive items ---

// Compass shows the three most valuable plays in hand.
func Compass() *Item {
	return &Item{
		ID: "compass", Name: "Compass", Price: 150, Kind: ItemPositive,
		Description: "Shows the three best plays in your hand",
		Effect: func(m *Match, _ []*Card) ItemResult {
			hints := m.FindHints(3)
			if len(hints) == 0 {
				return itemFail(CodeIllegalPattern, "no playable combination in hand")
			}
			res := itemOK("found %d suggestions", len(hints))
			res.Hints = hints
			return res
		},
	}
}

func JokerMask() *Item {
	return &Item{
		ID: "joker_mask", Name: "Joker Mask", Price: 320, Kind: ItemPositive,
		Description: "Adds a random joker to your hand",
		Effect: func(m *Match, _ []*Card) ItemResult {
			rank := RankSmallJoker
			if m.rng.Intn(2) == 1 {
				rank = RankBigJoker
			}
			c := m.newCard(rank, SuitJoker)
			m.addToHand(c)
			return itemOK("gained %s", c)
		},
	}
}

// DeckReforge re-deals the whole hand from a fresh deck.
func DeckReforge() *Item {
	return &Item{
		ID: "deck_reforge", Name: "Deck Reforge", Price: 350, Kind: ItemPositive,
		Description: "Replaces every card in hand with cards from a fresh deck",
		Effect: func(m *Match, _ []*Card) ItemResult {
			n := len(m.st.Hand)
			if n == 0 {
				return itemFail(CodeResourceExhausted, "hand is empty")
			}
			m.removeFromHand(slices.Clone(m.st.Hand)...)
			fresh := m.cards.newDeck(m.rng, NewRankSet(m.run.Upgrades))
			m.st.NextCardID = m.cards.nextID
			for _, c := range fresh[:min(n, len(fresh))] {
				m.addToHand(c)
			}
			return itemOK("hand re-dealt")
		},
	}
}

// BombFactory turns four selected cards into a bomb of the first card's rank.
func BombFactory() *Item {
	return &Item{
		ID: "bomb_factory", Name: "Bomb Factory", Price: 450, Kind: ItemPositive,
		Description: "Turns 4 selected cards into a bomb of the first card's rank",
		Effect: func(m *Match, selected []*Card) ItemResult {
			if len(selected) != 4 {
				return itemFail(CodeBoundsViolation, "select exactly 4 cards")
			}
			rank := selected[0].Rank
			if rank.IsJoker() {
				return itemFail(CodeRuleForbidden, "jokers cannot form a bomb")
			}
			for i, old := range selected {
				m.replaceInHand(old, m.newCard(rank, StandardSuits[i]))
			}
			return itemOK("forged a bomb of %s", rank)
		},
	}
}

func Hourglass() *Item {
	return &Item{
		ID: "hourglass", Name: "Hourglass", Price: 900, Kind: ItemPositive,
		Description: "Adds one round to the level",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.st.RoundLimit++
			return itemOK("round limit is now %d", m.st.RoundLimit)
		},
	}
}

// RocketBooster throws away the five lowest cards without a pattern check.
func RocketBooster() *Item {
	return &Item{
		ID: "rocket_booster", Name: "Rocket Booster", Price: 950, Kind: ItemPositive,
		Description: "Removes the 5 lowest cards in hand",
		Effect: func(m *Match, _ []*Card) ItemResult {
			if len(m.st.Hand) < 5 {
				return itemFail(CodeResourceExhausted, "need at least 5 cards in hand")
			}
			sorted := slices.Clone(m.st.Hand)
			SortCards(sorted)
			m.removeFromHand(sorted[:5]...)
			res := itemOK("removed %s", CardsString(sorted[:5]))
			if len(m.st.Hand) == 0 {
				res.Flags |= SideEffectCheckWin
			}
			return res
		},
	}
}

func HandRemover() *Item {
	return &Item{
		ID: "hand_remover", Name: "Hand Remover", Price: 280, Kind: ItemPositive,
		Description: "Removes one selected card",
		Effect: func(m *Match, selected []*Card) ItemResult {
			if len(selected) != 1 {
				return itemFail(CodeBoundsViolation, "select exactly 1 card")
			}
			m.removeFromHand(selected[0])
			res := itemOK("removed %s", selected[0])
			if len(m.st.Hand) == 0 {
				res.Flags |= SideEffectCheckWin
			}
			return res
		},
	}
}

// CardUpgrader promotes one card by a rank, 3 through K.
func CardUpgrader() *Item {
	return &Item{
		ID: "card_upgrader", Name: "Card Upgrader", Price: 380, Kind: ItemPositive,
		Description: "Raises one selected card by one rank (3 up to K)",
		Effect: func(m *Match, selected []*Card) ItemResult {
			if len(selected) != 1 {
				return itemFail(CodeBoundsViolation, "select exactly 1 card")
			}
			c := selected[0]
			if c.Rank < Rank3 || c.Rank > RankK {
				return itemFail(CodeRuleForbidden, "%s cannot be promoted", c)
			}
			from := c.Rank
			c.Rank++
			return itemOK("%s promoted to %s", from, c.Rank)
		},
	}
}

func ActionCharger() *Item {
	return &Item{
		ID: "action_charger", Name: "Action Charger", Price: 180, Kind: ItemPositive,
		Description: "+2 action points",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.st.ActionPoints += 2
			return itemOK("+2 action points")
		},
	}
}

func ActionExpander() *Item {
	return &Item{
		ID: "action_expander", Name: "Action Expander", Price: 500, Kind: ItemPositive,
		Description: "+1 max action points for this level",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.st.MaxActionPoints++
			m.st.ActionPoints++
			return itemOK("max action points is now %.0f", m.st.MaxActionPoints)
		},
	}
}

func EnergySaver() *Item {
	return &Item{
		ID: "energy_saver", Name: "Energy Saver", Price: 400, Kind: ItemPositive,
		Description: "Halves every cost this round",
		Effect:      addEffect(Effect{Kind: EffectEnergySaver, Scope: ScopeRound}, "costs halved this round"),
	}
}

func ExchangeCard() *Item {
	return &Item{
		ID: "exchange_card", Name: "Exchange Card", Price: 420, Kind: ItemPositive,
		Description: "Replaces one selected card with a random card",
		Effect: func(m *Match, selected []*Card) ItemResult {
			if len(selected) != 1 {
				return itemFail(CodeBoundsViolation, "select exactly 1 card")
			}
			m.removeFromHand(selected[0])
			c := m.randomCard()
			m.addToHand(c)
			return itemOK("%s exchanged for %s", selected[0], c)
		},
	}
}

// AbandonWeapon trades 2 discard points for the last play's action cost.
func AbandonWeapon() *Item {
	return &Item{
		ID: "abandon_weapon", Name: "Abandon Weapon", Price: 600, Kind: ItemPositive,
		Description: "Spend 2 discard points to refund the last play's cost (max 5)",
		Effect: func(m *Match, _ []*Card) ItemResult {
			if m.st.DiscardPoints < 2 {
				return itemFail(CodeInsufficientResource, "need 2 discard points")
			}
			if m.st.LastActionCost <= 0 {
				return itemFail(CodeRuleForbidden, "nothing played yet")
			}
			m.st.DiscardPoints -= 2
			refund := math.Min(5, m.st.LastActionCost)
			m.st.ActionPoints += refund
			return itemOK("refunded %.1f action points", refund)
		},
	}
}

func OffenseDefenseSwap() *Item {
	return &Item{
		ID: "offense_defense_swap", Name: "Offense Defense Swap", Price: 580, Kind: ItemPositive,
		Description: "Swaps action points and discard points",
		Effect: func(m *Match, _ []*Card) ItemResult {
			ap, dp := m.st.ActionPoints, m.st.DiscardPoints
			m.st.ActionPoints = float64(dp)
			m.st.DiscardPoints = int(math.Floor(ap))
			return itemOK("action points %.1f -> %d, discard points %d -> %d", ap, dp, dp, m.st.DiscardPoints)
		},
	}
}

func BackwaterBattle() *Item {
	return &Item{
		ID: "backwater_battle", Name: "Backwater Battle", Price: 620, Kind: ItemPositive,
		Description: "Costs -1 this round while holding more than 20 cards",
		Effect:      addEffect(Effect{Kind: EffectBackwater, Scope: ScopeRound}, "backwater battle active"),
	}
}

func DesperateStake() *Item {
	return &Item{
		ID: "desperate_stake", Name: "Desperate Stake", Price: 520, Kind: ItemPositive,
		Description: "+3 action points; leftover points become next round's penalty",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.st.ActionPoints += 3
			m.st.Effects.Add(Effect{Kind: EffectDesperateStake, Scope: ScopeRound})
			return itemOK("+3 action points")
		},
	}
}

func ChainReaction() *Item {
	return &Item{
		ID: "chain_reaction", Name: "Chain Reaction", Price: 550, Kind: ItemPositive,
		Description: "Combo +0.2 this round and grows by 0.5 per play",
		Effect:      addEffect(Effect{Kind: EffectChainReaction, Scope: ScopeRound}, "chain reaction active"),
	}
}

func ScoreDouble() *Item {
	return &Item{
		ID: "score_double", Name: "Score Double", Price: 700, Kind: ItemPositive,
		Description: "The next play's base score is doubled",
		Effect:      addEffect(Effect{Kind: EffectScoreDouble, Scope: ScopeRound}, "next play scores double"),
	}
}

func RiskyVictory() *Item {
	return &Item{
		ID: "risky_victory", Name: "Risky Victory", Price: 360, Kind: ItemPositive,
		Description: "+2 discard points at round end when holding 5 cards or fewer",
		Effect:      addEffect(Effect{Kind: EffectRiskyVictory, Scope: ScopeRound}, "risky victory active"),
	}
}

func addEffect(e Effect, msg string) ItemEffect {
	return func(m *Match, _ []*Card) ItemResult {
		m.st.Effects.Add(e)
		return itemOK("%s", msg)
	}
}

// --- Negative items ---

// GamblerDice pays 20, 80, 140 or 200 score.
func GamblerDice() *Item {
	return &Item{
		ID: "gambler_dice", Name: "Gambler Dice", Price: 30, Kind: ItemNegative,
		Description: "Win 20 to 200 score at random",
		Effect: func(m *Match, _ []*Card) ItemResult {
			roll := m.rng.Float64()
			var bonus int
			switch {
			case roll < 0.5:
				bonus = 20
			case roll < 0.8:
				bonus = 80
			case roll < 0.95:
				bonus = 140
			default:
				bonus = 200
			}
			m.run.addScore(bonus)
			return itemOK("won %d score", bonus)
		},
	}
}

func ChaosShuffle() *Item {
	return &Item{
		ID: "chaos_shuffle", Name: "Chaos Shuffle", Price: 0, Kind: ItemInstantNegative,
		Description: "+80 score, but the hand is shuffled and plays are locked this round",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.run.addScore(80)
			hand := m.st.Hand
			m.rng.Shuffle(len(hand), func(i, j int) {
				hand[i], hand[j] = hand[j], hand[i]
			})
			m.st.PlayLocked = true
			m.st.LockRounds = 1
			return itemOK("+80 score, plays locked this round")
		},
	}
}

func Overdraw() *Item {
	return &Item{
		ID: "overdraw", Name: "Overdraw", Price: -200, Kind: ItemInstantNegative,
		Description: "+200 score now, -100 score when advancing",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.run.ScorePenaltyNextLevel += 100
			return itemOK("the next level starts 100 score lower")
		},
	}
}

// PatternSealCandidates are the kinds pattern_seal may seal.
var PatternSealCandidates = []PatternKind{PatternPair, PatternTriple, PatternStraight, PatternDoubleStraight}

func PatternSeal() *Item {
	return &Item{
		ID: "pattern_seal", Name: "Pattern Seal", Price: -100, Kind: ItemInstantNegative,
		Description: "+100 score, but a random pattern is sealed this level",
		Effect: func(m *Match, _ []*Card) ItemResult {
			kind := PatternSealCandidates[m.rng.Intn(len(PatternSealCandidates))]
			m.st.Sealed[kind] = true
			return itemOK("%s sealed", kind)
		},
	}
}

func TimeAccel() *Item {
	return &Item{
		ID: "time_accel", Name: "Time Accel", Price: -150, Kind: ItemInstantNegative,
		Description: "+150 score, but the level has one round fewer",
		Effect: func(m *Match, _ []*Card) ItemResult {
			if m.st.RoundLimit <= 1 {
				return itemFail(CodeRuleForbidden, "the round limit cannot drop below 1")
			}
			m.st.RoundLimit--
			return itemOK("round limit is now %d", m.st.RoundLimit)
		},
	}
}

func ActionOverdraft() *Item {
	return &Item{
		ID: "action_overdraft", Name: "Action Overdraft", Price: -50, Kind: ItemInstantNegative,
		Description: "+50 score, -1 action point next round",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.st.ActionPenalty++
			return itemOK("next round starts with 1 action point less")
		},
	}
}

// --- Permanent items ---

func PiggyGold() *Item {
	return &Item{
		ID: "piggy_gold", Name: "Piggy Gold", Price: 350, Kind: ItemPermanent,
		Description: "+20 score at every round end",
	}
}

func PermanentActionBoost() *Item {
	return &Item{
		ID: "permanent_action_boost", Name: "Action Core", Price: 1000, Kind: ItemPermanent,
		Description: "+1 max action points for the rest of the run",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.st.MaxActionPoints++
			m.st.ActionPoints++
			return itemOK("max action points is now %.0f", m.st.MaxActionPoints)
		},
	}
}

func PermanentDiscardDrawExtra() *Item {
	return &Item{
		ID: "permanent_discard_draw_extra", Name: "Out With the Old", Price: 750, Kind: ItemPermanent,
		Description: "Every discard draws one more card",
	}
}

func PermanentDiscardScoreBonus() *Item {
	return &Item{
		ID: "permanent_discard_score_bonus", Name: "Refine", Price: 650, Kind: ItemPermanent,
		Description: "+3 score per discarded card",
	}
}

// --- Legendary items ---

// DestinyScale converts half the run score into coins.
func DestinyScale() *Item {
	return &Item{
		ID: "destiny_scale", Name: "Destiny Scale", Price: 1500, Kind: ItemLegendary,
		Description: "Half of your score becomes coins",
		Effect: func(m *Match, _ []*Card) ItemResult {
			half := m.run.Score / 2
			m.run.Score -= half
			m.run.Coins += half
			return itemOK("%d score converted to coins", half)
		},
	}
}

// RuleRewriter removes the negative rule, or else the special rule. Boss
// rules are out of its reach.
func RuleRewriter() *Item {
	return &Item{
		ID: "rule_rewriter", Name: "Rule Rewriter", Price: 1200, Kind: ItemLegendary,
		Description: "Removes this level's negative rule, or its special rule",
		Effect: func(m *Match, _ []*Card) ItemResult {
			st := &m.st
			switch {
			case st.Rules.Negative != NegativeNone:
				removed := st.Rules.Negative
				st.Rules.Negative = NegativeNone
				clear(st.Locked)
				clear(st.PatternPlays)
				st.LastKind = PatternInvalid
				return itemOK("removed %s", removed)
			case st.Rules.Special != SpecialNone:
				removed := st.Rules.Special
				st.Rules.Special = SpecialNone
				st.Rules.DoubleCostKind = PatternInvalid
				st.TimeLimit = 0
				m.stopTimer()
				m.timer = nil
				return itemOK("removed %s", removed)
			default:
				return itemFail(CodeRuleForbidden, "this level has no rule to remove")
			}
		},
	}
}

// PerfectMoment is kept in the inventory. Using it converts the remaining
// action points into discard points and ends the round.
func PerfectMoment() *Item {
	return &Item{
		ID: "perfect_moment", Name: "Perfect Moment", Price: 1000, Kind: ItemLegendary,
		Description:     "Convert remaining action points to discard points and end the round",
		KeepInInventory: true,
		Effect: func(m *Match, _ []*Card) ItemResult {
			ap := m.st.ActionPoints
			if ap <= 0 {
				return itemFail(CodeInsufficientResource, "no action points left")
			}
			m.st.DiscardPoints = min(m.st.DiscardPoints+int(math.Floor(ap)), m.st.MaxDiscardPoints)
			m.st.ActionPoints = 0
			res := itemOK("%.1f action points converted", ap)
			res.Flags |= SideEffectEndRound
			return res
		},
	}
}

func SingleCardKing() *Item {
	return &Item{
		ID: "single_card_king", Name: "Single Card King", Price: 750, Kind: ItemLegendary,
		Description: "Singles score 30 base this level, straights are sealed",
		Effect: func(m *Match, _ []*Card) ItemResult {
			m.st.Effects.Add(Effect{Kind: EffectSingleCardKing, Scope: ScopeLevel})
			m.st.Sealed[PatternStraight] = true
			return itemOK("singles score 30, straights sealed")
		},
	}
}
