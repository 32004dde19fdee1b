package game

import (
	"fmt"
	"slices"
)

// ItemRegistry maps item IDs to their constructor functions.
var ItemRegistry = map[string]func() *Item{
	"compass":                       Compass,
	"joker_mask":                    JokerMask,
	"deck_reforge":                  DeckReforge,
	"bomb_factory":                  BombFactory,
	"hourglass":                     Hourglass,
	"rocket_booster":                RocketBooster,
	"hand_remover":                  HandRemover,
	"card_upgrader":                 CardUpgrader,
	"action_charger":                ActionCharger,
	"action_expander":               ActionExpander,
	"energy_saver":                  EnergySaver,
	"exchange_card":                 ExchangeCard,
	"abandon_weapon":                AbandonWeapon,
	"offense_defense_swap":          OffenseDefenseSwap,
	"backwater_battle":              BackwaterBattle,
	"desperate_stake":               DesperateStake,
	"chain_reaction":                ChainReaction,
	"score_double":                  ScoreDouble,
	"risky_victory":                 RiskyVictory,
	"gambler_dice":                  GamblerDice,
	"chaos_shuffle":                 ChaosShuffle,
	"overdraw":                      Overdraw,
	"pattern_seal":                  PatternSeal,
	"time_accel":                    TimeAccel,
	"action_overdraft":              ActionOverdraft,
	"piggy_gold":                    PiggyGold,
	"permanent_action_boost":        PermanentActionBoost,
	"permanent_discard_draw_extra":  PermanentDiscardDrawExtra,
	"permanent_discard_score_bonus": PermanentDiscardScoreBonus,
	"destiny_scale":                 DestinyScale,
	"rule_rewriter":                 RuleRewriter,
	"perfect_moment":                PerfectMoment,
	"single_card_king":              SingleCardKing,
}

// LookupItem returns a new instance of the item with the given ID.
func LookupItem(id string) (*Item, error) {
	ctor, ok := ItemRegistry[id]
	if !ok {
		return nil, fmt.Errorf("item not found in registry: %q", id)
	}
	return ctor(), nil
}

// ItemIDs lists every registered item in a stable order.
func ItemIDs() []string {
	ids := make([]string, 0, len(ItemRegistry))
	for id := range ItemRegistry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// LegendaryItems are offered in the shop's legendary slot.
var LegendaryItems = []string{"destiny_scale", "rule_rewriter", "perfect_moment", "single_card_king"}

var earlyPool = []string{
	"compass", "action_charger", "energy_saver", "exchange_card", "offense_defense_swap",
	"score_double", "risky_victory", "gambler_dice", "chaos_shuffle",
}

var middlePool = append(slices.Clone(earlyPool),
	"bomb_factory", "card_upgrader", "action_expander", "abandon_weapon", "backwater_battle",
	"desperate_stake", "chain_reaction", "overdraw", "pattern_seal", "action_overdraft",
	"permanent_action_boost", "permanent_discard_draw_extra", "permanent_discard_score_bonus",
)

// ItemPool returns the IDs the shop may offer on level. Levels 8 and up
// offer everything.
func ItemPool(level int) []string {
	switch {
	case level <= 3:
		return slices.Clone(earlyPool)
	case level <= 7:
		return slices.Clone(middlePool)
	default:
		return ItemIDs()
	}
}
