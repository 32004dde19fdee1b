package game

import (
	"math"
	"slices"
)

// StandardPrice is the shop price of an item with base price base on level.
// Negative items are never inflated or discounted.
func StandardPrice(base, level int, trait Trait, talents []Talent, kind ItemKind) int {
	if kind == ItemNegative || kind == ItemInstantNegative {
		return base
	}
	price := base
	if level >= 5 {
		var mult float64
		if level <= 7 {
			mult = math.Pow(1.15, float64(level-4))
		} else {
			mult = math.Pow(1.15, 3) * math.Pow(1.25, float64(level-7))
		}
		price = int(math.Floor(float64(base) * math.Min(mult, 2.5)))
	}
	if trait == TraitEconomicMind {
		price = int(math.Floor(float64(price) * 0.8))
	}
	if slices.Contains(talents, TalentLongTermCoop) {
		price = int(math.Floor(float64(price) * 0.9))
	}
	return price
}

// PriceFor prices item for the run's current level, trait and talents.
func (r *Run) PriceFor(item *Item) int {
	return StandardPrice(item.Price, r.Level, r.Trait, r.Talents, item.Kind)
}
