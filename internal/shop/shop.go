// Package shop runs the in-level item shop. A visit pauses the turn timer,
// shows four offers (plus a legendary slot late in the run) and allows one
// purchase.
package shop

import (
	"fmt"
	"slices"

	"github.com/peterkuimelis/ddzrogue/internal/game"
	"github.com/peterkuimelis/ddzrogue/internal/log"
)

const (
	OfferCount     = 4
	PermanentLevel = 3
	LegendaryLevel = 7
)

// Offer is one item on display.
type Offer struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Kind        game.ItemKind `json:"kind"`
	BasePrice   int           `json:"base_price"`
	Price       int           `json:"price"`
	Sold        bool          `json:"sold,omitempty"`
}

// Visit is what the player sees while the shop is open.
type Visit struct {
	Offers      []Offer  `json:"offers"`
	Legendary   *Offer   `json:"legendary,omitempty"`
	RefreshCost int      `json:"refresh_cost"`
	Purchased   bool     `json:"purchased"`
	Granted     []string `json:"granted,omitempty"`
}

// Shop belongs to one engine. Refresh pricing counts per level.
type Shop struct {
	engine *game.Engine

	open      bool
	level     int
	refreshes int
	purchased bool
	offers    []Offer
	legendary *Offer
	granted   []string
}

func New(e *game.Engine) *Shop {
	return &Shop{engine: e}
}

func (s *Shop) IsOpen() bool { return s.open }

func forbidden(format string, args ...any) error {
	return &game.ActionError{Code: game.CodeRuleForbidden, Reason: fmt.Sprintf(format, args...)}
}

// RefreshCost is the score price of the next refresh on this level.
func RefreshCost(refreshes int) int {
	switch refreshes {
	case 0:
		return 0
	case 1:
		return 100
	case 2:
		return 200
	default:
		return 250
	}
}

// Open starts a visit. The level must be in progress. Pending free items
// from a boss reward are granted from the fresh offers.
func (s *Shop) Open() (Visit, error) {
	m := s.engine.Match()
	if m == nil || m.GameOver() {
		return Visit{}, forbidden("the shop opens only during a level")
	}
	if s.open {
		return s.Visit(), nil
	}
	run := s.engine.Run()
	if s.level != run.Level {
		s.level = run.Level
		s.refreshes = 0
	}
	s.open = true
	s.purchased = false
	s.granted = nil
	m.PauseTimer()
	s.roll()
	s.grantFreeItems()
	return s.Visit(), nil
}

// Close ends the visit and resumes the turn timer.
func (s *Shop) Close() {
	if !s.open {
		return
	}
	s.open = false
	if m := s.engine.Match(); m != nil {
		m.ResumeTimer()
	}
}

// Visit reports the current offers with up-to-date prices.
func (s *Shop) Visit() Visit {
	v := Visit{
		RefreshCost: RefreshCost(s.refreshes),
		Purchased:   s.purchased,
		Granted:     slices.Clone(s.granted),
	}
	run := s.engine.Run()
	for _, o := range s.offers {
		o.Price = s.price(run, o)
		v.Offers = append(v.Offers, o)
	}
	if s.legendary != nil {
		o := *s.legendary
		o.Price = s.price(run, o)
		v.Legendary = &o
	}
	return v
}

func (s *Shop) price(run *game.Run, o Offer) int {
	return game.StandardPrice(o.BasePrice, run.Level, run.Trait, run.Talents, o.Kind)
}

// Refresh pays the refresh cost and re-rolls the offers. It does not grant
// another purchase.
func (s *Shop) Refresh() (Visit, error) {
	if !s.open {
		return Visit{}, forbidden("the shop is closed")
	}
	run := s.engine.Run()
	cost := RefreshCost(s.refreshes)
	if run.Score < cost {
		return Visit{}, &game.ActionError{
			Code:   game.CodeInsufficientResource,
			Reason: fmt.Sprintf("refresh costs %d score, have %d", cost, run.Score),
		}
	}
	run.Score -= cost
	s.refreshes++
	s.roll()
	return s.Visit(), nil
}

// Buy purchases the offer with the given item ID at its current price.
func (s *Shop) Buy(id string) (game.ItemOutcome, error) {
	if !s.open {
		return game.ItemOutcome{Item: id}, forbidden("the shop is closed")
	}
	if s.purchased {
		return game.ItemOutcome{Item: id}, forbidden("one purchase per shop visit")
	}
	o := s.find(id)
	if o == nil {
		return game.ItemOutcome{Item: id}, forbidden("%s is not on offer", id)
	}
	if o.Sold {
		return game.ItemOutcome{Item: id}, forbidden("%s is sold out", o.Name)
	}
	out, err := s.engine.BuyItem(id, s.price(s.engine.Run(), *o))
	if err != nil {
		return out, err
	}
	o.Sold = true
	s.purchased = true
	return out, nil
}

func (s *Shop) find(id string) *Offer {
	for i := range s.offers {
		if s.offers[i].ID == id {
			return &s.offers[i]
		}
	}
	if s.legendary != nil && s.legendary.ID == id {
		return s.legendary
	}
	return nil
}

// --- Rolling offers ---

func newOffer(item *game.Item) Offer {
	return Offer{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Kind:        item.Kind,
		BasePrice:   item.Price,
	}
}

// candidates lists the item IDs that may fill the regular slots.
func candidates(run *game.Run) []*game.Item {
	var items []*game.Item
	for _, id := range game.ItemPool(run.Level) {
		item, err := game.LookupItem(id)
		if err != nil {
			continue
		}
		switch item.Kind {
		case game.ItemLegendary:
			continue
		case game.ItemPermanent:
			if run.Level < PermanentLevel || run.HasPermanent(id) {
				continue
			}
		}
		items = append(items, item)
	}
	return items
}

func (s *Shop) roll() {
	run := s.engine.Run()
	rng := s.engine.Rand()

	pool := candidates(run)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	s.offers = s.offers[:0]
	for _, item := range pool[:min(OfferCount, len(pool))] {
		s.offers = append(s.offers, newOffer(item))
	}

	s.legendary = nil
	if run.Level < LegendaryLevel {
		return
	}
	var left []string
	for _, id := range game.LegendaryItems {
		if !slices.Contains(run.LegendaryBought, id) {
			left = append(left, id)
		}
	}
	if len(left) == 0 {
		return
	}
	item, err := game.LookupItem(left[rng.Intn(len(left))])
	if err != nil {
		log.Warn("legendary slot: %v", err)
		return
	}
	o := newOffer(item)
	s.legendary = &o
}

// grantFreeItems hands out pending boss-reward items, picked from the
// positive offers of this visit.
func (s *Shop) grantFreeItems() {
	run := s.engine.Run()
	if run.FreeItems <= 0 {
		return
	}
	n := run.FreeItems
	run.FreeItems = 0

	var pool []int
	for i, o := range s.offers {
		if o.Kind == game.ItemPositive {
			pool = append(pool, i)
		}
	}
	rng := s.engine.Rand()
	logger := s.engine.Logger()
	round := 0
	if m := s.engine.Match(); m != nil {
		round = m.Round()
	}
	for ; n > 0 && len(pool) > 0; n-- {
		k := rng.Intn(len(pool))
		o := s.offers[pool[k]]
		pool = slices.Delete(pool, k, k+1)
		run.Inventory = append(run.Inventory, o.ID)
		s.granted = append(s.granted, o.ID)
		logger.Log(log.NewPurchaseEvent(run.Level, round, o.Name, 0))
	}
}
