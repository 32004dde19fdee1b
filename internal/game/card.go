package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

const (
	// UpgradeBonus is the flat score each upgraded card adds to a play.
	UpgradeBonus = 20
	// UpgradeChance is the probability a card of an upgraded rank is dealt upgraded.
	UpgradeChance = 0.3
	// DeckSize is the size of the double deck every level is dealt from.
	DeckSize = 2 * (13*4 + 2)
)

// Card is a single dealt card. Identity is the ID; only Upgraded may change
// after creation.
type Card struct {
	ID       int  `json:"id"`
	Rank     Rank `json:"rank"`
	Suit     Suit `json:"suit"`
	Upgraded bool `json:"upgraded,omitempty"`
}

// Value is the comparison value of the card.
func (c *Card) Value() int {
	return int(c.Rank)
}

func (c *Card) String() string {
	s := c.Suit.Symbol() + c.Rank.String()
	if c.Upgraded {
		s += "+"
	}
	return s
}

// Code returns the ASCII form accepted by ParseCard, e.g. "10h" or "SJ".
func (c *Card) Code() string {
	if c.Rank.IsJoker() {
		return c.Rank.String()
	}
	return c.Rank.String() + suitLetters[c.Suit]
}

var suitLetters = map[Suit]string{
	SuitHearts:   "h",
	SuitDiamonds: "d",
	SuitClubs:    "c",
	SuitSpades:   "s",
}

// ParseCard parses the ASCII form of a card. A trailing "+" marks it upgraded.
// The returned card has no ID.
func ParseCard(code string) (*Card, error) {
	upgraded := strings.HasSuffix(code, "+")
	code = strings.TrimSuffix(code, "+")
	if code == "SJ" || code == "BJ" {
		r, _ := ParseRank(code)
		return &Card{Rank: r, Suit: SuitJoker, Upgraded: upgraded}, nil
	}
	if len(code) < 2 {
		return nil, fmt.Errorf("bad card %q", code)
	}
	rank, err := ParseRank(strings.ToUpper(code[:len(code)-1]))
	if err != nil {
		return nil, fmt.Errorf("bad card %q: %w", code, err)
	}
	letter := strings.ToLower(code[len(code)-1:])
	for suit, l := range suitLetters {
		if l == letter {
			return &Card{Rank: rank, Suit: suit, Upgraded: upgraded}, nil
		}
	}
	return nil, fmt.Errorf("bad suit in card %q", code)
}

// RankSet is a set of ranks, used for the persistent upgrade list.
type RankSet map[Rank]bool

func NewRankSet(ranks []Rank) RankSet {
	s := make(RankSet, len(ranks))
	for _, r := range ranks {
		s[r] = true
	}
	return s
}

// Sorted returns the ranks in ascending order.
func (s RankSet) Sorted() []Rank {
	out := make([]Rank, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// --- Deck ---

// cardSource hands out unique card IDs for one level.
type cardSource struct {
	nextID int
}

func (s *cardSource) newCard(rank Rank, suit Suit) *Card {
	s.nextID++
	return &Card{ID: s.nextID, Rank: rank, Suit: suit}
}

// newDeck builds the shuffled double deck. Cards of an upgraded rank are
// dealt upgraded with probability UpgradeChance.
func (s *cardSource) newDeck(rng *rand.Rand, upgraded RankSet) []*Card {
	deck := make([]*Card, 0, DeckSize)
	add := func(rank Rank, suit Suit) {
		c := s.newCard(rank, suit)
		if upgraded[rank] && rng.Float64() < UpgradeChance {
			c.Upgraded = true
		}
		deck = append(deck, c)
	}
	for n := 0; n < 2; n++ {
		for _, suit := range StandardSuits {
			for _, rank := range StandardRanks {
				add(rank, suit)
			}
		}
		add(RankSmallJoker, SuitJoker)
		add(RankBigJoker, SuitJoker)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}

// randomCard creates one card of a uniformly chosen rank and suit.
func (s *cardSource) randomCard(rng *rand.Rand) *Card {
	rank := AllRanks[rng.Intn(len(AllRanks))]
	if rank.IsJoker() {
		return s.newCard(rank, SuitJoker)
	}
	return s.newCard(rank, StandardSuits[rng.Intn(len(StandardSuits))])
}

// --- Card slice helpers ---

// SortCards orders cards by value, then suit, then ID.
func SortCards(cards []*Card) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		if a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
		if a.Suit != b.Suit {
			return a.Suit < b.Suit
		}
		return a.ID < b.ID
	})
}

// CardsString renders cards space separated.
func CardsString(cards []*Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}

func removeCard(cards []*Card, target *Card) []*Card {
	for i, c := range cards {
		if c.ID == target.ID {
			return append(cards[:i], cards[i+1:]...)
		}
	}
	return cards
}

func cloneCards(cards []*Card) []*Card {
	out := make([]*Card, len(cards))
	for i, c := range cards {
		cp := *c
		out[i] = &cp
	}
	return out
}
