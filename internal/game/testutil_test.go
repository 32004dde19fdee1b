package game

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/peterkuimelis/ddzrogue/internal/log"
)

// cards parses space separated card codes ("3h 3s 10d SJ") and numbers them
// from 1. It panics on a bad code.
func cards(codes string) []*Card {
	var out []*Card
	for i, code := range strings.Fields(codes) {
		c, err := ParseCard(code)
		if err != nil {
			panic(err)
		}
		c.ID = i + 1
		out = append(out, c)
	}
	return out
}

// indices returns 0..n-1.
func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

type matchOption func(*Match)

func withHand(codes string) matchOption {
	return func(m *Match) { m.st.Hand = cards(codes) }
}

func withDeck(codes string) matchOption {
	return func(m *Match) { m.st.Deck = cards(codes) }
}

func withRequirement(n int) matchOption {
	return func(m *Match) { m.st.Requirement = n }
}

func withMultiplier(f float64) matchOption {
	return func(m *Match) { m.st.Multiplier = f }
}

func withAP(ap float64) matchOption {
	return func(m *Match) {
		m.st.ActionPoints = ap
		m.st.MaxActionPoints = ap
	}
}

func withDP(dp int) matchOption {
	return func(m *Match) { m.st.DiscardPoints = dp }
}

func withTrait(tr Trait) matchOption {
	return func(m *Match) { m.run.Trait = tr }
}

func withNegative(r NegativeRule) matchOption {
	return func(m *Match) { m.st.Rules.Negative = r }
}

// withBoss installs a boss rule after every other option has been applied.
func withBoss(kind BossKind) matchOption {
	return func(m *Match) { m.st.Rules.Boss = kind }
}

func withTimeLimit(seconds int, clk *fakeClock) matchOption {
	return func(m *Match) {
		m.st.TimeLimit = seconds
		m.st.Rules.Special = SpecialTimeLimit
		m.startTimer(clk.Now)
	}
}

// newTestMatch builds a level directly, bypassing the dealer. Defaults: level
// 1, requirement 0, multiplier 1, 20 action points, 2 discard points, seed 1.
func newTestMatch(t *testing.T, opts ...matchOption) *Match {
	t.Helper()
	run := NewRun("test", 0, nil, nil)
	m := &Match{run: run, rng: rand.New(rand.NewSource(1)), logger: log.NewMemoryLogger()}
	m.st = MatchState{
		Level:            1,
		Round:            1,
		RoundLimit:       3,
		Combo:            1,
		Multiplier:       1,
		ActionPoints:     20,
		MaxActionPoints:  20,
		DiscardPoints:    2,
		MaxDiscardPoints: 4,
		DiscardCost:      1,
		Status:           StatusPlaying,
	}
	m.st.ensureDefaults()
	for _, o := range opts {
		o(m)
	}

	id := 0
	for _, c := range m.st.Hand {
		id++
		c.ID = id
	}
	for _, c := range m.st.Deck {
		id++
		c.ID = id
	}
	m.cards.nextID = id
	m.st.NextCardID = id
	m.st.TotalCards = len(m.st.Hand) + len(m.st.Deck)

	if m.st.Rules.Boss != BossNone {
		m.st.Boss = &BossState{Kind: m.st.Rules.Boss}
		bossRuleFor(m.st.Rules.Boss).setup(m.st.Boss, nil, m)
	}
	return m
}

func memLog(m *Match) *log.MemoryLogger {
	return m.logger.(*log.MemoryLogger)
}

// handCodes renders the hand as card codes for comparisons.
func handCodes(m *Match) string {
	parts := make([]string, len(m.st.Hand))
	for i, c := range m.st.Hand {
		parts[i] = c.Code()
	}
	return strings.Join(parts, " ")
}

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestEngine wraps a test match in an engine that shares its run.
func newTestEngine(t *testing.T, opts ...matchOption) (*Engine, *Match) {
	t.Helper()
	m := newTestMatch(t, opts...)
	e := NewEngine(Config{Seed: 1, Logger: m.logger}, m.run)
	e.match = m
	return e, m
}
