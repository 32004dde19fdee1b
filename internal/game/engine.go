package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/peterkuimelis/ddzrogue/internal/log"
)

// Config holds the engine's collaborators. Zero values pick defaults.
type Config struct {
	Levels    *LevelTable
	Logger    log.EventLogger
	Seed      int64 // RNG seed (0 for random)
	Clock     Clock
	TimeLimit time.Duration // overrides the table's time limit when > 0
}

// Engine drives a run level by level. It owns the run aggregate, the single
// random source and the current match.
type Engine struct {
	run    *Run
	levels *LevelTable
	rng    *rand.Rand
	logger log.EventLogger
	clock  Clock
	limit  time.Duration

	rules      LevelRules
	match      *Match
	settlement *Settlement
}

// NewEngine creates an engine for run without dealing.
func NewEngine(cfg Config, run *Run) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = log.NewMemoryLogger()
	}
	if cfg.Levels == nil {
		cfg.Levels = DefaultLevels()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	limit := cfg.TimeLimit
	if limit <= 0 {
		limit = time.Duration(cfg.Levels.Rules.TimeLimitSeconds) * time.Second
	}
	if run.Level < 1 {
		run.Level = 1
	}
	return &Engine{
		run:    run,
		levels: cfg.Levels,
		rng:    rand.New(rand.NewSource(seed)),
		logger: cfg.Logger,
		clock:  cfg.Clock,
		limit:  limit,
	}
}

func (e *Engine) Run() *Run               { return e.run }
func (e *Engine) Match() *Match           { return e.match }
func (e *Engine) Levels() *LevelTable     { return e.levels }
func (e *Engine) Rules() LevelRules       { return e.rules }
func (e *Engine) Logger() log.EventLogger { return e.logger }

// Rand exposes the shared random source to collaborators such as the shop.
func (e *Engine) Rand() *rand.Rand { return e.rng }

// StartLevel rolls the rules of the run's current level, draws trait offers
// and deals.
func (e *Engine) StartLevel() *Match {
	e.rules = e.levels.RollRules(e.run.Level, e.rng)
	e.run.Trait = ""
	e.run.TraitOffers = drawTraitOffers(e.rng)
	return e.DealLevel(CardCount(e.run.Level))
}

// DealLevel replaces the current match with a freshly shuffled deal of
// cardCount cards under the current rules.
func (e *Engine) DealLevel(cardCount int) *Match {
	if e.match != nil {
		e.match.stopTimer()
	}
	run := e.run
	spec := e.levels.Spec(run.Level)
	disc := e.levels.Discard

	m := &Match{run: run, rng: e.rng, logger: e.logger}
	m.st = MatchState{
		Level:           run.Level,
		Round:           1,
		RoundLimit:      e.levels.RoundLimit,
		Combo:           1,
		Requirement:     spec.Requirement,
		Multiplier:      spec.Multiplier,
		MinPatternKinds: spec.MinPatternKinds,
		MaxWinRound:     spec.MaxWinRound,
		DiscardPoints:   disc.StartPoints,
		DiscardCost:     disc.BaseCost,
		DrawPerRound:    e.levels.DrawPerRound,
		Economy:         disc,
		Rules:           e.rules,
		Status:          StatusPlaying,
		TotalCards:      DeckSize,
	}
	m.st.ensureDefaults()
	m.st.MaxDiscardPoints = e.maxDiscardPoints()
	m.st.DiscardPoints = min(m.st.DiscardPoints, m.st.MaxDiscardPoints)

	maxAP := float64(e.levels.BaseActionPoints + spec.ActionBonus + run.PermanentActionBonus() + run.BossActionBonus)
	m.st.MaxActionPoints = maxAP
	m.st.ActionPoints = maxAP
	if run.ActionPenaltyNextDeal > 0 {
		m.st.ActionPoints = math.Max(1, maxAP-run.ActionPenaltyNextDeal)
	}
	run.ActionPenaltyNextDeal = 0
	if run.HasTalent(TalentEmergencyReserve) {
		m.st.ActionPoints++
	}

	deck := m.cards.newDeck(e.rng, NewRankSet(run.Upgrades))
	cardCount = min(max(cardCount, 0), len(deck))
	m.st.Hand = append([]*Card(nil), deck[:cardCount]...)
	m.st.Deck = append([]*Card(nil), deck[cardCount:]...)
	m.st.NextCardID = m.cards.nextID

	if e.rules.Boss != BossNone {
		m.st.Boss = &BossState{Kind: e.rules.Boss}
		bossRuleFor(e.rules.Boss).setup(m.st.Boss, spec.Boss, m)
	}
	if e.rules.Special == SpecialTimeLimit {
		m.st.TimeLimit = int(e.limit / time.Second)
	}
	m.startTimer(e.clock)

	e.match = m
	e.settlement = nil
	m.log(log.NewLevelStartEvent(run.Level, m.st.RequiredScore(), string(e.rules.Boss), ruleSummary(e.rules)))
	m.log(log.NewDealEvent(run.Level, CardsString(m.st.Hand), len(m.st.Hand), m.st.ActionPoints, m.st.DiscardPoints))
	return m
}

func ruleSummary(r LevelRules) string {
	if r.Boss != BossNone {
		return ""
	}
	return r.String()
}

func (e *Engine) maxDiscardPoints() int {
	n := e.levels.Discard.MaxPoints + e.run.BossDiscardBonus
	if e.run.HasTrait(TraitRestAndWait) {
		n--
	}
	return n
}

// ChooseTrait picks one of the offered traits for the current level.
func (e *Engine) ChooseTrait(index int) error {
	if e.match == nil {
		return reject(CodeRuleForbidden, "no level in progress")
	}
	if e.run.Trait != "" {
		return reject(CodeRuleForbidden, "trait already chosen")
	}
	if index < 0 || index >= len(e.run.TraitOffers) {
		return reject(CodeBoundsViolation, "trait choice %d out of range", index)
	}
	e.run.Trait = e.run.TraitOffers[index]
	e.run.TraitOffers = nil
	st := &e.match.st
	st.MaxDiscardPoints = e.maxDiscardPoints()
	st.DiscardPoints = min(st.DiscardPoints, st.MaxDiscardPoints)
	e.match.log(log.NewTraitChosenEvent(st.Level, string(e.run.Trait)))
	return nil
}

// --- Level transitions ---

// Settlement is the outcome of clearing a level.
type Settlement struct {
	Rating      Rating      `json:"rating"`
	Multiplier  float64     `json:"multiplier"`
	ScoreBefore int         `json:"score_before"`
	ScoreAfter  int         `json:"score_after"`
	Coins       int         `json:"coins,omitempty"`
	Reward      *BossReward `json:"reward,omitempty"`
}

// Settle applies the rating multiplier, final-level coins and the boss
// reward of a won level. It is idempotent: the boss reward is gated by the
// pending flag and the rest by the settled flag.
func (e *Engine) Settle() (Settlement, error) {
	m := e.match
	if m == nil || m.st.Status != StatusWon {
		return Settlement{}, reject(CodeRuleForbidden, "level not cleared")
	}
	if m.st.Settled && e.settlement != nil {
		return *e.settlement, nil
	}
	st := &m.st
	s := Settlement{Rating: st.Rating, ScoreBefore: e.run.Score}
	if !st.Settled {
		s.Multiplier = RatingMultiplier(st.Rating, st.Gamble)
		e.run.Score = int(math.Floor(float64(e.run.Score) * s.Multiplier))
		if coins := e.levels.Spec(st.Level).ClearCoins; coins > 0 {
			e.run.Coins += coins
			s.Coins = coins
		}
		st.Settled = true
	}
	if reward, ok := e.ApplyBossReward(); ok {
		s.Reward = &reward
	}
	s.ScoreAfter = e.run.Score
	e.settlement = &s
	return s, nil
}

// ApplyBossReward grants the boss reward once per clear.
func (e *Engine) ApplyBossReward() (BossReward, bool) {
	m := e.match
	if m == nil || !m.st.BossRewardPending || m.st.Boss == nil {
		return BossReward{}, false
	}
	m.st.BossRewardPending = false
	reward := bossRuleFor(m.st.Boss.Kind).reward(e.run)
	m.log(log.NewBossRewardEvent(m.st.Level, string(m.st.Boss.Kind), reward.Description))
	return reward, true
}

// LevelReward is the score granted for advancing past a cleared level.
func (e *Engine) LevelReward() int {
	if e.run.HasTrait(TraitEconomicMind) {
		return 35
	}
	return 50
}

// NextLevel advances past a won level and deals the next one.
func (e *Engine) NextLevel() (*Match, error) {
	m := e.match
	if m == nil || m.st.Status != StatusWon {
		return nil, reject(CodeRuleForbidden, "level not cleared")
	}
	if _, err := e.Settle(); err != nil {
		return nil, err
	}
	if e.run.Level >= e.levels.MaxLevel() {
		return nil, ErrRunComplete
	}
	e.run.ActionPenaltyNextDeal = m.st.ActionPenalty
	e.run.addScore(e.LevelReward() - e.run.ScorePenaltyNextLevel)
	e.run.ScorePenaltyNextLevel = 0
	e.run.Level++
	return e.StartLevel(), nil
}

// RetryLevel re-deals the current level under the same rules. Boss state
// is rebuilt from scratch and queued penalties are dropped.
func (e *Engine) RetryLevel() *Match {
	e.run.ActionPenaltyNextDeal = 0
	e.run.Trait = ""
	e.run.TraitOffers = drawTraitOffers(e.rng)
	return e.DealLevel(CardCount(e.run.Level))
}

// RunComplete reports whether the final level has been cleared.
func (e *Engine) RunComplete() bool {
	return e.match != nil && e.match.st.Status == StatusWon && e.run.Level >= e.levels.MaxLevel()
}
