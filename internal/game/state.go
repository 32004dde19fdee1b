package game

import (
	"maps"
	"math/rand"
	"time"

	"github.com/peterkuimelis/ddzrogue/internal/log"
)

// MatchState is the complete state of one level attempt. It is a plain value:
// Match.State returns a deep copy and snapshots serialize it as JSON.
type MatchState struct {
	Level      int     `json:"level"`
	Hand       []*Card `json:"hand"`
	Deck       []*Card `json:"deck"`
	Removed    int     `json:"removed"`
	TotalCards int     `json:"total_cards"`
	NextCardID int     `json:"next_card_id"`

	Round           int     `json:"round"`
	RoundLimit      int     `json:"round_limit"`
	Combo           float64 `json:"combo"`
	LevelScore      int     `json:"level_score"`
	Requirement     int     `json:"requirement"`
	Multiplier      float64 `json:"multiplier"`
	MinPatternKinds int     `json:"min_pattern_kinds,omitempty"`
	MaxWinRound     int     `json:"max_win_round,omitempty"`

	ActionPoints      float64       `json:"action_points"`
	MaxActionPoints   float64       `json:"max_action_points"`
	DiscardPoints     int           `json:"discard_points"`
	MaxDiscardPoints  int           `json:"max_discard_points"`
	DiscardCost       int           `json:"discard_cost"`
	DiscardsThisRound int           `json:"discards_this_round"`
	DrawPerRound      int           `json:"draw_per_round"`
	Economy           DiscardConfig `json:"discard_rules"`
	FirstDiscardUsed  bool          `json:"first_discard_used,omitempty"`

	PlaysThisRound   int                  `json:"plays_this_round"`
	SinglesThisRound int                  `json:"singles_this_round"`
	PairsThisRound   int                  `json:"pairs_this_round"`
	PatternPlays     map[PatternKind]int  `json:"pattern_plays,omitempty"`
	PatternStreak    map[PatternKind]int  `json:"pattern_streak,omitempty"`
	LastKind         PatternKind          `json:"last_kind,omitempty"`
	UsedKinds        map[PatternKind]bool `json:"used_kinds,omitempty"`
	LastActionCost   float64              `json:"last_action_cost,omitempty"`
	ActionPenalty    float64              `json:"action_penalty,omitempty"`

	Sealed     map[PatternKind]bool `json:"sealed,omitempty"`
	Locked     map[int]bool         `json:"locked,omitempty"`
	PlayLocked bool                 `json:"play_locked,omitempty"`
	LockRounds int                  `json:"lock_rounds,omitempty"`

	Rules             LevelRules `json:"rules"`
	Boss              *BossState `json:"boss,omitempty"`
	BossRewardPending bool       `json:"boss_reward_pending,omitempty"`
	Gamble            bool       `json:"gamble,omitempty"`

	Effects   Effects `json:"effects,omitempty"`
	TimeLimit int     `json:"time_limit,omitempty"` // seconds, 0 when untimed

	Status      Status `json:"status"`
	Rating      Rating `json:"rating,omitempty"`
	FinishRound int    `json:"finish_round,omitempty"`
	UnmetReason string `json:"unmet_reason,omitempty"`
	Settled     bool   `json:"settled,omitempty"`
}

// Clone returns a deep copy.
func (s MatchState) Clone() MatchState {
	cp := s
	cp.Hand = cloneCards(s.Hand)
	cp.Deck = cloneCards(s.Deck)
	cp.PatternPlays = maps.Clone(s.PatternPlays)
	cp.PatternStreak = maps.Clone(s.PatternStreak)
	cp.UsedKinds = maps.Clone(s.UsedKinds)
	cp.Sealed = maps.Clone(s.Sealed)
	cp.Locked = maps.Clone(s.Locked)
	cp.Effects = s.Effects.clone()
	if s.Boss != nil {
		b := s.Boss.clone()
		cp.Boss = &b
	}
	return cp
}

// ensureDefaults allocates nil maps and fills an unset draw and discard economy.
func (s *MatchState) ensureDefaults() {
	if s.DrawPerRound <= 0 {
		s.DrawPerRound = defaultDrawPerRound
	}
	s.Economy.setDefaults()
	if s.PatternPlays == nil {
		s.PatternPlays = make(map[PatternKind]int)
	}
	if s.PatternStreak == nil {
		s.PatternStreak = make(map[PatternKind]int)
	}
	if s.UsedKinds == nil {
		s.UsedKinds = make(map[PatternKind]bool)
	}
	if s.Sealed == nil {
		s.Sealed = make(map[PatternKind]bool)
	}
	if s.Locked == nil {
		s.Locked = make(map[int]bool)
	}
}

// GameOver reports whether the level reached a terminal state.
func (s *MatchState) GameOver() bool {
	return s.Status != StatusPlaying
}

// RequiredScore is the score needed to win, including boss overrides.
func (s *MatchState) RequiredScore() int {
	if s.Boss != nil && s.Boss.Required > 0 {
		return s.Boss.Required
	}
	return s.Requirement
}

// RoundCeiling is the last round in which cards are still drawn. Normally it
// allows one grace round past the limit; perfectionist forbids it.
func (s *MatchState) RoundCeiling() int {
	if s.Boss != nil && !bossRuleFor(s.Boss.Kind).graceRound() {
		return s.RoundLimit
	}
	return s.RoundLimit + 1
}

// CardsAccounted checks the conservation of cards within the level.
func (s *MatchState) CardsAccounted() bool {
	return len(s.Hand)+len(s.Deck)+s.Removed == s.TotalCards
}

// IsLocked reports whether the card may not be played.
func (s *MatchState) IsLocked(c *Card) bool {
	return s.Locked[c.ID]
}

// --- Match ---

// Match owns a MatchState and is the only writer of it. Every mutation goes
// through an action method; rejected actions leave the state untouched.
type Match struct {
	st     MatchState
	run    *Run
	rng    *rand.Rand
	logger log.EventLogger
	timer  *TurnTimer
	cards  cardSource
}

// State returns a deep copy of the current state.
func (m *Match) State() MatchState {
	return m.st.Clone()
}

// Run returns the run aggregate the match reads from.
func (m *Match) Run() *Run { return m.run }

func (m *Match) Level() int            { return m.st.Level }
func (m *Match) Round() int            { return m.st.Round }
func (m *Match) Status() Status        { return m.st.Status }
func (m *Match) GameOver() bool        { return m.st.GameOver() }
func (m *Match) HandSize() int         { return len(m.st.Hand) }
func (m *Match) DeckSize() int         { return len(m.st.Deck) }
func (m *Match) LevelScore() int       { return m.st.LevelScore }
func (m *Match) Rating() Rating        { return m.st.Rating }
func (m *Match) Combo() float64        { return m.st.Combo }
func (m *Match) ActionPoints() float64 { return m.st.ActionPoints }
func (m *Match) DiscardPoints() int    { return m.st.DiscardPoints }

// Hand returns the cards in hand. The slice must not be modified.
func (m *Match) Hand() []*Card { return m.st.Hand }

// Timer returns the turn timer, or nil when the level is untimed.
func (m *Match) Timer() *TurnTimer { return m.timer }

// AddEffect pushes a modifier onto the effect stack.
func (m *Match) AddEffect(e Effect) {
	m.st.Effects.Add(e)
}

func (m *Match) log(ev log.GameEvent) {
	if m.logger != nil {
		m.logger.Log(ev)
	}
}

// --- Zone helpers ---

// draw moves up to n cards from the front of the deck into the hand.
func (m *Match) draw(n int) []*Card {
	if n > len(m.st.Deck) {
		n = len(m.st.Deck)
	}
	if n <= 0 {
		return nil
	}
	drawn := append([]*Card(nil), m.st.Deck[:n]...)
	m.st.Deck = m.st.Deck[n:]
	m.st.Hand = append(m.st.Hand, drawn...)
	return drawn
}

// removeFromHand drops cards from the hand and counts them as removed.
func (m *Match) removeFromHand(cards ...*Card) {
	for _, c := range cards {
		before := len(m.st.Hand)
		m.st.Hand = removeCard(m.st.Hand, c)
		if len(m.st.Hand) < before {
			m.st.Removed++
			delete(m.st.Locked, c.ID)
		}
	}
}

// addToHand brings a newly created card into the level.
func (m *Match) addToHand(c *Card) {
	m.st.Hand = append(m.st.Hand, c)
	m.st.TotalCards++
}

func (m *Match) newCard(rank Rank, suit Suit) *Card {
	c := m.cards.newCard(rank, suit)
	m.st.NextCardID = m.cards.nextID
	return c
}

func (m *Match) randomCard() *Card {
	c := m.cards.randomCard(m.rng)
	m.st.NextCardID = m.cards.nextID
	return c
}

// selectCards resolves hand indices. Duplicate or out-of-range indices are a
// bounds violation.
func (m *Match) selectCards(indices []int) ([]*Card, error) {
	seen := make(map[int]bool, len(indices))
	cards := make([]*Card, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(m.st.Hand) {
			return nil, reject(CodeBoundsViolation, "card index %d out of range", i)
		}
		if seen[i] {
			return nil, reject(CodeBoundsViolation, "card index %d selected twice", i)
		}
		seen[i] = true
		cards = append(cards, m.st.Hand[i])
	}
	return cards, nil
}

func (m *Match) addLevelScore(n int) {
	m.st.LevelScore += n
	if m.st.LevelScore < 0 {
		m.st.LevelScore = 0
	}
}

func (m *Match) startTimer(now Clock) {
	if m.st.TimeLimit <= 0 {
		m.timer = nil
		return
	}
	m.timer = NewTurnTimer(time.Duration(m.st.TimeLimit)*time.Second, now)
	m.timer.Start()
}

func (m *Match) stopTimer() {
	if m.timer != nil {
		m.timer.Stop()
	}
}
