package game

import (
	"fmt"
	"math"

	"github.com/peterkuimelis/ddzrogue/internal/log"
)

// PlayResult describes an accepted play.
type PlayResult struct {
	Pattern     Pattern `json:"pattern"`
	Cost        float64 `json:"cost"`
	Refund      float64 `json:"refund,omitempty"`
	ScoreDelta  int     `json:"score_delta"`
	Combo       float64 `json:"combo"`
	TriggersWin bool    `json:"triggers_win,omitempty"`
	UnmetReason string  `json:"unmet_reason,omitempty"`
	Sacrificed  []*Card `json:"sacrificed,omitempty"`
	Rating      Rating  `json:"rating,omitempty"`
	Status      Status  `json:"status"`
}

// DiscardResult describes an accepted discard.
type DiscardResult struct {
	Discarded   []*Card `json:"discarded"`
	Drawn       []*Card `json:"drawn"`
	Cost        int     `json:"cost"`
	TaxCard     *Card   `json:"tax_card,omitempty"`
	TaxPenalty  int     `json:"tax_penalty,omitempty"`
	ScoreGained int     `json:"score_gained,omitempty"`
	CoinsGained int     `json:"coins_gained,omitempty"`
}

// EndRoundResult describes the transition into the next round.
type EndRoundResult struct {
	Round          int     `json:"round"`
	Drawn          []*Card `json:"drawn,omitempty"`
	TimedOut       bool    `json:"timed_out,omitempty"`
	TimeoutPenalty int     `json:"timeout_penalty,omitempty"`
	Penalty        float64 `json:"penalty,omitempty"`
	Locked         *Card   `json:"locked,omitempty"`
	Status         Status  `json:"status"`
	Rating         Rating  `json:"rating,omitempty"`
}

// --- Play ---

// Play plays the hand cards at indices. A rejected play returns an
// *ActionError and changes nothing.
func (m *Match) Play(indices []int) (PlayResult, error) {
	p, cost, err := m.validatePlay(indices)
	if err != nil {
		return PlayResult{}, err
	}

	st := &m.st
	st.ActionPoints -= cost
	st.LastActionCost = cost

	var refund float64
	switch p.Kind {
	case PatternBomb:
		refund = 1
	case PatternRocket:
		refund = 3
	}
	st.ActionPoints += refund

	switch p.Kind {
	case PatternSingle:
		st.SinglesThisRound++
	case PatternPair:
		st.PairsThisRound++
	}
	st.UsedKinds[p.Kind] = true
	st.PlaysThisRound++

	useDouble := st.Effects.Consume(EffectScoreDouble)
	score := m.scorePlay(p, st.PlaysThisRound == 1, useDouble)
	comboUsed := st.Combo
	if st.Effects.Active(EffectChainReaction) {
		comboUsed += 0.2
	}
	m.run.addScore(score)
	m.addLevelScore(score)
	m.run.CardsPlayed += len(p.Cards)
	m.removeFromHand(p.Cards...)

	if st.PlaysThisRound >= 2 {
		step := 0.3
		if st.Effects.Active(EffectChainReaction) {
			step = 0.5
		}
		st.Combo = math.Min(m.comboCap(), st.Combo+step)
	}

	boss := m.bossRule()
	if st.Boss != nil {
		boss.onPlay(st.Boss, m, p)
	}

	m.log(log.NewPlayEvent(st.Level, st.Round, p.Kind.String(), CardsString(p.Cards), cost, score, comboUsed))

	res := PlayResult{
		Pattern:    p,
		Cost:       cost,
		Refund:     refund,
		ScoreDelta: score,
		Combo:      comboUsed,
	}

	if len(st.Hand) == 0 {
		m.settleEmptyHand(&res)
		if st.Status == StatusWon {
			res.Status = st.Status
			return res, nil
		}
	} else {
		if st.Rules.Negative == NegativeCostIncrease {
			st.PatternPlays[p.Kind]++
		}
		st.LastKind = p.Kind
	}
	st.PatternStreak[p.Kind]++

	if st.Boss != nil {
		res.Sacrificed = boss.afterPlay(st.Boss, m)
		if len(res.Sacrificed) > 0 && len(st.Hand) == 0 {
			m.settleEmptyHand(&res)
		}
	}

	if m.timer != nil && st.Status == StatusPlaying {
		m.timer.Start()
	}
	res.Status = st.Status
	return res, nil
}

// validatePlay runs every legality check without mutating the match.
func (m *Match) validatePlay(indices []int) (Pattern, float64, error) {
	st := &m.st
	if st.GameOver() {
		return Pattern{}, 0, reject(CodeRuleForbidden, "game over")
	}
	if st.Round > st.RoundCeiling() {
		return Pattern{}, 0, reject(CodeRuleForbidden, "no rounds left")
	}
	if len(indices) == 0 {
		return Pattern{}, 0, reject(CodeIllegalPattern, "no cards selected")
	}
	cards, err := m.selectCards(indices)
	if err != nil {
		return Pattern{}, 0, err
	}
	for _, c := range cards {
		if st.IsLocked(c) {
			return Pattern{}, 0, reject(CodeRuleForbidden, "%s is locked", c)
		}
	}
	p := Classify(cards)
	if !p.Valid() {
		return Pattern{}, 0, reject(CodeIllegalPattern, "%s is not a valid pattern", CardsString(cards))
	}
	if err := m.checkPatternRules(p.Kind); err != nil {
		return Pattern{}, 0, err
	}
	cost := m.PatternCost(p.Kind)
	if st.ActionPoints < cost {
		return Pattern{}, 0, reject(CodeInsufficientResource, "%s costs %.1f action points, have %.1f", p.Kind, cost, st.ActionPoints)
	}
	return p, cost, nil
}

// checkPatternRules applies the seal, lock-out, monotone, trait and boss
// gates to a pattern kind.
func (m *Match) checkPatternRules(kind PatternKind) error {
	st := &m.st
	if st.Sealed[kind] {
		return reject(CodeRuleForbidden, "%s is sealed", kind)
	}
	if st.PlayLocked {
		return reject(CodeRuleForbidden, "plays are locked this round")
	}
	if st.Rules.Negative == NegativeMonotone && st.LastKind == kind {
		return reject(CodeRuleForbidden, "%s cannot be played twice in a row", kind)
	}
	if m.run.HasTrait(TraitPrecisionStrike) && kind == PatternStraight {
		return reject(CodeRuleForbidden, "precision strike forbids straights")
	}
	if st.Boss != nil {
		return m.bossRule().allowPlay(st.Boss, kind)
	}
	return nil
}

// settleEmptyHand evaluates the win condition once the hand is empty and
// records either the win or the unmet reason.
func (m *Match) settleEmptyHand(res *PlayResult) {
	if m.CheckWinCondition() {
		m.markWon()
		res.TriggersWin = true
		res.Rating = m.st.Rating
		return
	}
	res.UnmetReason = m.winFailure()
	m.st.UnmetReason = res.UnmetReason
}

// --- Win / lose ---

// CheckWinCondition reports whether the level is won in the current state.
func (m *Match) CheckWinCondition() bool {
	return m.winFailure() == ""
}

// winFailure returns why the level is not won, or "" when it is.
func (m *Match) winFailure() string {
	st := &m.st
	if len(st.Hand) > 0 {
		return "cards remain in hand"
	}
	if st.LevelScore < st.RequiredScore() {
		return "insufficient score"
	}
	if st.MinPatternKinds > 0 && len(st.UsedKinds) < st.MinPatternKinds {
		return fmt.Sprintf("at least %d different patterns must be played", st.MinPatternKinds)
	}
	perfectionist := st.Boss != nil && st.Boss.Kind == BossPerfectionist
	if st.MaxWinRound > 0 && !perfectionist && st.Round > st.MaxWinRound {
		return fmt.Sprintf("the level must be cleared within %d rounds", st.MaxWinRound)
	}
	return ""
}

// CheckLoseCondition reports whether the level is lost in the current state.
func (m *Match) CheckLoseCondition() bool {
	return m.loseReason() != ""
}

// loseReason returns why the level is lost, or "" while it can still be won.
// An empty hand that no draw can refill loses when a level condition other
// than the score is still unmet.
func (m *Match) loseReason() string {
	st := &m.st
	if len(st.Hand) > 0 {
		if st.Round > st.RoundCeiling() {
			return "out of rounds"
		}
		return ""
	}
	if st.LevelScore < st.RequiredScore() {
		return "insufficient score"
	}
	if st.Round > st.RoundCeiling() || len(st.Deck) == 0 {
		return m.winFailure()
	}
	return ""
}

func (m *Match) markWon() {
	st := &m.st
	st.Status = StatusWon
	st.FinishRound = st.Round
	st.Rating = m.ratingFor(st.Round)
	if st.Boss != nil {
		st.BossRewardPending = true
	}
	m.stopTimer()
	m.log(log.NewWinEvent(st.Level, st.Round, st.LevelScore, string(st.Rating)))
}

func (m *Match) markLost(reason string) {
	st := &m.st
	st.Status = StatusLost
	m.stopTimer()
	m.log(log.NewLoseEvent(st.Level, st.Round, reason))
}

// ratingFor grades a clear by the round it happened in.
func (m *Match) ratingFor(round int) Rating {
	if m.st.Boss != nil && m.st.Boss.Kind == BossPerfectionist {
		switch round {
		case 1:
			return RatingS
		case 2:
			return RatingA
		default:
			return RatingB
		}
	}
	switch {
	case round <= 2:
		return RatingS
	case round == 3:
		return RatingA
	default:
		return RatingB
	}
}

// evaluateOutcome applies the ordered lose/win checks after a round ends.
func (m *Match) evaluateOutcome() {
	st := &m.st
	if st.GameOver() {
		return
	}
	if reason := m.loseReason(); reason != "" {
		m.markLost(reason)
		return
	}
	if len(st.Hand) == 0 && m.CheckWinCondition() {
		m.markWon()
	}
}

// --- Discard ---

// Discard throws away the hand cards at indices and draws replacements.
func (m *Match) Discard(indices []int) (DiscardResult, error) {
	st := &m.st
	if st.GameOver() {
		return DiscardResult{}, reject(CodeRuleForbidden, "game over")
	}
	if st.Boss != nil {
		if err := m.bossRule().allowDiscard(st.Boss); err != nil {
			return DiscardResult{}, err
		}
	}
	if len(st.Hand) <= st.Economy.MinHand {
		return DiscardResult{}, reject(CodeBoundsViolation, "discarding needs more than %d cards in hand", st.Economy.MinHand)
	}
	if len(indices) == 0 || len(indices) > st.Economy.MaxSelect {
		return DiscardResult{}, reject(CodeBoundsViolation, "select 1 to %d cards to discard", st.Economy.MaxSelect)
	}
	selected, err := m.selectCards(indices)
	if err != nil {
		return DiscardResult{}, err
	}
	cost := m.CurrentDiscardCost()
	if st.DiscardPoints < cost {
		return DiscardResult{}, reject(CodeInsufficientResource, "discarding costs %d discard points, have %d", cost, st.DiscardPoints)
	}
	drawCount := len(selected) + st.Effects.Amount(EffectDiscardDraw) + m.run.DiscardDrawBonus()
	if m.run.HasTrait(TraitResourceRecycling) {
		drawCount--
	}
	drawCount = max(0, drawCount)
	if len(st.Deck) < drawCount {
		return DiscardResult{}, reject(CodeResourceExhausted, "deck has %d cards, discard needs %d", len(st.Deck), drawCount)
	}

	st.DiscardPoints -= cost
	st.FirstDiscardUsed = true

	res := DiscardResult{Discarded: selected, Cost: cost}
	if st.Rules.Negative == NegativeRankTax {
		m.payRankTax(selected, &res)
	}
	m.removeFromHand(selected...)
	res.Drawn = m.draw(drawCount)

	if per := m.run.DiscardScorePerCard(); per > 0 {
		res.ScoreGained = per * len(selected)
		m.run.addScore(res.ScoreGained)
	}
	if m.run.HasTrait(TraitResourceRecycling) {
		res.CoinsGained = 2 * len(selected)
		m.run.Coins += res.CoinsGained
	}

	st.Effects.Remove(EffectDiscardDraw)
	st.DiscardsThisRound++
	st.DiscardCost = st.Economy.BaseCost + st.DiscardsThisRound

	m.log(log.NewDiscardEvent(st.Level, st.Round, CardsString(selected), cost, len(res.Drawn)))
	if len(res.Drawn) > 0 {
		m.log(log.NewDrawEvent(st.Level, st.Round, CardsString(res.Drawn), len(res.Drawn)))
	}
	return res, nil
}

// payRankTax removes one unselected hand card sharing a selected rank, or
// charges 20 score when none exists.
func (m *Match) payRankTax(selected []*Card, res *DiscardResult) {
	st := &m.st
	chosen := make(map[int]bool, len(selected))
	ranks := make(map[Rank]bool, len(selected))
	for _, c := range selected {
		chosen[c.ID] = true
		ranks[c.Rank] = true
	}
	for _, c := range st.Hand {
		if !chosen[c.ID] && ranks[c.Rank] {
			res.TaxCard = c
			m.removeFromHand(c)
			m.log(log.NewRankTaxEvent(st.Level, st.Round, c.String(), 0))
			return
		}
	}
	res.TaxPenalty = 20
	m.run.addScore(-20)
	m.addLevelScore(-20)
	m.log(log.NewRankTaxEvent(st.Level, st.Round, "", 20))
}

// --- End round ---

// EndRound closes the current round and opens the next one.
func (m *Match) EndRound() (EndRoundResult, error) {
	if m.st.GameOver() {
		return EndRoundResult{}, reject(CodeRuleForbidden, "game over")
	}
	return m.endRound(), nil
}

func (m *Match) endRound() EndRoundResult {
	st := &m.st
	var res EndRoundResult

	restBonus := 0.0
	if m.run.HasTrait(TraitRestAndWait) && st.DiscardsThisRound == 0 {
		restBonus = 1
	}
	if m.run.HasTrait(TraitComboMaster) && st.Combo > 1 {
		st.ActionPenalty++
		m.log(log.NewPenaltyEvent(st.Level, st.Round, "combo master", 1))
	}
	if m.run.HasTrait(TraitAggressiveAssault) && len(st.Hand) > 15 {
		m.run.addScore(-20)
		m.addLevelScore(-20)
		m.log(log.NewPenaltyEvent(st.Level, st.Round, "aggressive assault", 20))
	}

	if st.Combo > 1 {
		m.log(log.NewComboBreakEvent(st.Level, st.Round, st.Combo))
	}
	st.Round++
	st.Combo = 1
	st.PlaysThisRound = 0

	if st.Effects.Active(EffectDesperateStake) && st.ActionPoints > 0 {
		st.ActionPenalty += st.ActionPoints
		m.log(log.NewPenaltyEvent(st.Level, st.Round, "desperate stake", st.ActionPoints))
	}
	if st.Boss != nil {
		if p := m.bossRule().roundPenalty(st.Boss, m); p > 0 {
			st.ActionPenalty += p
			m.log(log.NewPenaltyEvent(st.Level, st.Round, "hand pressure", p))
		}
	}

	res.Penalty = st.ActionPenalty
	if st.ActionPenalty > 0 {
		st.ActionPoints = math.Max(1, st.MaxActionPoints-st.ActionPenalty)
	} else {
		st.ActionPoints = st.MaxActionPoints
	}
	st.ActionPenalty = 0
	st.ActionPoints += restBonus

	riskyVictory := st.Effects.Active(EffectRiskyVictory)
	st.Effects.ExpireRound()
	st.SinglesThisRound = 0
	st.PairsThisRound = 0
	st.DiscardsThisRound = 0

	income := st.Economy.Income
	if riskyVictory && len(st.Hand) <= 5 {
		income += 2
	}
	st.DiscardPoints = min(st.DiscardPoints+income, st.MaxDiscardPoints)

	if m.run.HasPermanent("piggy_gold") {
		m.run.addScore(20)
		m.addLevelScore(20)
	}
	if st.Boss != nil {
		m.bossRule().roundStart(st.Boss, m)
	}
	st.DiscardCost = st.Economy.BaseCost

	if st.Rules.Negative == NegativeErosion && len(st.Hand) > 15 {
		res.Locked = m.erode()
	}

	clear(st.PatternPlays)
	clear(st.PatternStreak)
	st.LastKind = PatternInvalid

	if st.PlayLocked {
		st.LockRounds--
		if st.LockRounds <= 0 {
			st.PlayLocked = false
			st.LockRounds = 0
		}
	}

	if st.Round <= st.RoundCeiling() {
		res.Drawn = m.draw(st.DrawPerRound)
		if len(res.Drawn) > 0 {
			m.log(log.NewDrawEvent(st.Level, st.Round, CardsString(res.Drawn), len(res.Drawn)))
		}
	}
	m.log(log.NewRoundEndEvent(st.Level, st.Round, st.ActionPoints, st.DiscardPoints))

	m.evaluateOutcome()
	if m.timer != nil && st.Status == StatusPlaying {
		m.timer.Start()
	}
	res.Round = st.Round
	res.Status = st.Status
	res.Rating = st.Rating
	return res
}

// erode locks one random unlocked hand card.
func (m *Match) erode() *Card {
	st := &m.st
	var free []*Card
	for _, c := range st.Hand {
		if !st.Locked[c.ID] {
			free = append(free, c)
		}
	}
	if len(free) == 0 {
		return nil
	}
	c := free[m.rng.Intn(len(free))]
	st.Locked[c.ID] = true
	m.log(log.NewLockEvent(st.Level, st.Round, c.String()))
	return c
}

// --- Timer ---

// CheckTimeout reports whether the time limit has run out.
func (m *Match) CheckTimeout() bool {
	return !m.st.GameOver() && m.timer != nil && m.timer.Expired()
}

// HandleTimeout charges 5 score per card in hand and forces the round to end.
func (m *Match) HandleTimeout() (EndRoundResult, error) {
	st := &m.st
	if st.GameOver() {
		return EndRoundResult{}, reject(CodeRuleForbidden, "game over")
	}
	penalty := 5 * len(st.Hand)
	m.run.addScore(-penalty)
	m.log(log.NewTimeoutEvent(st.Level, st.Round, penalty))
	res := m.endRound()
	res.TimedOut = true
	res.TimeoutPenalty = penalty
	return res, nil
}

// PauseTimer pauses the turn timer, e.g. while a shop is open.
func (m *Match) PauseTimer() {
	if m.timer != nil {
		m.timer.Pause()
	}
}

func (m *Match) ResumeTimer() {
	if m.timer != nil {
		m.timer.Resume()
	}
}

// --- Gamble ---

// DeclareGamble stakes the level's rating reward. Only allowed before the
// first play of round 1.
func (m *Match) DeclareGamble() error {
	st := &m.st
	if st.GameOver() {
		return reject(CodeRuleForbidden, "game over")
	}
	if st.Gamble {
		return reject(CodeRuleForbidden, "gamble already declared")
	}
	if st.Round != 1 || st.PlaysThisRound > 0 {
		return reject(CodeRuleForbidden, "gamble must be declared before the first play")
	}
	st.Gamble = true
	return nil
}

// RatingMultiplier is the run score multiplier applied when a level is cleared.
func RatingMultiplier(r Rating, gamble bool) float64 {
	if gamble {
		if r == RatingS {
			return 2.0
		}
		return 0.5
	}
	switch r {
	case RatingS:
		return 1.2
	case RatingA:
		return 1.0
	default:
		return 0.5
	}
}

func (m *Match) bossRule() bossRule {
	if m.st.Boss == nil {
		return noBoss{}
	}
	return bossRuleFor(m.st.Boss.Kind)
}
