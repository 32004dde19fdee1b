package log

import (
	"fmt"
	"io"
	"strings"

	charm "github.com/charmbracelet/log"
)

// EventLogger is the interface for logging match events.
type EventLogger interface {
	Log(event GameEvent)
	Events() []GameEvent
}

// --- MemoryLogger: stores events in memory for test assertions ---

type MemoryLogger struct {
	events []GameEvent
	seq    int
}

func NewMemoryLogger() *MemoryLogger {
	return &MemoryLogger{}
}

func (l *MemoryLogger) Log(event GameEvent) {
	l.seq++
	event.Seq = l.seq
	l.events = append(l.events, event)
}

func (l *MemoryLogger) Events() []GameEvent {
	return l.events
}

// EventsOfType returns all events matching the given type.
func (l *MemoryLogger) EventsOfType(t EventType) []GameEvent {
	var result []GameEvent
	for _, e := range l.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

// LastEvent returns the most recent event, or a zero event if none.
func (l *MemoryLogger) LastEvent() GameEvent {
	if len(l.events) == 0 {
		return GameEvent{}
	}
	return l.events[len(l.events)-1]
}

// Since returns the events logged after the given sequence number.
func (l *MemoryLogger) Since(seq int) []GameEvent {
	for i, e := range l.events {
		if e.Seq > seq {
			return l.events[i:]
		}
	}
	return nil
}

// --- TextLogger: writes human-readable lines to an io.Writer ---

type TextLogger struct {
	MemoryLogger
	w io.Writer
}

func NewTextLogger(w io.Writer) *TextLogger {
	return &TextLogger{w: w}
}

func (l *TextLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	fmt.Fprintln(l.w, FormatEvent(event))
}

// --- CharmLogger: forwards events to a structured charm logger ---

type CharmLogger struct {
	MemoryLogger
	out *charm.Logger
}

// NewCharmLogger wraps out. A nil out falls back to the application logger.
func NewCharmLogger(out *charm.Logger) *CharmLogger {
	if out == nil {
		out = appLogger()
	}
	return &CharmLogger{out: out}
}

func (l *CharmLogger) Log(event GameEvent) {
	l.MemoryLogger.Log(event)
	kv := []any{"level", event.Level, "round", event.Round, "type", event.Type.String()}
	if event.Cards != "" {
		kv = append(kv, "cards", event.Cards)
	}
	switch event.Type {
	case EventPenalty, EventTimeout, EventLose:
		l.out.Warn(event.Details, kv...)
	case EventDraw, EventDeal:
		l.out.Debug(event.Details, kv...)
	default:
		l.out.Info(event.Details, kv...)
	}
}

// --- Formatting ---

// FormatEvent formats a single event as a human-readable line.
func FormatEvent(e GameEvent) string {
	kind := e.Type.String()
	for len(kind) < 12 {
		kind += " "
	}
	return fmt.Sprintf("L%-2d R%-2d %s| %s", e.Level, e.Round, kind, e.Details)
}

// FormatAll formats all events as a multi-line string.
func FormatAll(events []GameEvent) string {
	var sb strings.Builder
	for _, e := range events {
		sb.WriteString(FormatEvent(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// --- Helper constructors for common events ---

func NewLevelStartEvent(level int, required int, boss string, rules string) GameEvent {
	details := fmt.Sprintf("=== Level %d (target %d) ===", level, required)
	if boss != "" {
		details += " boss: " + boss
	}
	if rules != "" {
		details += " rules: " + rules
	}
	return GameEvent{
		Level:   level,
		Round:   1,
		Type:    EventLevelStart,
		Details: details,
	}
}

func NewDealEvent(level int, cards string, count int, ap float64, dp int) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   1,
		Type:    EventDeal,
		Cards:   cards,
		Details: fmt.Sprintf("Dealt %d cards (AP %.1f, DP %d)", count, ap, dp),
	}
}

func NewDrawEvent(level, round int, cards string, count int) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventDraw,
		Cards:   cards,
		Details: fmt.Sprintf("Drew %d card(s)", count),
	}
}

func NewPlayEvent(level, round int, pattern string, cards string, cost float64, score int, combo float64) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventPlay,
		Cards:   cards,
		Details: fmt.Sprintf("Played %s for %d (cost %.1f, combo x%.1f)", pattern, score, cost, combo),
	}
}

func NewDiscardEvent(level, round int, cards string, cost int, drawn int) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventDiscard,
		Cards:   cards,
		Details: fmt.Sprintf("Discarded %s (cost %d), drew %d", cards, cost, drawn),
	}
}

func NewRankTaxEvent(level, round int, card string, scoreLoss int) GameEvent {
	if card == "" {
		return GameEvent{
			Level:   level,
			Round:   round,
			Type:    EventRankTax,
			Details: fmt.Sprintf("Rank tax: no matching card, -%d score", scoreLoss),
		}
	}
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventRankTax,
		Cards:   card,
		Details: fmt.Sprintf("Rank tax removes %s", card),
	}
}

func NewSacrificeEvent(level, round int, cards string) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventSacrifice,
		Cards:   cards,
		Details: fmt.Sprintf("Sacrificed %s", cards),
	}
}

func NewRoundEndEvent(level, round int, ap float64, dp int) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventRoundEnd,
		Details: fmt.Sprintf("--- Round %d begins (AP %.1f, DP %d) ---", round, ap, dp),
	}
}

func NewComboBreakEvent(level, round int, combo float64) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventComboBreak,
		Details: fmt.Sprintf("Combo x%.1f lost", combo),
	}
}

func NewPenaltyEvent(level, round int, reason string, amount float64) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventPenalty,
		Details: fmt.Sprintf("Penalty %.1f (%s)", amount, reason),
	}
}

func NewUnlockEvent(level, round int, patterns string) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventUnlock,
		Details: fmt.Sprintf("Unlocked %s", patterns),
	}
}

func NewChaosSwapEvent(level, round int, a, b string) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventChaosSwap,
		Details: fmt.Sprintf("Costs swapped: %s <-> %s", a, b),
	}
}

func NewLockEvent(level, round int, card string) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventLock,
		Cards:   card,
		Details: fmt.Sprintf("%s is locked", card),
	}
}

func NewTimeoutEvent(level, round int, penalty int) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventTimeout,
		Details: fmt.Sprintf("Time is up, -%d score", penalty),
	}
}

func NewItemUsedEvent(level, round int, item string, message string) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventItemUsed,
		Details: fmt.Sprintf("Used %s: %s", item, message),
	}
}

func NewPurchaseEvent(level, round int, item string, price int) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventPurchase,
		Details: fmt.Sprintf("Bought %s for %d", item, price),
	}
}

func NewTraitChosenEvent(level int, trait string) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   1,
		Type:    EventTraitChosen,
		Details: fmt.Sprintf("Trait chosen: %s", trait),
	}
}

func NewBossRewardEvent(level int, boss string, reward string) GameEvent {
	return GameEvent{
		Level:   level,
		Type:    EventBossReward,
		Details: fmt.Sprintf("%s defeated: %s", boss, reward),
	}
}

func NewWinEvent(level, round int, score int, rating string) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventWin,
		Details: fmt.Sprintf("Level %d cleared with %d (rating %s)", level, score, rating),
	}
}

func NewLoseEvent(level, round int, reason string) GameEvent {
	return GameEvent{
		Level:   level,
		Round:   round,
		Type:    EventLose,
		Details: fmt.Sprintf("Level %d failed (%s)", level, reason),
	}
}
