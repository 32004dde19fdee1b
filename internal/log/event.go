package log

// EventType enumerates all observable match events.
type EventType int

const (
	EventLevelStart EventType = iota
	EventDeal
	EventDraw
	EventPlay
	EventDiscard
	EventRankTax
	EventSacrifice
	EventRoundEnd
	EventComboBreak
	EventPenalty
	EventUnlock
	EventChaosSwap
	EventLock
	EventTimeout
	EventItemUsed
	EventPurchase
	EventTraitChosen
	EventBossReward
	EventWin
	EventLose
)

func (e EventType) String() string {
	switch e {
	case EventLevelStart:
		return "LevelStart"
	case EventDeal:
		return "Deal"
	case EventDraw:
		return "Draw"
	case EventPlay:
		return "Play"
	case EventDiscard:
		return "Discard"
	case EventRankTax:
		return "RankTax"
	case EventSacrifice:
		return "Sacrifice"
	case EventRoundEnd:
		return "RoundEnd"
	case EventComboBreak:
		return "ComboBreak"
	case EventPenalty:
		return "Penalty"
	case EventUnlock:
		return "Unlock"
	case EventChaosSwap:
		return "ChaosSwap"
	case EventLock:
		return "Lock"
	case EventTimeout:
		return "Timeout"
	case EventItemUsed:
		return "ItemUsed"
	case EventPurchase:
		return "Purchase"
	case EventTraitChosen:
		return "TraitChosen"
	case EventBossReward:
		return "BossReward"
	case EventWin:
		return "Win"
	case EventLose:
		return "Lose"
	default:
		return "Unknown"
	}
}

// GameEvent represents a single observable event in a match.
type GameEvent struct {
	Seq     int       // monotonic sequence number
	Level   int       // level being played (1-based)
	Round   int       // round within the level (1-based)
	Type    EventType // event type
	Cards   string    // cards involved, space separated (if applicable)
	Details string    // human-readable detail string
}
