// Package view turns engine state into the JSON documents shared by every
// front-end, and defines the message envelope used over the websocket.
package view

// Message types for the JSON protocol.

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"` // "state", "result", "error", "timeout"

	Events []EventView  `json:"events,omitempty"`
	State  *StateView   `json:"state,omitempty"`
	Result *ResultView  `json:"result,omitempty"`
	Error  *ErrorView   `json:"error,omitempty"`
	Shop   any          `json:"shop,omitempty"`
	Levels []LevelBrief `json:"levels,omitempty"`
}

// ErrorView is a rejected command.
type ErrorView struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// EventView is a match event for the client.
type EventView struct {
	Seq     int    `json:"seq"`
	Level   int    `json:"level"`
	Round   int    `json:"round"`
	Type    string `json:"type"`
	Cards   string `json:"cards,omitempty"`
	Details string `json:"details"`
}

// CardView is one hand card.
type CardView struct {
	Index    int    `json:"index"`
	ID       int    `json:"id"`
	Code     string `json:"code"`
	Label    string `json:"label"`
	Rank     string `json:"rank"`
	Suit     string `json:"suit"`
	Upgraded bool   `json:"upgraded,omitempty"`
	Locked   bool   `json:"locked,omitempty"`
}

// TraitView is a trait offer.
type TraitView struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ResultView wraps the outcome of an accepted command. Data holds the
// engine's result struct for the action.
type ResultView struct {
	Action  string `json:"action"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// LevelBrief is one row of the level table.
type LevelBrief struct {
	Level       int     `json:"level"`
	Requirement int     `json:"requirement"`
	Multiplier  float64 `json:"multiplier"`
	ActionBonus int     `json:"action_bonus"`
	Cards       int     `json:"cards"`
	Boss        bool    `json:"boss,omitempty"`
}

// --- Client → Server messages ---

// Command names accepted by a session.
const (
	CmdNewRun      = "new_run"
	CmdState       = "state"
	CmdChooseTrait = "choose_trait"
	CmdPlay        = "play"
	CmdDiscard     = "discard"
	CmdEndRound    = "end_round"
	CmdGamble      = "gamble"
	CmdUseItem     = "use_item"
	CmdShop        = "shop"
	CmdCloseShop   = "close_shop"
	CmdBuy         = "buy"
	CmdRefresh     = "refresh"
	CmdNextLevel   = "next_level"
	CmdRetry       = "retry"
	CmdCheckTimer  = "check_timer"
	CmdBuyTalent   = "buy_talent"
	CmdBuyUpgrade  = "buy_upgrade"
)

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "choose_trait"
	Index int `json:"index,omitempty"`

	// For "play", "discard" and "use_item"
	Indices []int `json:"indices,omitempty"`

	// For "use_item" and "buy"; the talent ID or rank for the coin shop
	Item string `json:"item,omitempty"`
}
