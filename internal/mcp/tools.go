package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/ddzrogue/internal/view"
)

// RegisterTools adds all game tools to the MCP server.
func RegisterTools(s *server.MCPServer) {
	s.AddTool(newRunTool(), handleNewRun)
	s.AddTool(getStateTool(), simple(view.CmdState))
	s.AddTool(chooseTraitTool(), handleChooseTrait)
	s.AddTool(playCardsTool(), withIndices(view.CmdPlay))
	s.AddTool(discardCardsTool(), withIndices(view.CmdDiscard))
	s.AddTool(endRoundTool(), simple(view.CmdEndRound))
	s.AddTool(gambleTool(), simple(view.CmdGamble))
	s.AddTool(useItemTool(), handleUseItem)
	s.AddTool(shopTool(), simple(view.CmdShop))
	s.AddTool(closeShopTool(), simple(view.CmdCloseShop))
	s.AddTool(buyItemTool(), withItem(view.CmdBuy))
	s.AddTool(refreshShopTool(), simple(view.CmdRefresh))
	s.AddTool(nextLevelTool(), simple(view.CmdNextLevel))
	s.AddTool(retryLevelTool(), simple(view.CmdRetry))
	s.AddTool(checkTimerTool(), simple(view.CmdCheckTimer))
	s.AddTool(buyTalentTool(), withItem(view.CmdBuyTalent))
	s.AddTool(buyUpgradeTool(), withItem(view.CmdBuyUpgrade))
}

// --- Tool definitions ---

func newRunTool() mcp.Tool {
	return mcp.NewTool("new_run",
		mcp.WithDescription("Start a new run on level 1, or resume the saved run of the configured slot. "+
			"Every response carries the events since the previous call and the full state: hand cards with "+
			"their indices, action points (AP), discard points (DP), the cost of every pattern, round and score."),
		mcp.WithBoolean("resume", mcp.Description("Resume the saved run instead of starting over (default true)")),
	)
}

func getStateTool() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription("Get the current state and the events since the previous call without acting. Read-only."),
	)
}

func chooseTraitTool() mcp.Tool {
	return mcp.NewTool("choose_trait",
		mcp.WithDescription("Pick one of the three trait offers of the level (state.trait_offers). One trait per level."),
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into trait_offers")),
	)
}

func playCardsTool() mcp.Tool {
	return mcp.NewTool("play_cards",
		mcp.WithDescription("Play hand cards as one pattern (single, pair, triple, straight, bomb, ...). "+
			"Costs the pattern's AP; the score is the pattern base score times the level multiplier and combo."),
		mcp.WithString("indices", mcp.Required(), mcp.Description("Space-separated 0-based hand indices (e.g. '0 2 3')")),
	)
}

func discardCardsTool() mcp.Tool {
	return mcp.NewTool("discard_cards",
		mcp.WithDescription("Discard 1-5 hand cards for DP and draw as many replacements. Needs more than 5 cards in hand."),
		mcp.WithString("indices", mcp.Required(), mcp.Description("Space-separated 0-based hand indices")),
	)
}

func endRoundTool() mcp.Tool {
	return mcp.NewTool("end_round",
		mcp.WithDescription("End the round: refill AP, gain DP, draw cards and apply round-end penalties."),
	)
}

func gambleTool() mcp.Tool {
	return mcp.NewTool("declare_gamble",
		mcp.WithDescription("Stake the level's rating bonus: an S rating pays x2.0, anything else x0.5. Only before the first play of round 1."),
	)
}

func useItemTool() mcp.Tool {
	return mcp.NewTool("use_item",
		mcp.WithDescription("Use an item from the inventory (state.inventory). Some items act on selected hand cards."),
		mcp.WithString("item", mcp.Required(), mcp.Description("Item ID, e.g. 'compass'")),
		mcp.WithString("indices", mcp.Description("Space-separated 0-based hand indices, when the item needs cards")),
	)
}

func shopTool() mcp.Tool {
	return mcp.NewTool("shop",
		mcp.WithDescription("Open the item shop. The turn timer pauses while it is open and plays are blocked until close_shop. "+
			"Shows four offers with prices in score, plus a legendary slot from level 7. One purchase per visit."),
	)
}

func closeShopTool() mcp.Tool {
	return mcp.NewTool("close_shop",
		mcp.WithDescription("Close the shop and resume the turn timer."),
	)
}

func buyItemTool() mcp.Tool {
	return mcp.NewTool("buy_item",
		mcp.WithDescription("Buy an offer of the open shop with run score."),
		mcp.WithString("item", mcp.Required(), mcp.Description("Item ID of the offer")),
	)
}

func refreshShopTool() mcp.Tool {
	return mcp.NewTool("refresh_shop",
		mcp.WithDescription("Re-roll the shop offers. Refreshes cost 0, 100, 200, then 250 score each within a level."),
	)
}

func nextLevelTool() mcp.Tool {
	return mcp.NewTool("next_level",
		mcp.WithDescription("Advance past a cleared level: collect the level reward and deal the next level."),
	)
}

func retryLevelTool() mcp.Tool {
	return mcp.NewTool("retry_level",
		mcp.WithDescription("Deal a lost level again under the same rules."),
	)
}

func checkTimerTool() mcp.Tool {
	return mcp.NewTool("check_timer",
		mcp.WithDescription("On timed levels, apply the timeout if the turn timer ran out (score penalty and forced round end)."),
	)
}

func buyTalentTool() mcp.Tool {
	return mcp.NewTool("buy_talent",
		mcp.WithDescription("Spend coins on a permanent talent: emergency_reserve (300), secondhand_prep (400), long_term_coop (500)."),
		mcp.WithString("item", mcp.Required(), mcp.Description("Talent ID")),
	)
}

func buyUpgradeTool() mcp.Tool {
	return mcp.NewTool("buy_upgrade",
		mcp.WithDescription("Spend coins so that cards of a rank are sometimes dealt upgraded (+20 score when played)."),
		mcp.WithString("item", mcp.Required(), mcp.Description("Rank: 3-10, J, Q, K, A, 2, SJ or BJ")),
	)
}

// --- Tool handlers ---

func handleNewRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := current(ctx, true)
	if err != nil {
		return mcp.NewToolResultErrorf("Failed to start: %v", err), nil
	}
	if request.GetBool("resume", true) && sess.Engine() != nil {
		return run(ctx, view.ClientMessage{Type: view.CmdState}), nil
	}
	return run(ctx, view.ClientMessage{Type: view.CmdNewRun}), nil
}

func handleChooseTrait(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index := request.GetInt("index", -1)
	if index < 0 {
		return mcp.NewToolResultError("index must be >= 0"), nil
	}
	return run(ctx, view.ClientMessage{Type: view.CmdChooseTrait, Index: index}), nil
}

func handleUseItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	item := request.GetString("item", "")
	if item == "" {
		return mcp.NewToolResultError("item is required"), nil
	}
	indices, err := parseIndices(request.GetString("indices", ""))
	if err != nil {
		return mcp.NewToolResultErrorf("Invalid indices: %v", err), nil
	}
	return run(ctx, view.ClientMessage{Type: view.CmdUseItem, Item: item, Indices: indices}), nil
}

type handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// simple forwards a command without arguments.
func simple(cmd string) handler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return run(ctx, view.ClientMessage{Type: cmd}), nil
	}
}

func withIndices(cmd string) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		indices, err := parseIndices(request.GetString("indices", ""))
		if err != nil {
			return mcp.NewToolResultErrorf("Invalid indices: %v", err), nil
		}
		return run(ctx, view.ClientMessage{Type: cmd, Indices: indices}), nil
	}
}

func withItem(cmd string) handler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		item := request.GetString("item", "")
		if item == "" {
			return mcp.NewToolResultError("item is required"), nil
		}
		return run(ctx, view.ClientMessage{Type: cmd, Item: item}), nil
	}
}
