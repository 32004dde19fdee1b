package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/peterkuimelis/ddzrogue/internal/session"
	"github.com/peterkuimelis/ddzrogue/internal/view"
)

var (
	mu sync.Mutex
	// activeSession is the singleton game session (one per stdio process).
	activeSession *session.Session
	// options configure the session created by new_run, set by main.
	options session.Options
)

// SetOptions sets the options of the session created by the first new_run.
func SetOptions(opts session.Options) {
	mu.Lock()
	defer mu.Unlock()
	options = opts
}

// reset drops the active session. Tests use it between cases.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	activeSession = nil
}

// current returns the active session. With create set, a missing session is
// created and the slot's saved run restored into it.
func current(ctx context.Context, create bool) (*session.Session, error) {
	mu.Lock()
	defer mu.Unlock()
	if activeSession != nil || !create {
		return activeSession, nil
	}
	sess := session.New(options)
	if _, err := sess.Resume(ctx); err != nil {
		return nil, err
	}
	activeSession = sess
	return sess, nil
}

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	Events  []view.EventView `json:"events"`
	State   *view.StateView  `json:"state,omitempty"`
	Result  *view.ResultView `json:"result,omitempty"`
	Shop    any              `json:"shop,omitempty"`
	Error   *view.ErrorView  `json:"error,omitempty"`
	Timeout bool             `json:"timeout,omitempty"`
}

func toolResponse(reply view.ServerMessage) *ToolResponse {
	resp := &ToolResponse{
		Events:  reply.Events,
		State:   reply.State,
		Result:  reply.Result,
		Shop:    reply.Shop,
		Error:   reply.Error,
		Timeout: reply.Type == "timeout",
	}
	// Ensure events is never null in JSON
	if resp.Events == nil {
		resp.Events = []view.EventView{}
	}
	return resp
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}

// run sends msg to the active session. Rejected commands come back as tool
// errors carrying the full response so the agent still sees the state.
func run(ctx context.Context, msg view.ClientMessage) *mcp.CallToolResult {
	sess, err := current(ctx, false)
	if err != nil {
		return mcp.NewToolResultErrorf("Session error: %v", err)
	}
	if sess == nil {
		return mcp.NewToolResultError("No game is running. Use new_run first.")
	}
	reply := sess.Handle(ctx, msg)
	text := respondJSON(toolResponse(reply))
	if reply.Type == "error" {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

// parseIndices parses space separated 0-based indices.
func parseIndices(s string) ([]int, error) {
	var indices []int
	for _, p := range strings.Fields(s) {
		idx, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid index '%s': must be an integer", p)
		}
		if idx < 0 {
			return nil, fmt.Errorf("index %d is negative", idx)
		}
		indices = append(indices, idx)
	}
	return indices, nil
}
