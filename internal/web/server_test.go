package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/peterkuimelis/ddzrogue/internal/game"
	"github.com/peterkuimelis/ddzrogue/internal/session"
	"github.com/peterkuimelis/ddzrogue/internal/store"
	"github.com/peterkuimelis/ddzrogue/internal/view"
)

func newTestServer(t *testing.T, saves *store.Manager) *httptest.Server {
	t.Helper()
	srv := NewServer(Options{
		Session: session.Options{Saves: saves, Engine: game.Config{Seed: 5}},
		Tick:    20 * time.Millisecond,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg *view.ClientMessage) view.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if msg != nil {
		if err := wsjson.Write(ctx, conn, msg); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	var reply view.ServerMessage
	if err := wsjson.Read(ctx, conn, &reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestAPIEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		path  string
		check func(t *testing.T, body []byte)
	}{
		{"/api/levels", func(t *testing.T, body []byte) {
			var levels []view.LevelBrief
			if err := json.Unmarshal(body, &levels); err != nil {
				t.Fatal(err)
			}
			if len(levels) != game.DefaultLevels().MaxLevel() || levels[0].Cards != 13 {
				t.Errorf("levels %+v", levels)
			}
		}},
		{"/api/items", func(t *testing.T, body []byte) {
			var items []view.ItemBrief
			if err := json.Unmarshal(body, &items); err != nil {
				t.Fatal(err)
			}
			if len(items) != len(game.ItemRegistry) {
				t.Errorf("got %d items, want %d", len(items), len(game.ItemRegistry))
			}
		}},
		{"/api/traits", func(t *testing.T, body []byte) {
			var traits []game.TraitInfo
			if err := json.Unmarshal(body, &traits); err != nil {
				t.Fatal(err)
			}
			if len(traits) != len(game.Traits) || traits[0].Name == "" {
				t.Errorf("traits %+v", traits)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status %d", resp.StatusCode)
			}
			var raw json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
				t.Fatal(err)
			}
			tt.check(t, raw)
		})
	}
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("index: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path: %d", resp.StatusCode)
	}
}

func TestWebSocketSession(t *testing.T) {
	saves := store.NewManager(store.NewMemoryKV())
	ts := newTestServer(t, saves)
	conn := dial(t, ts, "?slot=web")

	hello := roundTrip(t, conn, nil)
	if hello.Type != "state" || hello.State != nil || len(hello.Levels) == 0 {
		t.Fatalf("hello: %+v", hello)
	}

	reply := roundTrip(t, conn, &view.ClientMessage{Type: view.CmdNewRun})
	if reply.Type != "result" || len(reply.State.Hand) != 13 {
		t.Fatalf("new_run: %+v", reply)
	}
	runID := reply.State.RunID

	reply = roundTrip(t, conn, &view.ClientMessage{Type: view.CmdChooseTrait, Index: 7})
	if reply.Type != "error" || reply.Error.Code != "bounds_violation" {
		t.Errorf("bad trait index: %+v", reply.Error)
	}

	conn.Close(websocket.StatusNormalClosure, "")

	again := dial(t, ts, "?slot=web")
	hello = roundTrip(t, again, nil)
	if hello.State == nil || hello.State.RunID != runID {
		t.Errorf("reconnect did not resume run %s: %+v", runID, hello.State)
	}
}

func TestWebSocketRejectsBadSlot(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := dial(t, ts, "?slot=../etc")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var msg view.ServerMessage
	err := wsjson.Read(ctx, conn, &msg)
	if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Errorf("expected a policy violation close, got %v", err)
	}
}

func TestTimeoutIsPushed(t *testing.T) {
	levels, err := game.ParseLevelTable([]byte(`
base_action_points: 6
round_limit: 3
draw_per_round: 3
discard: {start_points: 2, max_points: 4, income: 2, base_cost: 1, max_select: 5, min_hand: 5}
levels:
  - {level: 1, requirement: 500, multiplier: 1}
rules:
  special_from_level: 1
  special_chance: 1
  time_limit_seconds: 30
`))
	if err != nil {
		t.Fatal(err)
	}
	var (
		now   = time.Unix(100, 0)
		nowCh = make(chan time.Time, 1)
	)
	nowCh <- now
	clock := func() time.Time {
		v := <-nowCh
		nowCh <- v
		return v
	}
	srv := NewServer(Options{
		Session: session.Options{Engine: game.Config{Levels: levels, Seed: 3, Clock: clock}},
		Tick:    10 * time.Millisecond,
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	conn := dial(t, ts, "")
	roundTrip(t, conn, nil)
	reply := roundTrip(t, conn, &view.ClientMessage{Type: view.CmdNewRun})
	if reply.State.TimeRemaining == nil {
		t.Fatal("level is not timed")
	}

	<-nowCh
	nowCh <- now.Add(time.Minute)

	pushed := roundTrip(t, conn, nil)
	if pushed.Type != "timeout" || pushed.State.Round != 2 {
		t.Errorf("pushed %+v", pushed)
	}
}
