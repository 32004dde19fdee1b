package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/peterkuimelis/ddzrogue/internal/game"
	"github.com/peterkuimelis/ddzrogue/internal/log"
	"github.com/peterkuimelis/ddzrogue/internal/session"
	"github.com/peterkuimelis/ddzrogue/internal/store"
	"github.com/peterkuimelis/ddzrogue/internal/view"
)

//go:embed static
var staticFiles embed.FS

// Options configure the web server.
type Options struct {
	// Session is the template for the session of every websocket. The
	// "slot" query parameter overrides its slot.
	Session session.Options
	// Tick is how often timed levels are checked for an expired turn.
	Tick time.Duration
}

// Server is the ddz web UI server.
type Server struct {
	opts   Options
	levels *game.LevelTable
	mux    *http.ServeMux
}

// NewServer creates a new web server.
func NewServer(opts Options) *Server {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	levels := opts.Session.Engine.Levels
	if levels == nil {
		levels = game.DefaultLevels()
	}
	s := &Server{
		opts:   opts,
		levels: levels,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) setupRoutes() {
	staticFS, _ := fs.Sub(staticFiles, "static")

	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		io.Copy(w, f.(io.Reader))
	})
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.mux.HandleFunc("GET /api/levels", s.handleLevels)
	s.mux.HandleFunc("GET /api/items", s.handleItems)
	s.mux.HandleFunc("GET /api/traits", s.handleTraits)

	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("encode response: %v", err)
	}
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, view.LevelBriefs(s.levels))
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, view.ItemCatalog())
}

func (s *Server) handleTraits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, game.Traits)
}

// handleWebSocket runs one game session per connection. The browser sends
// ClientMessages and gets a ServerMessage back for each; expired turns are
// pushed as "timeout" messages.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		log.Warn("websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	opts := s.opts.Session
	if slot := r.URL.Query().Get("slot"); slot != "" {
		if err := store.ValidSlot(slot); err != nil {
			conn.Close(websocket.StatusPolicyViolation, "invalid slot")
			return
		}
		opts.Slot = slot
	}
	sess := session.New(opts)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if _, err := sess.Resume(ctx); err != nil {
		log.Warn("session %s: resume slot %s: %v", sess.ID(), sess.Slot(), err)
	}
	log.Info("session %s connected on slot %s", sess.ID(), sess.Slot())
	hello := sess.Handle(ctx, view.ClientMessage{Type: view.CmdState})
	hello.Levels = view.LevelBriefs(s.levels)
	if err := wsjson.Write(ctx, conn, hello); err != nil {
		return
	}

	go s.tick(ctx, conn, sess)

	for {
		var msg view.ClientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			if websocket.CloseStatus(err) == -1 && !errors.Is(err, context.Canceled) {
				log.Debug("session %s: read: %v", sess.ID(), err)
			}
			break
		}
		reply := sess.Handle(ctx, msg)
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			log.Debug("session %s: write: %v", sess.ID(), err)
			break
		}
	}
	log.Info("session %s disconnected", sess.ID())
	conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *Server) tick(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	t := time.NewTicker(s.opts.Tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			reply, fired := sess.Tick(ctx)
			if !fired {
				continue
			}
			if err := wsjson.Write(ctx, conn, reply); err != nil {
				return
			}
		}
	}
}

// ListenAndServe starts the HTTP server and stops it when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
