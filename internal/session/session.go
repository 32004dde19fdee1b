// Package session owns one player's run: the engine, its shop, autosave to
// a save slot, and the JSON command dispatch shared by every front-end.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/peterkuimelis/ddzrogue/internal/game"
	"github.com/peterkuimelis/ddzrogue/internal/log"
	"github.com/peterkuimelis/ddzrogue/internal/shop"
	"github.com/peterkuimelis/ddzrogue/internal/store"
	"github.com/peterkuimelis/ddzrogue/internal/view"
)

// eventLog is an event logger that can replay what was logged after a
// sequence number.
type eventLog interface {
	log.EventLogger
	Since(seq int) []log.GameEvent
}

// Options configures a session.
type Options struct {
	Slot   string
	Saves  *store.Manager // nil disables persistence
	Engine game.Config    // Logger is ignored
	// Verbose forwards match events to the application logger.
	Verbose bool
}

// Session is safe for concurrent use; every command runs under one mutex.
type Session struct {
	mu sync.Mutex

	id     string
	slot   string
	saves  *store.Manager
	cfg    game.Config
	events eventLog

	engine   *game.Engine
	shop     *shop.Shop
	lastSeq  int
	recorded bool
	done     bool
}

// New creates a session without a run.
func New(opts Options) *Session {
	var events eventLog = log.NewMemoryLogger()
	if opts.Verbose {
		events = log.NewCharmLogger(nil)
	}
	if opts.Slot == "" {
		opts.Slot = "default"
	}
	cfg := opts.Engine
	cfg.Logger = events
	return &Session{
		id:     uuid.NewString(),
		slot:   opts.Slot,
		saves:  opts.Saves,
		cfg:    cfg,
		events: events,
	}
}

func (s *Session) ID() string   { return s.id }
func (s *Session) Slot() string { return s.slot }

// Engine returns the current engine, nil before the first run.
func (s *Session) Engine() *game.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine
}

func (s *Session) attach(e *game.Engine) {
	s.engine = e
	s.shop = shop.New(e)
	s.recorded = false
	s.done = false
}

// Resume restores the slot's saved run. It reports false when the slot has
// no save.
func (s *Session) Resume(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saves == nil {
		return false, nil
	}
	snap, ok, err := s.saves.LoadRun(ctx, s.slot)
	if err != nil || !ok {
		return false, err
	}
	e, err := game.RestoreEngine(s.cfg, snap)
	if err != nil {
		return false, fmt.Errorf("restore slot %s: %w", s.slot, err)
	}
	s.attach(e)
	if m := e.Match(); m != nil && m.Status() == game.StatusLost {
		s.recorded = true
	}
	log.Info("resumed run %s on slot %s at level %d", e.Run().ID, s.slot, e.Run().Level)
	return true, nil
}

func (s *Session) newRun(ctx context.Context) error {
	var profile store.Profile
	if s.saves != nil {
		p, err := s.saves.LoadProfile(ctx, s.slot)
		if err != nil {
			return err
		}
		profile = p
	}
	run := game.NewRun(uuid.NewString(), profile.Coins, profile.Talents, profile.Upgrades)
	s.attach(game.NewEngine(s.cfg, run))
	s.engine.StartLevel()
	log.Debug("new run %s on slot %s", run.ID, s.slot)
	return nil
}

// --- Command dispatch ---

// Handle runs one client command and returns the reply: the events logged
// since the previous reply, the resulting state, and the command's result
// or error.
func (s *Session) Handle(ctx context.Context, msg view.ClientMessage) view.ServerMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := view.ServerMessage{Type: "result"}
	res, err := s.dispatch(ctx, msg, &reply)
	switch {
	case err != nil:
		reply.Type = "error"
		reply.Error = view.BuildErrorView(err)
	case res != nil:
		reply.Result = res
	default:
		reply.Type = "state"
	}
	if s.engine != nil {
		s.afterCommand(ctx)
		reply.State = view.BuildStateView(s.engine)
	}
	reply.Events = view.EventViews(s.drain())
	return reply
}

// Tick applies an expired turn timer. It reports false when no timeout
// fired, so callers polling on a ticker only forward real timeouts.
func (s *Session) Tick(ctx context.Context) (view.ServerMessage, bool) {
	s.mu.Lock()
	fired := false
	if s.engine != nil && !s.shop.IsOpen() {
		m := s.engine.Match()
		fired = m != nil && m.CheckTimeout()
	}
	s.mu.Unlock()
	if !fired {
		return view.ServerMessage{}, false
	}
	reply := s.Handle(ctx, view.ClientMessage{Type: view.CmdCheckTimer})
	return reply, reply.Type == "timeout"
}

func (s *Session) drain() []log.GameEvent {
	events := s.events.Since(s.lastSeq)
	if n := len(events); n > 0 {
		s.lastSeq = events[n-1].Seq
	}
	return events
}

var errNoRun = &game.ActionError{Code: game.CodeRuleForbidden, Reason: "no run in progress, start one with new_run"}

func (s *Session) dispatch(ctx context.Context, msg view.ClientMessage, reply *view.ServerMessage) (*view.ResultView, error) {
	if msg.Type == view.CmdNewRun {
		if err := s.newRun(ctx); err != nil {
			return nil, err
		}
		return &view.ResultView{Action: msg.Type, Message: "new run started"}, nil
	}
	if msg.Type == view.CmdState {
		return nil, nil
	}
	e := s.engine
	if e == nil {
		return nil, errNoRun
	}
	result := func(data any, err error) (*view.ResultView, error) {
		if err != nil {
			return nil, err
		}
		return &view.ResultView{Action: msg.Type, Data: data}, nil
	}

	switch msg.Type {
	case view.CmdChooseTrait:
		if err := e.ChooseTrait(msg.Index); err != nil {
			return nil, err
		}
		return &view.ResultView{Action: msg.Type, Message: "trait " + string(e.Run().Trait)}, nil
	case view.CmdBuyTalent:
		return result(nil, e.Run().BuyTalent(game.Talent(msg.Item)))
	case view.CmdBuyUpgrade:
		rank, err := game.ParseRank(msg.Item)
		if err != nil {
			return nil, err
		}
		return result(nil, e.Run().BuyUpgrade(rank))
	case view.CmdNextLevel:
		if s.done {
			return nil, game.ErrRunComplete
		}
		s.shop.Close()
		_, err := e.NextLevel()
		if errors.Is(err, game.ErrRunComplete) {
			return s.finishRun(ctx)
		}
		return result(nil, err)
	case view.CmdRetry:
		if m := e.Match(); m == nil || m.Status() != game.StatusLost {
			return nil, &game.ActionError{Code: game.CodeRuleForbidden, Reason: "only a lost level can be retried"}
		}
		s.shop.Close()
		e.RetryLevel()
		s.recorded = false
		return &view.ResultView{Action: msg.Type, Message: fmt.Sprintf("level %d dealt again", e.Run().Level)}, nil
	}

	m := e.Match()
	if m == nil {
		return nil, errNoRun
	}
	switch msg.Type {
	case view.CmdShop:
		v, err := s.shop.Open()
		if err == nil {
			reply.Shop = v
		}
		return result(nil, err)
	case view.CmdCloseShop:
		s.shop.Close()
		return &view.ResultView{Action: msg.Type, Message: "shop closed"}, nil
	case view.CmdBuy:
		out, err := s.shop.Buy(msg.Item)
		if s.shop.IsOpen() {
			reply.Shop = s.shop.Visit()
		}
		return result(out, err)
	case view.CmdRefresh:
		v, err := s.shop.Refresh()
		if err == nil {
			reply.Shop = v
		}
		return result(nil, err)
	case view.CmdUseItem:
		return result(e.UseItem(msg.Item, msg.Indices))
	}

	if s.shop.IsOpen() && msg.Type != view.CmdCheckTimer {
		return nil, &game.ActionError{Code: game.CodeRuleForbidden, Reason: "close the shop first"}
	}
	switch msg.Type {
	case view.CmdPlay:
		return result(m.Play(msg.Indices))
	case view.CmdDiscard:
		return result(m.Discard(msg.Indices))
	case view.CmdEndRound:
		return result(m.EndRound())
	case view.CmdGamble:
		return result(nil, m.DeclareGamble())
	case view.CmdCheckTimer:
		if s.shop.IsOpen() || !m.CheckTimeout() {
			return nil, nil
		}
		reply.Type = "timeout"
		return result(m.HandleTimeout())
	default:
		return nil, fmt.Errorf("unknown command %q", msg.Type)
	}
}

// afterCommand settles won levels, records lost ones and autosaves.
func (s *Session) afterCommand(ctx context.Context) {
	e := s.engine
	if m := e.Match(); m != nil {
		switch m.Status() {
		case game.StatusWon:
			s.shop.Close()
			if _, err := e.Settle(); err != nil {
				log.Warn("settle level %d: %v", m.Level(), err)
			}
		case game.StatusLost:
			s.shop.Close()
			if !s.recorded {
				s.recorded = true
				s.record(ctx, false)
			}
		}
	}
	s.save(ctx)
}

// finishRun records a cleared run. The slot keeps its profile but loses
// the run save.
func (s *Session) finishRun(ctx context.Context) (*view.ResultView, error) {
	s.recorded = true
	s.done = true
	st := s.record(ctx, true)
	return &view.ResultView{
		Action:  view.CmdNextLevel,
		Message: "run complete",
		Data:    st,
	}, nil
}

func (s *Session) record(ctx context.Context, won bool) store.Stats {
	if s.saves == nil {
		return store.Stats{}
	}
	st, err := s.saves.RecordRun(ctx, s.slot, s.engine.Run(), won)
	if err != nil {
		log.Warn("record stats for slot %s: %v", s.slot, err)
	}
	return st
}

func (s *Session) save(ctx context.Context) {
	if s.saves == nil {
		return
	}
	if s.done {
		if err := s.saves.DeleteRun(ctx, s.slot); err != nil {
			log.Warn("delete finished run on slot %s: %v", s.slot, err)
		}
	} else if err := s.saves.SaveRun(ctx, s.slot, s.engine.Snapshot()); err != nil {
		log.Warn("autosave slot %s: %v", s.slot, err)
	}
	if err := s.saves.SaveProfile(ctx, s.slot, store.ProfileOf(s.engine.Run())); err != nil {
		log.Warn("save profile for slot %s: %v", s.slot, err)
	}
}
