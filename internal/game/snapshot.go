package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is the persisted form of an engine: the run aggregate, the rolled
// rules and the level in progress.
type Snapshot struct {
	Version int         `json:"version"`
	Run     *Run        `json:"run"`
	Rules   LevelRules  `json:"rules"`
	Match   *MatchState `json:"match,omitempty"`
	SavedAt time.Time   `json:"saved_at"`
}

// Snapshot captures the engine state. The timer is not saved; a restored
// timed level starts a fresh turn.
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Version: SnapshotVersion,
		Run:     e.run.clone(),
		Rules:   e.rules,
		SavedAt: e.clock(),
	}
	if e.match != nil {
		st := e.match.State()
		s.Match = &st
	}
	return s
}

// Marshal encodes the snapshot as JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes a JSON snapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}

// RestoreEngine rebuilds an engine from a snapshot.
func RestoreEngine(cfg Config, s Snapshot) (*Engine, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	if s.Run == nil {
		return nil, errors.New("snapshot has no run")
	}
	e := NewEngine(cfg, s.Run.clone())
	e.rules = s.Rules
	if s.Match == nil {
		return e, nil
	}
	st := s.Match.Clone()
	st.ensureDefaults()
	if !st.CardsAccounted() {
		return nil, fmt.Errorf("snapshot cards do not add up: hand %d + deck %d + removed %d != %d",
			len(st.Hand), len(st.Deck), st.Removed, st.TotalCards)
	}
	m := &Match{st: st, run: e.run, rng: e.rng, logger: e.logger}
	m.cards.nextID = st.NextCardID
	if st.Status == StatusPlaying {
		m.startTimer(e.clock)
	}
	e.match = m
	return e, nil
}
