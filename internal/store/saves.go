package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/peterkuimelis/ddzrogue/internal/game"
)

const (
	keySave     = "save"
	keyCoins    = "coins"
	keyUpgrades = "upgrades"
	keyTalents  = "talents"
	keyStats    = "stats"
)

// Stats are lifetime statistics of a slot.
type Stats struct {
	Games        int `json:"games"`
	Wins         int `json:"wins"`
	HighestLevel int `json:"highest_level"`
	CardsPlayed  int `json:"cards_played"`
	TotalScore   int `json:"total_score"`
}

// Profile is what a slot keeps between runs: coins and what they bought.
type Profile struct {
	Coins    int           `json:"coins"`
	Upgrades []game.Rank   `json:"upgrades,omitempty"`
	Talents  []game.Talent `json:"talents,omitempty"`
}

// SlotInfo summarises a slot for listings.
type SlotInfo struct {
	Slot    string    `json:"slot"`
	HasSave bool      `json:"has_save"`
	Level   int       `json:"level,omitempty"`
	Score   int       `json:"score,omitempty"`
	SavedAt time.Time `json:"saved_at,omitempty"`
	Coins   int       `json:"coins"`
}

// Manager reads and writes save slots on top of a KV.
type Manager struct {
	kv KV
}

func NewManager(kv KV) *Manager {
	return &Manager{kv: kv}
}

func (m *Manager) Close() error {
	return m.kv.Close()
}

func key(slot, name string) string {
	return slot + "/" + name
}

// ValidSlot rejects slot names that would collide with the key layout.
func ValidSlot(slot string) error {
	if slot == "" || strings.ContainsAny(slot, "/ ") {
		return fmt.Errorf("invalid slot name %q", slot)
	}
	return nil
}

func (m *Manager) getJSON(ctx context.Context, k string, v any) (bool, error) {
	data, ok, err := m.kv.Get(ctx, k)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", k, err)
	}
	return true, nil
}

func (m *Manager) setJSON(ctx context.Context, k string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", k, err)
	}
	return m.kv.Set(ctx, k, data)
}

// --- Run saves ---

// SaveRun writes the snapshot to the slot's save key.
func (m *Manager) SaveRun(ctx context.Context, slot string, s game.Snapshot) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return m.kv.Set(ctx, key(slot, keySave), data)
}

// LoadRun reads the slot's snapshot. ok is false when the slot has no save.
func (m *Manager) LoadRun(ctx context.Context, slot string) (s game.Snapshot, ok bool, err error) {
	data, ok, err := m.kv.Get(ctx, key(slot, keySave))
	if err != nil || !ok {
		return game.Snapshot{}, false, err
	}
	s, err = game.UnmarshalSnapshot(data)
	if err != nil {
		return game.Snapshot{}, false, err
	}
	return s, true, nil
}

func (m *Manager) DeleteRun(ctx context.Context, slot string) error {
	return m.kv.Delete(ctx, key(slot, keySave))
}

// DeleteSlot removes every key of slot.
func (m *Manager) DeleteSlot(ctx context.Context, slot string) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	keys, err := m.kv.Keys(ctx, slot+"/")
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := m.kv.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// --- Profile ---

// LoadProfile reads coins, upgrades and talents. Missing keys read as zero.
func (m *Manager) LoadProfile(ctx context.Context, slot string) (Profile, error) {
	var p Profile
	data, ok, err := m.kv.Get(ctx, key(slot, keyCoins))
	if err != nil {
		return p, err
	}
	if ok {
		if p.Coins, err = strconv.Atoi(string(data)); err != nil {
			return p, fmt.Errorf("decode %s: %w", key(slot, keyCoins), err)
		}
	}
	if _, err := m.getJSON(ctx, key(slot, keyUpgrades), &p.Upgrades); err != nil {
		return p, err
	}
	if _, err := m.getJSON(ctx, key(slot, keyTalents), &p.Talents); err != nil {
		return p, err
	}
	return p, nil
}

func (m *Manager) SaveProfile(ctx context.Context, slot string, p Profile) error {
	if err := ValidSlot(slot); err != nil {
		return err
	}
	if err := m.kv.Set(ctx, key(slot, keyCoins), []byte(strconv.Itoa(p.Coins))); err != nil {
		return err
	}
	if err := m.setJSON(ctx, key(slot, keyUpgrades), p.Upgrades); err != nil {
		return err
	}
	return m.setJSON(ctx, key(slot, keyTalents), p.Talents)
}

// ProfileOf extracts the persistent part of a run.
func ProfileOf(r *game.Run) Profile {
	return Profile{
		Coins:    r.Coins,
		Upgrades: slices.Clone(r.Upgrades),
		Talents:  slices.Clone(r.Talents),
	}
}

// --- Statistics ---

func (m *Manager) LoadStats(ctx context.Context, slot string) (Stats, error) {
	var st Stats
	_, err := m.getJSON(ctx, key(slot, keyStats), &st)
	return st, err
}

// RecordRun folds a finished run into the slot statistics.
func (m *Manager) RecordRun(ctx context.Context, slot string, r *game.Run, won bool) (Stats, error) {
	st, err := m.LoadStats(ctx, slot)
	if err != nil {
		return st, err
	}
	st.Games++
	if won {
		st.Wins++
	}
	st.HighestLevel = max(st.HighestLevel, r.Level)
	st.CardsPlayed += r.CardsPlayed
	st.TotalScore += r.Score
	return st, m.setJSON(ctx, key(slot, keyStats), st)
}

// --- Listing ---

// Slots lists every slot that has at least one key.
func (m *Manager) Slots(ctx context.Context) ([]SlotInfo, error) {
	keys, err := m.kv.Keys(ctx, "")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, k := range keys {
		slot, _, ok := strings.Cut(k, "/")
		if ok && !slices.Contains(names, slot) {
			names = append(names, slot)
		}
	}
	slices.Sort(names)

	infos := make([]SlotInfo, 0, len(names))
	for _, slot := range names {
		info := SlotInfo{Slot: slot}
		p, err := m.LoadProfile(ctx, slot)
		if err != nil {
			return nil, err
		}
		info.Coins = p.Coins
		s, ok, err := m.LoadRun(ctx, slot)
		if err != nil {
			return nil, err
		}
		if ok && s.Run != nil {
			info.HasSave = true
			info.Level = s.Run.Level
			info.Score = s.Run.Score
			info.SavedAt = s.SavedAt
		}
		infos = append(infos, info)
	}
	return infos, nil
}
