package game

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed levels.yaml
var defaultLevelsYAML []byte

// LevelTable is the top-level YAML structure describing a run's levels.
type LevelTable struct {
	BaseActionPoints int            `yaml:"base_action_points"`
	RoundLimit       int            `yaml:"round_limit"`
	DrawPerRound     int            `yaml:"draw_per_round"`
	Discard          DiscardConfig  `yaml:"discard"`
	Rules            RuleRollConfig `yaml:"rules"`
	Levels           []LevelSpec    `yaml:"levels"`
}

// DiscardConfig holds the discard economy constants.
type DiscardConfig struct {
	StartPoints int `yaml:"start_points" json:"start_points"`
	MaxPoints   int `yaml:"max_points" json:"max_points"`
	Income      int `yaml:"income" json:"income"`
	BaseCost    int `yaml:"base_cost" json:"base_cost"`
	MaxSelect   int `yaml:"max_select" json:"max_select"`
	// MinHand is the hand size a discard must exceed.
	MinHand int `yaml:"min_hand" json:"min_hand"`
}

// Fallbacks for level tables and snapshots that leave the economy unset.
const (
	defaultDrawPerRound     = 3
	defaultDiscardIncome    = 2
	defaultDiscardBaseCost  = 1
	defaultDiscardMaxSelect = 5
	defaultDiscardMinHand   = 5
)

func (c *DiscardConfig) setDefaults() {
	if c.Income <= 0 {
		c.Income = defaultDiscardIncome
	}
	if c.BaseCost <= 0 {
		c.BaseCost = defaultDiscardBaseCost
	}
	if c.MaxSelect <= 0 {
		c.MaxSelect = defaultDiscardMaxSelect
	}
	if c.MinHand <= 0 {
		c.MinHand = defaultDiscardMinHand
	}
}

// RuleRollConfig controls the random special and negative rules.
type RuleRollConfig struct {
	SpecialFromLevel   int           `yaml:"special_from_level"`
	SpecialChance      float64       `yaml:"special_chance"`
	NegativeFromLevel  int           `yaml:"negative_from_level"`
	NegativeChance     float64       `yaml:"negative_chance"`
	TimeLimitSeconds   int           `yaml:"time_limit_seconds"`
	DoubleCostPatterns []PatternKind `yaml:"double_cost_patterns"`
}

// LevelSpec describes one level.
type LevelSpec struct {
	Level           int       `yaml:"level"`
	Requirement     int       `yaml:"requirement"`
	Multiplier      float64   `yaml:"multiplier"`
	ActionBonus     int       `yaml:"action_bonus"`
	MinPatternKinds int       `yaml:"min_pattern_kinds"`
	MaxWinRound     int       `yaml:"max_win_round"`
	ClearCoins      int       `yaml:"clear_coins"`
	Boss            *BossSpec `yaml:"boss"`
}

// BossSpec holds the per-level numbers of the boss rules.
type BossSpec struct {
	PerfectionistFactor float64 `yaml:"perfectionist_factor"`
	PerfectionistRounds int     `yaml:"perfectionist_rounds"`
	OrderGuardianScore  int     `yaml:"order_guardian_score"`
}

// DefaultLevels returns the embedded level table.
func DefaultLevels() *LevelTable {
	t, err := ParseLevelTable(defaultLevelsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded level table: %v", err))
	}
	return t
}

// LoadLevelTable reads a YAML level table from disk.
func LoadLevelTable(path string) (*LevelTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseLevelTable(data)
}

// ParseLevelTable parses and validates a YAML level table.
func ParseLevelTable(data []byte) (*LevelTable, error) {
	var t LevelTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse level YAML: %w", err)
	}
	if len(t.Levels) == 0 {
		return nil, fmt.Errorf("level table has no levels")
	}
	for i, l := range t.Levels {
		if l.Level != i+1 {
			return nil, fmt.Errorf("level table entry %d has level %d, want %d", i, l.Level, i+1)
		}
		if l.Multiplier <= 0 {
			return nil, fmt.Errorf("level %d: multiplier must be positive", l.Level)
		}
	}
	if t.RoundLimit <= 0 {
		return nil, fmt.Errorf("round_limit must be positive")
	}
	if t.DrawPerRound <= 0 {
		t.DrawPerRound = defaultDrawPerRound
	}
	t.Discard.setDefaults()
	return &t, nil
}

// Spec returns the entry for level. Levels past the end reuse the last entry.
func (t *LevelTable) Spec(level int) LevelSpec {
	if level < 1 {
		level = 1
	}
	if level > len(t.Levels) {
		s := t.Levels[len(t.Levels)-1]
		s.Level = level
		return s
	}
	return t.Levels[level-1]
}

// MaxLevel is the final level of a run.
func (t *LevelTable) MaxLevel() int {
	return len(t.Levels)
}

// IsBossLevel reports whether level draws a boss instead of rules.
func (t *LevelTable) IsBossLevel(level int) bool {
	return t.Spec(level).Boss != nil
}

// CardCount is the number of cards dealt at the start of level.
func CardCount(level int) int {
	n := 13 + 2*(level-1)
	if n > DeckSize {
		n = DeckSize
	}
	return n
}

// --- Rule rolls ---

// LevelRules are the rules rolled for one level. They survive a retry.
type LevelRules struct {
	Boss           BossKind     `json:"boss,omitempty"`
	Special        SpecialRule  `json:"special,omitempty"`
	DoubleCostKind PatternKind  `json:"double_cost_kind,omitempty"`
	Negative       NegativeRule `json:"negative,omitempty"`
}

// RollRules draws the boss, special rule and negative rule for level.
// Boss levels never carry special or negative rules, and at most one of
// the two is active otherwise.
func (t *LevelTable) RollRules(level int, rng *rand.Rand) LevelRules {
	var r LevelRules
	if t.IsBossLevel(level) {
		r.Boss = BossKinds[rng.Intn(len(BossKinds))]
		return r
	}
	cfg := t.Rules
	if level >= cfg.SpecialFromLevel && rng.Float64() < cfg.SpecialChance {
		if rng.Float64() < 0.5 || len(cfg.DoubleCostPatterns) == 0 {
			r.Special = SpecialTimeLimit
		} else {
			r.Special = SpecialDoubleCost
			r.DoubleCostKind = cfg.DoubleCostPatterns[rng.Intn(len(cfg.DoubleCostPatterns))]
		}
		return r
	}
	if level >= cfg.NegativeFromLevel && rng.Float64() < cfg.NegativeChance {
		r.Negative = NegativeRules[rng.Intn(len(NegativeRules))]
	}
	return r
}

func (r LevelRules) String() string {
	switch {
	case r.Boss != BossNone:
		return string(r.Boss)
	case r.Special == SpecialDoubleCost:
		return fmt.Sprintf("%s(%s)", r.Special, r.DoubleCostKind.Key())
	case r.Special != SpecialNone:
		return string(r.Special)
	default:
		return string(r.Negative)
	}
}
