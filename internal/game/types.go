package game

import "fmt"

// --- Enums ---

// Rank is a card rank. Its numeric value is the comparison value used by
// pattern detection: 3..10, J=11, Q=12, K=13, A=14, 2=15, jokers 16 and 17.
type Rank int

const (
	Rank3 Rank = iota + 3
	Rank4
	Rank5
	Rank6
	Rank7
	Rank8
	Rank9
	Rank10
	RankJ
	RankQ
	RankK
	RankA
	Rank2
	RankSmallJoker
	RankBigJoker
)

// StandardRanks lists the thirteen suited ranks in ascending order.
var StandardRanks = []Rank{Rank3, Rank4, Rank5, Rank6, Rank7, Rank8, Rank9, Rank10, RankJ, RankQ, RankK, RankA, Rank2}

// AllRanks lists every rank including the jokers.
var AllRanks = append(append([]Rank{}, StandardRanks...), RankSmallJoker, RankBigJoker)

func (r Rank) String() string {
	switch {
	case r >= Rank3 && r <= Rank10:
		return fmt.Sprintf("%d", int(r))
	case r == RankJ:
		return "J"
	case r == RankQ:
		return "Q"
	case r == RankK:
		return "K"
	case r == RankA:
		return "A"
	case r == Rank2:
		return "2"
	case r == RankSmallJoker:
		return "SJ"
	case r == RankBigJoker:
		return "BJ"
	default:
		return "?"
	}
}

// IsJoker reports whether r is one of the two jokers.
func (r Rank) IsJoker() bool {
	return r == RankSmallJoker || r == RankBigJoker
}

// IsHigh reports whether r may not take part in a run (2 and jokers).
func (r Rank) IsHigh() bool {
	return r >= Rank2
}

// ParseRank parses the display form of a rank ("3".."10", "J", "SJ", ...).
func ParseRank(s string) (Rank, error) {
	for _, r := range AllRanks {
		if r.String() == s {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown rank %q", s)
}

func (r Rank) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rank) UnmarshalText(b []byte) error {
	v, err := ParseRank(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

type Suit int

const (
	SuitHearts Suit = iota + 1
	SuitDiamonds
	SuitClubs
	SuitSpades
	SuitJoker
)

// StandardSuits are the four suits dealt for every standard rank.
var StandardSuits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

func (s Suit) String() string {
	switch s {
	case SuitHearts:
		return "hearts"
	case SuitDiamonds:
		return "diamonds"
	case SuitClubs:
		return "clubs"
	case SuitSpades:
		return "spades"
	case SuitJoker:
		return "joker"
	default:
		return "?"
	}
}

// Symbol returns the single glyph used when rendering a card.
func (s Suit) Symbol() string {
	switch s {
	case SuitHearts:
		return "♥"
	case SuitDiamonds:
		return "♦"
	case SuitClubs:
		return "♣"
	case SuitSpades:
		return "♠"
	default:
		return ""
	}
}

// Red reports whether the suit renders red.
func (s Suit) Red() bool {
	return s == SuitHearts || s == SuitDiamonds
}

// PatternKind classifies a legal group of cards.
type PatternKind int

const (
	PatternInvalid PatternKind = iota
	PatternSingle
	PatternPair
	PatternTriple
	PatternTripleSingle
	PatternTriplePair
	PatternStraight
	PatternDoubleStraight
	PatternAirplane
	PatternAirplaneSingleWings
	PatternAirplanePairWings
	PatternFourPair
	PatternBomb
	PatternRocket
)

// PatternKinds lists every playable kind in display order.
var PatternKinds = []PatternKind{
	PatternSingle, PatternPair, PatternTriple, PatternTripleSingle, PatternTriplePair,
	PatternStraight, PatternDoubleStraight, PatternAirplane, PatternAirplaneSingleWings,
	PatternAirplanePairWings, PatternFourPair, PatternBomb, PatternRocket,
}

var patternKeys = map[PatternKind]string{
	PatternInvalid:             "INVALID",
	PatternSingle:              "SINGLE",
	PatternPair:                "PAIR",
	PatternTriple:              "TRIPLE",
	PatternTripleSingle:        "TRIPLE_SINGLE",
	PatternTriplePair:          "TRIPLE_PAIR",
	PatternStraight:            "STRAIGHT",
	PatternDoubleStraight:      "DOUBLE_STRAIGHT",
	PatternAirplane:            "AIRPLANE",
	PatternAirplaneSingleWings: "AIRPLANE_SINGLE_WINGS",
	PatternAirplanePairWings:   "AIRPLANE_PAIR_WINGS",
	PatternFourPair:            "FOUR_PAIR",
	PatternBomb:                "BOMB",
	PatternRocket:              "ROCKET",
}

// Key returns the stable identifier used in config files and saves.
func (k PatternKind) Key() string {
	if s, ok := patternKeys[k]; ok {
		return s
	}
	return "INVALID"
}

func (k PatternKind) String() string {
	switch k {
	case PatternSingle:
		return "Single"
	case PatternPair:
		return "Pair"
	case PatternTriple:
		return "Triple"
	case PatternTripleSingle:
		return "Triple with Single"
	case PatternTriplePair:
		return "Triple with Pair"
	case PatternStraight:
		return "Straight"
	case PatternDoubleStraight:
		return "Double Straight"
	case PatternAirplane:
		return "Airplane"
	case PatternAirplaneSingleWings:
		return "Airplane with Singles"
	case PatternAirplanePairWings:
		return "Airplane with Pairs"
	case PatternFourPair:
		return "Four with Pairs"
	case PatternBomb:
		return "Bomb"
	case PatternRocket:
		return "Rocket"
	default:
		return "Invalid"
	}
}

// ParsePatternKind parses a key such as "DOUBLE_STRAIGHT".
func ParsePatternKind(s string) (PatternKind, error) {
	for k, key := range patternKeys {
		if key == s && k != PatternInvalid {
			return k, nil
		}
	}
	return PatternInvalid, fmt.Errorf("unknown pattern kind %q", s)
}

func (k PatternKind) MarshalText() ([]byte, error) {
	return []byte(k.Key()), nil
}

func (k *PatternKind) UnmarshalText(b []byte) error {
	if string(b) == "INVALID" {
		*k = PatternInvalid
		return nil
	}
	v, err := ParsePatternKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Trait is a per-level modifier picked from three offers.
type Trait string

const (
	TraitBombExpert        Trait = "bomb_expert"
	TraitStraightMaster    Trait = "straight_master"
	TraitComboMaster       Trait = "combo_master"
	TraitRestAndWait       Trait = "rest_and_wait"
	TraitPrecisionStrike   Trait = "precision_strike"
	TraitAggressiveAssault Trait = "aggressive_assault"
	TraitResourceRecycling Trait = "resource_recycling"
	TraitEconomicMind      Trait = "economic_mind"
)

// Talent is a permanent unlock bought with coins.
type Talent string

const (
	TalentEmergencyReserve Talent = "emergency_reserve"
	TalentSecondhandPrep   Talent = "secondhand_prep"
	TalentLongTermCoop     Talent = "long_term_coop"
)

type SpecialRule string

const (
	SpecialNone       SpecialRule = ""
	SpecialTimeLimit  SpecialRule = "time_limit"
	SpecialDoubleCost SpecialRule = "double_cost"
)

type NegativeRule string

const (
	NegativeNone         NegativeRule = ""
	NegativeErosion      NegativeRule = "erosion"
	NegativeCostIncrease NegativeRule = "cost_increase"
	NegativeRankTax      NegativeRule = "rank_tax"
	NegativeMonotone     NegativeRule = "monotone"
)

// NegativeRules is the pool a negative rule is drawn from.
var NegativeRules = []NegativeRule{NegativeErosion, NegativeCostIncrease, NegativeRankTax, NegativeMonotone}

type BossKind string

const (
	BossNone           BossKind = ""
	BossPerfectionist  BossKind = "perfectionist"
	BossOrderGuardian  BossKind = "order_guardian"
	BossChaosMage      BossKind = "chaos_mage"
	BossPressureTester BossKind = "pressure_tester"
	BossSacrificer     BossKind = "sacrificer"
)

// BossKinds is the pool a boss is drawn from on boss levels.
var BossKinds = []BossKind{BossPerfectionist, BossOrderGuardian, BossChaosMage, BossPressureTester, BossSacrificer}

// Status is the terminal state of a match.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

type Rating string

const (
	RatingNone Rating = ""
	RatingS    Rating = "S"
	RatingA    Rating = "A"
	RatingB    Rating = "B"
)
