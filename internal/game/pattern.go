package game

import "sort"

// Pattern is the classification of a set of cards.
type Pattern struct {
	Kind      PatternKind `json:"kind"`
	Cards     []*Card     `json:"cards"`
	BaseScore int         `json:"base_score"`
}

// Valid reports whether the cards formed a legal pattern.
func (p Pattern) Valid() bool {
	return p.Kind != PatternInvalid
}

// BaseScores is the score table before modifiers.
var BaseScores = map[PatternKind]int{
	PatternSingle:              10,
	PatternPair:                20,
	PatternTriple:              40,
	PatternTripleSingle:        60,
	PatternTriplePair:          80,
	PatternStraight:            100,
	PatternDoubleStraight:      120,
	PatternAirplane:            160,
	PatternAirplaneSingleWings: 200,
	PatternAirplanePairWings:   200,
	PatternFourPair:            180,
	PatternBomb:                200,
	PatternRocket:              300,
}

// Classify determines the pattern formed by cards. It never fails: cards that
// form nothing yield a Pattern whose Kind is PatternInvalid. The input slice is
// not modified.
//
// Four-with-two-pairs is never produced; six and eight card groups built
// around a quad fall through to the airplane check and are rejected there.
func Classify(cards []*Card) Pattern {
	n := len(cards)
	if n == 0 {
		return Pattern{Kind: PatternInvalid}
	}
	sorted := append([]*Card(nil), cards...)
	SortCards(sorted)

	kind := classifySorted(sorted)
	return Pattern{Kind: kind, Cards: sorted, BaseScore: BaseScores[kind]}
}

func classifySorted(sorted []*Card) PatternKind {
	n := len(sorted)
	if n == 2 && sorted[0].Rank == RankSmallJoker && sorted[1].Rank == RankBigJoker {
		return PatternRocket
	}

	groups := groupByRank(sorted)
	counts := make([]int, len(groups))
	for i, g := range groups {
		counts[i] = g.count
	}
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	if n == 4 && counts[0] == 4 {
		return PatternBomb
	}

	switch {
	case n == 1:
		return PatternSingle
	case n == 2 && counts[0] == 2:
		return PatternPair
	case n == 3 && counts[0] == 3:
		return PatternTriple
	case n == 4 && counts[0] == 3:
		return PatternTripleSingle
	case n == 5 && counts[0] == 3 && counts[1] == 2:
		return PatternTriplePair
	}

	if n == 5 && len(groups) == 5 && isRun(groups) {
		return PatternStraight
	}

	if n == 6 && len(groups) == 3 && allCount(groups, 2) && isRun(groups) {
		return PatternDoubleStraight
	}

	return classifyAirplane(groups, n)
}

type rankGroup struct {
	rank  Rank
	count int
	cards []*Card
}

// groupByRank collapses sorted cards into ascending rank groups.
func groupByRank(sorted []*Card) []rankGroup {
	var groups []rankGroup
	for _, c := range sorted {
		if len(groups) > 0 && groups[len(groups)-1].rank == c.Rank {
			groups[len(groups)-1].count++
			groups[len(groups)-1].cards = append(groups[len(groups)-1].cards, c)
			continue
		}
		groups = append(groups, rankGroup{rank: c.Rank, count: 1, cards: []*Card{c}})
	}
	return groups
}

// isRun reports whether the groups are consecutive ranks with no 2 or joker.
func isRun(groups []rankGroup) bool {
	for i, g := range groups {
		if g.rank.IsHigh() {
			return false
		}
		if i > 0 && g.rank != groups[i-1].rank+1 {
			return false
		}
	}
	return true
}

func allCount(groups []rankGroup, want int) bool {
	for _, g := range groups {
		if g.count != want {
			return false
		}
	}
	return true
}

// classifyAirplane checks for two or more consecutive triples plus optional
// wings. Any rank held three or more times counts toward the body.
func classifyAirplane(groups []rankGroup, n int) PatternKind {
	var body []rankGroup
	for _, g := range groups {
		if g.count >= 3 {
			body = append(body, rankGroup{rank: g.rank, count: 3})
		}
	}
	if len(body) < 2 || !isRun(body) {
		return PatternInvalid
	}
	triples := len(body)
	switch n - 3*triples {
	case 0:
		return PatternAirplane
	case triples:
		return PatternAirplaneSingleWings
	case 2 * triples:
		return PatternAirplanePairWings
	default:
		return PatternInvalid
	}
}
