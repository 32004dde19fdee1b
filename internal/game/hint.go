package game

import "sort"

// Hint is a suggested play.
type Hint struct {
	Kind    PatternKind `json:"kind"`
	Cards   []*Card     `json:"cards"`
	Indices []int       `json:"indices"`
	Score   int         `json:"score"`
	Cost    float64     `json:"cost"`
	Value   float64     `json:"value"`
}

// FindHints returns up to n legal plays ranked by score*1.5 plus ten times
// the score per action point. Locked cards and forbidden kinds are skipped;
// affordability is not required.
func (m *Match) FindHints(n int) []Hint {
	var free []*Card
	for _, c := range m.st.Hand {
		if !m.st.IsLocked(c) {
			free = append(free, c)
		}
	}
	sorted := append([]*Card(nil), free...)
	SortCards(sorted)
	groups := groupByRank(sorted)

	var hints []Hint
	seen := make(map[string]bool)
	consider := func(cards []*Card) {
		p := Classify(cards)
		if !p.Valid() || m.checkPatternRules(p.Kind) != nil {
			return
		}
		key := CardsString(p.Cards)
		if seen[key] {
			return
		}
		seen[key] = true
		h := Hint{Kind: p.Kind, Cards: p.Cards, Score: m.PreviewScore(p), Cost: m.PatternCost(p.Kind)}
		h.Value = float64(h.Score) * 1.5
		if h.Cost > 0 {
			h.Value += float64(h.Score) / h.Cost * 10
		}
		h.Indices = m.handIndices(p.Cards)
		hints = append(hints, h)
	}

	var small, big *Card
	for _, c := range sorted {
		switch c.Rank {
		case RankSmallJoker:
			small = c
		case RankBigJoker:
			big = c
		}
	}
	if small != nil && big != nil {
		consider([]*Card{small, big})
	}

	for i, g := range groups {
		if g.count >= 4 {
			consider(g.cards[:4])
		}
		if g.count >= 3 {
			consider(g.cards[:3])
			if kicker := lowestOther(groups, i, 1); kicker != nil {
				consider(append(append([]*Card(nil), g.cards[:3]...), kicker...))
			}
			if kicker := lowestOther(groups, i, 2); kicker != nil {
				consider(append(append([]*Card(nil), g.cards[:3]...), kicker...))
			}
		}
		if g.count >= 2 {
			consider(g.cards[:2])
		}
	}

	// runs: airplane bodies of any length, straights of exactly five and
	// double straights of exactly three pairs
	for i := range groups {
		if groups[i].rank.IsHigh() {
			break
		}
		var plane, straight, pairs []*Card
		triples, singles, doubles := 0, 0, 0
		for j := i; j < len(groups); j++ {
			g := groups[j]
			if g.rank.IsHigh() || (j > i && g.rank != groups[j-1].rank+1) {
				break
			}
			if singles < 5 {
				straight = append(straight, g.cards[0])
				singles++
				if singles == 5 {
					consider(straight)
				}
			}
			if doubles >= 0 && doubles < 3 {
				if g.count >= 2 {
					pairs = append(pairs, g.cards[:2]...)
					doubles++
					if doubles == 3 {
						consider(pairs)
					}
				} else {
					doubles = -1
				}
			}
			if triples >= 0 {
				if g.count >= 3 {
					plane = append(plane, g.cards[:3]...)
					triples++
					if triples >= 2 {
						consider(append([]*Card(nil), plane...))
					}
				} else {
					triples = -1
				}
			}
		}
	}

	sort.SliceStable(hints, func(a, b int) bool {
		return hints[a].Value > hints[b].Value
	})
	if len(hints) > n {
		hints = hints[:n]
	}
	return hints
}

// lowestOther returns size cards of the lowest rank other than groups[skip]
// holding at least size cards.
func lowestOther(groups []rankGroup, skip, size int) []*Card {
	for i, g := range groups {
		if i != skip && g.count >= size {
			return g.cards[:size]
		}
	}
	return nil
}

func (m *Match) handIndices(cards []*Card) []int {
	pos := make(map[int]int, len(m.st.Hand))
	for i, c := range m.st.Hand {
		pos[c.ID] = i
	}
	out := make([]int, 0, len(cards))
	for _, c := range cards {
		out = append(out, pos[c.ID])
	}
	return out
}
