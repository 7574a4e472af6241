// Immoflow Feed Engine - Personalized Property Feed Ranking
// Copyright 2026 Immoflow
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/immoflow/feedengine

package feed

import (
	"sort"
)

// priceBracketTolerance: two listings share a price bracket when their
// prices are within 10% of the larger one.
const priceBracketTolerance = 0.10

// Diversify re-orders scored candidates with a greedy Maximal Marginal
// Relevance pass, selecting up to k items. Pure combined-score ordering
// clusters near-duplicate listings (same neighborhood, same price bracket)
// at the top of the feed; MMR trades a little relevance for variety.
//
// Each step picks the remaining candidate maximizing
//
//	(1 - factor) * combined/100 - factor * maxSimilarityToSelected
//
// where similarity gains 0.5 for equal location and 0.5 for a shared price
// bracket. factor = 0 reduces exactly to descending combined-score order
// (ties broken by ascending property ID); factor = 1 prioritizes variety
// over relevance entirely.
//
// Reference: Carbonell & Goldstein, "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries", SIGIR 1998.
func Diversify(items []ScoredCandidate, factor float64, k int) []ScoredCandidate {
	if k <= 0 || k > len(items) {
		k = len(items)
	}
	if len(items) == 0 {
		return items
	}
	factor = clamp(factor, 0, 1)

	// Base order: combined score descending, property ID ascending on ties.
	base := make([]ScoredCandidate, len(items))
	copy(base, items)
	sort.Slice(base, func(i, j int) bool {
		if base[i].Combined != base[j].Combined {
			return base[i].Combined > base[j].Combined
		}
		return base[i].Property.ID < base[j].Property.ID
	})

	if factor == 0 {
		return base[:k]
	}

	selected := make([]ScoredCandidate, 0, k)
	remaining := base

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := adjustedScore(&remaining[0], selected, factor)
		for i := 1; i < len(remaining); i++ {
			score := adjustedScore(&remaining[i], selected, factor)
			// Strict greater-than keeps the earlier (lower-ID) candidate on
			// ties, since remaining preserves the base order.
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func adjustedScore(c *ScoredCandidate, selected []ScoredCandidate, factor float64) float64 {
	var maxSim float64
	for i := range selected {
		if sim := similarity(&c.Property, &selected[i].Property); sim > maxSim {
			maxSim = sim
		}
	}
	return (1-factor)*(c.Combined/100) - factor*maxSim
}

// similarity is 0.5 for equal location plus 0.5 for prices within the same
// 10% bracket.
func similarity(a, b *Property) float64 {
	var sim float64
	if a.Location != "" && normalizeLocation(a.Location) == normalizeLocation(b.Location) {
		sim += 0.5
	}
	if samePriceBracket(a.Price, b.Price) {
		sim += 0.5
	}
	return sim
}

func samePriceBracket(a, b float64) bool {
	if a <= 0 || b <= 0 {
		return a == b
	}
	larger := a
	if b > larger {
		larger = b
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= priceBracketTolerance*larger
}
