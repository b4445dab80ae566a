// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package reranking

import (
	"context"
	"math"

	"github.com/tomtom215/wayfarer/internal/recommend/algorithms"
)

// MMR implements Maximal Marginal Relevance reranking.
// It balances relevance and diversity by iteratively selecting places
// that are both relevant and dissimilar to already selected places.
//
// The MMR formula is:
//
//	MMR = argmax[lambda * score(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// Where:
//   - lambda: balance parameter (1.0 = pure relevance, 0.0 = pure diversity)
//   - score(i): blended relevance score for place i
//   - sim(i, s): Jaccard similarity of the normalized tag sets of i and s
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	lambda float64
}

// NewMMR creates a new MMR reranker. lambda is clamped to [0, 1].
func NewMMR(lambda float64) *MMR {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMR{lambda: lambda}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Enabled reports whether the pass changes anything beyond truncation.
func (m *MMR) Enabled() bool {
	return m.lambda < 1
}

// Rerank applies MMR reranking to diversify the list.
//
//nolint:gocritic // rangeValCopy: Candidate passed by value in range, acceptable for clarity
func (m *MMR) Rerank(ctx context.Context, items []Candidate, k int) []Candidate {
	if len(items) == 0 || k <= 0 {
		return items
	}
	k = clampK(k, len(items))

	if !m.Enabled() {
		result := make([]Candidate, k)
		copy(result, items[:k])
		return result
	}

	n := len(items)
	sim := make([][]float64, n)
	for i := range items {
		sim[i] = make([]float64, n)
		for j := range items {
			if i == j {
				sim[i][j] = 1
				continue
			}
			if j < i {
				sim[i][j] = sim[j][i]
				continue
			}
			sim[i][j] = algorithms.JaccardSimilarity(items[i].Tags, items[j].Tags)
		}
	}

	result := make([]Candidate, 0, k)
	selected := make([]bool, n)
	maxSim := make([]float64, n)

	for len(result) < k {
		if ctx.Err() != nil {
			return result
		}

		bestIdx := -1
		bestMMR := math.Inf(-1)
		for i := range items {
			if selected[i] {
				continue
			}
			score := m.lambda*items[i].Score - (1-m.lambda)*maxSim[i]
			if score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}

		selected[bestIdx] = true
		result = append(result, items[bestIdx])
		for i := range items {
			if !selected[i] && sim[i][bestIdx] > maxSim[i] {
				maxSim[i] = sim[i][bestIdx]
			}
		}
	}
	return result
}

var _ Reranker = (*MMR)(nil)
