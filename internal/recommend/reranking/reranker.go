// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package reranking

import "context"

// maxRerankSize bounds slice allocations; k is also bounded by len(items).
const maxRerankSize = 10000

// Candidate is a scored place as seen by the rerankers.
type Candidate struct {
	// ID is the place id.
	ID string

	// Score is the blended relevance score.
	Score float64

	// PrimaryTags is the normalized (province, theme) pair.
	PrimaryTags []string

	// Tags holds all normalized tags of the place.
	Tags []string
}

// Reranker reorders an already ranked list.
type Reranker interface {
	// Name returns the reranker identifier used in logs and metadata.
	Name() string

	// Rerank returns at most k candidates. k <= 0 returns the input unchanged.
	Rerank(ctx context.Context, items []Candidate, k int) []Candidate
}

// clampK bounds k by the input length and maxRerankSize.
func clampK(k, n int) int {
	if k > n {
		k = n
	}
	if k > maxRerankSize {
		k = maxRerankSize
	}
	return k
}

// overlap counts the tags a and b share. Both are short, so a nested scan
// beats building sets.
func overlap(a, b []string) int {
	n := 0
	for _, x := range a {
		for _, y := range b {
			if x == y {
				n++
				break
			}
		}
	}
	return n
}
