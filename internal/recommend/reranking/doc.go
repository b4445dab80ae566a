// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package reranking implements post-processing passes over a ranked
// candidate list.
//
// Rerankers run after the hybrid blend has produced a score-ordered list:
//
//	Signals -> Blend -> Ordered candidates -> Rerankers -> Final top-k
//	                                          (diversity, MMR)
//
// # Available Rerankers
//
// Diversity:
//   - Walks the ordered list top-down
//   - Within the first ceil(fraction * k) slots, rejects a candidate whose
//     primary tag pair (province, first theme tag) overlaps an already
//     emitted pair by more than MaxOverlap tags
//   - Fills the remaining slots in raw order, rejected candidates included
//
// Maximal Marginal Relevance (MMR):
//   - Balances relevance with tag diversity (Jaccard over normalized tags)
//   - Lambda 1.0 disables the pass and truncates to k
//
// # Interface
//
// Both rerankers implement Reranker:
//
//	type Reranker interface {
//	    Name() string
//	    Rerank(ctx context.Context, items []Candidate, k int) []Candidate
//	}
//
// Rerankers never mutate their input slice and are safe for concurrent use.
package reranking
