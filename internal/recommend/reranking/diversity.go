// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package reranking

import (
	"context"
	"math"
)

// Default diversity parameters.
const (
	DefaultDiversityFraction   = 0.3
	DefaultDiversityMaxOverlap = 1
)

// Diversity enforces primary-tag diversity over the head of the list.
//
// For the first ceil(fraction*k) emitted slots, a candidate whose primary
// tag pair shares more than maxOverlap tags with any already emitted pair is
// skipped. Once the head is filled, or no admissible candidate remains, the
// tail is filled from the remaining candidates in their original order.
type Diversity struct {
	fraction   float64
	maxOverlap int
}

// NewDiversity creates a diversity reranker. fraction is clamped to [0, 1];
// a negative maxOverlap is treated as zero.
func NewDiversity(fraction float64, maxOverlap int) *Diversity {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	if maxOverlap < 0 {
		maxOverlap = 0
	}
	return &Diversity{fraction: fraction, maxOverlap: maxOverlap}
}

// Name returns the reranker identifier.
func (d *Diversity) Name() string {
	return "diversity"
}

// HeadSize returns the number of slots the diversity constraint covers for k.
func (d *Diversity) HeadSize(k int) int {
	if k <= 0 {
		return 0
	}
	return int(math.Ceil(d.fraction*float64(k) - 1e-9))
}

// Rerank applies the diversity pass.
//
//nolint:gocritic // rangeValCopy: Candidate passed by value in range, acceptable for clarity
func (d *Diversity) Rerank(ctx context.Context, items []Candidate, k int) []Candidate {
	if len(items) == 0 || k <= 0 {
		return items
	}
	k = clampK(k, len(items))
	head := d.HeadSize(k)
	if head > k {
		head = k
	}

	result := make([]Candidate, 0, k)
	used := make([]bool, len(items))

	for i, item := range items {
		if len(result) >= head {
			break
		}
		if ctx.Err() != nil {
			return result
		}
		if d.conflicts(item, result) {
			continue
		}
		result = append(result, item)
		used[i] = true
	}

	for i, item := range items {
		if len(result) >= k {
			break
		}
		if !used[i] {
			result = append(result, item)
		}
	}
	return result
}

// conflicts reports whether item overlaps any emitted item's primary pair by
// more than the allowed number of tags.
//
//nolint:gocritic // hugeParam: Candidate is small
func (d *Diversity) conflicts(item Candidate, emitted []Candidate) bool {
	for _, e := range emitted {
		if overlap(item.PrimaryTags, e.PrimaryTags) > d.maxOverlap {
			return true
		}
	}
	return false
}

var _ Reranker = (*Diversity)(nil)
