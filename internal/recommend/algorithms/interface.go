// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package algorithms

import (
	"context"
	"math"
	"sort"
	"time"
)

// Artifact names double as blob keys in the artifact store. The suffix is
// the encoding version; bump it whenever the gob layout changes.
const (
	ArtifactCooc       = "cooc.v1"
	ArtifactClusters   = "clusters.v1"
	ArtifactContent    = "content.v1"
	ArtifactItemSim    = "item_sim.v1"
	ArtifactPopularity = "popularity.v1"
)

// Artifact is an immutable offline-built structure.
type Artifact interface {
	// Name returns the artifact name (one of the Artifact* constants).
	Name() string

	// Meta returns build metadata.
	Meta() BuildMeta

	// MarshalBinary encodes the artifact for the artifact store.
	MarshalBinary() ([]byte, error)
}

// BuildMeta records what an artifact was built from.
type BuildMeta struct {
	// BuiltAt is when the build finished.
	BuiltAt time.Time
	// Places is the catalog size at build time.
	Places int
	// Users is the number of users with feedback at build time.
	Users int
	// Ratings is the number of effective ratings consumed.
	Ratings int
}

// newMeta captures dataset sizes for an artifact build.
func newMeta(d *Dataset) BuildMeta {
	return BuildMeta{
		BuiltAt: time.Now().UTC(),
		Places:  len(d.Places),
		Users:   len(d.Users()),
		Ratings: len(d.Effective()),
	}
}

// ScoredID pairs an identifier (place id or tag) with a score.
type ScoredID struct {
	ID    string
	Score float64
}

// sortScored orders by score descending, then id ascending.
func sortScored(s []ScoredID) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].Score != s[j].Score {
			return s[i].Score > s[j].Score
		}
		return s[i].ID < s[j].ID
	})
}

// normalizeByMax divides every score by the maximum absolute score.
// All-zero input is returned unchanged.
func normalizeByMax(scores map[string]float64) map[string]float64 {
	var maxAbs float64
	for _, s := range scores {
		if a := math.Abs(s); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs == 0 {
		return scores
	}
	for id, s := range scores {
		scores[id] = s / maxAbs
	}
	return scores
}

// SparseVector maps a feature index to a weight.
type SparseVector map[int]float64

// Dot returns the inner product of two sparse vectors.
func (v SparseVector) Dot(o SparseVector) float64 {
	if len(o) < len(v) {
		v, o = o, v
	}
	terms := make([]float64, 0, len(v))
	for i, w := range v {
		if x, ok := o[i]; ok {
			terms = append(terms, w*x)
		}
	}
	return sumTerms(terms)
}

// Norm returns the L2 norm.
func (v SparseVector) Norm() float64 {
	terms := make([]float64, 0, len(v))
	for _, w := range v {
		terms = append(terms, w*w)
	}
	return math.Sqrt(sumTerms(terms))
}

// sumTerms adds terms in ascending order, so the result depends only on the
// multiset of terms and not on map iteration order. Places with the same
// weights under different feature indices then score bit-identically.
func sumTerms(terms []float64) float64 {
	sort.Float64s(terms)
	var sum float64
	for _, x := range terms {
		sum += x
	}
	return sum
}

// Normalize scales v to unit L2 norm in place. Zero vectors are left as is.
func (v SparseVector) Normalize() SparseVector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	for i := range v {
		v[i] /= n
	}
	return v
}

// AddScaled adds w*o to v in place.
func (v SparseVector) AddScaled(o SparseVector, w float64) {
	for i, x := range o {
		v[i] += w * x
	}
}

// cosineSimilarity computes cosine similarity between two sparse vectors.
func cosineSimilarity(a, b SparseVector) float64 {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	return a.Dot(b) / (na * nb)
}

// JaccardSimilarity computes Jaccard similarity between two string sets.
func JaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}

	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		setB[s] = struct{}{}
	}

	intersection := 0
	for s := range setA {
		if _, ok := setB[s]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
