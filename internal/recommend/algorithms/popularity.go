// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package algorithms

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
)

// DefaultPositiveScore is the effective rating from which an interaction
// counts as positive.
const DefaultPositiveScore = 4.0

// PopularityConfig configures global popularity.
type PopularityConfig struct {
	// PositiveScore is the effective rating from which an interaction
	// counts toward popularity.
	PositiveScore float64 `json:"positive_score" koanf:"positive_score"`
}

// DefaultPopularityConfig returns the default popularity configuration.
func DefaultPopularityConfig() PopularityConfig {
	return PopularityConfig{PositiveScore: DefaultPositiveScore}
}

// Popularity ranks places by their count of positive interactions across
// all users, normalized so the most popular place scores 1.0.
type Popularity struct {
	meta   BuildMeta
	cfg    PopularityConfig
	counts map[string]int
	scores map[string]float64
	sorted []ScoredID
}

// BuildPopularity counts positive interactions per place.
func BuildPopularity(ctx context.Context, d *Dataset, cfg PopularityConfig) (*Popularity, error) {
	if cfg.PositiveScore <= 0 {
		cfg.PositiveScore = DefaultPositiveScore
	}

	counts := make(map[string]int)
	for i, r := range d.Effective() {
		if i%1024 == 0 && ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		if r.Score >= cfg.PositiveScore {
			counts[r.PlaceID]++
		}
	}
	return newPopularity(newMeta(d), cfg, counts), nil
}

//nolint:gocritic // hugeParam: meta is copied once per build
func newPopularity(meta BuildMeta, cfg PopularityConfig, counts map[string]int) *Popularity {
	scores := make(map[string]float64, len(counts))
	for id, c := range counts {
		scores[id] = float64(c)
	}
	normalizeByMax(scores)

	sorted := make([]ScoredID, 0, len(scores))
	for id, s := range scores {
		sorted = append(sorted, ScoredID{ID: id, Score: s})
	}
	sortScored(sorted)

	return &Popularity{meta: meta, cfg: cfg, counts: counts, scores: scores, sorted: sorted}
}

// Name implements Artifact.
func (p *Popularity) Name() string { return ArtifactPopularity }

// Meta implements Artifact.
func (p *Popularity) Meta() BuildMeta { return p.meta }

// Count returns the raw positive count of a place.
func (p *Popularity) Count(placeID string) int { return p.counts[placeID] }

// Scores returns normalized popularity for every place with at least one
// positive interaction.
func (p *Popularity) Scores() map[string]float64 { return p.scores }

// TopK returns the k most popular places, ties broken by id. k <= 0
// returns all.
func (p *Popularity) TopK(k int) []ScoredID {
	list := p.sorted
	if k > 0 && len(list) > k {
		list = list[:k]
	}
	out := make([]ScoredID, len(list))
	copy(out, list)
	return out
}

// popularityBlob is the gob layout of popularity.v1.
type popularityBlob struct {
	Meta   BuildMeta
	Config PopularityConfig
	Counts map[string]int
}

// MarshalBinary implements Artifact.
func (p *Popularity) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(popularityBlob{Meta: p.meta, Config: p.cfg, Counts: p.counts}); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ArtifactPopularity, err)
	}
	return buf.Bytes(), nil
}

// DecodePopularity restores popularity written by MarshalBinary.
func DecodePopularity(data []byte) (*Popularity, error) {
	var blob popularityBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ArtifactPopularity, err)
	}
	if blob.Counts == nil {
		blob.Counts = map[string]int{}
	}
	return newPopularity(blob.Meta, blob.Config, blob.Counts), nil
}
