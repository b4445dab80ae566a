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
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Item CF defaults.
const (
	DefaultItemNeighbors = 20
	DefaultItemWorkers   = 4
	cfRatingCenter       = 3.0
)

// ItemCFConfig configures the item-based collaborative filter.
type ItemCFConfig struct {
	// K is the number of neighbors kept per place.
	K int `json:"k" koanf:"k"`

	// NumWorkers is the number of goroutines computing neighbor lists.
	NumWorkers int `json:"num_workers" koanf:"num_workers"`
}

// DefaultItemCFConfig returns the default item CF configuration.
func DefaultItemCFConfig() ItemCFConfig {
	return ItemCFConfig{K: DefaultItemNeighbors, NumWorkers: DefaultItemWorkers}
}

// ItemSimIndex holds, for every rated place, its top-K most similar places
// by cosine similarity of raw effective-rating columns.
type ItemSimIndex struct {
	meta      BuildMeta
	cfg       ItemCFConfig
	placeIDs  []string
	neighbors map[string][]ScoredID // sim desc, id asc; sim > 0
}

// BuildItemSim computes item-item neighbor lists from the dataset's
// effective ratings (likes count as 5.0, dislikes as 1.0).
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func BuildItemSim(ctx context.Context, d *Dataset, cfg ItemCFConfig) (*ItemSimIndex, error) {
	if cfg.K <= 0 {
		cfg.K = DefaultItemNeighbors
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = DefaultItemWorkers
	}

	// Column vectors keyed by user, with norms.
	columns := make(map[string]map[string]float64)
	for _, r := range d.Effective() {
		col, ok := columns[r.PlaceID]
		if !ok {
			col = make(map[string]float64)
			columns[r.PlaceID] = col
		}
		col[r.UserID] = r.Score
	}
	norms := make(map[string]float64, len(columns))
	for id, col := range columns {
		terms := make([]float64, 0, len(col))
		for _, x := range col {
			terms = append(terms, x*x)
		}
		norms[id] = math.Sqrt(sumTerms(terms))
	}

	ids := make([]string, 0, len(columns))
	for id := range columns {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lists := make([][]ScoredID, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.NumWorkers)
	for i := range ids {
		g.Go(func() error {
			if ContextCancelled(gctx) {
				return gctx.Err()
			}
			lists[i] = itemNeighbors(ids[i], ids, columns, norms, cfg.K)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	idx := &ItemSimIndex{
		meta:      newMeta(d),
		cfg:       cfg,
		placeIDs:  ids,
		neighbors: make(map[string][]ScoredID, len(ids)),
	}
	for i, id := range ids {
		if len(lists[i]) > 0 {
			idx.neighbors[id] = lists[i]
		}
	}
	return idx, nil
}

// itemNeighbors returns the k most similar places to id with positive
// similarity.
func itemNeighbors(id string, ids []string, columns map[string]map[string]float64, norms map[string]float64, k int) []ScoredID {
	col := columns[id]
	if norms[id] == 0 {
		return nil
	}

	out := make([]ScoredID, 0, len(ids))
	for _, other := range ids {
		if other == id || norms[other] == 0 {
			continue
		}
		terms := make([]float64, 0, len(col))
		for user, x := range col {
			if y, ok := columns[other][user]; ok {
				terms = append(terms, x*y)
			}
		}
		if sim := sumTerms(terms) / (norms[id] * norms[other]); sim > 0 {
			out = append(out, ScoredID{ID: other, Score: sim})
		}
	}
	sortScored(out)
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Name implements Artifact.
func (x *ItemSimIndex) Name() string { return ArtifactItemSim }

// Meta implements Artifact.
func (x *ItemSimIndex) Meta() BuildMeta { return x.meta }

// PlaceIDs returns every place with at least one rating at build time.
func (x *ItemSimIndex) PlaceIDs() []string { return x.placeIDs }

// Neighbors returns the stored neighbor list of a place.
func (x *ItemSimIndex) Neighbors(placeID string) []ScoredID {
	return x.neighbors[placeID]
}

// Similarity returns sim(a, b) if b is among a's neighbors.
func (x *ItemSimIndex) Similarity(a, b string) (float64, bool) {
	for _, n := range x.neighbors[a] {
		if n.ID == b {
			return n.Score, true
		}
	}
	return 0, false
}

// Scores computes the CF score of every neighbor-reachable place for a user
// with the given effective ratings:
//
//	cf(p) = Σ sim(p, q) * (r(q) - 3) / Σ |sim(p, q)|
//
// over q in p's neighbor list that the user rated, q != p. Places without
// a rated neighbor are absent from the result.
func (x *ItemSimIndex) Scores(ratings map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	if len(ratings) == 0 {
		return out
	}
	for p, list := range x.neighbors {
		var num, den float64
		for _, n := range list {
			r, ok := ratings[n.ID]
			if !ok || n.ID == p {
				continue
			}
			num += n.Score * (r - cfRatingCenter)
			den += math.Abs(n.Score)
		}
		if den > 0 {
			out[p] = num / den
		}
	}
	return out
}

// itemSimBlob is the gob layout of item_sim.v1.
type itemSimBlob struct {
	Meta      BuildMeta
	Config    ItemCFConfig
	PlaceIDs  []string
	Neighbors map[string][]ScoredID
}

// MarshalBinary implements Artifact.
func (x *ItemSimIndex) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(itemSimBlob{Meta: x.meta, Config: x.cfg, PlaceIDs: x.placeIDs, Neighbors: x.neighbors})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ArtifactItemSim, err)
	}
	return buf.Bytes(), nil
}

// DecodeItemSim restores an index written by MarshalBinary.
func DecodeItemSim(data []byte) (*ItemSimIndex, error) {
	var blob itemSimBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ArtifactItemSim, err)
	}
	if blob.Neighbors == nil {
		blob.Neighbors = map[string][]ScoredID{}
	}
	return &ItemSimIndex{meta: blob.Meta, cfg: blob.Config, placeIDs: blob.PlaceIDs, neighbors: blob.Neighbors}, nil
}
