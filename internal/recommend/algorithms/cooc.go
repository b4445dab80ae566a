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
	"sort"

	"github.com/tomtom215/wayfarer/internal/catalog"
)

// Cooccurrence defaults.
const (
	DefaultCoocMinScore      = 4.0
	DefaultExpansionMinSim   = 0.1
	DefaultBoostRelatedLimit = 10
	boostRelatedWeight       = 0.5
)

// CoocConfig configures the tag cooccurrence miner.
type CoocConfig struct {
	// MinScore is the effective rating at or above which a place counts as
	// positively rated.
	MinScore float64 `json:"min_score" koanf:"min_score"`

	// ExpansionMinSim is the similarity a related tag must exceed to be
	// added by Expand.
	ExpansionMinSim float64 `json:"expansion_min_sim" koanf:"expansion_min_sim"`

	// BoostRelatedLimit caps how many related tags of each original tag
	// contribute to BoostScores.
	BoostRelatedLimit int `json:"boost_related_limit" koanf:"boost_related_limit"`
}

// DefaultCoocConfig returns the default miner configuration.
func DefaultCoocConfig() CoocConfig {
	return CoocConfig{
		MinScore:          DefaultCoocMinScore,
		ExpansionMinSim:   DefaultExpansionMinSim,
		BoostRelatedLimit: DefaultBoostRelatedLimit,
	}
}

// CoocTable is a symmetric tag-similarity table mined from positively rated
// places. The similarity of a tag pair is
//
//	sim(a, b) = cooc(a, b) / (tot(a) + tot(b) - cooc(a, b) + 1)
//
// where cooc counts users whose positive tag set holds both tags and
// tot(t) sums cooc(t, x) over all x. sim(a, a) is not defined.
type CoocTable struct {
	meta    BuildMeta
	cfg     CoocConfig
	tags    []string
	related map[string][]ScoredID // sorted by sim desc, tag asc
}

// BuildCooc mines the cooccurrence table from a dataset.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func BuildCooc(ctx context.Context, d *Dataset, cfg CoocConfig) (*CoocTable, error) {
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultCoocMinScore
	}
	if cfg.BoostRelatedLimit <= 0 {
		cfg.BoostRelatedLimit = DefaultBoostRelatedLimit
	}

	cooc := make(map[string]map[string]int)
	seen := make(map[string]struct{})

	for _, user := range d.Users() {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}

		set := make(map[string]struct{})
		for _, r := range d.UserRatings(user) {
			if r.Score < cfg.MinScore {
				continue
			}
			i, _ := d.PlaceIndex(r.PlaceID)
			for _, t := range d.Places[i].NormalizedTags() {
				set[t] = struct{}{}
			}
		}

		tags := make([]string, 0, len(set))
		for t := range set {
			tags = append(tags, t)
			seen[t] = struct{}{}
		}
		sort.Strings(tags)

		for i := 0; i < len(tags); i++ {
			for j := i + 1; j < len(tags); j++ {
				a, b := tags[i], tags[j]
				if cooc[a] == nil {
					cooc[a] = make(map[string]int)
				}
				if cooc[b] == nil {
					cooc[b] = make(map[string]int)
				}
				cooc[a][b]++
				cooc[b][a]++
			}
		}
	}

	tot := make(map[string]int, len(cooc))
	for t, row := range cooc {
		for _, c := range row {
			tot[t] += c
		}
	}

	related := make(map[string][]ScoredID, len(cooc))
	for a, row := range cooc {
		list := make([]ScoredID, 0, len(row))
		for b, c := range row {
			sim := float64(c) / float64(tot[a]+tot[b]-c+1)
			list = append(list, ScoredID{ID: b, Score: sim})
		}
		sortScored(list)
		related[a] = list
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	return &CoocTable{meta: newMeta(d), cfg: cfg, tags: tags, related: related}, nil
}

// EmptyCooc returns a table with no tags. Expand on it is the identity.
func EmptyCooc() *CoocTable {
	return &CoocTable{cfg: DefaultCoocConfig(), related: map[string][]ScoredID{}}
}

// Name implements Artifact.
func (c *CoocTable) Name() string { return ArtifactCooc }

// Meta implements Artifact.
func (c *CoocTable) Meta() BuildMeta { return c.meta }

// Tags returns every tag seen in a positive set, sorted.
func (c *CoocTable) Tags() []string { return c.tags }

// Similarity returns sim(a, b) and whether the pair cooccurred.
func (c *CoocTable) Similarity(a, b string) (float64, bool) {
	a, b = catalog.NormalizeTag(a), catalog.NormalizeTag(b)
	if a == b {
		return 0, false
	}
	for _, r := range c.related[a] {
		if r.ID == b {
			return r.Score, true
		}
	}
	return 0, false
}

// RelatedTags returns the top k tags by similarity to t, excluding t.
// Ties are broken by tag ascending. k <= 0 returns all related tags.
func (c *CoocTable) RelatedTags(t string, k int) []ScoredID {
	list := c.related[catalog.NormalizeTag(t)]
	if k > 0 && len(list) > k {
		list = list[:k]
	}
	out := make([]ScoredID, len(list))
	copy(out, list)
	return out
}

// Expand returns the normalized original tags followed by, for each
// original in order, up to factor related tags with similarity above the
// configured threshold. Duplicates are dropped; the original tags always
// come first.
func (c *CoocTable) Expand(tags []string, factor int) []string {
	out := make([]string, 0, len(tags)*(1+max(factor, 0)))
	seen := make(map[string]struct{}, cap(out))
	add := func(t string) {
		if _, ok := seen[t]; ok || t == "" {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	originals := make([]string, 0, len(tags))
	for _, t := range tags {
		n := catalog.NormalizeTag(t)
		originals = append(originals, n)
		add(n)
	}
	if factor <= 0 {
		return out
	}
	for _, t := range originals {
		for _, r := range c.RelatedTags(t, factor) {
			if r.Score > c.cfg.ExpansionMinSim {
				add(r.ID)
			}
		}
	}
	return out
}

// BoostScores maps tags to boost weights: each original tag contributes 1.0
// and each of its top related tags contributes 0.5*sim. Contributions sum.
func (c *CoocTable) BoostScores(tags []string) map[string]float64 {
	out := make(map[string]float64, len(tags)*(1+c.cfg.BoostRelatedLimit))
	for _, t := range tags {
		n := catalog.NormalizeTag(t)
		if n == "" {
			continue
		}
		out[n] += 1.0
		for _, r := range c.RelatedTags(n, c.cfg.BoostRelatedLimit) {
			out[r.ID] += boostRelatedWeight * r.Score
		}
	}
	return out
}

// coocBlob is the gob layout of cooc.v1.
type coocBlob struct {
	Meta    BuildMeta
	Config  CoocConfig
	Tags    []string
	Related map[string][]ScoredID
}

// MarshalBinary implements Artifact.
func (c *CoocTable) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(coocBlob{Meta: c.meta, Config: c.cfg, Tags: c.tags, Related: c.related})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ArtifactCooc, err)
	}
	return buf.Bytes(), nil
}

// DecodeCooc restores a table written by MarshalBinary.
func DecodeCooc(data []byte) (*CoocTable, error) {
	var blob coocBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ArtifactCooc, err)
	}
	if blob.Related == nil {
		blob.Related = map[string][]ScoredID{}
	}
	return &CoocTable{meta: blob.Meta, cfg: blob.Config, tags: blob.Tags, related: blob.Related}, nil
}
