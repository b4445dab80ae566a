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
	"regexp"
	"sort"
	"strings"

	"github.com/tomtom215/wayfarer/internal/catalog"
)

// Content index defaults.
const (
	DefaultTagRepeat     = 3
	DefaultMaxFeatures   = 5000
	DefaultLikeWeight    = 0.75
	profileRatingCenter  = 3.0
	profileRatingDivisor = 2.0
)

// tokenPattern matches runs of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// ContentConfig configures the TF-IDF content index.
type ContentConfig struct {
	// TagRepeat is how many times each tag is written into a place document
	// so that tags outweigh description tokens.
	TagRepeat int `json:"tag_repeat" koanf:"tag_repeat"`

	// MaxFeatures caps the vocabulary to the most frequent terms.
	MaxFeatures int `json:"max_features" koanf:"max_features"`

	// LikeWeight is added for liked places and subtracted for disliked
	// places when building a user profile.
	LikeWeight float64 `json:"like_weight" koanf:"like_weight"`
}

// DefaultContentConfig returns the default content index configuration.
func DefaultContentConfig() ContentConfig {
	return ContentConfig{
		TagRepeat:   DefaultTagRepeat,
		MaxFeatures: DefaultMaxFeatures,
		LikeWeight:  DefaultLikeWeight,
	}
}

// ContentIndex is a fitted TF-IDF vectorizer and the L2-normalized
// document matrix of the catalog.
//
// Weights use raw term counts and smoothed inverse document frequency:
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
type ContentIndex struct {
	meta     BuildMeta
	cfg      ContentConfig
	terms    []string // vocabulary, alphabetical
	vocab    map[string]int
	idf      []float64
	placeIDs []string
	placeIdx map[string]int
	rows     []SparseVector
}

// Tokenize lowercases and diacritic-folds text, then splits it into tokens
// with stop words removed.
func Tokenize(text string) []string {
	folded := catalog.FoldTag(text)
	raw := tokenPattern.FindAllString(folded, -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := englishStopWords[tok]; !stop {
			out = append(out, tok)
		}
	}
	return out
}

// PlaceDocument builds the tag-weighted document of a place: every tag
// repeated repeat times, followed by the description.
//
//nolint:gocritic // hugeParam: Place is read-only here
func PlaceDocument(p catalog.Place, repeat int) string {
	if repeat <= 0 {
		repeat = DefaultTagRepeat
	}
	var b strings.Builder
	for _, t := range p.Tags {
		for i := 0; i < repeat; i++ {
			b.WriteString(t)
			b.WriteByte(' ')
		}
	}
	b.WriteString(p.Description)
	return b.String()
}

// BuildContent fits the vectorizer over the catalog.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func BuildContent(ctx context.Context, d *Dataset, cfg ContentConfig) (*ContentIndex, error) {
	if cfg.TagRepeat <= 0 {
		cfg.TagRepeat = DefaultTagRepeat
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = DefaultMaxFeatures
	}
	if cfg.LikeWeight < 0 {
		cfg.LikeWeight = DefaultLikeWeight
	}

	n := len(d.Places)
	docs := make([][]string, n)
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for i := range d.Places {
		if ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		tokens := Tokenize(PlaceDocument(d.Places[i], cfg.TagRepeat))
		docs[i] = tokens

		unique := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			termFreq[tok]++
			unique[tok] = struct{}{}
		}
		for tok := range unique {
			docFreq[tok]++
		}
	}

	terms := selectFeatures(termFreq, cfg.MaxFeatures)

	idx := &ContentIndex{
		meta:     newMeta(d),
		cfg:      cfg,
		terms:    terms,
		vocab:    make(map[string]int, len(terms)),
		idf:      make([]float64, len(terms)),
		placeIDs: make([]string, n),
		placeIdx: make(map[string]int, n),
		rows:     make([]SparseVector, n),
	}
	for i, t := range terms {
		idx.vocab[t] = i
		idx.idf[i] = math.Log(float64(1+n)/float64(1+docFreq[t])) + 1
	}
	for i := range d.Places {
		idx.placeIDs[i] = d.Places[i].ID
		idx.placeIdx[d.Places[i].ID] = i
		idx.rows[i] = idx.vectorizeTokens(docs[i])
	}
	return idx, nil
}

// selectFeatures keeps the limit most frequent terms (ties by term) and
// returns them in alphabetical order.
func selectFeatures(termFreq map[string]int, limit int) []string {
	terms := make([]string, 0, len(termFreq))
	for t := range termFreq {
		terms = append(terms, t)
	}
	if len(terms) > limit {
		sort.Slice(terms, func(i, j int) bool {
			if termFreq[terms[i]] != termFreq[terms[j]] {
				return termFreq[terms[i]] > termFreq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:limit]
	}
	sort.Strings(terms)
	return terms
}

func (c *ContentIndex) vectorizeTokens(tokens []string) SparseVector {
	v := make(SparseVector)
	for _, tok := range tokens {
		if i, ok := c.vocab[tok]; ok {
			v[i]++
		}
	}
	for i, tf := range v {
		v[i] = tf * c.idf[i]
	}
	return v.Normalize()
}

// Name implements Artifact.
func (c *ContentIndex) Name() string { return ArtifactContent }

// Meta implements Artifact.
func (c *ContentIndex) Meta() BuildMeta { return c.meta }

// Len returns the number of indexed places.
func (c *ContentIndex) Len() int { return len(c.placeIDs) }

// VocabularySize returns the number of features.
func (c *ContentIndex) VocabularySize() int { return len(c.terms) }

// PlaceIDs returns the row order of the matrix.
func (c *ContentIndex) PlaceIDs() []string { return c.placeIDs }

// Vectorize maps free text onto the fitted vocabulary. Text with no known
// terms yields a zero vector.
func (c *ContentIndex) Vectorize(text string) SparseVector {
	return c.vectorizeTokens(Tokenize(text))
}

// QueryVector vectorizes a tag bag, each tag written once.
func (c *ContentIndex) QueryVector(tags []string) SparseVector {
	return c.Vectorize(strings.Join(tags, " "))
}

// Row returns the document vector of a place.
func (c *ContentIndex) Row(placeID string) (SparseVector, bool) {
	i, ok := c.placeIdx[placeID]
	if !ok {
		return nil, false
	}
	return c.rows[i], true
}

// Scores returns the cosine similarity of q against every place. Rows are
// unit length, so a zero q scores zero everywhere.
func (c *ContentIndex) Scores(q SparseVector) map[string]float64 {
	out := make(map[string]float64, len(c.rows))
	norm := q.Norm()
	for i, row := range c.rows {
		if norm == 0 {
			out[c.placeIDs[i]] = 0
			continue
		}
		out[c.placeIDs[i]] = row.Dot(q) / norm
	}
	return out
}

// Similarity returns the cosine similarity of two places, 0 if either is
// unknown.
func (c *ContentIndex) Similarity(a, b string) float64 {
	ra, ok := c.Row(a)
	if !ok {
		return 0
	}
	rb, ok := c.Row(b)
	if !ok {
		return 0
	}
	return ra.Dot(rb)
}

// ProfileVector builds a user profile from stored ratings and like marks.
// Each rated place pulls with weight (score-3)/2; a like adds LikeWeight
// and a dislike subtracts it. The result is L2-normalized and is zero when
// nothing the user touched is indexed.
func (c *ContentIndex) ProfileVector(ratings map[string]float64, likes map[string]bool) SparseVector {
	acc := make(SparseVector)

	ids := make([]string, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if row, ok := c.Row(id); ok {
			acc.AddScaled(row, (ratings[id]-profileRatingCenter)/profileRatingDivisor)
		}
	}

	ids = ids[:0]
	for id := range likes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		row, ok := c.Row(id)
		if !ok {
			continue
		}
		if likes[id] {
			acc.AddScaled(row, c.cfg.LikeWeight)
		} else {
			acc.AddScaled(row, -c.cfg.LikeWeight)
		}
	}

	for i, w := range acc {
		if w == 0 {
			delete(acc, i)
		}
	}
	return acc.Normalize()
}

// contentBlob is the gob layout of content.v1.
type contentBlob struct {
	Meta     BuildMeta
	Config   ContentConfig
	Terms    []string
	IDF      []float64
	PlaceIDs []string
	Rows     []map[int]float64
}

// MarshalBinary implements Artifact.
func (c *ContentIndex) MarshalBinary() ([]byte, error) {
	blob := contentBlob{
		Meta:     c.meta,
		Config:   c.cfg,
		Terms:    c.terms,
		IDF:      c.idf,
		PlaceIDs: c.placeIDs,
		Rows:     make([]map[int]float64, len(c.rows)),
	}
	for i, r := range c.rows {
		blob.Rows[i] = r
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(blob); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ArtifactContent, err)
	}
	return buf.Bytes(), nil
}

// DecodeContent restores an index written by MarshalBinary.
func DecodeContent(data []byte) (*ContentIndex, error) {
	var blob contentBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ArtifactContent, err)
	}
	if len(blob.Terms) != len(blob.IDF) || len(blob.PlaceIDs) != len(blob.Rows) {
		return nil, fmt.Errorf("decode %s: inconsistent dimensions", ArtifactContent)
	}
	c := &ContentIndex{
		meta:     blob.Meta,
		cfg:      blob.Config,
		terms:    blob.Terms,
		vocab:    make(map[string]int, len(blob.Terms)),
		idf:      blob.IDF,
		placeIDs: blob.PlaceIDs,
		placeIdx: make(map[string]int, len(blob.PlaceIDs)),
		rows:     make([]SparseVector, len(blob.Rows)),
	}
	for i, t := range blob.Terms {
		c.vocab[t] = i
	}
	for i, id := range blob.PlaceIDs {
		c.placeIdx[id] = i
		row := SparseVector(blob.Rows[i])
		if row == nil {
			row = SparseVector{}
		}
		c.rows[i] = row
	}
	return c, nil
}
