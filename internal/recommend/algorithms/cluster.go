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

	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
)

// Clusterer defaults.
const (
	DefaultClusterK            = 5
	DefaultAffinityMinScore    = 3.0
	DefaultProfileMinScore     = 4.0
	DefaultProfileSize         = 10
	DefaultClusterSeed         = 42
	DefaultClusterInit         = 10
	DefaultClusterMaxIter      = 300
	affinityBase               = 2.0
	affinityCenter             = 3.0
	singleCluster              = 0
	minClustersForPartitioning = 2
)

// ClusterConfig configures the user clusterer.
type ClusterConfig struct {
	// K is the requested number of clusters; it shrinks to half the user
	// count when users are scarce.
	K int `json:"k" koanf:"k"`

	// AffinityMinScore is the rating from which a place feeds the user's
	// tag-affinity vector.
	AffinityMinScore float64 `json:"affinity_min_score" koanf:"affinity_min_score"`

	// ProfileMinScore is the rating from which a place feeds its cluster's
	// tag profile.
	ProfileMinScore float64 `json:"profile_min_score" koanf:"profile_min_score"`

	// ProfileSize is how many tags a cluster profile keeps.
	ProfileSize int `json:"profile_size" koanf:"profile_size"`

	// Seed, NInit and MaxIter drive k-means.
	Seed    uint64 `json:"seed" koanf:"seed"`
	NInit   int    `json:"n_init" koanf:"n_init"`
	MaxIter int    `json:"max_iter" koanf:"max_iter"`
}

// DefaultClusterConfig returns the default clusterer configuration.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		K:                DefaultClusterK,
		AffinityMinScore: DefaultAffinityMinScore,
		ProfileMinScore:  DefaultProfileMinScore,
		ProfileSize:      DefaultProfileSize,
		Seed:             DefaultClusterSeed,
		NInit:            DefaultClusterInit,
		MaxIter:          DefaultClusterMaxIter,
	}
}

// Clusters groups users by tag affinity. Each user is described by
//
//	w(t) = Σ 2^(score-3) over rated places tagged t with score >= 3
//
// L1-normalized and z-scored per tag. With fewer than two clusters every
// user belongs to cluster 0.
type Clusters struct {
	meta BuildMeta
	cfg  ClusterConfig

	k         int
	tags      []string
	tagIdx    map[string]int
	mean      []float64
	scale     []float64
	centroids [][]float64
	assigned  map[string]int
	profiles  [][]ScoredID
	places    []map[string]float64 // per cluster, normalized by max
}

// BuildClusters clusters the dataset's users and precomputes per-cluster
// profiles and place popularity.
//
//nolint:gocritic // hugeParam: cfg passed by value for immutability
func BuildClusters(ctx context.Context, d *Dataset, cfg ClusterConfig) (*Clusters, error) {
	cfg = withClusterDefaults(cfg)

	users := d.Users()
	tagsOf := func(id string) []string {
		if i, ok := d.PlaceIndex(id); ok {
			return d.Places[i].NormalizedTags()
		}
		return nil
	}

	// Feature order is the sorted set of tags in any affinity vector.
	tagSet := make(map[string]struct{})
	for _, r := range d.Effective() {
		if r.Score >= cfg.AffinityMinScore {
			for _, t := range tagsOf(r.PlaceID) {
				tagSet[t] = struct{}{}
			}
		}
	}
	c := &Clusters{
		meta:     newMeta(d),
		cfg:      cfg,
		tags:     make([]string, 0, len(tagSet)),
		assigned: make(map[string]int, len(users)),
	}
	for t := range tagSet {
		c.tags = append(c.tags, t)
	}
	sort.Strings(c.tags)
	c.tagIdx = make(map[string]int, len(c.tags))
	for i, t := range c.tags {
		c.tagIdx[t] = i
	}

	c.k = min(cfg.K, len(users)/2)
	if c.k < minClustersForPartitioning {
		c.k = 1
		for _, u := range users {
			c.assigned[u] = singleCluster
		}
	} else {
		points := make([][]float64, len(users))
		for i, u := range users {
			points[i] = c.affinity(ratingMap(d.UserRatings(u)), tagsOf)
		}
		c.fitScaler(points)
		for i := range points {
			c.standardize(points[i])
		}

		res, err := kmeans(ctx, points, c.k, cfg.Seed, cfg.NInit, cfg.MaxIter)
		if err != nil {
			return nil, err
		}
		c.centroids = res.centroids
		for i, u := range users {
			c.assigned[u] = res.labels[i]
		}
	}

	if ContextCancelled(ctx) {
		return nil, ctx.Err()
	}
	c.buildProfiles(d, tagsOf)
	c.buildPlaceScores(d.Places)
	return c, nil
}

//nolint:gocritic // hugeParam: cfg passed by value for immutability
func withClusterDefaults(cfg ClusterConfig) ClusterConfig {
	def := DefaultClusterConfig()
	if cfg.K <= 0 {
		cfg.K = def.K
	}
	if cfg.AffinityMinScore <= 0 {
		cfg.AffinityMinScore = def.AffinityMinScore
	}
	if cfg.ProfileMinScore <= 0 {
		cfg.ProfileMinScore = def.ProfileMinScore
	}
	if cfg.ProfileSize <= 0 {
		cfg.ProfileSize = def.ProfileSize
	}
	if cfg.NInit <= 0 {
		cfg.NInit = def.NInit
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = def.MaxIter
	}
	return cfg
}

// affinity builds the L1-normalized tag-affinity vector of one user over
// the fitted feature order. Tags outside the order are ignored.
func (c *Clusters) affinity(ratings map[string]float64, tagsOf func(string) []string) []float64 {
	ids := make([]string, 0, len(ratings))
	for id := range ratings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	v := make([]float64, len(c.tags))
	for _, id := range ids {
		score := ratings[id]
		if score < c.cfg.AffinityMinScore {
			continue
		}
		w := math.Pow(affinityBase, score-affinityCenter)
		for _, t := range tagsOf(id) {
			if i, ok := c.tagIdx[t]; ok {
				v[i] += w
			}
		}
	}
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum > 0 {
		for i := range v {
			v[i] /= sum
		}
	}
	return v
}

// fitScaler stores per-feature mean and population standard deviation.
// Constant features get scale 1.
func (c *Clusters) fitScaler(points [][]float64) {
	dim := len(c.tags)
	c.mean = make([]float64, dim)
	c.scale = make([]float64, dim)
	n := float64(len(points))
	for _, p := range points {
		for j, x := range p {
			c.mean[j] += x / n
		}
	}
	for _, p := range points {
		for j, x := range p {
			d := x - c.mean[j]
			c.scale[j] += d * d / n
		}
	}
	for j := range c.scale {
		c.scale[j] = math.Sqrt(c.scale[j])
		if c.scale[j] == 0 {
			c.scale[j] = 1
		}
	}
}

func (c *Clusters) standardize(v []float64) {
	for j := range v {
		v[j] = (v[j] - c.mean[j]) / c.scale[j]
	}
}

func (c *Clusters) buildProfiles(d *Dataset, tagsOf func(string) []string) {
	acc := make([]map[string]float64, c.k)
	for i := range acc {
		acc[i] = make(map[string]float64)
	}
	for _, r := range d.Effective() {
		if r.Score < c.cfg.ProfileMinScore {
			continue
		}
		cl := c.assigned[r.UserID]
		for _, t := range tagsOf(r.PlaceID) {
			acc[cl][t] += r.Score
		}
	}

	c.profiles = make([][]ScoredID, c.k)
	for cl, tags := range acc {
		list := make([]ScoredID, 0, len(tags))
		for t, s := range normalizeByMax(tags) {
			list = append(list, ScoredID{ID: t, Score: s})
		}
		sortScored(list)
		if len(list) > c.cfg.ProfileSize {
			list = list[:c.cfg.ProfileSize]
		}
		c.profiles[cl] = list
	}
}

// buildPlaceScores scores every place per cluster by summing, over the
// place's tags found in the profile, weight * (1 - i/len(profile)) where i
// is the tag's profile position.
func (c *Clusters) buildPlaceScores(places []catalog.Place) {
	c.places = make([]map[string]float64, c.k)
	for cl, profile := range c.profiles {
		pos := make(map[string]float64, len(profile))
		for i, ts := range profile {
			pos[ts.ID] = ts.Score * (1 - float64(i)/float64(len(profile)))
		}

		scores := make(map[string]float64, len(places))
		for i := range places {
			var total float64
			seen := make(map[string]struct{}, len(places[i].Tags))
			for _, t := range places[i].NormalizedTags() {
				if _, dup := seen[t]; dup {
					continue
				}
				seen[t] = struct{}{}
				total += pos[t]
			}
			if total > 0 {
				scores[places[i].ID] = total
			}
		}
		c.places[cl] = normalizeByMax(scores)
	}
}

// Name implements Artifact.
func (c *Clusters) Name() string { return ArtifactClusters }

// Meta implements Artifact.
func (c *Clusters) Meta() BuildMeta { return c.meta }

// K returns the effective number of clusters.
func (c *Clusters) K() int { return c.k }

// SingleCluster reports whether clustering degenerated to one cluster.
func (c *Clusters) SingleCluster() bool { return c.k < minClustersForPartitioning }

// ClusterOf returns the cluster assigned to a user at build time.
func (c *Clusters) ClusterOf(userID string) (int, bool) {
	cl, ok := c.assigned[userID]
	return cl, ok
}

// Assign places a user unseen at build time into the nearest cluster,
// using the stored scaler. ratings maps place ids to effective scores and
// tagsOf resolves a place's normalized tags.
func (c *Clusters) Assign(ratings map[string]float64, tagsOf func(string) []string) int {
	if c.SingleCluster() || len(c.centroids) == 0 {
		return singleCluster
	}
	v := c.affinity(ratings, tagsOf)
	c.standardize(v)
	cl, _ := nearestCentroid(v, c.centroids)
	return cl
}

// Resolve returns the build-time cluster of a user, or assigns one from
// ratings. ok is false for users with neither.
func (c *Clusters) Resolve(userID string, ratings map[string]float64, tagsOf func(string) []string) (int, bool) {
	if cl, ok := c.ClusterOf(userID); ok {
		return cl, true
	}
	if len(ratings) == 0 || c.k == 0 {
		return 0, false
	}
	return c.Assign(ratings, tagsOf), true
}

// Profile returns a cluster's top tags with weights normalized to the
// cluster maximum.
func (c *Clusters) Profile(cluster int) []ScoredID {
	if cluster < 0 || cluster >= len(c.profiles) {
		return nil
	}
	out := make([]ScoredID, len(c.profiles[cluster]))
	copy(out, c.profiles[cluster])
	return out
}

// PlaceScores returns a cluster's normalized popularity for every place
// that scores above zero.
func (c *Clusters) PlaceScores(cluster int) map[string]float64 {
	if cluster < 0 || cluster >= len(c.places) {
		return nil
	}
	return c.places[cluster]
}

// TopPlaces returns the k most popular places of a cluster.
func (c *Clusters) TopPlaces(cluster, k int) []ScoredID {
	scores := c.PlaceScores(cluster)
	list := make([]ScoredID, 0, len(scores))
	for id, s := range scores {
		list = append(list, ScoredID{ID: id, Score: s})
	}
	sortScored(list)
	if k > 0 && len(list) > k {
		list = list[:k]
	}
	return list
}

// Sizes returns the number of build-time users in each cluster.
func (c *Clusters) Sizes() []int {
	out := make([]int, c.k)
	for _, cl := range c.assigned {
		out[cl]++
	}
	return out
}

func ratingMap(ratings []feedback.Rating) map[string]float64 {
	out := make(map[string]float64, len(ratings))
	for _, r := range ratings {
		out[r.PlaceID] = r.Score
	}
	return out
}

// clustersBlob is the gob layout of clusters.v1.
type clustersBlob struct {
	Meta      BuildMeta
	Config    ClusterConfig
	K         int
	Tags      []string
	Mean      []float64
	Scale     []float64
	Centroids [][]float64
	Assigned  map[string]int
	Profiles  [][]ScoredID
	Places    []map[string]float64
}

// MarshalBinary implements Artifact.
func (c *Clusters) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(clustersBlob{
		Meta:      c.meta,
		Config:    c.cfg,
		K:         c.k,
		Tags:      c.tags,
		Mean:      c.mean,
		Scale:     c.scale,
		Centroids: c.centroids,
		Assigned:  c.assigned,
		Profiles:  c.profiles,
		Places:    c.places,
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ArtifactClusters, err)
	}
	return buf.Bytes(), nil
}

// DecodeClusters restores clusters written by MarshalBinary.
func DecodeClusters(data []byte) (*Clusters, error) {
	var blob clustersBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ArtifactClusters, err)
	}
	if len(blob.Profiles) != blob.K || len(blob.Places) != blob.K {
		return nil, fmt.Errorf("decode %s: inconsistent cluster count", ArtifactClusters)
	}
	c := &Clusters{
		meta:      blob.Meta,
		cfg:       blob.Config,
		k:         blob.K,
		tags:      blob.Tags,
		tagIdx:    make(map[string]int, len(blob.Tags)),
		mean:      blob.Mean,
		scale:     blob.Scale,
		centroids: blob.Centroids,
		assigned:  blob.Assigned,
		profiles:  blob.Profiles,
		places:    blob.Places,
	}
	for i, t := range blob.Tags {
		c.tagIdx[t] = i
	}
	if c.assigned == nil {
		c.assigned = map[string]int{}
	}
	for i := range c.places {
		if c.places[i] == nil {
			c.places[i] = map[string]float64{}
		}
	}
	return c, nil
}
