// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package recommend

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/recommend/algorithms"
	"github.com/tomtom215/wayfarer/internal/recommend/reranking"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// Signal names used in weights, score breakdowns and metrics.
const (
	SignalContent = "content"
	SignalCF      = "cf"
	SignalCluster = "cluster"
	SignalGlobal  = "global"
)

// signalOrder fixes the iteration order of signals.
var signalOrder = []string{SignalContent, SignalCF, SignalCluster, SignalGlobal}

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Weights blend the signals for users with feedback.
	// Weights are normalized at runtime, so they don't need to sum to 1.0.
	Weights Weights `json:"weights" koanf:"weights"`

	// AnonymousWeights blend the signals for users without feedback.
	AnonymousWeights Weights `json:"anonymous_weights" koanf:"anonymous_weights"`

	// ExpansionFactor is how many related tags each query tag may add.
	// Default: 2.
	ExpansionFactor int `json:"expansion_factor" koanf:"expansion_factor" validate:"min=0,max=10"`

	// BoostCap caps the query boost multiplier on the content signal.
	// Default: 1.5.
	BoostCap float64 `json:"boost_cap" koanf:"boost_cap" validate:"min=1"`

	// DislikePenalty scales the content similarity subtracted for every
	// disliked place. Default: 0.25.
	DislikePenalty float64 `json:"dislike_penalty" koanf:"dislike_penalty" validate:"min=0"`

	// SeenThreshold is the effective rating from which a place counts as
	// seen. Default: 4.0.
	SeenThreshold float64 `json:"seen_threshold" koanf:"seen_threshold" validate:"min=1,max=5"`

	// SeenDemotion is the fraction of |score| removed from seen places when
	// they are kept. Default: 0.3.
	SeenDemotion float64 `json:"seen_demotion" koanf:"seen_demotion" validate:"min=0,max=1"`

	// Diversity contains re-ranking parameters.
	Diversity DiversityConfig `json:"diversity" koanf:"diversity"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Cache contains response cache parameters.
	Cache CacheConfig `json:"cache" koanf:"cache"`

	// Artifact build parameters.
	Cooc       algorithms.CoocConfig       `json:"cooc" koanf:"cooc"`
	Clusters   algorithms.ClusterConfig    `json:"clusters" koanf:"clusters"`
	Content    algorithms.ContentConfig    `json:"content" koanf:"content"`
	ItemCF     algorithms.ItemCFConfig     `json:"itemcf" koanf:"itemcf"`
	Popularity algorithms.PopularityConfig `json:"popularity" koanf:"popularity"`

	// Evaluate contains offline evaluation defaults.
	Evaluate EvaluateConfig `json:"evaluate" koanf:"evaluate"`
}

// Weights defines the relative contribution of each signal.
type Weights struct {
	Content float64 `json:"content" koanf:"content" validate:"min=0"`
	CF      float64 `json:"cf" koanf:"cf" validate:"min=0"`
	Cluster float64 `json:"cluster" koanf:"cluster" validate:"min=0"`
	Global  float64 `json:"global" koanf:"global" validate:"min=0"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Content + w.CF + w.Cluster + w.Global
}

// Normalize returns a copy with weights normalized to sum to 1.0.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w Weights) Normalize() Weights {
	sum := w.Sum()
	if sum == 0 {
		return Weights{Content: 0.25, CF: 0.25, Cluster: 0.25, Global: 0.25}
	}
	return Weights{
		Content: w.Content / sum,
		CF:      w.CF / sum,
		Cluster: w.Cluster / sum,
		Global:  w.Global / sum,
	}
}

// ToMap returns the weights keyed by signal name.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w Weights) ToMap() map[string]float64 {
	return map[string]float64{
		SignalContent: w.Content,
		SignalCF:      w.CF,
		SignalCluster: w.Cluster,
		SignalGlobal:  w.Global,
	}
}

// DiversityConfig contains parameters for re-ranking.
type DiversityConfig struct {
	// Fraction of the top-k slots that the primary-tag constraint covers.
	// Default: 0.3.
	Fraction float64 `json:"fraction" koanf:"fraction" validate:"min=0,max=1"`

	// MaxOverlap is how many primary tags two head items may share.
	// Default: 1.
	MaxOverlap int `json:"max_overlap" koanf:"max_overlap" validate:"min=0,max=2"`

	// MMRLambda balances relevance against tag novelty in the optional MMR
	// pass. 1.0 disables the pass. Default: 1.0.
	MMRLambda float64 `json:"mmr_lambda" koanf:"mmr_lambda" validate:"min=0,max=1"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is used when a request leaves K at zero.
	// Default: 10.
	DefaultK int `json:"default_k" koanf:"default_k" validate:"min=1"`

	// MaxK caps the requested K.
	// Default: 100.
	MaxK int `json:"max_k" koanf:"max_k" validate:"min=1"`

	// FilterCacheSize is how many compiled filter programs are kept.
	// Default: 256.
	FilterCacheSize int `json:"filter_cache_size" koanf:"filter_cache_size" validate:"min=1"`
}

// CacheConfig contains response cache parameters.
type CacheConfig struct {
	// Enabled controls whether caching is active.
	// Default: true.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// TTL is the cache entry time-to-live.
	// Default: 5m.
	TTL time.Duration `json:"ttl" koanf:"ttl" validate:"min=0"`

	// MaxEntries is the maximum number of cached responses.
	// Default: 10000.
	MaxEntries int `json:"max_entries" koanf:"max_entries" validate:"min=0"`
}

// EvaluateConfig contains offline evaluation defaults.
type EvaluateConfig struct {
	// K is the cutoff for ranking metrics. Default: 5.
	K int `json:"k" koanf:"k" validate:"min=1"`

	// Holdout is the fraction of each user's positives held out.
	// Default: 0.2.
	Holdout float64 `json:"holdout" koanf:"holdout" validate:"gt=0,lt=1"`

	// Seed drives the per-user holdout shuffle. Default: 42.
	Seed uint64 `json:"seed" koanf:"seed"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: Weights{
			Content: 0.30,
			CF:      0.50,
			Cluster: 0.10,
			Global:  0.10,
		},
		AnonymousWeights: Weights{
			Content: 0.50,
			Global:  0.50,
		},
		ExpansionFactor: 2,
		BoostCap:        1.5,
		DislikePenalty:  0.25,
		SeenThreshold:   4.0,
		SeenDemotion:    0.3,
		Diversity: DiversityConfig{
			Fraction:   reranking.DefaultDiversityFraction,
			MaxOverlap: reranking.DefaultDiversityMaxOverlap,
			MMRLambda:  1.0,
		},
		Limits: LimitsConfig{
			DefaultK:        10,
			MaxK:            100,
			FilterCacheSize: 256,
		},
		Cache: CacheConfig{
			Enabled:    true,
			TTL:        5 * time.Minute,
			MaxEntries: 10000,
		},
		Cooc:       algorithms.DefaultCoocConfig(),
		Clusters:   algorithms.DefaultClusterConfig(),
		Content:    algorithms.DefaultContentConfig(),
		ItemCF:     algorithms.DefaultItemCFConfig(),
		Popularity: algorithms.DefaultPopularityConfig(),
		Evaluate: EvaluateConfig{
			K:       5,
			Holdout: 0.2,
			Seed:    42,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("recommend config: %w", verr)
	}
	if c.Weights.Sum() == 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	if c.AnonymousWeights.Sum() == 0 {
		return fmt.Errorf("anonymous_weights must not all be zero")
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Clusters.K < 1 {
		return fmt.Errorf("clusters.k must be positive, got %d", c.Clusters.K)
	}
	if c.ItemCF.K < 1 {
		return fmt.Errorf("itemcf.k must be positive, got %d", c.ItemCF.K)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types.
	clone := *c
	return &clone
}

// MarshalJSON renders durations as strings.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	type cacheJSON struct {
		Enabled    bool   `json:"enabled"`
		TTL        string `json:"ttl"`
		MaxEntries int    `json:"max_entries"`
	}
	return json.Marshal(&struct {
		*Alias
		Cache cacheJSON `json:"cache"`
	}{
		Alias: (*Alias)(c),
		Cache: cacheJSON{
			Enabled:    c.Cache.Enabled,
			TTL:        c.Cache.TTL.String(),
			MaxEntries: c.Cache.MaxEntries,
		},
	})
}
