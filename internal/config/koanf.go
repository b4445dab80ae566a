// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/wayfarer/internal/query"
	"github.com/tomtom215/wayfarer/internal/recommend"
	"github.com/tomtom215/wayfarer/internal/recommend/storage"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"wayfarer.yaml",
	"wayfarer.yml",
	"/etc/wayfarer/wayfarer.yaml",
	"/etc/wayfarer/wayfarer.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "WAYFARER_CONFIG"

// envPrefix is the prefix of every environment variable read.
const envPrefix = "WAYFARER_"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Paths: []string{"places.yaml"},
		},
		Feedback: FeedbackConfig{
			Backend: "badger",
			Path:    "data/feedback",
		},
		Artifacts: ArtifactsConfig{
			Backend: "file",
			Dir:     "data/artifacts",
			Keep:    3,
			Redis: storage.RedisOptions{
				Addr:   "127.0.0.1:6379",
				Prefix: "wayfarer:artifacts:",
			},
		},
		Recommend: *recommend.DefaultConfig(),
		LLM:       query.DefaultLLMConfig(),
		Server: ServerConfig{
			Addr:            "127.0.0.1:8686",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Schedule: ScheduleConfig{
			Rebuild:        "0 3 * * *", // nightly, after the day's feedback
			RebuildOnStart: false,
			Timeout:        30 * time.Minute,
		},
		Logging: loggingDefaults(),
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	configPath, err := findConfigFile()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile is LoadWithKoanf with an explicit config file instead of the
// WAYFARER_CONFIG and default-path lookup. An empty path loads defaults and
// the environment only.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// WAYFARER_FEEDBACK_PATH -> feedback.path
	// WAYFARER_WEIGHT_CF -> recommend.weights.cf
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the config file to load, or "" when none exists.
// A path named by WAYFARER_CONFIG must exist.
func findConfigFile() (string, error) {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("config file from %s: %w", ConfigPathEnvVar, err)
		}
		return envPath, nil
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", nil
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"catalog.paths",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lowercased environment variable names, without the
// WAYFARER_ prefix, to koanf config paths.
var envMappings = map[string]string{
	// Catalog
	"catalog":       "catalog.paths",
	"catalog_paths": "catalog.paths",

	// Feedback store
	"feedback_backend": "feedback.backend",
	"feedback_path":    "feedback.path",

	// Artifact store
	"artifacts_backend": "artifacts.backend",
	"artifacts_dir":     "artifacts.dir",
	"artifacts_keep":    "artifacts.keep",
	"redis_addr":        "artifacts.redis.addr",
	"redis_password":    "artifacts.redis.password",
	"redis_db":          "artifacts.redis.db",
	"redis_prefix":      "artifacts.redis.prefix",
	"redis_ttl":         "artifacts.redis.ttl",

	// Ranking
	"weight_content":           "recommend.weights.content",
	"weight_cf":                "recommend.weights.cf",
	"weight_cluster":           "recommend.weights.cluster",
	"weight_global":            "recommend.weights.global",
	"anonymous_weight_content": "recommend.anonymous_weights.content",
	"anonymous_weight_global":  "recommend.anonymous_weights.global",
	"expansion_factor":         "recommend.expansion_factor",
	"boost_cap":                "recommend.boost_cap",
	"dislike_penalty":          "recommend.dislike_penalty",
	"seen_threshold":           "recommend.seen_threshold",
	"seen_demotion":            "recommend.seen_demotion",
	"diversity_fraction":       "recommend.diversity.fraction",
	"diversity_max_overlap":    "recommend.diversity.max_overlap",
	"mmr_lambda":               "recommend.diversity.mmr_lambda",
	"default_k":                "recommend.limits.default_k",
	"max_k":                    "recommend.limits.max_k",
	"cache_enabled":            "recommend.cache.enabled",
	"cache_ttl":                "recommend.cache.ttl",
	"cache_size":               "recommend.cache.max_entries",

	// Artifact builds
	"clusters_k":     "recommend.clusters.k",
	"clusters_seed":  "recommend.clusters.seed",
	"itemcf_k":       "recommend.itemcf.k",
	"positive_score": "recommend.popularity.positive_score",

	// Offline evaluation
	"eval_k":       "recommend.evaluate.k",
	"eval_holdout": "recommend.evaluate.holdout",
	"eval_seed":    "recommend.evaluate.seed",

	// Query extractor
	"llm_endpoint": "llm.endpoint",
	"llm_model":    "llm.model",
	"llm_api_key":  "llm.api_key",
	"llm_timeout":  "llm.timeout",
	"llm_rate":     "llm.rate_per_second",
	"llm_burst":    "llm.burst",

	// Admin server
	"admin_addr":       "server.addr",
	"read_timeout":     "server.read_timeout",
	"write_timeout":    "server.write_timeout",
	"idle_timeout":     "server.idle_timeout",
	"shutdown_timeout": "server.shutdown_timeout",

	// Scheduled rebuilds
	"rebuild_schedule": "schedule.rebuild",
	"rebuild_on_start": "schedule.rebuild_on_start",
	"rebuild_timeout":  "schedule.timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - WAYFARER_FEEDBACK_BACKEND -> feedback.backend
//   - WAYFARER_REDIS_ADDR -> artifacts.redis.addr
//   - WAYFARER_LOG_LEVEL -> logging.level
//
// Unmapped variables return "" and are skipped, which keeps stray
// variables from polluting the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return envMappings[key]
}

// WatchConfigFile calls callback whenever the file at path changes.
// The caller is responsible for synchronizing access to configuration
// replaced from the callback.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}

// ConfigFile returns the config file LoadWithKoanf would read, or "".
func ConfigFile() string {
	path, err := findConfigFile()
	if err != nil {
		return ""
	}
	return path
}
