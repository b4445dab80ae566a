// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"time"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/query"
	"github.com/tomtom215/wayfarer/internal/recommend"
	"github.com/tomtom215/wayfarer/internal/recommend/storage"
)

// Config holds all application configuration.
type Config struct {
	Catalog   CatalogConfig    `koanf:"catalog"`
	Feedback  FeedbackConfig   `koanf:"feedback"`
	Artifacts ArtifactsConfig  `koanf:"artifacts"`
	Recommend recommend.Config `koanf:"recommend"`
	LLM       query.LLMConfig  `koanf:"llm"`
	Server    ServerConfig     `koanf:"server"`
	Schedule  ScheduleConfig   `koanf:"schedule"`
	Logging   logging.Config   `koanf:"logging"`
}

// CatalogConfig locates the place catalog. Every file is loaded and the
// places merged; ids must be unique across files.
type CatalogConfig struct {
	Paths []string `koanf:"paths" validate:"min=1,dive,required"`
}

// FeedbackConfig selects the feedback store.
type FeedbackConfig struct {
	// Backend is memory, badger or sqlite.
	Backend string `koanf:"backend" validate:"oneof=memory badger sqlite"`

	// Path is the badger directory or sqlite database file.
	Path string `koanf:"path"`
}

// ArtifactsConfig selects where built artifacts are kept.
type ArtifactsConfig struct {
	// Backend is memory, file or redis.
	Backend string `koanf:"backend" validate:"oneof=memory file redis"`

	// Dir is the file store directory.
	Dir string `koanf:"dir"`

	// Keep is how many generations of each artifact the file store retains.
	Keep int `koanf:"keep" validate:"min=1"`

	Redis storage.RedisOptions `koanf:"redis"`
}

// ServerConfig configures the admin HTTP server of the serve command.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `koanf:"addr" validate:"required,hostname_port"`

	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"min=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"min=0"`
}

// ScheduleConfig controls periodic artifact rebuilds in serve mode.
type ScheduleConfig struct {
	// Rebuild is a cron spec (five fields or a descriptor such as
	// "@every 6h"). Empty disables scheduled rebuilds.
	Rebuild string `koanf:"rebuild"`

	// RebuildOnStart rebuilds every artifact before serving instead of
	// loading the stored ones.
	RebuildOnStart bool `koanf:"rebuild_on_start"`

	// Timeout bounds one scheduled rebuild.
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
}

// Load loads configuration from defaults, the optional config file and the
// environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
