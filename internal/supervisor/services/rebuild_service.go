// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/recommend"
)

// Rebuilder rebuilds and publishes artifacts. *recommend.Manager
// satisfies it.
type Rebuilder interface {
	Rebuild(ctx context.Context, kind recommend.Kind) (*recommend.Snapshot, error)
}

// RebuildServiceConfig controls scheduled rebuilds.
type RebuildServiceConfig struct {
	// Schedule is a standard cron spec or descriptor ("@every 6h").
	// Empty disables scheduled runs.
	Schedule string

	// OnStart rebuilds once before the schedule starts.
	OnStart bool

	// Timeout bounds one rebuild. Zero means 30m.
	Timeout time.Duration

	// Kind is the artifact set rebuilt on each run. Empty means all.
	Kind recommend.Kind
}

// RebuildService rebuilds artifacts on a cron schedule. A run that is
// still going when the next one fires causes that run to be skipped.
// Failed rebuilds are logged and do not stop the service; the previous
// snapshot stays published.
type RebuildService struct {
	rebuilder Rebuilder
	config    RebuildServiceConfig
	logger    zerolog.Logger
	name      string
}

// NewRebuildService creates a rebuild service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRebuildService(r Rebuilder, cfg RebuildServiceConfig, logger zerolog.Logger) *RebuildService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	if cfg.Kind == "" {
		cfg.Kind = recommend.KindAll
	}
	return &RebuildService{
		rebuilder: r,
		config:    cfg,
		logger:    logger.With().Str("service", "rebuild").Logger(),
		name:      "artifact-rebuild",
	}
}

// Serve implements suture.Service.
func (s *RebuildService) Serve(ctx context.Context) error {
	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Bool("on_start", s.config.OnStart).
		Str("kind", string(s.config.Kind)).
		Msg("rebuild service starting")

	if s.config.OnStart {
		s.run(ctx, "startup")
	}

	if s.config.Schedule == "" {
		<-ctx.Done()
		return ctx.Err()
	}

	clog := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := c.AddFunc(s.config.Schedule, func() { s.run(ctx, "schedule") }); err != nil {
		return fmt.Errorf("invalid rebuild schedule %q: %w", s.config.Schedule, err)
	}
	c.Start()

	<-ctx.Done()
	s.logger.Info().Msg("rebuild service shutting down")
	// Stop returns a context that is done once running jobs finish; the
	// jobs see the canceled ctx and return promptly.
	<-c.Stop().Done()
	return ctx.Err()
}

func (s *RebuildService) run(ctx context.Context, trigger string) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	snap, err := s.rebuilder.Rebuild(runCtx, s.config.Kind)
	if err != nil {
		s.logger.Warn().Err(err).Str("trigger", trigger).Msg("artifact rebuild failed")
		return
	}

	event := s.logger.Info().
		Str("trigger", trigger).
		Dur("duration", time.Since(start))
	if snap != nil {
		event = event.Int64("generation", snap.Generation)
	}
	event.Msg("artifact rebuild complete")
}

// String names the service in supervisor logs.
func (s *RebuildService) String() string {
	return s.name
}

// cronLogger adapts zerolog to cron.Logger. Scheduler chatter goes to
// debug.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
