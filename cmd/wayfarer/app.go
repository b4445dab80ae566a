// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package main

import (
	"errors"
	"io"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/feedback"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/query"
	"github.com/tomtom215/wayfarer/internal/rating"
	"github.com/tomtom215/wayfarer/internal/recommend"
	"github.com/tomtom215/wayfarer/internal/recommend/storage"
)

// app is the wired set of components every command works with.
type app struct {
	cfg       *config.Config
	catalog   *catalog.MemoryStore
	feedback  feedback.Store
	artifacts storage.Store
	manager   *recommend.Manager
	engine    *recommend.Engine
	ratings   *rating.Engine
	logger    zerolog.Logger
}

// loadConfig reads configuration and initializes logging. Logs are
// discarded unless logToStderr is set.
func loadConfig(e *env, logToStderr bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if e.configPath != "" {
		cfg, err = config.LoadFile(e.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "config", err)
	}

	logCfg := cfg.Logging
	logCfg.Output = io.Discard
	if logToStderr || e.verbose {
		logCfg.Output = e.stderr
	}
	logging.Init(logCfg)
	return cfg, nil
}

// openApp loads the catalog and opens the stores named by cfg.
func openApp(cfg *config.Config) (*app, error) {
	logger := logging.With().Str("component", "wayfarer").Logger()

	cat, err := catalog.LoadFiles(cfg.Catalog.Paths...)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "catalog", err)
	}

	fb, err := feedback.Open(cfg.Feedback.Backend, cfg.Feedback.Path)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnavailable, "feedback", err)
	}

	artifacts, err := storage.Open(cfg.Artifacts.Backend, cfg.Artifacts.Dir, cfg.Artifacts.Keep, cfg.Artifacts.Redis)
	if err != nil {
		_ = fb.Close() //nolint:errcheck // already failing
		return nil, apperr.Wrap(apperr.CodeUnavailable, "artifacts", err)
	}

	var extractor query.Extractor
	if cfg.LLM.Enabled() {
		extractor = query.NewLLMExtractor(cfg.LLM)
		logger.Info().Str("endpoint", cfg.LLM.Endpoint).Msg("LLM query extraction enabled")
	}

	recCfg := cfg.Recommend.Clone()
	manager := recommend.NewManager(cat, fb, artifacts, recCfg, logger)
	engine, err := recommend.NewEngine(recCfg, manager, fb, extractor, logger)
	if err != nil {
		_ = fb.Close() //nolint:errcheck // already failing
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, "recommend", err)
	}

	logger.Debug().
		Int("places", cat.Len()).
		Str("feedback", cfg.Feedback.Backend).
		Str("artifacts", cfg.Artifacts.Backend).
		Msg("Components opened")

	return &app{
		cfg:       cfg,
		catalog:   cat,
		feedback:  fb,
		artifacts: artifacts,
		manager:   manager,
		engine:    engine,
		ratings:   rating.NewEngine(cat, fb, logger),
		logger:    logger,
	}, nil
}

// Close releases the stores.
func (a *app) Close() error {
	var errs []error
	if err := a.feedback.Close(); err != nil {
		errs = append(errs, err)
	}
	if c, ok := a.artifacts.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
