// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/wayfarer/internal/api"
	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/supervisor"
	"github.com/tomtom215/wayfarer/internal/supervisor/services"
)

func runServe(ctx context.Context, e *env, args []string) (err error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", "", "admin listen address (default from config)")
	if helped, perr := parseFlags(e, fs, args); helped || perr != nil {
		return perr
	}

	cfg, err := loadConfig(e, true)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	a, err := openApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("Error closing stores")
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// With rebuild_on_start the rebuild service publishes the first
	// snapshot; /readyz reports 503 until it does.
	if !cfg.Schedule.RebuildOnStart {
		if _, err := a.manager.Load(ctx); err != nil {
			return err
		}
	}

	tree, err := newServeTree(a, cfg)
	if err != nil {
		return apperr.Wrap(apperr.CodeInternal, "serve", err)
	}

	watchConfig(e)

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Str("schedule", cfg.Schedule.Rebuild).
		Int("places", a.catalog.Len()).
		Msg("Starting wayfarer admin server")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return apperr.Wrap(apperr.CodeInternal, "serve", err)
	}

	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}

// newServeTree builds the supervisor tree with the rebuild scheduler and
// the admin HTTP server.
func newServeTree(a *app, cfg *config.Config) (*supervisor.SupervisorTree, error) {
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}

	tree.AddArtifactService(services.NewRebuildService(a.manager, services.RebuildServiceConfig{
		Schedule: cfg.Schedule.Rebuild,
		OnStart:  cfg.Schedule.RebuildOnStart,
		Timeout:  cfg.Schedule.Timeout,
	}, a.logger))

	server := &http.Server{
		Handler:           api.NewServer(a.engine, a.ratings).Router(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, services.HTTPServiceConfig{
		Addr:            cfg.Server.Addr,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, a.logger))

	return tree, nil
}

// watchConfig applies log level changes from the config file while
// serving. Other settings need a restart.
func watchConfig(e *env) {
	path := e.configPath
	if path == "" {
		path = config.ConfigFile()
	}
	if path == "" {
		return
	}

	err := config.WatchConfigFile(path, func() {
		cfg, err := config.LoadFile(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid configuration change")
			return
		}
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("Configuration reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
