// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package logging provides centralized zerolog-based structured logging for
// Wayfarer.
//
// # Overview
//
// The package provides:
//   - A process-global zerolog logger configured once from Config
//   - JSON output for services, console output for the CLI
//   - Request-scoped loggers carrying request_id and user_id
//   - An slog adapter so sutureslog can log through zerolog
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("artifact", "cooc.v1").Msg("artifact built")
//
//	ctx = logging.ContextWithRequestID(ctx, logging.GenerateRequestID())
//	ctx = logging.ContextWithUserID(ctx, "u1")
//	logging.Ctx(ctx).Debug().Int("candidates", n).Msg("scored candidates")
//
// # Components
//
// Long-lived components take a child logger at construction time:
//
//	logger := logging.WithComponent("recommend")
//
// # Log Levels
//
//   - Debug: per-request scoring detail
//   - Info: artifact builds, snapshot publication, lifecycle
//   - Warn: degraded paths (LLM unavailable, artifact missing, fallbacks)
//   - Error: failed rebuilds and unexpected store errors
//
// Always terminate log chains with .Msg() or .Send(); an unterminated
// event is never written.
package logging
