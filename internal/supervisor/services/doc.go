// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package services adapts wayfarer components to suture.Service.
//
// HTTPServerService binds the admin address and serves until the context
// ends, then shuts down gracefully. RebuildService runs artifact rebuilds
// on a cron schedule.
package services
