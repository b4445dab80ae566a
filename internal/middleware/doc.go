// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package middleware holds the HTTP middleware of the admin server, in
// chi's func(http.Handler) http.Handler form:
//
//   - RequestID: propagates or generates X-Request-ID and attaches a
//     request-scoped zerolog logger to the context
//   - Metrics: records wayfarer_admin_request_duration_seconds labeled by
//     the chi route pattern
//   - AccessLog: one structured log line per request
package middleware
