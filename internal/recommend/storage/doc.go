// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package storage persists offline artifact blobs.
//
// Artifacts are opaque byte blobs keyed by their versioned name (for
// example "cooc.v1"). Every Save creates a new generation; Load returns the
// latest one. Blobs are gzip-compressed and carry a SHA-256 checksum of the
// uncompressed payload that is verified on load.
//
// # Backends
//
//   - FileStore: one file per generation under a directory, written to a
//     temporary file and renamed into place, older generations pruned.
//   - RedisStore: one key per artifact plus a generation counter, for
//     deployments that share artifacts between processes.
//   - MemoryStore: process-local, for tests and ephemeral runs.
//
// # Thread Safety
//
// All stores are safe for concurrent use.
package storage
