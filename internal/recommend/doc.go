// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package recommend implements the hybrid place ranker.
//
// # Signals
//
// Four score sources are blended per candidate place:
//
//   - content: TF-IDF cosine of the (expanded) query tags, or of the user's
//     profile vector when no tags are given, multiplied by the query boost
//   - cf: item-based collaborative filtering over the user's ratings
//   - cluster: tag popularity within the user's taste cluster
//   - global: catalog-wide count of positive interactions
//
// Users with feedback use Config.Weights (default 0.30/0.50/0.10/0.10);
// users without use Config.AnonymousWeights (0.50 content, 0.50 global).
// A signal that is missing, or zero for every candidate, is dropped and the
// remaining weights are renormalized. When every blended score is zero the
// candidates are ordered by global popularity instead.
//
// After blending, disliked places pull similar candidates down, seen
// places are excluded or demoted, and the diversity reranker spreads the
// head of the list across primary tags.
//
// # Artifacts
//
// The offline artifacts (cooccurrence, clusters, content index, item
// similarity, popularity) are held in an immutable Snapshot. The Manager
// loads them from a storage.Store, rebuilds missing ones, and publishes new
// snapshots by swapping a pointer under one mutex. Requests read whichever
// snapshot was current when they started.
//
// # Usage
//
//	manager := recommend.NewManager(cat, fb, store, cfg, logger)
//	if _, err := manager.Load(ctx); err != nil {
//	    return err
//	}
//	engine, err := recommend.NewEngine(cfg, manager, fb, extractor, logger)
//	if err != nil {
//	    return err
//	}
//	resp, err := engine.Recommend(ctx, recommend.Request{
//	    UserID: "u1",
//	    Query:  "quiet beach in Quang Ninh",
//	    K:      5,
//	})
//
// # Thread Safety
//
// Engine and Manager are safe for concurrent use. Rebuilds are serialized;
// requests never block on them.
package recommend
