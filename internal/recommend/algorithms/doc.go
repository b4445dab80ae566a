// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package algorithms builds the offline artifacts consumed by the hybrid
// ranker.
//
// Every artifact is built from a Dataset, a point-in-time snapshot of the
// catalog and the feedback store, and is immutable once built. Artifacts
// built from the same Dataset are mutually consistent.
//
// # Artifacts
//
//   - CoocTable (cooc.v1): symmetric tag similarity mined from users'
//     positively rated places; serves RelatedTags, Expand and BoostScores.
//   - Clusters (clusters.v1): k-means over per-user tag-affinity vectors,
//     with per-cluster tag profiles and place popularity.
//   - ContentIndex (content.v1): TF-IDF over tag-weighted place documents.
//   - ItemSimIndex (item_sim.v1): top-K item-item cosine neighbors.
//   - Popularity (popularity.v1): normalized count of positive interactions.
//
// # Effective Ratings
//
// Builders read Dataset.Effective rather than raw ratings: a like mark
// counts as 5.0 and a dislike mark as 1.0, overriding the stored score for
// that pair.
//
// # Encoding
//
// Each artifact implements MarshalBinary with encoding/gob and has a
// matching Decode* function. The artifact name carries the layout version.
//
// # Usage Example
//
//	d, err := algorithms.LoadDataset(ctx, catalogStore, feedbackStore)
//	if err != nil {
//	    return err
//	}
//	cooc, err := algorithms.BuildCooc(ctx, d, algorithms.DefaultCoocConfig())
//	if err != nil {
//	    return err
//	}
//	tags := cooc.Expand([]string{"Mountain"}, 2)
package algorithms
