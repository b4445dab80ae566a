// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package feedback persists implicit-feedback state: one rating per
// (user, place) pair, the current like/dislike mark and whether the user has
// ever commented on the place.
//
// Three backends implement Store:
//   - MemoryStore: process-local maps, used by tests and evaluation
//   - BadgerStore: embedded key-value store for single-node deployments
//   - SQLiteStore: embedded SQL database (modernc.org/sqlite, no cgo)
//
// All backends iterate in (user, place) order so that offline artifact
// builds are reproducible.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/wayfarer/internal/apperr"
)

// MinScore and MaxScore bound every persisted rating.
const (
	MinScore = 1.0
	MaxScore = 5.0
)

// ErrNotFound is returned when a rating does not exist.
var ErrNotFound = errors.New("rating not found")

// Rating is the implicit-feedback score of a user for a place.
type Rating struct {
	UserID    string    `json:"user_id"`
	PlaceID   string    `json:"place_id"`
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LikeMark is the current explicit like (true) or dislike (false).
type LikeMark struct {
	UserID  string `json:"user_id"`
	PlaceID string `json:"place_id"`
	IsLike  bool   `json:"is_like"`
}

// UpdateFunc computes a new score from the current one. exists is false for
// a cold pair, in which case current is 0.
type UpdateFunc func(current float64, exists bool) (float64, error)

// Interaction is a rating update persisted together with the marks of the
// event that caused it.
type Interaction struct {
	// Like, when non-nil, replaces the pair's like mark.
	Like *bool

	// Comment records the pair's comment mark. A repeat comment writes
	// nothing and Apply is not called.
	Comment bool

	// Apply computes the new score. firstComment is true when this
	// interaction records the pair's first comment.
	Apply func(current float64, exists, firstComment bool) (float64, error)
}

// InteractionResult is the outcome of Store.RecordInteraction.
type InteractionResult struct {
	// Rating is the stored rating after the call. For a skipped repeat
	// comment it is the existing rating, zero when the pair has none.
	Rating Rating

	// Existed reports whether the pair had a rating before the call.
	Existed bool

	// Applied is false when a repeat comment left everything untouched.
	Applied bool
}

// Store is the feedback collaborator consumed by the core.
type Store interface {
	// IterRatings calls fn for every rating of userID, or for every rating
	// when userID is empty, in (user, place) order.
	IterRatings(ctx context.Context, userID string, fn func(Rating) error) error

	// GetRating returns the rating for a pair or ErrNotFound.
	GetRating(ctx context.Context, userID, placeID string) (Rating, error)

	// UpsertRating writes a score for a pair, creating or replacing it.
	UpsertRating(ctx context.Context, userID, placeID string, score float64) error

	// UpdateRating atomically reads the pair's score, applies fn and writes
	// the result. created reports whether the pair had no prior rating.
	UpdateRating(ctx context.Context, userID, placeID string, fn UpdateFunc) (r Rating, created bool, err error)

	// RecordInteraction writes in's marks and the score computed by
	// in.Apply in one atomic step: when Apply or the write fails, neither
	// the marks nor the score change.
	RecordInteraction(ctx context.Context, userID, placeID string, in Interaction) (InteractionResult, error)

	// GetLikes returns the user's like marks in place order.
	GetLikes(ctx context.Context, userID string) ([]LikeMark, error)

	// IterLikes calls fn for every like mark in (user, place) order.
	IterLikes(ctx context.Context, fn func(LikeMark) error) error

	// SetLike records a like or dislike, replacing any prior mark.
	SetLike(ctx context.Context, userID, placeID string, isLike bool) error

	// HasComment reports whether the user has commented on the place.
	HasComment(ctx context.Context, userID, placeID string) (bool, error)

	// MarkComment records a comment and reports whether it was the first
	// for the pair.
	MarkComment(ctx context.Context, userID, placeID string) (first bool, err error)

	// Close releases backend resources.
	Close() error
}

// keySep separates user and place ids in composite keys.
const keySep = "\x1f"

// checkIDs rejects empty ids and ids that would corrupt composite keys.
func checkIDs(userID, placeID string) error {
	const op = "feedback"
	if userID == "" || placeID == "" {
		return apperr.InvalidArgument(op, "user and place ids are required")
	}
	if strings.Contains(userID, keySep) || strings.Contains(placeID, keySep) {
		return apperr.InvalidArgument(op, "ids must not contain control characters")
	}
	return nil
}

// clamp bounds a score to [MinScore, MaxScore].
func clamp(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// Open creates a store for the named backend. path is ignored by the
// memory backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "badger":
		return OpenBadgerStore(path)
	case "sqlite":
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown feedback backend %q", backend)
	}
}
