// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package rating

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Status reports how a recorded interaction affected the stored rating.
type Status string

const (
	// StatusCreated means the pair had no prior rating.
	StatusCreated Status = "created"
	// StatusUpdated means an existing rating was rewritten (possibly with
	// the same value, see Result.Changed).
	StatusUpdated Status = "updated"
)

// Result is the outcome of Engine.Record.
type Result struct {
	Status Status `json:"status"`
	// Score is the stored rating after the event. It is zero only when a
	// repeat comment arrives for a pair that has no rating.
	Score float64 `json:"score"`
	// Changed is false when the event left the score as it was (a repeat
	// like, a repeat comment, a clamp at the boundary).
	Changed bool `json:"changed"`
	// RuleSet is RuleSetVersion.
	RuleSet string `json:"rule_set"`
}

// Engine applies interaction events to the feedback store.
// It is safe for concurrent use; per-pair serialization is delegated to
// feedback.Store.RecordInteraction.
type Engine struct {
	catalog catalog.Store
	store   feedback.Store
	logger  zerolog.Logger
}

// NewEngine creates a rating engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cat catalog.Store, store feedback.Store, logger zerolog.Logger) *Engine {
	return &Engine{
		catalog: cat,
		store:   store,
		logger:  logger.With().Str("component", "rating").Logger(),
	}
}

// Record applies ev to the (userID, placeID) rating and persists it.
// Like and dislike also replace the pair's like mark; comment records the
// comment mark and is rewarded only the first time.
func (e *Engine) Record(ctx context.Context, userID, placeID string, ev Event) (Result, error) {
	res, err := e.record(ctx, userID, placeID, ev)
	e.observe(ev, res, err)
	return res, err
}

func (e *Engine) record(ctx context.Context, userID, placeID string, ev Event) (Result, error) {
	const op = "rating.Record"

	if err := ev.Validate(); err != nil {
		return Result{}, err
	}
	if userID == "" {
		return Result{}, apperr.InvalidArgument(op, "user id is required")
	}
	if placeID == "" {
		return Result{}, apperr.InvalidArgument(op, "place id is required")
	}
	if _, err := e.catalog.GetPlace(ctx, placeID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Result{}, apperr.NotFound(op, "unknown place %q", placeID)
		}
		return Result{}, apperr.Wrap(apperr.CodeInternal, op, err)
	}

	var prev float64
	in := feedback.Interaction{
		Apply: func(cur float64, exists, firstComment bool) (float64, error) {
			prev = cur
			return Apply(cur, exists, ev, firstComment)
		},
	}
	switch ev.Kind {
	case KindLike, KindDislike:
		like := ev.Kind == KindLike
		in.Like = &like
	case KindComment:
		in.Comment = true
	}

	out, err := e.store.RecordInteraction(ctx, userID, placeID, in)
	if err != nil {
		return Result{}, storeError(op, err)
	}
	if !out.Applied {
		// Repeat comment: nothing was written.
		return Result{Status: StatusUpdated, Score: out.Rating.Score, RuleSet: RuleSetVersion}, nil
	}
	r, created := out.Rating, !out.Existed

	res := Result{
		Status:  StatusUpdated,
		Score:   r.Score,
		Changed: created || r.Score != prev,
		RuleSet: RuleSetVersion,
	}
	if created {
		res.Status = StatusCreated
	}

	e.logger.Debug().
		Str("user_id", userID).
		Str("place_id", placeID).
		Str("event", ev.String()).
		Str("status", string(res.Status)).
		Float64("score", res.Score).
		Msg("interaction recorded")

	return res, nil
}

// storeError keeps taxonomy errors raised by the store and classifies
// everything else as internal.
func storeError(op string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Wrap(apperr.CodeInternal, op, err)
}

func (e *Engine) observe(ev Event, res Result, err error) {
	status := string(res.Status)
	switch {
	case err == nil:
	case apperr.IsInvalidArgument(err):
		status = "invalid"
	case apperr.IsNotFound(err):
		status = "not_found"
	default:
		status = "error"
		e.logger.Error().Err(err).Str("event", ev.String()).Msg("record interaction failed")
	}
	metrics.RecordRatingEvent(ev.Kind.String(), status)
}

// GetRating returns the stored score for a pair. ok is false when the pair
// has no rating.
func (e *Engine) GetRating(ctx context.Context, userID, placeID string) (score float64, ok bool, err error) {
	if userID == "" || placeID == "" {
		return 0, false, apperr.InvalidArgument("rating.GetRating", "user and place ids are required")
	}
	r, err := e.store.GetRating(ctx, userID, placeID)
	if errors.Is(err, feedback.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, storeError("rating.GetRating", err)
	}
	return r.Score, true, nil
}
