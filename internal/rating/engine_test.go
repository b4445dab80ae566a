// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package rating

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
)

func newTestEngine(t *testing.T) (*Engine, feedback.Store) {
	t.Helper()

	cat, err := catalog.NewMemoryStore([]catalog.Place{
		{ID: "p1", Name: "Ha Long Bay", Tags: []string{"Quang Ninh", "Beach", "Island"}},
		{ID: "p4", Name: "Temple of Literature", Tags: []string{"Ha Noi", "Historical", "Cultural"}},
		{ID: "p5", Name: "Datanla Falls", Tags: []string{"Lam Dong", "Mountain", "Waterfall"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	store := feedback.NewMemoryStore()
	return NewEngine(cat, store, zerolog.Nop()), store
}

func TestEngine_Scenarios(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	// Like on a cold pair creates the rating at the maximum.
	res, err := e.Record(ctx, "u1", "p4", Like())
	if err != nil {
		t.Fatalf("Record(like) error = %v", err)
	}
	if res.Status != StatusCreated || res.Score != 5.0 {
		t.Errorf("Record(like) = %+v, want created 5.0", res)
	}

	// Dislike immediately after sets the minimum.
	res, err = e.Record(ctx, "u1", "p4", Dislike())
	if err != nil {
		t.Fatalf("Record(dislike) error = %v", err)
	}
	if res.Status != StatusUpdated || res.Score != 1.0 {
		t.Errorf("Record(dislike) = %+v, want updated 1.0", res)
	}

	// A short view on a cold pair clamps 0-2 up to the minimum.
	res, err = e.Record(ctx, "u1", "p5", WatchTime(5))
	if err != nil {
		t.Fatalf("Record(watch) error = %v", err)
	}
	if res.Status != StatusCreated || res.Score != 1.0 {
		t.Errorf("Record(watch=5) = %+v, want created 1.0", res)
	}
}

func TestEngine_LikeMarks(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)

	if _, err := e.Record(ctx, "u1", "p1", Like()); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Record(ctx, "u1", "p1", Dislike()); err != nil {
		t.Fatal(err)
	}

	likes, err := store.GetLikes(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(likes) != 1 || likes[0].IsLike {
		t.Errorf("GetLikes() = %+v, want a single dislike", likes)
	}
}

func TestEngine_FirstCommentOnly(t *testing.T) {
	ctx := context.Background()
	e, store := newTestEngine(t)

	if err := store.UpsertRating(ctx, "u1", "p1", 3.0); err != nil {
		t.Fatal(err)
	}

	res, err := e.Record(ctx, "u1", "p1", Comment())
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 3.5 || !res.Changed {
		t.Errorf("first comment = %+v, want 3.5 changed", res)
	}

	res, err = e.Record(ctx, "u1", "p1", Comment())
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != 3.5 || res.Changed || res.Status != StatusUpdated {
		t.Errorf("second comment = %+v, want 3.5 unchanged", res)
	}

	score, ok, err := e.GetRating(ctx, "u1", "p1")
	if err != nil || !ok || score != 3.5 {
		t.Errorf("GetRating() = %v, %v, %v; want 3.5", score, ok, err)
	}
}

// failOnceStore fails the first RecordInteraction after the store has
// started applying it.
type failOnceStore struct {
	feedback.Store
	failed bool
}

func (s *failOnceStore) RecordInteraction(ctx context.Context, userID, placeID string, in feedback.Interaction) (feedback.InteractionResult, error) {
	if !s.failed {
		s.failed = true
		apply := in.Apply
		in.Apply = func(cur float64, exists, first bool) (float64, error) {
			if _, err := apply(cur, exists, first); err != nil {
				return 0, err
			}
			return 0, errors.New("disk full")
		}
	}
	return s.Store.RecordInteraction(ctx, userID, placeID, in)
}

func TestEngine_FailedWriteKeepsFirstComment(t *testing.T) {
	ctx := context.Background()
	inner := feedback.NewMemoryStore()
	cat, err := catalog.NewMemoryStore([]catalog.Place{
		{ID: "p1", Name: "Ha Long Bay", Tags: []string{"Quang Ninh", "Beach", "Island"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(cat, &failOnceStore{Store: inner}, zerolog.Nop())

	if err := inner.UpsertRating(ctx, "u1", "p1", 3.0); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Record(ctx, "u1", "p1", Comment()); apperr.CodeOf(err) != apperr.CodeInternal {
		t.Fatalf("Record(comment) error = %v, want internal", err)
	}
	if has, _ := inner.HasComment(ctx, "u1", "p1"); has {
		t.Error("failed comment left the comment mark set")
	}

	res, err := e.Record(ctx, "u1", "p1", Comment())
	if err != nil {
		t.Fatalf("Record(comment) retry error = %v", err)
	}
	if res.Score != 3.5 || !res.Changed {
		t.Errorf("retried comment = %+v, want the first-comment reward (3.5)", res)
	}
}

func TestEngine_FailedWriteKeepsLikeMark(t *testing.T) {
	ctx := context.Background()
	inner := feedback.NewMemoryStore()
	cat, err := catalog.NewMemoryStore([]catalog.Place{
		{ID: "p1", Name: "Ha Long Bay", Tags: []string{"Quang Ninh", "Beach", "Island"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	e := NewEngine(cat, &failOnceStore{Store: inner}, zerolog.Nop())

	if _, err := e.Record(ctx, "u1", "p1", Dislike()); err == nil {
		t.Fatal("Record(dislike) error = nil, want failure")
	}
	likes, err := inner.GetLikes(ctx, "u1")
	if err != nil || len(likes) != 0 {
		t.Errorf("GetLikes() = %+v, %v; want no mark after a failed write", likes, err)
	}
	if _, err := inner.GetRating(ctx, "u1", "p1"); !errors.Is(err, feedback.ErrNotFound) {
		t.Errorf("GetRating() error = %v, want ErrNotFound", err)
	}
}

func TestEngine_RepeatLikeUnchanged(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	if _, err := e.Record(ctx, "u1", "p1", Like()); err != nil {
		t.Fatal(err)
	}
	res, err := e.Record(ctx, "u1", "p1", Like())
	if err != nil {
		t.Fatal(err)
	}
	if res.Status != StatusUpdated || res.Score != 5.0 || res.Changed {
		t.Errorf("repeat like = %+v, want updated 5.0 unchanged", res)
	}
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	tests := []struct {
		name    string
		user    string
		place   string
		event   Event
		wantErr apperr.Code
	}{
		{"watch without duration", "u1", "p1", Event{Kind: KindWatchTime}, apperr.CodeInvalidArgument},
		{"missing user", "", "p1", Like(), apperr.CodeInvalidArgument},
		{"missing place", "u1", "", Like(), apperr.CodeInvalidArgument},
		{"control character in user", "u\x1f1", "p1", Comment(), apperr.CodeInvalidArgument},
		{"unknown place", "u1", "p9", Like(), apperr.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Record(ctx, tt.user, tt.place, tt.event)
			if got := apperr.CodeOf(err); got != tt.wantErr {
				t.Errorf("Record() code = %q, want %q (err = %v)", got, tt.wantErr, err)
			}
		})
	}

	// A rejected event has no persistent effect.
	if _, ok, _ := e.GetRating(ctx, "u1", "p1"); ok {
		t.Error("rejected events must not create a rating")
	}
}

func TestEngine_GetRatingCold(t *testing.T) {
	e, _ := newTestEngine(t)

	score, ok, err := e.GetRating(context.Background(), "u1", "p1")
	if err != nil || ok || score != 0 {
		t.Errorf("GetRating(cold) = %v, %v, %v; want 0, false, nil", score, ok, err)
	}
	if _, _, err := e.GetRating(context.Background(), "", "p1"); !apperr.IsInvalidArgument(err) {
		t.Errorf("GetRating(no user) error = %v, want InvalidArgument", err)
	}
}
