// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package recommend

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
	"github.com/tomtom215/wayfarer/internal/query"
	"github.com/tomtom215/wayfarer/internal/recommend/storage"
)

// miniPlaces is the five-place catalog used across the package tests.
func miniPlaces() []catalog.Place {
	return []catalog.Place{
		{ID: "p1", Name: "Ha Long Bay", Tags: []string{"Quang Ninh", "Beach", "Island"}},
		{ID: "p2", Name: "Tra Co", Tags: []string{"Quang Ninh", "Beach", "Seafood"}},
		{ID: "p3", Name: "Da Lat", Tags: []string{"Lam Dong", "Mountain", "Cool"}},
		{ID: "p4", Name: "Old Quarter", Tags: []string{"Ha Noi", "Historical", "Cultural"}},
		{ID: "p5", Name: "Datanla", Tags: []string{"Lam Dong", "Mountain", "Waterfall"}},
	}
}

type seedRating struct {
	user, place string
	score       float64
}

// miniRatings is the feedback of users u1..u3.
var miniRatings = []seedRating{
	{"u1", "p1", 5.0},
	{"u1", "p2", 4.5},
	{"u1", "p3", 2.0},
	{"u2", "p3", 5.0},
	{"u2", "p5", 4.5},
	{"u2", "p1", 2.5},
	{"u3", "p4", 5.0},
}

func newCatalog(t *testing.T, places []catalog.Place) *catalog.MemoryStore {
	t.Helper()
	cat, err := catalog.NewMemoryStore(places)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	return cat
}

func newFeedback(t *testing.T, ratings []seedRating) *feedback.MemoryStore {
	t.Helper()
	fb := feedback.NewMemoryStore()
	for _, r := range ratings {
		if err := fb.UpsertRating(context.Background(), r.user, r.place, r.score); err != nil {
			t.Fatalf("UpsertRating(%s, %s) error = %v", r.user, r.place, err)
		}
	}
	return fb
}

// fixture wires a catalog, feedback store, artifact store, manager and
// engine, with every artifact built.
type fixture struct {
	cat     *catalog.MemoryStore
	fb      *feedback.MemoryStore
	store   *storage.MemoryStore
	manager *Manager
	engine  *Engine
}

type fixtureOptions struct {
	places    []catalog.Place
	ratings   []seedRating
	cfg       *Config
	extractor query.Extractor
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	if opts.places == nil {
		opts.places = miniPlaces()
	}
	if opts.cfg == nil {
		opts.cfg = DefaultConfig()
		opts.cfg.Cache.Enabled = false
	}

	f := &fixture{
		cat:   newCatalog(t, opts.places),
		fb:    newFeedback(t, opts.ratings),
		store: storage.NewMemoryStore(),
	}
	f.manager = NewManager(f.cat, f.fb, f.store, opts.cfg, zerolog.Nop())
	if _, err := f.manager.Rebuild(context.Background(), KindAll); err != nil {
		t.Fatalf("Rebuild(all) error = %v", err)
	}
	engine, err := NewEngine(opts.cfg, f.manager, f.fb, opts.extractor, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	f.engine = engine
	return f
}

// miniFixture is the miniature world with its feedback.
func miniFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixture(t, fixtureOptions{ratings: miniRatings})
}

func contains(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
