// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package algorithms

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
)

func TestBuildItemSim(t *testing.T) {
	idx, err := BuildItemSim(context.Background(), miniWorld(), DefaultItemCFConfig())
	if err != nil {
		t.Fatalf("BuildItemSim() error = %v", err)
	}

	tests := []struct {
		name string
		a, b string
		want float64
		ok   bool
	}{
		{name: "single shared rater", a: "p1", b: "p2", want: 5 / math.Sqrt(31.25), ok: true},
		{name: "two shared raters", a: "p1", b: "p3", want: 22.5 / (math.Sqrt(31.25) * math.Sqrt(29)), ok: true},
		{name: "symmetric", a: "p3", b: "p1", want: 22.5 / (math.Sqrt(31.25) * math.Sqrt(29)), ok: true},
		{name: "no shared rater", a: "p2", b: "p5", ok: false},
		{name: "isolated place", a: "p4", b: "p1", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := idx.Similarity(tt.a, tt.b)
			if ok != tt.ok {
				t.Fatalf("Similarity(%s, %s) ok = %v, want %v", tt.a, tt.b, ok, tt.ok)
			}
			if !approxEqual(got, tt.want) {
				t.Errorf("Similarity(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	n := idx.Neighbors("p1")
	if len(n) != 3 || n[0].ID != "p2" || n[1].ID != "p3" || n[2].ID != "p5" {
		t.Errorf("Neighbors(p1) = %v, want [p2 p3 p5]", n)
	}
	if got := idx.Neighbors("p4"); len(got) != 0 {
		t.Errorf("Neighbors(p4) = %v, want empty", got)
	}
}

func TestBuildItemSim_TopK(t *testing.T) {
	cfg := DefaultItemCFConfig()
	cfg.K = 1
	idx, err := BuildItemSim(context.Background(), miniWorld(), cfg)
	if err != nil {
		t.Fatalf("BuildItemSim() error = %v", err)
	}
	for _, id := range idx.PlaceIDs() {
		if got := len(idx.Neighbors(id)); got > 1 {
			t.Errorf("len(Neighbors(%s)) = %d, want <= 1", id, got)
		}
	}
}

func TestItemSimIndex_Scores(t *testing.T) {
	idx, err := BuildItemSim(context.Background(), miniWorld(), DefaultItemCFConfig())
	if err != nil {
		t.Fatalf("BuildItemSim() error = %v", err)
	}

	u1 := map[string]float64{"p1": 5, "p2": 4.5, "p3": 2}
	scores := idx.Scores(u1)

	s15, _ := idx.Similarity("p5", "p1")
	s35, _ := idx.Similarity("p5", "p3")
	want := (s15*2 + s35*-1) / (s15 + s35)
	if !approxEqual(scores["p5"], want) {
		t.Errorf("cf(p5) = %v, want %v", scores["p5"], want)
	}
	if scores["p1"] <= 0 {
		t.Errorf("cf(p1) = %v, want positive", scores["p1"])
	}
	if _, ok := scores["p4"]; ok {
		t.Error("cf(p4) present, want absent")
	}

	if got := idx.Scores(nil); len(got) != 0 {
		t.Errorf("Scores(nil) = %v, want empty", got)
	}
	for _, v := range idx.Scores(map[string]float64{"p4": 5}) {
		t.Errorf("Scores(p4 only) has value %v, want empty", v)
	}
}

func TestBuildItemSim_LikeOverridesRating(t *testing.T) {
	places := []catalog.Place{
		{ID: "a", Name: "A", Tags: []string{"X", "Beach"}},
		{ID: "b", Name: "B", Tags: []string{"X", "Beach"}},
	}
	ratings := []feedback.Rating{
		{UserID: "u1", PlaceID: "a", Score: 4},
		{UserID: "u1", PlaceID: "b", Score: 2},
		{UserID: "u2", PlaceID: "b", Score: 4},
	}
	likes := []feedback.LikeMark{{UserID: "u1", PlaceID: "b", IsLike: true}}

	idx, err := BuildItemSim(context.Background(), NewDataset(places, ratings, likes), DefaultItemCFConfig())
	if err != nil {
		t.Fatalf("BuildItemSim() error = %v", err)
	}
	got, _ := idx.Similarity("a", "b")
	want := (4.0 * 5) / (4 * math.Sqrt(25+16))
	if !approxEqual(got, want) {
		t.Errorf("Similarity(a, b) = %v, want %v", got, want)
	}
}

func TestItemSimIndex_RoundTrip(t *testing.T) {
	idx, err := BuildItemSim(context.Background(), miniWorld(), DefaultItemCFConfig())
	if err != nil {
		t.Fatalf("BuildItemSim() error = %v", err)
	}
	data, err := idx.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	decoded, err := DecodeItemSim(data)
	if err != nil {
		t.Fatalf("DecodeItemSim() error = %v", err)
	}
	if decoded.Name() != ArtifactItemSim {
		t.Errorf("Name() = %q, want %q", decoded.Name(), ArtifactItemSim)
	}
	u1 := map[string]float64{"p1": 5, "p2": 4.5, "p3": 2}
	want, got := idx.Scores(u1), decoded.Scores(u1)
	for id, w := range want {
		if !approxEqual(got[id], w) {
			t.Errorf("decoded cf(%s) = %v, want %v", id, got[id], w)
		}
	}
}

func TestBuildItemSim_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := BuildItemSim(ctx, miniWorld(), DefaultItemCFConfig()); err == nil {
		t.Error("BuildItemSim() error = nil, want context error")
	}
}
