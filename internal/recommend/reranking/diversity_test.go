// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package reranking

import (
	"context"
	"strings"
	"testing"
)

func ids(items []Candidate) string {
	out := make([]string, len(items))
	for i, c := range items {
		out[i] = c.ID
	}
	return strings.Join(out, ",")
}

func pair(province, theme string) []string {
	return []string{province, theme}
}

func TestDiversity_HeadSize(t *testing.T) {
	d := NewDiversity(DefaultDiversityFraction, DefaultDiversityMaxOverlap)
	tests := []struct {
		k    int
		want int
	}{
		{k: 0, want: 0},
		{k: 1, want: 1},
		{k: 2, want: 1},
		{k: 3, want: 1},
		{k: 4, want: 2},
		{k: 10, want: 3},
		{k: 11, want: 4},
	}
	for _, tt := range tests {
		if got := d.HeadSize(tt.k); got != tt.want {
			t.Errorf("HeadSize(%d) = %d, want %d", tt.k, got, tt.want)
		}
	}
}

func TestDiversity_Rerank(t *testing.T) {
	items := []Candidate{
		{ID: "a", Score: 0.9, PrimaryTags: pair("khanh hoa", "beach")},
		{ID: "b", Score: 0.8, PrimaryTags: pair("khanh hoa", "beach")},
		{ID: "c", Score: 0.7, PrimaryTags: pair("khanh hoa", "island")},
		{ID: "d", Score: 0.6, PrimaryTags: pair("lao cai", "mountain")},
		{ID: "e", Score: 0.5, PrimaryTags: pair("lao cai", "mountain")},
		{ID: "f", Score: 0.4, PrimaryTags: pair("hue", "cultural")},
	}

	tests := []struct {
		name     string
		fraction float64
		k        int
		want     string
	}{
		{name: "head of one keeps order", fraction: 0.3, k: 3, want: "a,b,c"},
		{name: "head of two skips duplicate pair", fraction: 0.3, k: 4, want: "a,c,b,d"},
		{name: "full head", fraction: 1, k: 6, want: "a,c,d,f,b,e"},
		{name: "disabled", fraction: 0, k: 4, want: "a,b,c,d"},
		{name: "k beyond input", fraction: 1, k: 10, want: "a,c,d,f,b,e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewDiversity(tt.fraction, 1).Rerank(context.Background(), items, tt.k)
			if ids(got) != tt.want {
				t.Errorf("Rerank() = %s, want %s", ids(got), tt.want)
			}
		})
	}
}

func TestDiversity_HeadFloor(t *testing.T) {
	items := []Candidate{
		{ID: "p1", PrimaryTags: pair("quang ninh", "beach")},
		{ID: "p2", PrimaryTags: pair("quang ninh", "beach")},
		{ID: "p3", PrimaryTags: pair("quang ninh", "beach")},
		{ID: "p4", PrimaryTags: pair("ha noi", "historical")},
		{ID: "p5", PrimaryTags: pair("lam dong", "mountain")},
		{ID: "p6", PrimaryTags: pair("lam dong", "mountain")},
		{ID: "p7", PrimaryTags: pair("hue", "cultural")},
	}
	d := NewDiversity(0.3, 1)
	k := 7
	got := d.Rerank(context.Background(), items, k)
	head := d.HeadSize(k)
	for i := 0; i < head; i++ {
		for j := i + 1; j < head; j++ {
			if n := overlap(got[i].PrimaryTags, got[j].PrimaryTags); n > 1 {
				t.Errorf("head %s and %s share %d primary tags", got[i].ID, got[j].ID, n)
			}
		}
	}
	if len(got) != k {
		t.Errorf("len(Rerank()) = %d, want %d", len(got), k)
	}
}

func TestDiversity_TailFallsBackToRawOrder(t *testing.T) {
	items := []Candidate{
		{ID: "a", PrimaryTags: pair("x", "y")},
		{ID: "b", PrimaryTags: pair("x", "y")},
		{ID: "c", PrimaryTags: pair("x", "y")},
	}
	got := NewDiversity(1, 1).Rerank(context.Background(), items, 3)
	if ids(got) != "a,b,c" {
		t.Errorf("Rerank() = %s, want a,b,c", ids(got))
	}
}

func TestDiversity_Edges(t *testing.T) {
	d := NewDiversity(2, -1)
	if d.fraction != 1 || d.maxOverlap != 0 {
		t.Errorf("NewDiversity(2, -1) = %v, %v, want 1, 0", d.fraction, d.maxOverlap)
	}
	if got := d.Rerank(context.Background(), nil, 3); len(got) != 0 {
		t.Errorf("Rerank(nil) = %v, want empty", got)
	}
	if d.Name() != "diversity" {
		t.Errorf("Name() = %q, want diversity", d.Name())
	}
}
