// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package filter

import (
	"strings"
	"testing"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/catalog"
)

var datanla = catalog.Place{
	ID:          "p5",
	Name:        "Datanla Falls",
	Tags:        []string{"Lam Dong", "Mountain", "Waterfall"},
	Description: "Cascades near Da Lat",
}

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		expr string
		want bool
	}{
		{`place.province == "lam dong" && "waterfall" in place.tags`, true},
		{`place.province == "quang ninh"`, false},
		{`!place.name.contains("Falls")`, false},
		{`place.tags.exists(t, t.startsWith("moun"))`, true},
		{`place.description.contains("Da Lat")`, true},
		{`place.id in ["p1", "p2"]`, false},
		{`size(place.tags) == 3`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile() error = %v", err)
			}
			got, err := f.Match(datanla)
			if err != nil {
				t.Fatalf("Match() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{name: "empty", expr: ""},
		{name: "syntax", expr: `place.province ==`},
		{name: "non-bool", expr: `1 + 2`},
		{name: "unknown variable", expr: `user.id == "u1"`},
		{name: "too long", expr: strings.Repeat("a", MaxExpressionLength+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Compile(tt.expr); !apperr.IsInvalidArgument(err) {
				t.Errorf("Compile(%q) error = %v, want INVALID_ARGUMENT", tt.expr, err)
			}
		})
	}
}

func TestFilter_MatchRuntimeError(t *testing.T) {
	f, err := Compile(`place.rating > 3`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if _, err := f.Match(datanla); !apperr.IsInvalidArgument(err) {
		t.Errorf("Match() error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestInput(t *testing.T) {
	in := Input(datanla)
	if in["province"] != "lam dong" {
		t.Errorf("province = %v, want lam dong", in["province"])
	}
	tags, ok := in["tags"].([]string)
	if !ok || len(tags) != 3 || tags[2] != "waterfall" {
		t.Errorf("tags = %v, want normalized tags", in["tags"])
	}
}

func TestCompiler_Caches(t *testing.T) {
	c := NewCompiler(8)
	a, err := c.Compile(`"mountain" in place.tags`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	b, err := c.Compile(`"mountain" in place.tags`)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if a != b {
		t.Error("Compile() returned a new program for a cached expression")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, err := c.Compile(`bad ==`); err == nil {
		t.Error("Compile(bad) error = nil, want error")
	}
	if c.Len() != 1 {
		t.Errorf("Len() after failure = %d, want 1", c.Len())
	}
}
