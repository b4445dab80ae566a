// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package query

import (
	"strings"
	"testing"

	"github.com/tomtom215/wayfarer/internal/catalog"
)

func miniWorld() []catalog.Place {
	return []catalog.Place{
		{ID: "p1", Name: "Ha Long Bay", Tags: []string{"Quang Ninh", "Beach", "Island"}},
		{ID: "p2", Name: "Tra Co Beach", Tags: []string{"Quang Ninh", "Beach", "Seafood"}},
		{ID: "p3", Name: "Da Lat", Tags: []string{"Lam Dong", "Mountain", "Cool"}},
		{ID: "p4", Name: "Old Quarter", Tags: []string{"Ha Noi", "Historical", "Cultural"}},
		{ID: "p5", Name: "Datanla Falls", Tags: []string{"Lam Dong", "Mountain", "Waterfall"}},
	}
}

func TestDetector_Detect(t *testing.T) {
	d := NewDetector(miniWorld())

	tests := []struct {
		name          string
		text          string
		wantTags      string
		wantProvinces string
	}{
		{
			name:          "diacritics folded",
			text:          "Cool mountains in Lâm Đồng",
			wantTags:      "cool",
			wantProvinces: "Lam Dong",
		},
		{
			name:          "duplicates collapsed",
			text:          "beach and island near quang ninh, beach again",
			wantTags:      "beach|island",
			wantProvinces: "Quang Ninh",
		},
		{
			name: "whole words only",
			text: "hanoi beaches",
		},
		{
			name:          "province only",
			text:          "HA NOI",
			wantProvinces: "Ha Noi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags, provinces := d.Detect(tt.text)
			if got := strings.Join(tags, "|"); got != tt.wantTags {
				t.Errorf("tags = %q, want %q", got, tt.wantTags)
			}
			if got := strings.Join(provinces, "|"); got != tt.wantProvinces {
				t.Errorf("provinces = %q, want %q", got, tt.wantProvinces)
			}
		})
	}
}

func TestDetector_Vocabulary(t *testing.T) {
	d := NewDetector(miniWorld())
	// 3 provinces and 8 distinct theme tags.
	if got := d.Vocabulary(); got != 11 {
		t.Errorf("Vocabulary() = %d, want 11", got)
	}

	var nilDetector *Detector
	if tags, provinces := nilDetector.Detect("beach"); tags != nil || provinces != nil {
		t.Errorf("nil Detect() = %v, %v, want nil", tags, provinces)
	}
}
