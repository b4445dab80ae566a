// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package recommend

import (
	"time"
)

// Mode names the ranking path a request took.
type Mode string

const (
	// ModePersonalized ranks with the user's feedback (all four signals).
	ModePersonalized Mode = "personalized"
	// ModeAnonymous ranks unknown users by content and global popularity.
	ModeAnonymous Mode = "anonymous"
	// ModePopular returns the global-popularity list.
	ModePopular Mode = "popular"
)

// Fallback reasons recorded in response metadata and metrics.
const (
	FallbackAllZero   = "all_zero"
	FallbackNoInput   = "no_input"
	FallbackNoContent = "no_content"
)

// Request represents a recommendation request.
type Request struct {
	// UserID is optional; a user without feedback ranks anonymously.
	UserID string `json:"user_id,omitempty" validate:"omitempty,max=128"`

	// Tags are preference tags. They are normalized and expanded through
	// the tag cooccurrence table.
	Tags []string `json:"tags,omitempty" validate:"max=32,dive,max=64"`

	// Query is free text routed through the query adapter.
	Query string `json:"query,omitempty" validate:"max=512"`

	// Provinces restrict candidates to places whose first tag matches one
	// of them. Provinces detected in Query are added.
	Provinces []string `json:"provinces,omitempty" validate:"max=16,dive,max=64"`

	// Filter is an optional CEL expression over place fields.
	Filter string `json:"filter,omitempty" validate:"max=1024"`

	// K is the number of results; zero means the configured default.
	K int `json:"k,omitempty" validate:"min=0"`

	// IncludeSeen keeps places the user already rated highly, demoted.
	// The zero value excludes them.
	IncludeSeen bool `json:"include_seen,omitempty"`

	// RequestID is generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// ScoredPlace is one ranked result.
type ScoredPlace struct {
	// PlaceID identifies the place.
	PlaceID string `json:"place_id"`

	// Name is the display name.
	Name string `json:"name"`

	// Province is the place's first tag.
	Province string `json:"province,omitempty"`

	// Score is the final blended score.
	Score float64 `json:"score"`

	// Signals holds the raw value of every signal that took part.
	Signals map[string]float64 `json:"signals,omitempty"`

	// Reason is a short explanation of the dominant signal.
	Reason string `json:"reason,omitempty"`
}

// Response represents a recommendation response.
type Response struct {
	// Items are ranked by score descending, ties by place id.
	Items []ScoredPlace `json:"items"`

	// Metadata describes how the ranking was produced.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains diagnostic information.
type ResponseMetadata struct {
	RequestID string `json:"request_id"`
	UserID    string `json:"user_id,omitempty"`
	Mode      Mode   `json:"mode"`

	// Generation is the artifact snapshot the ranking read.
	Generation int64 `json:"generation"`

	// RuleSet is the rating rule-set version the artifacts were built under.
	RuleSet string `json:"rule_set"`

	// Phrase is the phrase extracted from Query.
	Phrase string `json:"phrase,omitempty"`

	// ExpandedTags is the tag bag after normalization and expansion.
	ExpandedTags []string `json:"expanded_tags,omitempty"`

	// Provinces is the effective province filter.
	Provinces []string `json:"provinces,omitempty"`

	// SignalsUsed lists signals that contributed, in blend order.
	SignalsUsed []string `json:"signals_used,omitempty"`

	// Fallback names the fallback taken, if any.
	Fallback string `json:"fallback,omitempty"`

	// Candidates is the number of places scored after hard filters.
	Candidates int `json:"candidates"`

	CacheHit bool `json:"cache_hit"`

	// Degraded is set when an external collaborator failed and the request
	// continued without it.
	Degraded bool `json:"degraded,omitempty"`

	LatencyMS int64     `json:"latency_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// clone returns a copy that shares no mutable slices with r.
func (r *Response) clone() *Response {
	out := *r
	out.Items = make([]ScoredPlace, len(r.Items))
	copy(out.Items, r.Items)
	return &out
}

// IDs returns the ranked place ids.
func (r *Response) IDs() []string {
	ids := make([]string, len(r.Items))
	for i := range r.Items {
		ids[i] = r.Items[i].PlaceID
	}
	return ids
}
