// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package query turns free-text travel queries and preference tag lists into
the inputs the hybrid ranker understands.

# Free-text path

A query is lowercased and diacritic-folded, split into word tokens, and
stripped of a fixed stop-word set covering English, Vietnamese and generic
travel verbs ("want", "visit", "đi", "du lịch"). The longest remaining
contiguous run of tokens becomes the phrase, which keeps multi-word
locality names such as "ha long bay" together.

Independently, a Detector scans the folded query with an Aho-Corasick
automaton built from catalog tags and provinces, so "beaches near Đà Nẵng"
yields the tag "beach" only when the catalog uses it and the province
"Da Nang" when a place lists it first.

An optional LLMExtractor fills the structured fields (provinces, type,
weather). Its output schema is pinned and validated; any failure, timeout,
rate-limit rejection or open circuit is reported as apperr.CodeUnavailable
and the Adapter proceeds with the phrase and detected tags alone.

# Tag path

NormalizeTags lowercases, trims and de-duplicates preference tags. Expansion
through the tag cooccurrence artifact happens in the ranker.

# Usage

	adapter := query.NewAdapter(places, extractor, logger)
	parsed := adapter.Parse(ctx, "quiet beach in Quảng Ninh with seafood")
	// parsed.Phrase    = "quiet beach"
	// parsed.Tags      = ["beach", "seafood"]
	// parsed.Provinces = ["Quang Ninh"]
*/
package query
