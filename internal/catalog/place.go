// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package catalog provides the read-only view of places consumed by the
// recommender.
//
// A Place carries an ordered tag list whose first entry is the province
// (the location anchor); the remaining tags describe themes, vibes and
// categories. The catalog is immutable for the duration of a ranking
// session.
package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Place is a catalog entry ranked by the recommender.
type Place struct {
	// ID is the opaque stable identifier.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Name is the display name.
	Name string `json:"name" yaml:"name" validate:"required"`

	// Tags is the ordered tag list; Tags[0] is the province.
	Tags []string `json:"tags" yaml:"tags" validate:"min=1,dive,tagname"`

	// Description is optional free text.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Province returns the location anchor (Tags[0]) or "" for an untagged place.
func (p *Place) Province() string {
	if len(p.Tags) == 0 {
		return ""
	}
	return p.Tags[0]
}

// PrimaryTags returns the normalized primary tag pair: the province and the
// first tag that differs from it. The pair has one element when the place
// carries no theme tag.
func (p *Place) PrimaryTags() []string {
	if len(p.Tags) == 0 {
		return nil
	}
	province := NormalizeTag(p.Tags[0])
	out := []string{province}
	for _, t := range p.Tags[1:] {
		if n := NormalizeTag(t); n != "" && n != province {
			out = append(out, n)
			break
		}
	}
	return out
}

// ThemeTag returns the normalized first non-province tag, falling back to
// the province when the place has no theme tags.
func (p *Place) ThemeTag() string {
	primary := p.PrimaryTags()
	if len(primary) == 0 {
		return ""
	}
	return primary[len(primary)-1]
}

// NormalizedTags returns all tags normalized, preserving order and dropping
// blanks.
func (p *Place) NormalizedTags() []string {
	out := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if n := NormalizeTag(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// NormalizeTag lowercases a tag, trims it and collapses interior whitespace.
func NormalizeTag(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), " ")
}

// FoldTag normalizes a tag and strips diacritics so that "Lâm Đồng" and
// "lam dong" compare equal.
func FoldTag(tag string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, NormalizeTag(tag))
	if err != nil {
		folded = NormalizeTag(tag)
	}
	// đ has no decomposition.
	return strings.NewReplacer("đ", "d", "Đ", "d").Replace(folded)
}

// ProvinceMatches reports whether a place province and a requested province
// match: case, whitespace and diacritic insensitive, substring in either
// direction.
func ProvinceMatches(province, requested string) bool {
	a, b := FoldTag(province), FoldTag(requested)
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
