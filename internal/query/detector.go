// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package query

import (
	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/catalog"
)

type matchKind uint8

const (
	kindTag matchKind = iota
	kindProvince
)

type detection struct {
	kind  matchKind
	value string
}

// Detector finds catalog vocabulary in free text. Provinces come from each
// place's first tag; every other tag is theme vocabulary.
type Detector struct {
	ac *cache.AhoCorasick
}

// NewDetector builds a whole-word matcher over the folded tags of places.
// Provinces keep the spelling of the first place that uses them; tags are
// reported normalized.
func NewDetector(places []catalog.Place) *Detector {
	ac := cache.NewAhoCorasick()
	ac.WholeWords = true

	seen := make(map[detection]struct{})
	add := func(text string, d detection) {
		if d.value == "" {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		ac.AddPattern(catalog.FoldTag(text), d)
	}

	provinces := make(map[string]struct{})
	for i := range places {
		p := &places[i]
		if prov := p.Province(); prov != "" {
			key := catalog.FoldTag(prov)
			if _, ok := provinces[key]; !ok {
				provinces[key] = struct{}{}
				add(prov, detection{kind: kindProvince, value: prov})
			}
		}
		for j, tag := range p.Tags {
			if j == 0 {
				continue
			}
			add(tag, detection{kind: kindTag, value: catalog.NormalizeTag(tag)})
		}
	}

	ac.Build()
	return &Detector{ac: ac}
}

// Detect returns the catalog tags and provinces mentioned in text, each in
// the order their matches end in text, without duplicates.
func (d *Detector) Detect(text string) (tags, provinces []string) {
	if d == nil || d.ac == nil {
		return nil, nil
	}
	seen := make(map[detection]struct{})
	for _, m := range d.ac.Search(catalog.FoldTag(text)) {
		det, ok := m.Data.(detection)
		if !ok {
			continue
		}
		if _, dup := seen[det]; dup {
			continue
		}
		seen[det] = struct{}{}
		switch det.kind {
		case kindProvince:
			provinces = append(provinces, det.value)
		case kindTag:
			tags = append(tags, det.value)
		}
	}
	return tags, provinces
}

// Vocabulary reports how many distinct patterns the detector knows.
func (d *Detector) Vocabulary() int {
	if d == nil || d.ac == nil {
		return 0
	}
	return d.ac.PatternCount()
}
