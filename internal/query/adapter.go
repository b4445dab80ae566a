// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package query

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Parsed is the structured form of a free-text query.
type Parsed struct {
	// Phrase is the longest run of non-stop tokens, folded.
	Phrase string
	// Tags are catalog tags found in the query plus the extracted type and
	// weather when known, normalized and de-duplicated.
	Tags []string
	// Provinces are detected or extracted province names.
	Provinces []string
	// Type and Weather are the extractor fields, "unknown" when absent.
	Type    string
	Weather string
	// Degraded is set when the extractor was configured but failed.
	Degraded bool
}

// Adapter combines phrase extraction, catalog detection and the optional
// structured extractor.
type Adapter struct {
	detector  *Detector
	extractor Extractor
	logger    zerolog.Logger
}

// NewAdapter builds an adapter over the catalog vocabulary. extractor may
// be nil, in which case only the phrase and detected vocabulary are used.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAdapter(places []catalog.Place, extractor Extractor, logger zerolog.Logger) *Adapter {
	return &Adapter{
		detector:  NewDetector(places),
		extractor: extractor,
		logger:    logger.With().Str("component", "query").Logger(),
	}
}

// Parse never fails: extractor errors set Degraded and are logged.
func (a *Adapter) Parse(ctx context.Context, text string) Parsed {
	out := Parsed{
		Phrase:  ExtractPhrase(text),
		Type:    TypeUnknown,
		Weather: WeatherUnknown,
	}
	tags, provinces := a.detector.Detect(text)

	if a.extractor == nil {
		metrics.RecordQueryExtraction("disabled", 0)
	} else {
		start := time.Now()
		ext, err := a.extractor.Extract(ctx, text)
		switch {
		case err != nil:
			out.Degraded = true
			metrics.RecordQueryExtraction("fallback", time.Since(start))
			logger := logging.CtxWith(ctx).Logger()
			logger.Warn().Err(err).Str("phrase", out.Phrase).Msg("Query extractor unavailable, using phrase only")
		case ext != nil:
			metrics.RecordQueryExtraction("ok", time.Since(start))
			provinces = append(provinces, ext.Provinces...)
			if ext.Type != "" && ext.Type != TypeUnknown {
				out.Type = ext.Type
				tags = append(tags, ext.Type)
			}
			if ext.Weather != "" && ext.Weather != WeatherUnknown {
				out.Weather = ext.Weather
				tags = append(tags, ext.Weather)
			}
		}
	}

	out.Tags = NormalizeTags(tags)
	out.Provinces = dedupeProvinces(provinces)

	a.logger.Debug().
		Str("phrase", out.Phrase).
		Strs("tags", out.Tags).
		Strs("provinces", out.Provinces).
		Bool("degraded", out.Degraded).
		Msg("Parsed query")
	return out
}

// Detector exposes the catalog vocabulary matcher.
func (a *Adapter) Detector() *Detector {
	return a.detector
}

// dedupeProvinces drops empties and names that fold to one already kept.
func dedupeProvinces(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		key := catalog.FoldTag(p)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
