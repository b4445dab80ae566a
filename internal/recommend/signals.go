// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package recommend

import (
	"math"

	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// signalSet holds the raw per-place scores of every signal source. A nil
// map means the source is unavailable for this request.
type signalSet map[string]map[string]float64

// blendResult is the weighted combination of a signalSet over candidates.
type blendResult struct {
	scores    map[string]float64
	breakdown map[string]map[string]float64
	used      []string
	weights   map[string]float64
}

// present reports whether a signal has at least one non-zero value over
// the candidates. A source that scores every candidate zero carries no
// ranking information and is treated as missing.
func (s signalSet) present(name string, candidates []catalog.Place) bool {
	values := s[name]
	if values == nil {
		return false
	}
	for i := range candidates {
		if values[candidates[i].ID] != 0 {
			return true
		}
	}
	return false
}

// blend combines signals with w, dropping missing sources and
// renormalizing the remaining weights to sum to one.
//
//nolint:gocritic // hugeParam: weights passed by value for immutability
func (s signalSet) blend(candidates []catalog.Place, w Weights) blendResult {
	raw := w.ToMap()
	active := make(map[string]float64, len(raw))
	var sum float64
	for _, name := range signalOrder {
		ok := raw[name] > 0 && s.present(name, candidates)
		metrics.RecordSignal(name, ok)
		if !ok {
			continue
		}
		active[name] = raw[name]
		sum += raw[name]
	}

	res := blendResult{
		scores:    make(map[string]float64, len(candidates)),
		breakdown: make(map[string]map[string]float64, len(candidates)),
		weights:   make(map[string]float64, len(active)),
	}
	for _, name := range signalOrder {
		if wt, ok := active[name]; ok {
			res.weights[name] = wt / sum
			res.used = append(res.used, name)
		}
	}

	for i := range candidates {
		id := candidates[i].ID
		var total float64
		parts := make(map[string]float64, len(res.used))
		for _, name := range res.used {
			v := s[name][id]
			parts[name] = v
			total += res.weights[name] * v
		}
		res.scores[id] = total
		res.breakdown[id] = parts
	}
	return res
}

// allZero reports whether every score is zero.
func allZero(scores map[string]float64) bool {
	for _, v := range scores {
		if v != 0 {
			return false
		}
	}
	return true
}

// dominantSignal returns the used signal with the largest weighted
// contribution to a place's score, or "" when nothing contributed.
func dominantSignal(parts map[string]float64, weights map[string]float64, used []string) string {
	best, bestVal := "", 0.0
	for _, name := range used {
		v := weights[name] * parts[name]
		if v > bestVal {
			best, bestVal = name, v
		}
	}
	return best
}

// reasonFor renders a short explanation for a ranked place.
func reasonFor(signal string, p *catalog.Place) string {
	switch signal {
	case SignalContent:
		if theme := p.ThemeTag(); theme != "" {
			return "matches " + theme
		}
		return "matches your interests"
	case SignalCF:
		return "liked by travelers with similar ratings"
	case SignalCluster:
		return "popular with travelers like you"
	case SignalGlobal:
		return "popular with travelers"
	default:
		return ""
	}
}

// boostMultiplier returns the query boost for a place, capped.
func boostMultiplier(boost map[string]float64, p *catalog.Place, limit float64) float64 {
	if len(boost) == 0 {
		return 1
	}
	return math.Min(1+boost[p.ThemeTag()], limit)
}
