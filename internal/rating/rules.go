// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package rating maps implicit interaction events to a per (user, place)
// score in [1.0, 5.0] and persists it.
//
// The rule set uses set semantics for explicit feedback: like sets the
// score to 5.0 and dislike sets it to 1.0. Other events add to the prior
// score (0.0 for a cold pair) and the result is clamped. Changing any rule
// requires bumping RuleSetVersion.
package rating

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/feedback"
)

// RuleSetVersion identifies the scoring rules below.
const RuleSetVersion = "set-v1"

// Rule constants.
const (
	SearchAppearanceDelta = 0.5
	FirstCommentDelta     = 0.5
	ShortWatchDelta       = -2.0
	MediumWatchDelta      = 1.0
	LongWatchDelta        = 2.0

	// ShortWatchSeconds and LongWatchSeconds bound the medium watch band
	// [10s, 60s], inclusive at both ends.
	ShortWatchSeconds = 10.0
	LongWatchSeconds  = 60.0
)

// Kind enumerates interaction event kinds.
type Kind int

const (
	// KindSearchAppearance is the place appearing in the user's search results.
	KindSearchAppearance Kind = iota + 1
	// KindLike is an explicit like.
	KindLike
	// KindDislike is an explicit dislike.
	KindDislike
	// KindWatchTime is a view with a duration in seconds.
	KindWatchTime
	// KindComment is a comment posted on the place.
	KindComment
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSearchAppearance:
		return "search_appearance"
	case KindLike:
		return "like"
	case KindDislike:
		return "dislike"
	case KindWatchTime:
		return "watch_time"
	case KindComment:
		return "comment"
	default:
		return "unknown"
	}
}

// Event is a single transient interaction.
type Event struct {
	Kind Kind
	// Seconds is the view duration; required for KindWatchTime.
	Seconds *float64
}

// SearchAppearance returns a search-appearance event.
func SearchAppearance() Event { return Event{Kind: KindSearchAppearance} }

// Like returns a like event.
func Like() Event { return Event{Kind: KindLike} }

// Dislike returns a dislike event.
func Dislike() Event { return Event{Kind: KindDislike} }

// Comment returns a comment event.
func Comment() Event { return Event{Kind: KindComment} }

// WatchTime returns a watch-time event of the given duration.
func WatchTime(seconds float64) Event {
	return Event{Kind: KindWatchTime, Seconds: &seconds}
}

// Validate reports malformed events.
func (e Event) Validate() error {
	switch e.Kind {
	case KindSearchAppearance, KindLike, KindDislike, KindComment:
		return nil
	case KindWatchTime:
		if e.Seconds == nil {
			return apperr.InvalidArgument("rating.Event", "watch_time requires a duration")
		}
		return nil
	default:
		return apperr.InvalidArgument("rating.Event", "unknown event kind %d", int(e.Kind))
	}
}

// Apply returns the score after applying ev to the prior score s. exists
// reports whether a rating was present (s is treated as 0.0 otherwise).
// firstComment is consulted only for KindComment; a repeat comment returns
// s unchanged.
func Apply(s float64, exists bool, ev Event, firstComment bool) (float64, error) {
	if err := ev.Validate(); err != nil {
		return 0, err
	}
	if !exists {
		s = 0
	}

	switch ev.Kind {
	case KindSearchAppearance:
		s += SearchAppearanceDelta
	case KindLike:
		s = feedback.MaxScore
	case KindDislike:
		s = feedback.MinScore
	case KindWatchTime:
		s += watchDelta(*ev.Seconds)
	case KindComment:
		if !firstComment {
			// Only the first comment is rewarded; callers must not persist.
			return s, nil
		}
		s += FirstCommentDelta
	}

	return Clamp(s), nil
}

// watchDelta bands a view duration. Negative and NaN durations count as a
// zero-second view.
func watchDelta(seconds float64) float64 {
	if !(seconds > 0) {
		seconds = 0
	}
	switch {
	case seconds < ShortWatchSeconds:
		return ShortWatchDelta
	case seconds <= LongWatchSeconds:
		return MediumWatchDelta
	default:
		return LongWatchDelta
	}
}

// Clamp bounds a score to [1.0, 5.0].
func Clamp(s float64) float64 {
	if s < feedback.MinScore {
		return feedback.MinScore
	}
	if s > feedback.MaxScore {
		return feedback.MaxScore
	}
	return s
}

// ParseEvent parses the command-line form of an event: "like", "dislike",
// "comment", "search" (or "search_appearance") and "watch=<seconds>"
// (or "watch_time=<seconds>"). A bare "watch" parses to a watch-time event
// without a duration, which Validate rejects.
func ParseEvent(s string) (Event, error) {
	name, value, hasValue := strings.Cut(strings.TrimSpace(strings.ToLower(s)), "=")
	switch name {
	case "like":
		return Like(), nil
	case "dislike":
		return Dislike(), nil
	case "comment":
		return Comment(), nil
	case "search", "search_appearance":
		return SearchAppearance(), nil
	case "watch", "watch_time":
		if !hasValue || strings.TrimSpace(value) == "" {
			return Event{Kind: KindWatchTime}, nil
		}
		seconds, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(value), "s"), 64)
		if err != nil {
			return Event{}, apperr.InvalidArgument("rating.ParseEvent", "invalid watch duration %q", value)
		}
		return WatchTime(seconds), nil
	default:
		return Event{}, apperr.InvalidArgument("rating.ParseEvent", "unknown event %q", s)
	}
}

// String renders the event in ParseEvent form.
func (e Event) String() string {
	if e.Kind == KindWatchTime && e.Seconds != nil {
		return fmt.Sprintf("watch_time=%g", *e.Seconds)
	}
	return e.Kind.String()
}
