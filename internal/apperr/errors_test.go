// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"message only", &Error{Message: "bad"}, "bad"},
		{"with op", &Error{Op: "rating.Record", Message: "bad"}, "rating.Record: bad"},
		{"cause only", &Error{Op: "load", Err: errors.New("io")}, "load: io"},
		{"message and cause", &Error{Op: "load", Message: "cooc", Err: errors.New("io")}, "load: cooc: io"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NotFound("catalog.Get", "place %q", "p9"))

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), CodeInternal},
		{"direct", InvalidArgument("op", "x"), CodeInvalidArgument},
		{"wrapped", wrapped, CodeNotFound},
		{"wrap helper", Wrap(CodeUnavailable, "llm", errors.New("timeout")), CodeUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	if !IsNotFound(fmt.Errorf("x: %w", NotFound("op", "missing"))) {
		t.Error("IsNotFound() = false for wrapped NotFound")
	}
	if IsNotFound(InvalidArgument("op", "bad")) {
		t.Error("IsNotFound() = true for InvalidArgument")
	}
	if !IsArtifactMissing(ArtifactMissing("op", "content.v1")) {
		t.Error("IsArtifactMissing() = false")
	}
	if !IsUnavailable(Unavailable("op", "llm")) {
		t.Error("IsUnavailable() = false")
	}
	if !IsInvalidArgument(InvalidArgument("op", "k")) {
		t.Error("IsInvalidArgument() = false")
	}
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{InvalidArgument("op", "x"), 2},
		{NotFound("op", "x"), 3},
		{ArtifactMissing("op", "x"), 4},
		{Unavailable("op", "x"), 5},
		{Internal("op", "x"), 1},
		{errors.New("plain"), 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
