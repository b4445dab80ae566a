// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package apperr defines the error taxonomy shared by the recommender core.
//
// Every error surfaced across a package boundary carries one of five codes.
// Callers branch on the code with the Is* helpers or CodeOf rather than on
// message text:
//
//	if apperr.IsNotFound(err) {
//	    // unknown place id
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an error for propagation and exit-code mapping.
type Code string

const (
	// CodeInvalidArgument marks missing or malformed required input.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"

	// CodeNotFound marks an unknown place or user id where one is required.
	CodeNotFound Code = "NOT_FOUND"

	// CodeArtifactMissing marks a required offline artifact that is absent
	// and could not be rebuilt.
	CodeArtifactMissing Code = "ARTIFACT_MISSING"

	// CodeUnavailable marks an external collaborator that timed out or failed.
	CodeUnavailable Code = "UNAVAILABLE"

	// CodeInternal marks an assertion failure.
	CodeInternal Code = "INTERNAL"
)

// Error is the error type returned by the core packages.
type Error struct {
	// Code is the taxonomy class.
	Code Code
	// Op names the operation that failed (e.g. "rating.Record").
	Op string
	// Message is a human-readable description.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with the given code.
func New(code Code, op, format string, args ...any) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and operation to an existing error.
// Returns nil if err is nil.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// InvalidArgument creates a CodeInvalidArgument error.
func InvalidArgument(op, format string, args ...any) *Error {
	return New(CodeInvalidArgument, op, format, args...)
}

// NotFound creates a CodeNotFound error.
func NotFound(op, format string, args ...any) *Error {
	return New(CodeNotFound, op, format, args...)
}

// ArtifactMissing creates a CodeArtifactMissing error.
func ArtifactMissing(op, format string, args ...any) *Error {
	return New(CodeArtifactMissing, op, format, args...)
}

// Unavailable creates a CodeUnavailable error.
func Unavailable(op, format string, args ...any) *Error {
	return New(CodeUnavailable, op, format, args...)
}

// Internal creates a CodeInternal error.
func Internal(op, format string, args ...any) *Error {
	return New(CodeInternal, op, format, args...)
}

// CodeOf returns the code of the first *Error in err's chain.
// Errors outside the taxonomy report CodeInternal; nil reports "".
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsInvalidArgument reports whether err is classified CodeInvalidArgument.
func IsInvalidArgument(err error) bool { return hasCode(err, CodeInvalidArgument) }

// IsNotFound reports whether err is classified CodeNotFound.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsArtifactMissing reports whether err is classified CodeArtifactMissing.
func IsArtifactMissing(err error) bool { return hasCode(err, CodeArtifactMissing) }

// IsUnavailable reports whether err is classified CodeUnavailable.
func IsUnavailable(err error) bool { return hasCode(err, CodeUnavailable) }

func hasCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// ExitCode maps an error to a process exit status for the management CLI.
func ExitCode(err error) int {
	switch CodeOf(err) {
	case "":
		return 0
	case CodeInvalidArgument:
		return 2
	case CodeNotFound:
		return 3
	case CodeArtifactMissing:
		return 4
	case CodeUnavailable:
		return 5
	default:
		return 1
	}
}
