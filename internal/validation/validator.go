// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package validation wraps a shared go-playground/validator instance for
// catalog records, recommendation requests, configuration and LLM
// extractor output.
//
// Field names in messages come from the json tag, then the koanf tag, so
// an error reads the way the input was written:
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return verr.ToAppError("recommend.Recommend")
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/wayfarer/internal/apperr"
)

// MaxTagLength bounds a single tag, in runes.
const MaxTagLength = 64

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Rule    string
	Param   string
	Message string
}

// Error is the set of rules a value failed.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i := range e.Fields {
		msgs[i] = e.Fields[i].Message
	}
	return strings.Join(msgs, "; ")
}

// ToAppError reports e as an InvalidArgument failure of op.
func (e *Error) ToAppError(op string) error {
	return &apperr.Error{
		Code:    apperr.CodeInvalidArgument,
		Op:      op,
		Message: e.Error(),
		Err:     e,
	}
}

// GetValidator returns the shared validator.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
		_ = validate.RegisterValidation("tagname", validateTagName) //nolint:errcheck // static tag name
	})
	return validate
}

func fieldName(f reflect.StructField) string {
	for _, key := range []string{"json", "koanf"} {
		name, _, _ := strings.Cut(f.Tag.Get(key), ",")
		switch name {
		case "":
			continue
		case "-":
			return f.Name
		default:
			return name
		}
	}
	return f.Name
}

// tagname: non-blank, bounded, no control characters and no commas, since
// commas separate tags on the command line and in env values.
func validateTagName(fl validator.FieldLevel) bool {
	s := strings.TrimSpace(fl.Field().String())
	if s == "" || utf8.RuneCountInString(s) > MaxTagLength {
		return false
	}
	return !strings.ContainsFunc(s, func(r rune) bool { return r == ',' || r < 0x20 })
}

// ValidateStruct validates s, returning nil or the failed rules.
func ValidateStruct(s any) *Error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fes validator.ValidationErrors
	if !errors.As(err, &fes) {
		return &Error{Fields: []FieldError{{Field: "unknown", Rule: "unknown", Message: err.Error()}}}
	}
	out := &Error{Fields: make([]FieldError, len(fes))}
	for i, fe := range fes {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "tagname":
		return field + " must be a non-blank tag without commas"
	case "url":
		return field + " must be a valid URL"
	case "hostname_port":
		return field + " must be a host:port address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("%s must be %s %s characters", field, bound, param)
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("%s must contain %s %s items", field, bound, param)
		default:
			return fmt.Sprintf("%s must be %s %s", field, bound, param)
		}
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
