// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package filter compiles CEL expressions that restrict recommendation
// candidates.
//
// Expressions see a single variable, place, with the fields id, name,
// province, tags (normalized, province first) and description:
//
//	place.province == "lam dong" && "waterfall" in place.tags
//	!place.name.contains("Museum")
//	place.tags.exists(t, t.startsWith("beach"))
//
// An expression must evaluate to a bool. Compiled programs are safe for
// concurrent use and are cached by expression text.
package filter

import (
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// MaxExpressionLength bounds the accepted expression size.
const MaxExpressionLength = 1024

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func env() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("place", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return celEnv, celEnvErr
}

// Filter is a compiled candidate predicate.
type Filter struct {
	expr string
	prg  cel.Program
}

// Compile parses and type-checks expr. Syntax errors and non-bool results
// are reported as apperr.CodeInvalidArgument.
func Compile(expr string) (*Filter, error) {
	const op = "filter.Compile"

	if expr == "" {
		return nil, apperr.InvalidArgument(op, "empty expression")
	}
	if len(expr) > MaxExpressionLength {
		return nil, apperr.InvalidArgument(op, "expression longer than %d bytes", MaxExpressionLength)
	}

	e, err := env()
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, op, err)
	}
	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, apperr.InvalidArgument(op, "compile %q: %v", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, apperr.InvalidArgument(op, "expression must return bool, got %s", ast.OutputType())
	}
	prg, err := e.Program(ast)
	if err != nil {
		return nil, apperr.InvalidArgument(op, "program %q: %v", expr, err)
	}
	return &Filter{expr: expr, prg: prg}, nil
}

// Expression returns the source text.
func (f *Filter) Expression() string {
	return f.expr
}

// Match evaluates the filter against p. Runtime errors (a missing map key,
// a non-bool dynamic result) are reported as apperr.CodeInvalidArgument.
//
//nolint:gocritic // hugeParam: Place is read-only here
func (f *Filter) Match(p catalog.Place) (bool, error) {
	const op = "filter.Match"

	out, _, err := f.prg.Eval(map[string]any{"place": Input(p)})
	if err != nil {
		return false, apperr.InvalidArgument(op, "evaluate %q on %s: %v", f.expr, p.ID, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, apperr.InvalidArgument(op, "expression must return bool, got %T", out.Value())
	}
	return b, nil
}

// Input builds the place variable exposed to expressions.
//
//nolint:gocritic // hugeParam: Place is read-only here
func Input(p catalog.Place) map[string]any {
	return map[string]any{
		"id":          p.ID,
		"name":        p.Name,
		"province":    catalog.NormalizeTag(p.Province()),
		"tags":        p.NormalizedTags(),
		"description": p.Description,
	}
}

// Compiler caches compiled filters by expression text.
type Compiler struct {
	cache *cache.LRU[*Filter]
}

// NewCompiler creates a compiler holding up to capacity programs.
func NewCompiler(capacity int) *Compiler {
	return &Compiler{cache: cache.NewLRU[*Filter](capacity, time.Hour)}
}

// Compile returns a cached program for expr, compiling it on first use.
func (c *Compiler) Compile(expr string) (*Filter, error) {
	if f, ok := c.cache.Get(expr); ok {
		metrics.RecordCacheLookup("filter", true)
		return f, nil
	}
	metrics.RecordCacheLookup("filter", false)

	f, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	c.cache.Add(expr, f)
	return f, nil
}

// Len reports the number of cached programs.
func (c *Compiler) Len() int {
	return c.cache.Len()
}
