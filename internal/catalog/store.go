// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/tomtom215/wayfarer/internal/validation"
)

// ErrNotFound is returned when a place id is unknown.
var ErrNotFound = errors.New("place not found")

// Store is the catalog collaborator consumed by the core.
type Store interface {
	// IterPlaces calls fn for every place in id order. Iteration stops at
	// the first error returned by fn.
	IterPlaces(ctx context.Context, fn func(Place) error) error

	// GetPlace returns the place with the given id or ErrNotFound.
	GetPlace(ctx context.Context, id string) (Place, error)

	// Len returns the number of places.
	Len() int
}

// MemoryStore is an immutable in-memory catalog sorted by place id.
type MemoryStore struct {
	places []Place
	index  map[string]int
}

// NewMemoryStore validates places and builds an immutable catalog.
// Duplicate ids are rejected.
func NewMemoryStore(places []Place) (*MemoryStore, error) {
	sorted := make([]Place, len(places))
	copy(sorted, places)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	index := make(map[string]int, len(sorted))
	for i := range sorted {
		p := &sorted[i]
		if verr := validation.ValidateStruct(p); verr != nil {
			return nil, fmt.Errorf("place %q: %w", p.ID, verr.ToAppError("catalog.NewMemoryStore"))
		}
		if _, dup := index[p.ID]; dup {
			return nil, fmt.Errorf("duplicate place id %q", p.ID)
		}
		index[p.ID] = i
	}

	return &MemoryStore{places: sorted, index: index}, nil
}

// IterPlaces implements Store.
func (s *MemoryStore) IterPlaces(ctx context.Context, fn func(Place) error) error {
	for i := range s.places {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(s.places[i]); err != nil {
			return err
		}
	}
	return nil
}

// GetPlace implements Store.
func (s *MemoryStore) GetPlace(_ context.Context, id string) (Place, error) {
	i, ok := s.index[id]
	if !ok {
		return Place{}, ErrNotFound
	}
	return s.places[i], nil
}

// Len implements Store.
func (s *MemoryStore) Len() int {
	return len(s.places)
}

// All collects every place from a store in iteration order.
func All(ctx context.Context, s Store) ([]Place, error) {
	out := make([]Place, 0, s.Len())
	err := s.IterPlaces(ctx, func(p Place) error {
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
