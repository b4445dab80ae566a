// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package feedback

import (
	"context"
	"sort"
	"sync"
	"time"
)

type pairKey struct {
	user  string
	place string
}

func sortedKeys[V any](m map[pairKey]V) []pairKey {
	keys := make([]pairKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].user != keys[j].user {
			return keys[i].user < keys[j].user
		}
		return keys[i].place < keys[j].place
	})
	return keys
}

// MemoryStore is a process-local Store. It is safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	ratings  map[pairKey]Rating
	likes    map[pairKey]bool
	comments map[pairKey]struct{}
	now      func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ratings:  make(map[pairKey]Rating),
		likes:    make(map[pairKey]bool),
		comments: make(map[pairKey]struct{}),
		now:      time.Now,
	}
}

// IterRatings implements Store.
func (s *MemoryStore) IterRatings(ctx context.Context, userID string, fn func(Rating) error) error {
	s.mu.RLock()
	snapshot := make([]Rating, 0, len(s.ratings))
	for _, k := range sortedKeys(s.ratings) {
		if userID == "" || k.user == userID {
			snapshot = append(snapshot, s.ratings[k])
		}
	}
	s.mu.RUnlock()

	for _, r := range snapshot {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// GetRating implements Store.
func (s *MemoryStore) GetRating(_ context.Context, userID, placeID string) (Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.ratings[pairKey{userID, placeID}]
	if !ok {
		return Rating{}, ErrNotFound
	}
	return r, nil
}

// UpsertRating implements Store.
func (s *MemoryStore) UpsertRating(_ context.Context, userID, placeID string, score float64) error {
	if err := checkIDs(userID, placeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ratings[pairKey{userID, placeID}] = Rating{
		UserID:    userID,
		PlaceID:   placeID,
		Score:     clamp(score),
		UpdatedAt: s.now(),
	}
	return nil
}

// UpdateRating implements Store.
func (s *MemoryStore) UpdateRating(_ context.Context, userID, placeID string, fn UpdateFunc) (Rating, bool, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return Rating{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{userID, placeID}
	cur, exists := s.ratings[key]
	next, err := fn(cur.Score, exists)
	if err != nil {
		return Rating{}, false, err
	}

	r := Rating{UserID: userID, PlaceID: placeID, Score: clamp(next), UpdatedAt: s.now()}
	s.ratings[key] = r
	return r, !exists, nil
}

// RecordInteraction implements Store.
func (s *MemoryStore) RecordInteraction(_ context.Context, userID, placeID string, in Interaction) (InteractionResult, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return InteractionResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{userID, placeID}
	cur, exists := s.ratings[key]
	first := false
	if in.Comment {
		if _, ok := s.comments[key]; ok {
			return InteractionResult{Rating: cur, Existed: exists}, nil
		}
		first = true
	}

	next, err := in.Apply(cur.Score, exists, first)
	if err != nil {
		return InteractionResult{}, err
	}

	r := Rating{UserID: userID, PlaceID: placeID, Score: clamp(next), UpdatedAt: s.now()}
	s.ratings[key] = r
	if in.Like != nil {
		s.likes[key] = *in.Like
	}
	if first {
		s.comments[key] = struct{}{}
	}
	return InteractionResult{Rating: r, Existed: exists, Applied: true}, nil
}

// GetLikes implements Store.
func (s *MemoryStore) GetLikes(_ context.Context, userID string) ([]LikeMark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []LikeMark
	for _, k := range sortedKeys(s.likes) {
		if k.user == userID {
			out = append(out, LikeMark{UserID: k.user, PlaceID: k.place, IsLike: s.likes[k]})
		}
	}
	return out, nil
}

// IterLikes implements Store.
func (s *MemoryStore) IterLikes(ctx context.Context, fn func(LikeMark) error) error {
	s.mu.RLock()
	marks := make([]LikeMark, 0, len(s.likes))
	for _, k := range sortedKeys(s.likes) {
		marks = append(marks, LikeMark{UserID: k.user, PlaceID: k.place, IsLike: s.likes[k]})
	}
	s.mu.RUnlock()

	for _, m := range marks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// SetLike implements Store.
func (s *MemoryStore) SetLike(_ context.Context, userID, placeID string, isLike bool) error {
	if err := checkIDs(userID, placeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.likes[pairKey{userID, placeID}] = isLike
	return nil
}

// HasComment implements Store.
func (s *MemoryStore) HasComment(_ context.Context, userID, placeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.comments[pairKey{userID, placeID}]
	return ok, nil
}

// MarkComment implements Store.
func (s *MemoryStore) MarkComment(_ context.Context, userID, placeID string) (bool, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{userID, placeID}
	if _, ok := s.comments[key]; ok {
		return false, nil
	}
	s.comments[key] = struct{}{}
	return true, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
