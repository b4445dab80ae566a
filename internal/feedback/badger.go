// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefixes for BadgerDB storage
const (
	ratingKeyPrefix  = "r/"
	likeKeyPrefix    = "l/"
	commentKeyPrefix = "c/"
)

// maxConflictRetries bounds optimistic transaction retries for a single
// read-modify-write.
const maxConflictRetries = 16

// ratingValue is the JSON value stored under a rating key.
type ratingValue struct {
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BadgerStore implements Store on BadgerDB. Optimistic transactions give
// per-pair serialization: concurrent UpdateRating calls on the same pair
// conflict and are retried.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a BadgerDB directory.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	if path == "" {
		return nil, fmt.Errorf("badger feedback store requires a path")
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return NewBadgerStore(db), nil
}

// NewBadgerStore wraps an open database. Close closes db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func pairKeyBytes(prefix, userID, placeID string) []byte {
	return []byte(prefix + userID + keySep + placeID)
}

func splitPairKey(prefix string, key []byte) (userID, placeID string, ok bool) {
	rest := strings.TrimPrefix(string(key), prefix)
	userID, placeID, ok = strings.Cut(rest, keySep)
	return userID, placeID, ok
}

// iterPrefix walks keys under prefix in byte order, passing copied values.
func (s *BadgerStore) iterPrefix(ctx context.Context, prefix []byte, fn func(key, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := item.KeyCopy(nil)
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// IterRatings implements Store.
func (s *BadgerStore) IterRatings(ctx context.Context, userID string, fn func(Rating) error) error {
	prefix := ratingKeyPrefix
	if userID != "" {
		prefix += userID + keySep
	}

	var ratings []Rating
	err := s.iterPrefix(ctx, []byte(prefix), func(key, val []byte) error {
		u, p, ok := splitPairKey(ratingKeyPrefix, key)
		if !ok {
			return fmt.Errorf("malformed rating key %q", key)
		}
		var v ratingValue
		if err := json.Unmarshal(val, &v); err != nil {
			return fmt.Errorf("decode rating %s/%s: %w", u, p, err)
		}
		ratings = append(ratings, Rating{UserID: u, PlaceID: p, Score: v.Score, UpdatedAt: v.UpdatedAt})
		return nil
	})
	if err != nil {
		return fmt.Errorf("iterate ratings: %w", err)
	}

	// fn runs outside the read transaction so callers may write.
	for _, r := range ratings {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func getRatingTxn(txn *badger.Txn, userID, placeID string) (ratingValue, bool, error) {
	var v ratingValue
	item, err := txn.Get(pairKeyBytes(ratingKeyPrefix, userID, placeID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("get rating: %w", err)
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	return v, err == nil, err
}

func setRatingTxn(txn *badger.Txn, userID, placeID string, v ratingValue) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}
	return txn.Set(pairKeyBytes(ratingKeyPrefix, userID, placeID), data)
}

// GetRating implements Store.
func (s *BadgerStore) GetRating(_ context.Context, userID, placeID string) (Rating, error) {
	var (
		v      ratingValue
		exists bool
	)
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		v, exists, err = getRatingTxn(txn, userID, placeID)
		return err
	})
	if err != nil {
		return Rating{}, err
	}
	if !exists {
		return Rating{}, ErrNotFound
	}
	return Rating{UserID: userID, PlaceID: placeID, Score: v.Score, UpdatedAt: v.UpdatedAt}, nil
}

// UpsertRating implements Store.
func (s *BadgerStore) UpsertRating(_ context.Context, userID, placeID string, score float64) error {
	if err := checkIDs(userID, placeID); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setRatingTxn(txn, userID, placeID, ratingValue{Score: clamp(score), UpdatedAt: time.Now()})
	})
}

// UpdateRating implements Store.
func (s *BadgerStore) UpdateRating(ctx context.Context, userID, placeID string, fn UpdateFunc) (Rating, bool, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return Rating{}, false, err
	}

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Rating{}, false, err
		}

		var (
			out     Rating
			created bool
		)
		err := s.db.Update(func(txn *badger.Txn) error {
			cur, exists, err := getRatingTxn(txn, userID, placeID)
			if err != nil {
				return err
			}
			next, err := fn(cur.Score, exists)
			if err != nil {
				return err
			}
			v := ratingValue{Score: clamp(next), UpdatedAt: time.Now()}
			if err := setRatingTxn(txn, userID, placeID, v); err != nil {
				return err
			}
			out = Rating{UserID: userID, PlaceID: placeID, Score: v.Score, UpdatedAt: v.UpdatedAt}
			created = !exists
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return Rating{}, false, err
		}
		return out, created, nil
	}

	return Rating{}, false, fmt.Errorf("update rating %s/%s: %w", userID, placeID, badger.ErrConflict)
}

// RecordInteraction implements Store.
func (s *BadgerStore) RecordInteraction(ctx context.Context, userID, placeID string, in Interaction) (InteractionResult, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return InteractionResult{}, err
	}
	commentKey := pairKeyBytes(commentKeyPrefix, userID, placeID)

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return InteractionResult{}, err
		}

		var out InteractionResult
		err := s.db.Update(func(txn *badger.Txn) error {
			cur, exists, err := getRatingTxn(txn, userID, placeID)
			if err != nil {
				return err
			}
			out = InteractionResult{Existed: exists}
			if exists {
				out.Rating = Rating{UserID: userID, PlaceID: placeID, Score: cur.Score, UpdatedAt: cur.UpdatedAt}
			}

			first := false
			if in.Comment {
				_, err := txn.Get(commentKey)
				if err == nil {
					return nil
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
				first = true
			}

			next, err := in.Apply(cur.Score, exists, first)
			if err != nil {
				return err
			}
			v := ratingValue{Score: clamp(next), UpdatedAt: time.Now()}
			if err := setRatingTxn(txn, userID, placeID, v); err != nil {
				return err
			}
			if in.Like != nil {
				val := []byte{0}
				if *in.Like {
					val[0] = 1
				}
				if err := txn.Set(pairKeyBytes(likeKeyPrefix, userID, placeID), val); err != nil {
					return err
				}
			}
			if first {
				if err := txn.Set(commentKey, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
					return err
				}
			}
			out.Rating = Rating{UserID: userID, PlaceID: placeID, Score: v.Score, UpdatedAt: v.UpdatedAt}
			out.Applied = true
			return nil
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return InteractionResult{}, err
		}
		return out, nil
	}

	return InteractionResult{}, fmt.Errorf("record interaction %s/%s: %w", userID, placeID, badger.ErrConflict)
}

// GetLikes implements Store.
func (s *BadgerStore) GetLikes(ctx context.Context, userID string) ([]LikeMark, error) {
	var out []LikeMark
	err := s.iterPrefix(ctx, []byte(likeKeyPrefix+userID+keySep), func(key, val []byte) error {
		_, p, ok := splitPairKey(likeKeyPrefix, key)
		if !ok {
			return fmt.Errorf("malformed like key %q", key)
		}
		out = append(out, LikeMark{UserID: userID, PlaceID: p, IsLike: len(val) == 1 && val[0] == 1})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get likes: %w", err)
	}
	return out, nil
}

// IterLikes implements Store.
func (s *BadgerStore) IterLikes(ctx context.Context, fn func(LikeMark) error) error {
	var marks []LikeMark
	err := s.iterPrefix(ctx, []byte(likeKeyPrefix), func(key, val []byte) error {
		u, p, ok := splitPairKey(likeKeyPrefix, key)
		if !ok {
			return fmt.Errorf("malformed like key %q", key)
		}
		marks = append(marks, LikeMark{UserID: u, PlaceID: p, IsLike: len(val) == 1 && val[0] == 1})
		return nil
	})
	if err != nil {
		return fmt.Errorf("iterate likes: %w", err)
	}
	for _, m := range marks {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// SetLike implements Store.
func (s *BadgerStore) SetLike(_ context.Context, userID, placeID string, isLike bool) error {
	if err := checkIDs(userID, placeID); err != nil {
		return err
	}
	val := []byte{0}
	if isLike {
		val[0] = 1
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(pairKeyBytes(likeKeyPrefix, userID, placeID), val)
	})
}

// HasComment implements Store.
func (s *BadgerStore) HasComment(_ context.Context, userID, placeID string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(pairKeyBytes(commentKeyPrefix, userID, placeID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// MarkComment implements Store.
func (s *BadgerStore) MarkComment(ctx context.Context, userID, placeID string) (bool, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return false, err
	}
	key := pairKeyBytes(commentKeyPrefix, userID, placeID)

	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		first := false
		err := s.db.Update(func(txn *badger.Txn) error {
			_, err := txn.Get(key)
			if err == nil {
				return nil
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			first = true
			return txn.Set(key, []byte(time.Now().UTC().Format(time.RFC3339)))
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return first, err
	}
	return false, fmt.Errorf("mark comment %s/%s: %w", userID, placeID, badger.ErrConflict)
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
