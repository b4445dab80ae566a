// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const createTablesSQL = `
CREATE TABLE IF NOT EXISTS ratings (
	user_id    TEXT NOT NULL,
	place_id   TEXT NOT NULL,
	score      REAL NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, place_id)
);

CREATE TABLE IF NOT EXISTS likes (
	user_id  TEXT NOT NULL,
	place_id TEXT NOT NULL,
	is_like  INTEGER NOT NULL,
	PRIMARY KEY (user_id, place_id)
);

CREATE TABLE IF NOT EXISTS comments (
	user_id    TEXT NOT NULL,
	place_id   TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, place_id)
);
`

const upsertRatingSQL = `
INSERT INTO ratings (user_id, place_id, score, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, place_id) DO UPDATE SET score = excluded.score, updated_at = excluded.updated_at`

const upsertLikeSQL = `
INSERT INTO likes (user_id, place_id, is_like) VALUES (?, ?, ?)
ON CONFLICT (user_id, place_id) DO UPDATE SET is_like = excluded.is_like`

// SQLiteStore implements Store on SQLite. A single connection serializes
// writers, so UpdateRating's read-modify-write is atomic per pair.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens the database at path, creating tables if needed.
// Use ":memory:" for a private in-memory database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite feedback store requires a path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}
	if _, err := db.Exec(createTablesSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// IterRatings implements Store.
func (s *SQLiteStore) IterRatings(ctx context.Context, userID string, fn func(Rating) error) error {
	query := `SELECT user_id, place_id, score, updated_at FROM ratings ORDER BY user_id, place_id`
	args := []any{}
	if userID != "" {
		query = `SELECT user_id, place_id, score, updated_at FROM ratings WHERE user_id = ? ORDER BY place_id`
		args = append(args, userID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query ratings: %w", err)
	}

	// Drain before calling fn: the single connection must be free for
	// callers that write from inside fn.
	var ratings []Rating
	for rows.Next() {
		var (
			r       Rating
			updated int64
		)
		if err := rows.Scan(&r.UserID, &r.PlaceID, &r.Score, &updated); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan rating: %w", err)
		}
		r.UpdatedAt = time.Unix(0, updated)
		ratings = append(ratings, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate ratings: %w", err)
	}
	_ = rows.Close()

	for _, r := range ratings {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// GetRating implements Store.
func (s *SQLiteStore) GetRating(ctx context.Context, userID, placeID string) (Rating, error) {
	r := Rating{UserID: userID, PlaceID: placeID}
	var updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT score, updated_at FROM ratings WHERE user_id = ? AND place_id = ?`,
		userID, placeID,
	).Scan(&r.Score, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Rating{}, ErrNotFound
	}
	if err != nil {
		return Rating{}, fmt.Errorf("get rating: %w", err)
	}
	r.UpdatedAt = time.Unix(0, updated)
	return r, nil
}

// UpsertRating implements Store.
func (s *SQLiteStore) UpsertRating(ctx context.Context, userID, placeID string, score float64) error {
	if err := checkIDs(userID, placeID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertRatingSQL, userID, placeID, clamp(score), time.Now().UnixNano()); err != nil {
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// UpdateRating implements Store.
func (s *SQLiteStore) UpdateRating(ctx context.Context, userID, placeID string, fn UpdateFunc) (Rating, bool, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return Rating{}, false, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Rating{}, false, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var cur float64
	exists := true
	err = tx.QueryRowContext(ctx,
		`SELECT score FROM ratings WHERE user_id = ? AND place_id = ?`,
		userID, placeID,
	).Scan(&cur)
	if errors.Is(err, sql.ErrNoRows) {
		exists, cur = false, 0
	} else if err != nil {
		return Rating{}, false, fmt.Errorf("read rating: %w", err)
	}

	next, err := fn(cur, exists)
	if err != nil {
		return Rating{}, false, err
	}

	now := time.Now()
	r := Rating{UserID: userID, PlaceID: placeID, Score: clamp(next), UpdatedAt: time.Unix(0, now.UnixNano())}
	if _, err := tx.ExecContext(ctx, upsertRatingSQL, userID, placeID, r.Score, now.UnixNano()); err != nil {
		return Rating{}, false, fmt.Errorf("write rating: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Rating{}, false, fmt.Errorf("commit: %w", err)
	}
	return r, !exists, nil
}

// RecordInteraction implements Store.
func (s *SQLiteStore) RecordInteraction(ctx context.Context, userID, placeID string, in Interaction) (InteractionResult, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return InteractionResult{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return InteractionResult{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		out     InteractionResult
		cur     float64
		updated int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT score, updated_at FROM ratings WHERE user_id = ? AND place_id = ?`,
		userID, placeID,
	).Scan(&cur, &updated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		cur = 0
	case err != nil:
		return InteractionResult{}, fmt.Errorf("read rating: %w", err)
	default:
		out.Existed = true
		out.Rating = Rating{UserID: userID, PlaceID: placeID, Score: cur, UpdatedAt: time.Unix(0, updated)}
	}

	first := false
	if in.Comment {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM comments WHERE user_id = ? AND place_id = ?`, userID, placeID,
		).Scan(&n); err != nil {
			return InteractionResult{}, fmt.Errorf("read comment: %w", err)
		}
		if n > 0 {
			return out, nil
		}
		first = true
	}

	next, err := in.Apply(cur, out.Existed, first)
	if err != nil {
		return InteractionResult{}, err
	}

	now := time.Now()
	r := Rating{UserID: userID, PlaceID: placeID, Score: clamp(next), UpdatedAt: time.Unix(0, now.UnixNano())}
	if _, err := tx.ExecContext(ctx, upsertRatingSQL, userID, placeID, r.Score, now.UnixNano()); err != nil {
		return InteractionResult{}, fmt.Errorf("write rating: %w", err)
	}
	if in.Like != nil {
		if _, err := tx.ExecContext(ctx, upsertLikeSQL, userID, placeID, *in.Like); err != nil {
			return InteractionResult{}, fmt.Errorf("write like: %w", err)
		}
	}
	if first {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO comments (user_id, place_id, created_at) VALUES (?, ?, ?)`,
			userID, placeID, now.Unix()); err != nil {
			return InteractionResult{}, fmt.Errorf("write comment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return InteractionResult{}, fmt.Errorf("commit: %w", err)
	}

	out.Rating = r
	out.Applied = true
	return out, nil
}

// GetLikes implements Store.
func (s *SQLiteStore) GetLikes(ctx context.Context, userID string) ([]LikeMark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT place_id, is_like FROM likes WHERE user_id = ? ORDER BY place_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()

	var out []LikeMark
	for rows.Next() {
		m := LikeMark{UserID: userID}
		if err := rows.Scan(&m.PlaceID, &m.IsLike); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// IterLikes implements Store.
func (s *SQLiteStore) IterLikes(ctx context.Context, fn func(LikeMark) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, place_id, is_like FROM likes ORDER BY user_id, place_id`)
	if err != nil {
		return fmt.Errorf("query likes: %w", err)
	}

	var marks []LikeMark
	for rows.Next() {
		var m LikeMark
		if err := rows.Scan(&m.UserID, &m.PlaceID, &m.IsLike); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan like: %w", err)
		}
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterate likes: %w", err)
	}
	_ = rows.Close()

	for _, m := range marks {
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// SetLike implements Store.
func (s *SQLiteStore) SetLike(ctx context.Context, userID, placeID string, isLike bool) error {
	if err := checkIDs(userID, placeID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, upsertLikeSQL, userID, placeID, isLike)
	if err != nil {
		return fmt.Errorf("set like: %w", err)
	}
	return nil
}

// HasComment implements Store.
func (s *SQLiteStore) HasComment(ctx context.Context, userID, placeID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE user_id = ? AND place_id = ?`, userID, placeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has comment: %w", err)
	}
	return n > 0, nil
}

// MarkComment implements Store.
func (s *SQLiteStore) MarkComment(ctx context.Context, userID, placeID string) (bool, error) {
	if err := checkIDs(userID, placeID); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO comments (user_id, place_id, created_at) VALUES (?, ?, ?)`,
		userID, placeID, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("mark comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark comment: %w", err)
	}
	return n == 1, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
