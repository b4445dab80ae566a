// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrNotFound is returned when no generation of an artifact is stored.
var ErrNotFound = errors.New("artifact not found")

// Store loads and saves artifact blobs.
type Store interface {
	// Load returns the latest blob stored under name, or ErrNotFound.
	Load(ctx context.Context, name string) ([]byte, BlobInfo, error)

	// Save stores blob as the next generation of name.
	Save(ctx context.Context, name string, blob []byte) (BlobInfo, error)
}

// BlobInfo describes one stored generation.
type BlobInfo struct {
	// Name is the artifact name.
	Name string `json:"name"`

	// Generation increases by one on every Save of the same name.
	Generation int64 `json:"generation"`

	// SavedAt is when the generation was written.
	SavedAt time.Time `json:"saved_at"`

	// Checksum is the hex SHA-256 of the uncompressed blob.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed size.
	SizeBytes int64 `json:"size_bytes"`
}

// envelope is the persisted form shared by the file and redis backends.
type envelope struct {
	Info           BlobInfo
	CompressedData []byte
}

// seal compresses blob and wraps it with its checksum.
func seal(name string, generation int64, blob []byte) ([]byte, BlobInfo, error) {
	hash := sha256.Sum256(blob)
	info := BlobInfo{
		Name:       name,
		Generation: generation,
		SavedAt:    time.Now().UTC(),
		Checksum:   hex.EncodeToString(hash[:]),
	}

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(blob); err != nil {
		return nil, BlobInfo{}, fmt.Errorf("compress %s: %w", name, err)
	}
	if err := gzw.Close(); err != nil {
		return nil, BlobInfo{}, fmt.Errorf("finalize compression: %w", err)
	}
	info.SizeBytes = int64(compressed.Len())

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(envelope{Info: info, CompressedData: compressed.Bytes()}); err != nil {
		return nil, BlobInfo{}, fmt.Errorf("encode %s: %w", name, err)
	}
	return out.Bytes(), info, nil
}

// unseal reverses seal and verifies the checksum.
func unseal(data []byte) ([]byte, BlobInfo, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return nil, BlobInfo{}, fmt.Errorf("read envelope: %w", err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.CompressedData))
	if err != nil {
		return nil, BlobInfo{}, fmt.Errorf("decompress %s: %w", env.Info.Name, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	blob, err := io.ReadAll(gzr)
	if err != nil {
		return nil, BlobInfo{}, fmt.Errorf("read decompressed data: %w", err)
	}

	hash := sha256.Sum256(blob)
	if got := hex.EncodeToString(hash[:]); got != env.Info.Checksum {
		return nil, BlobInfo{}, fmt.Errorf("checksum mismatch for %s: expected %s, got %s", env.Info.Name, env.Info.Checksum, got)
	}
	return blob, env.Info, nil
}

// MemoryStore keeps the latest generation of each artifact in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	infos map[string]BlobInfo
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte), infos: make(map[string]BlobInfo)}
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, name string) ([]byte, BlobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[name]
	if !ok {
		return nil, BlobInfo{}, ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, s.infos[name], nil
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, name string, blob []byte) (BlobInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := sha256.Sum256(blob)
	info := BlobInfo{
		Name:       name,
		Generation: s.infos[name].Generation + 1,
		SavedAt:    time.Now().UTC(),
		Checksum:   hex.EncodeToString(hash[:]),
		SizeBytes:  int64(len(blob)),
	}
	stored := make([]byte, len(blob))
	copy(stored, blob)
	s.blobs[name] = stored
	s.infos[name] = info
	return info, nil
}

// Open creates a store for a backend name: "memory", "file" (dir
// required) or "redis" (see RedisOptions).
//
//nolint:gocritic // hugeParam: opts is read once at startup
func Open(backend, dir string, keep int, opts RedisOptions) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(dir, keep)
	case "redis":
		return NewRedisStore(opts)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", backend)
	}
}
