// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	fileSuffix        = ".bin.gz"
	generationMarker  = "_g"
	defaultKeepBlobs  = 3
	storageDirPerm    = 0o750
	storageFilePerm   = 0o640
	temporaryFileGlob = ".tmp-*"
)

// FileStore keeps artifact generations as files named
// {name}_g{generation}.bin.gz under a directory.
type FileStore struct {
	dir  string
	keep int

	mu          sync.RWMutex
	generations map[string]int64 // latest generation per name
}

// NewFileStore opens (creating if needed) a file store. keep is how many
// generations of each artifact survive pruning.
func NewFileStore(dir string, keep int) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact directory is required")
	}
	if keep < 1 {
		keep = defaultKeepBlobs
	}
	if err := os.MkdirAll(dir, storageDirPerm); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	s := &FileStore{dir: dir, keep: keep, generations: make(map[string]int64)}
	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan existing artifacts: %w", err)
	}
	return s, nil
}

// scan records the latest generation of every artifact on disk.
func (s *FileStore) scan() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name, gen, ok := parseBlobFilename(entry.Name())
		if !ok {
			continue
		}
		if gen > s.generations[name] {
			s.generations[name] = gen
		}
	}
	return nil
}

// parseBlobFilename splits "cooc.v1_g12.bin.gz" into ("cooc.v1", 12).
func parseBlobFilename(filename string) (name string, generation int64, ok bool) {
	base, found := strings.CutSuffix(filename, fileSuffix)
	if !found {
		return "", 0, false
	}
	i := strings.LastIndex(base, generationMarker)
	if i <= 0 {
		return "", 0, false
	}
	gen, err := strconv.ParseInt(base[i+len(generationMarker):], 10, 64)
	if err != nil || gen <= 0 {
		return "", 0, false
	}
	return base[:i], gen, true
}

func (s *FileStore) blobPath(name string, generation int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%s%d%s", name, generationMarker, generation, fileSuffix))
}

// Save implements Store. The file is written under a temporary name and
// renamed, so readers never observe a partial generation.
func (s *FileStore) Save(ctx context.Context, name string, blob []byte) (BlobInfo, error) {
	if strings.ContainsAny(name, `/\`) || name == "" {
		return BlobInfo{}, fmt.Errorf("invalid artifact name %q", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return BlobInfo{}, err
	}

	gen := s.generations[name] + 1
	data, info, err := seal(name, gen, blob)
	if err != nil {
		return BlobInfo{}, err
	}

	tmp, err := os.CreateTemp(s.dir, name+temporaryFileGlob)
	if err != nil {
		return BlobInfo{}, fmt.Errorf("create artifact file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) } //nolint:errcheck // best-effort removal of a failed write

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close() //nolint:errcheck // write error takes precedence
		cleanup()
		return BlobInfo{}, fmt.Errorf("write artifact file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close() //nolint:errcheck // sync error takes precedence
		cleanup()
		return BlobInfo{}, fmt.Errorf("sync artifact file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return BlobInfo{}, fmt.Errorf("close artifact file: %w", err)
	}
	if err := os.Chmod(tmpName, storageFilePerm); err != nil {
		cleanup()
		return BlobInfo{}, fmt.Errorf("chmod artifact file: %w", err)
	}
	if err := os.Rename(tmpName, s.blobPath(name, gen)); err != nil {
		cleanup()
		return BlobInfo{}, fmt.Errorf("publish artifact file: %w", err)
	}

	s.generations[name] = gen
	s.prune(name)
	return info, nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, name string) ([]byte, BlobInfo, error) {
	s.mu.RLock()
	gen, ok := s.generations[name]
	s.mu.RUnlock()
	if !ok {
		return nil, BlobInfo{}, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, BlobInfo{}, err
	}

	data, err := os.ReadFile(s.blobPath(name, gen))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, BlobInfo{}, ErrNotFound
		}
		return nil, BlobInfo{}, fmt.Errorf("read artifact file: %w", err)
	}
	return unseal(data)
}

// Generations returns the stored generations of name, newest first.
func (s *FileStore) Generations(name string) ([]int64, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var gens []int64
	for _, entry := range entries {
		if n, gen, ok := parseBlobFilename(entry.Name()); ok && n == name {
			gens = append(gens, gen)
		}
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] > gens[j] })
	return gens, nil
}

// prune removes all but the newest keep generations of name. Callers hold
// the write lock.
func (s *FileStore) prune(name string) {
	gens, err := s.Generations(name)
	if err != nil {
		return
	}
	for i := s.keep; i < len(gens); i++ {
		_ = os.Remove(s.blobPath(name, gens[i])) //nolint:errcheck // best-effort cleanup of old generations
	}
}
