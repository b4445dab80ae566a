// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/rating"
	"github.com/tomtom215/wayfarer/internal/recommend/algorithms"
	"github.com/tomtom215/wayfarer/internal/recommend/storage"
)

// Kind selects which artifacts a rebuild produces.
type Kind string

const (
	KindCooc       Kind = "cooc"
	KindClusters   Kind = "clusters"
	KindContent    Kind = "content"
	KindItemSim    Kind = "item_sim"
	KindPopularity Kind = "popularity"
	KindAll        Kind = "all"
)

// Kinds lists the single-artifact kinds in build order.
var Kinds = []Kind{KindCooc, KindClusters, KindContent, KindItemSim, KindPopularity}

// ParseKind accepts a kind name or an artifact name ("cooc.v1").
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), ".v1"))
	switch k {
	case KindCooc, KindClusters, KindContent, KindItemSim, KindPopularity, KindAll:
		return k, nil
	}
	return "", apperr.InvalidArgument("recommend.ParseKind",
		"unknown artifact kind %q (want cooc, clusters, content, item_sim, popularity or all)", s)
}

// ArtifactName returns the blob name of a single-artifact kind.
func (k Kind) ArtifactName() string {
	switch k {
	case KindCooc:
		return algorithms.ArtifactCooc
	case KindClusters:
		return algorithms.ArtifactClusters
	case KindContent:
		return algorithms.ArtifactContent
	case KindItemSim:
		return algorithms.ArtifactItemSim
	case KindPopularity:
		return algorithms.ArtifactPopularity
	default:
		return ""
	}
}

func (k Kind) expand() []Kind {
	if k == KindAll {
		return Kinds
	}
	return []Kind{k}
}

// Snapshot is an immutable, mutually consistent set of artifacts plus the
// catalog they were built against. A nil artifact means it is missing.
type Snapshot struct {
	Generation  int64
	PublishedAt time.Time
	RuleSet     string

	Cooc       *algorithms.CoocTable
	Clusters   *algorithms.Clusters
	Content    *algorithms.ContentIndex
	ItemSim    *algorithms.ItemSimIndex
	Popularity *algorithms.Popularity

	// Blobs records the stored generation of each artifact.
	Blobs map[string]storage.BlobInfo

	places   []catalog.Place
	placeIdx map[string]int
}

func newSnapshot(places []catalog.Place) *Snapshot {
	s := &Snapshot{
		RuleSet:  rating.RuleSetVersion,
		Blobs:    make(map[string]storage.BlobInfo),
		places:   places,
		placeIdx: make(map[string]int, len(places)),
	}
	for i := range places {
		s.placeIdx[places[i].ID] = i
	}
	return s
}

// derive copies s for a new generation, sharing artifacts.
func (s *Snapshot) derive(places []catalog.Place) *Snapshot {
	next := newSnapshot(places)
	next.Cooc, next.Clusters, next.Content, next.ItemSim, next.Popularity =
		s.Cooc, s.Clusters, s.Content, s.ItemSim, s.Popularity
	for k, v := range s.Blobs {
		next.Blobs[k] = v
	}
	return next
}

// Places returns the catalog in id order. The slice must not be modified.
func (s *Snapshot) Places() []catalog.Place {
	return s.places
}

// Place returns a catalog place by id.
func (s *Snapshot) Place(id string) (*catalog.Place, bool) {
	i, ok := s.placeIdx[id]
	if !ok {
		return nil, false
	}
	return &s.places[i], true
}

// HasPlace reports whether id is in the catalog.
func (s *Snapshot) HasPlace(id string) bool {
	_, ok := s.placeIdx[id]
	return ok
}

// TagsOf returns the normalized tags of a place, or nil.
func (s *Snapshot) TagsOf(id string) []string {
	if p, ok := s.Place(id); ok {
		return p.NormalizedTags()
	}
	return nil
}

// Ready reports whether the snapshot can serve rankings.
func (s *Snapshot) Ready() bool {
	return s != nil && s.Content != nil
}

// Missing lists kinds whose artifact is absent.
func (s *Snapshot) Missing() []Kind {
	var out []Kind
	if s.Cooc == nil {
		out = append(out, KindCooc)
	}
	if s.Clusters == nil {
		out = append(out, KindClusters)
	}
	if s.Content == nil {
		out = append(out, KindContent)
	}
	if s.ItemSim == nil {
		out = append(out, KindItemSim)
	}
	if s.Popularity == nil {
		out = append(out, KindPopularity)
	}
	return out
}

func (s *Snapshot) set(a algorithms.Artifact) {
	switch v := a.(type) {
	case *algorithms.CoocTable:
		s.Cooc = v
	case *algorithms.Clusters:
		s.Clusters = v
	case *algorithms.ContentIndex:
		s.Content = v
	case *algorithms.ItemSimIndex:
		s.ItemSim = v
	case *algorithms.Popularity:
		s.Popularity = v
	}
}

// Manager owns the published snapshot. Readers call Snapshot without
// locking; rebuilds construct a fresh snapshot and swap the pointer under
// one mutex, so readers see either the whole old set or the whole new set.
type Manager struct {
	catalog  catalog.Store
	feedback feedback.Store
	store    storage.Store
	cfg      *Config
	logger   zerolog.Logger

	mu         sync.Mutex
	current    atomic.Pointer[Snapshot]
	generation int64
	listeners  []func(*Snapshot)
}

// NewManager creates a manager. Call Load or Rebuild before serving.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewManager(cat catalog.Store, fb feedback.Store, store storage.Store, cfg *Config, logger zerolog.Logger) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Manager{
		catalog:  cat,
		feedback: fb,
		store:    store,
		cfg:      cfg,
		logger:   logger.With().Str("component", "artifacts").Logger(),
	}
}

// Snapshot returns the published snapshot, or nil before the first publish.
func (m *Manager) Snapshot() *Snapshot {
	return m.current.Load()
}

// OnPublish registers fn to run after every publish, under the publish lock.
func (m *Manager) OnPublish(fn func(*Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// publish must be called with m.mu held.
func (m *Manager) publish(s *Snapshot) {
	m.generation++
	s.Generation = m.generation
	s.PublishedAt = time.Now().UTC()
	m.current.Store(s)
	metrics.SetArtifactGeneration(s.Generation, s.PublishedAt)
	for _, fn := range m.listeners {
		fn(s)
	}
	m.logger.Info().
		Int64("generation", s.Generation).
		Int("places", len(s.places)).
		Interface("missing", s.Missing()).
		Msg("Published artifact snapshot")
}

// Load reads every artifact from the store, rebuilds the ones that are
// missing or stale, and publishes the result. A cooccurrence table that
// cannot be built is replaced by an empty one; other failed artifacts stay
// nil and their signals read as zero. Load only fails when the catalog or
// feedback cannot be read.
func (m *Manager) Load(ctx context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := algorithms.LoadDataset(ctx, m.catalog, m.feedback)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, "recommend.Load", err)
	}

	snap := newSnapshot(d.Places)
	var rebuild []Kind
	for _, k := range Kinds {
		a, info, err := m.loadArtifact(ctx, k)
		switch {
		case err != nil:
			if !errors.Is(err, storage.ErrNotFound) {
				m.logger.Warn().Err(err).Str("artifact", k.ArtifactName()).Msg("Stored artifact unreadable, rebuilding")
			}
			rebuild = append(rebuild, k)
		case k == KindContent && !samePlaces(a.(*algorithms.ContentIndex).PlaceIDs(), d.Places):
			m.logger.Info().Str("artifact", k.ArtifactName()).Msg("Catalog changed since content index build, rebuilding")
			rebuild = append(rebuild, k)
		default:
			snap.set(a)
			snap.Blobs[k.ArtifactName()] = info
		}
	}

	if len(rebuild) > 0 {
		built, errs := m.buildAll(ctx, d, rebuild)
		for _, k := range rebuild {
			if a, ok := built[k]; ok {
				snap.set(a)
				if info, err := m.save(ctx, a); err == nil {
					snap.Blobs[k.ArtifactName()] = info
				}
				continue
			}
			m.logger.Error().Err(errs[k]).Str("artifact", k.ArtifactName()).Msg("Artifact rebuild failed")
		}
	}
	if snap.Cooc == nil {
		m.logger.Warn().Msg("No cooccurrence table, tag expansion disabled")
		snap.Cooc = algorithms.EmptyCooc()
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.publish(snap)
	return snap, nil
}

// Rebuild builds the artifacts of kind from a fresh dataset, stores them
// and publishes a new snapshot. Artifacts of other kinds carry over. If any
// requested artifact fails, nothing is published.
func (m *Manager) Rebuild(ctx context.Context, kind Kind) (*Snapshot, error) {
	const op = "recommend.Rebuild"

	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	d, err := algorithms.LoadDataset(ctx, m.catalog, m.feedback)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, op, err)
	}

	kinds := kind.expand()
	built, errs := m.buildAll(ctx, d, kinds)
	for _, k := range kinds {
		if err := errs[k]; err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &apperr.Error{Code: apperr.CodeArtifactMissing, Op: op, Message: "build " + k.ArtifactName(), Err: err}
		}
	}

	var snap *Snapshot
	if prev := m.current.Load(); prev != nil {
		snap = prev.derive(d.Places)
	} else {
		snap = newSnapshot(d.Places)
	}
	for _, k := range kinds {
		a := built[k]
		snap.set(a)
		info, err := m.save(ctx, a)
		if err != nil {
			return nil, &apperr.Error{Code: apperr.CodeInternal, Op: op, Message: "store " + k.ArtifactName(), Err: err}
		}
		snap.Blobs[k.ArtifactName()] = info
	}
	if snap.Cooc == nil {
		snap.Cooc = algorithms.EmptyCooc()
	}
	if snap.Content != nil && !samePlaces(snap.Content.PlaceIDs(), d.Places) {
		m.logger.Warn().Msg("Content index predates the catalog; rebuild content to rank new places")
	}

	m.publish(snap)
	return snap, nil
}

// buildAll builds kinds concurrently from d. Failures are returned per kind.
func (m *Manager) buildAll(ctx context.Context, d *algorithms.Dataset, kinds []Kind) (map[Kind]algorithms.Artifact, map[Kind]error) {
	results := make([]algorithms.Artifact, len(kinds))
	errs := make([]error, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		g.Go(func() error {
			start := time.Now()
			a, err := m.build(gctx, d, k)
			metrics.RecordArtifactBuild(k.ArtifactName(), time.Since(start), err)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = a
			m.logger.Info().
				Str("artifact", k.ArtifactName()).
				Dur("duration", time.Since(start)).
				Int("places", a.Meta().Places).
				Int("users", a.Meta().Users).
				Msg("Built artifact")
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // per-kind errors are collected above

	built := make(map[Kind]algorithms.Artifact, len(kinds))
	failed := make(map[Kind]error)
	for i, k := range kinds {
		if errs[i] != nil {
			failed[k] = errs[i]
			continue
		}
		built[k] = results[i]
	}
	return built, failed
}

func (m *Manager) build(ctx context.Context, d *algorithms.Dataset, k Kind) (algorithms.Artifact, error) {
	switch k {
	case KindCooc:
		return algorithms.BuildCooc(ctx, d, m.cfg.Cooc)
	case KindClusters:
		return algorithms.BuildClusters(ctx, d, m.cfg.Clusters)
	case KindContent:
		return algorithms.BuildContent(ctx, d, m.cfg.Content)
	case KindItemSim:
		return algorithms.BuildItemSim(ctx, d, m.cfg.ItemCF)
	case KindPopularity:
		return algorithms.BuildPopularity(ctx, d, m.cfg.Popularity)
	default:
		return nil, fmt.Errorf("no builder for kind %q", k)
	}
}

func (m *Manager) save(ctx context.Context, a algorithms.Artifact) (storage.BlobInfo, error) {
	blob, err := a.MarshalBinary()
	if err != nil {
		return storage.BlobInfo{}, fmt.Errorf("encode %s: %w", a.Name(), err)
	}
	info, err := m.store.Save(ctx, a.Name(), blob)
	if err != nil {
		m.logger.Error().Err(err).Str("artifact", a.Name()).Msg("Failed to store artifact")
		return storage.BlobInfo{}, err
	}
	return info, nil
}

func (m *Manager) loadArtifact(ctx context.Context, k Kind) (algorithms.Artifact, storage.BlobInfo, error) {
	blob, info, err := m.store.Load(ctx, k.ArtifactName())
	if err != nil {
		return nil, storage.BlobInfo{}, err
	}
	var a algorithms.Artifact
	switch k {
	case KindCooc:
		a, err = algorithms.DecodeCooc(blob)
	case KindClusters:
		a, err = algorithms.DecodeClusters(blob)
	case KindContent:
		a, err = algorithms.DecodeContent(blob)
	case KindItemSim:
		a, err = algorithms.DecodeItemSim(blob)
	case KindPopularity:
		a, err = algorithms.DecodePopularity(blob)
	default:
		err = fmt.Errorf("no decoder for kind %q", k)
	}
	if err != nil {
		return nil, storage.BlobInfo{}, err
	}
	return a, info, nil
}

// samePlaces reports whether ids lists exactly the catalog place ids in
// order. Both sides are sorted by id.
func samePlaces(ids []string, places []catalog.Place) bool {
	if len(ids) != len(places) {
		return false
	}
	for i := range places {
		if ids[i] != places[i].ID {
			return false
		}
	}
	return true
}
