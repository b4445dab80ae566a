// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/cache"
	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/query"
	"github.com/tomtom215/wayfarer/internal/recommend/algorithms"
	"github.com/tomtom215/wayfarer/internal/recommend/filter"
	"github.com/tomtom215/wayfarer/internal/recommend/reranking"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// Outcome labels for metrics.RecordRecommend.
const (
	outcomeOK          = "ok"
	outcomeCacheHit    = "cache_hit"
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// responseCacheName labels the response cache in metrics.
const responseCacheName = "response"

// Engine ranks places against the published artifact snapshot.
// It is safe for concurrent use: requests share the snapshot read-only and
// read the user's feedback directly from the feedback store.
type Engine struct {
	cfg       *Config
	manager   *Manager
	feedback  feedback.Store
	extractor query.Extractor
	logger    zerolog.Logger

	// adapter is rebuilt over the catalog vocabulary on every publish.
	adapter atomic.Pointer[query.Adapter]

	filters   *filter.Compiler
	cache     *cache.LRU[*Response]
	diversity *reranking.Diversity
	mmr       *reranking.MMR
}

// NewEngine creates a ranking engine over manager's snapshots. extractor
// may be nil, in which case free-text queries use the phrase and catalog
// vocabulary only.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, manager *Manager, fb feedback.Store, extractor query.Extractor, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		cfg:       cfg,
		manager:   manager,
		feedback:  fb,
		extractor: extractor,
		logger:    logger.With().Str("component", "recommend").Logger(),
		filters:   filter.NewCompiler(cfg.Limits.FilterCacheSize),
		diversity: reranking.NewDiversity(cfg.Diversity.Fraction, cfg.Diversity.MaxOverlap),
		mmr:       reranking.NewMMR(cfg.Diversity.MMRLambda),
	}
	if cfg.Cache.Enabled && cfg.Cache.MaxEntries > 0 {
		e.cache = cache.NewLRU[*Response](cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	manager.OnPublish(e.onPublish)
	if snap := manager.Snapshot(); snap != nil {
		e.onPublish(snap)
	}
	return e, nil
}

// onPublish refreshes state derived from the catalog.
func (e *Engine) onPublish(s *Snapshot) {
	e.adapter.Store(query.NewAdapter(s.Places(), e.extractor, e.logger))
	if e.cache != nil {
		e.cache.Clear()
	}
}

// Manager returns the artifact manager the engine reads from.
func (e *Engine) Manager() *Manager {
	return e.manager
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() *Config {
	return e.cfg.Clone()
}

// request carries the resolved inputs of one ranking.
type request struct {
	Request

	snap      *Snapshot
	filter    *filter.Filter
	tags      []string
	expanded  []string
	phrase    string
	provinces []string
	degraded  bool

	// Feedback restricted to catalog places.
	ratings   []feedback.Rating
	likes     []feedback.LikeMark
	effective map[string]float64
}

// known reports whether the user has any effective feedback.
func (r *request) known() bool {
	return len(r.effective) > 0
}

// ranked is a scored candidate.
type ranked struct {
	place   *catalog.Place
	score   float64
	signals map[string]float64
	reason  string
}

// Recommend ranks places for a request.
//
// An invalid request or filter expression returns an InvalidArgument
// error. When no content index is published the response is empty and the
// error is Unavailable. A cancelled context aborts before any output.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	const op = "recommend.Recommend"
	start := time.Now()

	if verr := validation.ValidateStruct(&req); verr != nil {
		metrics.RecordRecommend("", outcomeInvalid, time.Since(start))
		return nil, verr.ToAppError(op)
	}
	req = e.prepareRequest(req)
	logger := e.createRequestLogger(req)
	ctx = logging.ContextWithLogger(logging.ContextWithRequestID(ctx, req.RequestID), logger)

	var flt *filter.Filter
	if req.Filter != "" {
		f, err := e.filters.Compile(req.Filter)
		if err != nil {
			metrics.RecordRecommend("", outcomeInvalid, time.Since(start))
			return nil, err
		}
		flt = f
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := e.manager.Snapshot()
	if !snap.Ready() {
		logger.Warn().Msg("Content index not available, returning empty result")
		metrics.RecommendFallbacks.WithLabelValues(FallbackNoContent).Inc()
		metrics.RecordRecommend("", outcomeUnavailable, time.Since(start))
		resp := e.emptyResponse(req, snap, start)
		resp.Metadata.Fallback = FallbackNoContent
		return resp, apperr.Unavailable(op, "content index is not available")
	}

	if resp := e.tryGetCachedResponse(req, snap, start, logger); resp != nil {
		metrics.RecordRecommend(string(resp.Metadata.Mode), outcomeCacheHit, time.Since(start))
		return resp, nil
	}

	r, err := e.resolve(ctx, req, snap, flt)
	if err != nil {
		metrics.RecordRecommend("", outcomeError, time.Since(start))
		return nil, err
	}

	resp, err := e.rank(ctx, r, start, logger)
	if err != nil {
		outcome := outcomeError
		if apperr.IsInvalidArgument(err) {
			outcome = outcomeInvalid
		}
		metrics.RecordRecommend("", outcome, time.Since(start))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.cacheResponse(req, snap, resp)
	metrics.RecordRecommend(string(resp.Metadata.Mode), outcomeOK, time.Since(start))

	logger.Debug().
		Str("mode", string(resp.Metadata.Mode)).
		Int("candidates", resp.Metadata.Candidates).
		Int("returned", len(resp.Items)).
		Strs("signals", resp.Metadata.SignalsUsed).
		Str("fallback", resp.Metadata.Fallback).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Msg("recommendation complete")

	return resp, nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = logging.GenerateRequestID()
	}
	if req.K == 0 {
		req.K = e.cfg.Limits.DefaultK
	}
	if req.K > e.cfg.Limits.MaxK {
		req.K = e.cfg.Limits.MaxK
	}
	req.UserID = strings.TrimSpace(req.UserID)
	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("user_id", req.UserID).
		Logger()
}

// resolve parses the query and reads the user's feedback.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) resolve(ctx context.Context, req Request, snap *Snapshot, flt *filter.Filter) (*request, error) {
	const op = "recommend.Recommend"

	r := &request{Request: req, snap: snap, filter: flt}

	tags := append([]string(nil), req.Tags...)
	provinces := append([]string(nil), req.Provinces...)
	if strings.TrimSpace(req.Query) != "" {
		if adapter := e.adapter.Load(); adapter != nil {
			parsed := adapter.Parse(ctx, req.Query)
			r.phrase = parsed.Phrase
			r.degraded = parsed.Degraded
			tags = append(tags, parsed.Tags...)
			provinces = append(provinces, parsed.Provinces...)
		} else {
			r.phrase = query.ExtractPhrase(req.Query)
		}
	}
	r.tags = query.NormalizeTags(tags)
	r.provinces = dedupeProvinces(provinces)

	if req.UserID == "" {
		return r, nil
	}

	err := e.feedback.IterRatings(ctx, req.UserID, func(rt feedback.Rating) error {
		if snap.HasPlace(rt.PlaceID) {
			r.ratings = append(r.ratings, rt)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnavailable, op, fmt.Errorf("read ratings: %w", err))
	}
	likes, err := e.feedback.GetLikes(ctx, req.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeUnavailable, op, fmt.Errorf("read likes: %w", err))
	}
	for _, m := range likes {
		if snap.HasPlace(m.PlaceID) {
			r.likes = append(r.likes, m)
		}
	}
	r.effective = algorithms.EffectiveRatings(r.ratings, r.likes, nil)
	return r, nil
}

// rank scores the candidates of a resolved request.
//
//nolint:gocritic // hugeParam: logger passed by value is acceptable for zerolog
func (e *Engine) rank(ctx context.Context, r *request, start time.Time, logger zerolog.Logger) (*Response, error) {
	candidates, err := e.candidates(r)
	if err != nil {
		return nil, err
	}

	mode := ModeAnonymous
	weights := e.cfg.AnonymousWeights
	if r.known() {
		mode = ModePersonalized
		weights = e.cfg.Weights
	}

	if len(candidates) == 0 {
		logger.Debug().Msg("no candidates after filters")
		resp := e.buildResponse(r, mode, nil, nil, 0, start)
		return resp, nil
	}

	if !r.known() && len(r.tags) == 0 && r.phrase == "" {
		metrics.RecommendFallbacks.WithLabelValues(FallbackNoInput).Inc()
		items := e.popularityOrder(r.snap, candidates, r.K)
		resp := e.buildResponse(r, ModePopular, items, []string{SignalGlobal}, len(candidates), start)
		resp.Metadata.Fallback = FallbackNoInput
		return resp, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	signals := e.computeSignals(r, candidates)
	b := signals.blend(candidates, weights)

	if len(b.used) == 0 || allZero(b.scores) {
		logger.Warn().Str("mode", string(mode)).Msg("All signals zero, falling back to global popularity")
		metrics.RecommendFallbacks.WithLabelValues(FallbackAllZero).Inc()
		items := e.popularityOrder(r.snap, candidates, r.K)
		resp := e.buildResponse(r, mode, items, []string{SignalGlobal}, len(candidates), start)
		resp.Metadata.Fallback = FallbackAllZero
		return resp, nil
	}

	e.adjust(r, b.scores)

	list := make([]ranked, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		list[i] = ranked{
			place:   p,
			score:   b.scores[p.ID],
			signals: b.breakdown[p.ID],
			reason:  reasonFor(dominantSignal(b.breakdown[p.ID], b.weights, b.used), p),
		}
	}
	sortRanked(list)

	items := e.rerank(ctx, list, r.K)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.buildResponse(r, mode, items, b.used, len(candidates), start), nil
}

// candidates applies the hard filters: provinces, the filter expression
// and, unless IncludeSeen is set, places the user already rated highly.
func (e *Engine) candidates(r *request) ([]catalog.Place, error) {
	places := r.snap.Places()
	out := make([]catalog.Place, 0, len(places))
	for i := range places {
		p := &places[i]
		if len(r.provinces) > 0 && !matchesAnyProvince(p.Province(), r.provinces) {
			continue
		}
		if !r.IncludeSeen && r.effective[p.ID] >= e.cfg.SeenThreshold {
			continue
		}
		if r.filter != nil {
			ok, err := r.filter.Match(*p)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, *p)
	}
	return out, nil
}

// computeSignals evaluates every signal source. Sources that cannot serve
// this request are left nil.
func (e *Engine) computeSignals(r *request, candidates []catalog.Place) signalSet {
	snap := r.snap
	sig := make(signalSet, len(signalOrder))

	var q algorithms.SparseVector
	var boost map[string]float64
	switch {
	case len(r.tags) > 0 || r.phrase != "":
		r.expanded = snap.Cooc.Expand(r.tags, e.cfg.ExpansionFactor)
		terms := r.expanded
		if r.phrase != "" {
			terms = append(append([]string(nil), terms...), r.phrase)
		}
		q = snap.Content.QueryVector(terms)
		boost = snap.Cooc.BoostScores(r.tags)
	case r.known():
		q = snap.Content.ProfileVector(ratingScores(r.ratings), likeFlags(r.likes))
	}
	if q != nil {
		raw := snap.Content.Scores(q)
		content := make(map[string]float64, len(candidates))
		for i := range candidates {
			p := &candidates[i]
			content[p.ID] = raw[p.ID] * boostMultiplier(boost, p, e.cfg.BoostCap)
		}
		sig[SignalContent] = content
	}

	if r.known() {
		if snap.ItemSim != nil {
			sig[SignalCF] = snap.ItemSim.Scores(r.effective)
		}
		if snap.Clusters != nil {
			if cl, ok := snap.Clusters.Resolve(r.UserID, r.effective, snap.TagsOf); ok {
				sig[SignalCluster] = snap.Clusters.PlaceScores(cl)
			}
		}
	}

	if snap.Popularity != nil {
		sig[SignalGlobal] = snap.Popularity.Scores()
	}
	return sig
}

// adjust applies the dislike penalty and the seen demotion in place.
func (e *Engine) adjust(r *request, scores map[string]float64) {
	var disliked []string
	for _, m := range r.likes {
		if !m.IsLike {
			disliked = append(disliked, m.PlaceID)
		}
	}

	for id, s := range scores {
		for _, q := range disliked {
			s -= e.cfg.DislikePenalty * r.snap.Content.Similarity(id, q)
		}
		if r.IncludeSeen && r.effective[id] >= e.cfg.SeenThreshold {
			s -= e.cfg.SeenDemotion * math.Abs(s)
		}
		scores[id] = s
	}
}

// rerank applies the diversity pass, then MMR when enabled, and truncates
// to k.
func (e *Engine) rerank(ctx context.Context, list []ranked, k int) []ranked {
	byID := make(map[string]ranked, len(list))
	cands := make([]reranking.Candidate, len(list))
	for i := range list {
		p := list[i].place
		byID[p.ID] = list[i]
		cands[i] = reranking.Candidate{
			ID:          p.ID,
			Score:       list[i].score,
			PrimaryTags: p.PrimaryTags(),
			Tags:        p.NormalizedTags(),
		}
	}

	cands = e.diversity.Rerank(ctx, cands, k)
	if e.mmr.Enabled() {
		cands = e.mmr.Rerank(ctx, cands, k)
	}
	if len(cands) > k {
		cands = cands[:k]
	}

	out := make([]ranked, len(cands))
	for i, c := range cands {
		out[i] = byID[c.ID]
	}
	return out
}

// popularityOrder ranks candidates by global popularity alone.
func (e *Engine) popularityOrder(snap *Snapshot, candidates []catalog.Place, k int) []ranked {
	var scores map[string]float64
	if snap.Popularity != nil {
		scores = snap.Popularity.Scores()
	}
	list := make([]ranked, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		s := scores[p.ID]
		list[i] = ranked{
			place:   p,
			score:   s,
			signals: map[string]float64{SignalGlobal: s},
			reason:  reasonFor(SignalGlobal, p),
		}
	}
	sortRanked(list)
	if len(list) > k {
		list = list[:k]
	}
	return list
}

// buildResponse constructs the final response.
func (e *Engine) buildResponse(r *request, mode Mode, items []ranked, used []string, candidates int, start time.Time) *Response {
	out := make([]ScoredPlace, len(items))
	for i, it := range items {
		out[i] = ScoredPlace{
			PlaceID:  it.place.ID,
			Name:     it.place.Name,
			Province: it.place.Province(),
			Score:    it.score,
			Signals:  it.signals,
			Reason:   it.reason,
		}
	}
	return &Response{
		Items: out,
		Metadata: ResponseMetadata{
			RequestID:    r.RequestID,
			UserID:       r.UserID,
			Mode:         mode,
			Generation:   r.snap.Generation,
			RuleSet:      r.snap.RuleSet,
			Phrase:       r.phrase,
			ExpandedTags: r.expanded,
			Provinces:    r.provinces,
			SignalsUsed:  used,
			Candidates:   candidates,
			Degraded:     r.degraded,
			LatencyMS:    time.Since(start).Milliseconds(),
			Timestamp:    time.Now().UTC(),
		},
	}
}

// emptyResponse returns an empty response for requests that cannot be
// ranked. snap may be nil.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) emptyResponse(req Request, snap *Snapshot, start time.Time) *Response {
	resp := &Response{
		Items: []ScoredPlace{},
		Metadata: ResponseMetadata{
			RequestID: req.RequestID,
			UserID:    req.UserID,
			Mode:      ModeAnonymous,
			LatencyMS: time.Since(start).Milliseconds(),
			Timestamp: time.Now().UTC(),
		},
	}
	if snap != nil {
		resp.Metadata.Generation = snap.Generation
		resp.Metadata.RuleSet = snap.RuleSet
	}
	return resp
}

// tryGetCachedResponse returns a copy of a cached response, if any.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) tryGetCachedResponse(req Request, snap *Snapshot, start time.Time, logger zerolog.Logger) *Response {
	if e.cache == nil {
		return nil
	}
	cached, ok := e.cache.Get(cacheKey(req, snap.Generation))
	metrics.RecordCacheLookup(responseCacheName, ok)
	if !ok {
		return nil
	}

	resp := cached.clone()
	resp.Metadata.RequestID = req.RequestID
	resp.Metadata.CacheHit = true
	resp.Metadata.LatencyMS = time.Since(start).Milliseconds()
	resp.Metadata.Timestamp = time.Now().UTC()
	logger.Debug().Msg("cache hit")
	return resp
}

// cacheResponse stores a copy of resp if caching is enabled. Degraded
// responses are not cached so a recovered extractor is used again.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) cacheResponse(req Request, snap *Snapshot, resp *Response) {
	if e.cache == nil || resp.Metadata.Degraded {
		return
	}
	e.cache.Add(cacheKey(req, snap.Generation), resp.clone())
}

// cacheKey identifies a request against one artifact generation.
//
//nolint:gocritic // hugeParam: req passed by value for simplicity
func cacheKey(req Request, generation int64) string {
	var b strings.Builder
	b.WriteString("g")
	b.WriteString(strconv.FormatInt(generation, 10))
	for _, part := range []string{
		req.UserID,
		strings.Join(query.NormalizeTags(req.Tags), ","),
		strings.TrimSpace(req.Query),
		strings.Join(req.Provinces, ","),
		strings.TrimSpace(req.Filter),
		strconv.Itoa(req.K),
		strconv.FormatBool(req.IncludeSeen),
	} {
		b.WriteByte(0x1f)
		b.WriteString(part)
	}
	return b.String()
}

// sortRanked orders by score descending, ties by place id ascending.
func sortRanked(list []ranked) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].score != list[j].score {
			return list[i].score > list[j].score
		}
		return list[i].place.ID < list[j].place.ID
	})
}

func matchesAnyProvince(province string, requested []string) bool {
	for _, want := range requested {
		if catalog.ProvinceMatches(province, want) {
			return true
		}
	}
	return false
}

// dedupeProvinces drops blanks and spellings that fold to the same name,
// keeping the first.
func dedupeProvinces(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, p := range in {
		key := catalog.FoldTag(p)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func ratingScores(ratings []feedback.Rating) map[string]float64 {
	out := make(map[string]float64, len(ratings))
	for _, r := range ratings {
		out[r.PlaceID] = r.Score
	}
	return out
}

func likeFlags(likes []feedback.LikeMark) map[string]bool {
	out := make(map[string]bool, len(likes))
	for _, m := range likes {
		out[m.PlaceID] = m.IsLike
	}
	return out
}
