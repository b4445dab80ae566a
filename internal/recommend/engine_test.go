// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
	"github.com/tomtom215/wayfarer/internal/query"
	"github.com/tomtom215/wayfarer/internal/recommend/storage"
)

func TestNewEngine(t *testing.T) {
	m := NewManager(newCatalog(t, miniPlaces()), newFeedback(t, nil), storage.NewMemoryStore(), nil, zerolog.Nop())

	t.Run("nil config uses defaults", func(t *testing.T) {
		e, err := NewEngine(nil, m, newFeedback(t, nil), nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("NewEngine() error = %v", err)
		}
		if e.Config().Limits.DefaultK != 10 {
			t.Errorf("DefaultK = %d, want 10", e.Config().Limits.DefaultK)
		}
		if e.Manager() != m {
			t.Error("Manager() does not return the wired manager")
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Weights = Weights{}
		if _, err := NewEngine(cfg, m, newFeedback(t, nil), nil, zerolog.Nop()); err == nil {
			t.Error("NewEngine() error = nil, want error for zero weights")
		}
	})
}

func TestEngine_Recommend_Scenarios(t *testing.T) {
	f := miniFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		req      Request
		want     []string
		wantMode Mode
	}{
		{
			name:     "anonymous mountain lover",
			req:      Request{Tags: []string{"Mountain"}, K: 2},
			want:     []string{"p3", "p5"},
			wantMode: ModeAnonymous,
		},
		{
			name:     "known user asks for beaches",
			req:      Request{UserID: "u3", Tags: []string{"Beach"}, K: 2},
			want:     []string{"p1", "p2"},
			wantMode: ModePersonalized,
		},
		{
			name:     "no user and no tags returns global popularity",
			req:      Request{K: 3},
			want:     []string{"p1", "p2", "p3"},
			wantMode: ModePopular,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.engine.Recommend(ctx, tt.req)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if got := resp.IDs(); !equalIDs(got, tt.want) {
				t.Errorf("Recommend() = %v, want %v", got, tt.want)
			}
			if resp.Metadata.Mode != tt.wantMode {
				t.Errorf("Mode = %q, want %q", resp.Metadata.Mode, tt.wantMode)
			}
		})
	}
}

func TestEngine_Recommend_ExcludesSeen(t *testing.T) {
	f := miniFixture(t)

	resp, err := f.engine.Recommend(context.Background(), Request{UserID: "u1", K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	ids := resp.IDs()
	for _, seen := range []string{"p1", "p2"} {
		if contains(ids, seen) {
			t.Errorf("Recommend() = %v, want %s excluded (rated >= 4)", ids, seen)
		}
	}
	// u1 rated p1 and p2 highly and both co-rate with p3 through u2, so the
	// cf term alone puts p3 first; p5 only neighbours p3 (rated 2) and p1.
	if want := []string{"p3", "p4", "p5"}; !equalIDs(ids, want) {
		t.Fatalf("Recommend() = %v, want %v", ids, want)
	}
	if cf := resp.Items[0].Signals[SignalCF]; cf < 1.8 {
		t.Errorf("p3 cf = %v, want > 1.8", cf)
	}
	if cf := resp.Items[2].Signals[SignalCF]; cf >= 0 {
		t.Errorf("p5 cf = %v, want negative", cf)
	}
	// p5's best case is 0.30 content + 0.50 cf + 0.10 + 0.10.
	if upper := 0.30 + 0.50*resp.Items[2].Signals[SignalCF] + 0.20; resp.Items[0].Score <= upper {
		t.Errorf("p3 score = %v, want above p5 upper bound %v", resp.Items[0].Score, upper)
	}
	if resp.Metadata.Mode != ModePersonalized {
		t.Errorf("Mode = %q, want %q", resp.Metadata.Mode, ModePersonalized)
	}

	resp, err = f.engine.Recommend(context.Background(), Request{UserID: "u1", K: 5, IncludeSeen: true})
	if err != nil {
		t.Fatalf("Recommend(include seen) error = %v", err)
	}
	if !contains(resp.IDs(), "p1") {
		t.Errorf("Recommend(include seen) = %v, want p1 kept", resp.IDs())
	}
}

func TestEngine_Recommend_GlobalPopularityMatchesArtifact(t *testing.T) {
	f := miniFixture(t)
	resp, err := f.engine.Recommend(context.Background(), Request{K: 4})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	top := f.manager.Snapshot().Popularity.TopK(4)
	if len(top) != len(resp.Items) {
		t.Fatalf("Recommend() = %v, want %d items", resp.IDs(), len(top))
	}
	for i := range top {
		if resp.Items[i].PlaceID != top[i].ID || resp.Items[i].Score != top[i].Score {
			t.Errorf("item %d = %s (%v), want %s (%v)", i, resp.Items[i].PlaceID, resp.Items[i].Score, top[i].ID, top[i].Score)
		}
	}
	if resp.Metadata.Fallback != FallbackNoInput {
		t.Errorf("Fallback = %q, want %q", resp.Metadata.Fallback, FallbackNoInput)
	}
}

func TestEngine_Recommend_ProvinceFilter(t *testing.T) {
	f := miniFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       Request
		wantEmpty bool
	}{
		{"exact", Request{Tags: []string{"Mountain"}, Provinces: []string{"Lam Dong"}, K: 5}, false},
		{"diacritics", Request{Tags: []string{"Beach"}, Provinces: []string{"Lâm Đồng"}, K: 5}, false},
		{"substring", Request{UserID: "u1", Provinces: []string{"  lam  "}, K: 5}, false},
		{"unknown province", Request{Tags: []string{"Beach"}, Provinces: []string{"Ca Mau"}, K: 5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.engine.Recommend(ctx, tt.req)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if tt.wantEmpty {
				if len(resp.Items) != 0 {
					t.Errorf("Recommend() = %v, want empty", resp.IDs())
				}
				return
			}
			if len(resp.Items) == 0 {
				t.Fatal("Recommend() returned no items")
			}
			for _, it := range resp.Items {
				if !catalog.ProvinceMatches(it.Province, tt.req.Provinces[0]) {
					t.Errorf("item %s province %q does not match %q", it.PlaceID, it.Province, tt.req.Provinces[0])
				}
			}
		})
	}
}

func TestEngine_Recommend_DiversityHead(t *testing.T) {
	f := miniFixture(t)
	k := 4
	resp, err := f.engine.Recommend(context.Background(), Request{Tags: []string{"Beach", "Quang Ninh"}, K: k})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != k {
		t.Fatalf("Recommend() = %v, want %d items", resp.IDs(), k)
	}

	snap := f.manager.Snapshot()
	head := f.engine.diversity.HeadSize(k)
	for i := 0; i < head; i++ {
		for j := i + 1; j < head; j++ {
			a, _ := snap.Place(resp.Items[i].PlaceID)
			b, _ := snap.Place(resp.Items[j].PlaceID)
			shared := 0
			for _, x := range a.PrimaryTags() {
				for _, y := range b.PrimaryTags() {
					if x == y {
						shared++
					}
				}
			}
			if shared > 1 {
				t.Errorf("head items %s and %s share %d primary tags, want <= 1", a.ID, b.ID, shared)
			}
		}
	}
	// p1 and p2 share both primary tags, so only one may lead.
	if resp.Items[0].PlaceID != "p1" || resp.Items[1].PlaceID == "p2" {
		t.Errorf("Recommend() = %v, want p1 first and p2 pushed out of the head", resp.IDs())
	}
}

func TestEngine_Recommend_Deterministic(t *testing.T) {
	f := miniFixture(t)
	ctx := context.Background()
	reqs := []Request{
		{UserID: "u1", K: 5, IncludeSeen: true},
		{UserID: "u2", Tags: []string{"Beach"}, K: 5},
		{Tags: []string{"Mountain", "Beach"}, K: 5},
	}
	for _, req := range reqs {
		first, err := f.engine.Recommend(ctx, req)
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		for i := 0; i < 5; i++ {
			again, err := f.engine.Recommend(ctx, req)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if !equalIDs(first.IDs(), again.IDs()) {
				t.Fatalf("Recommend(%+v) = %v then %v, want identical", req, first.IDs(), again.IDs())
			}
			for j := range first.Items {
				if first.Items[j].Score != again.Items[j].Score {
					t.Errorf("item %d score = %v then %v, want identical", j, first.Items[j].Score, again.Items[j].Score)
				}
			}
		}
	}
}

func TestEngine_Recommend_TiesBreakByID(t *testing.T) {
	themes := []string{"Beach", "Island", "Seafood", "Sunset", "Surf", "Snorkel", "Resort"}
	provinces := []string{"Binh", "Khanh", "Phu", "Ninh", "Quang", "Kien", "Bac", "Tra"}
	var places []catalog.Place
	for i, prov := range provinces {
		places = append(places, catalog.Place{
			ID:          fmt.Sprintf("x%02d", i),
			Name:        prov + " coast",
			Tags:        append([]string{prov}, themes...),
			Description: "white sand and clear water with fishing villages nearby",
		})
	}
	f := newFixture(t, fixtureOptions{places: places})
	want := []string{"x00", "x01", "x02", "x03", "x04", "x05", "x06", "x07"}

	for run := 0; run < 200; run++ {
		resp, err := f.engine.Recommend(context.Background(), Request{Tags: themes, K: len(places)})
		if err != nil {
			t.Fatalf("Recommend() error = %v", err)
		}
		if got := resp.IDs(); !equalIDs(got, want) {
			t.Fatalf("run %d: Recommend() = %v, want %v", run, got, want)
		}
		for i := 1; i < len(resp.Items); i++ {
			if resp.Items[i].Score != resp.Items[0].Score {
				t.Fatalf("run %d: score[%d] = %v, want %v (all tied)", run, i, resp.Items[i].Score, resp.Items[0].Score)
			}
		}
	}
}

func TestEngine_Recommend_ResponseFields(t *testing.T) {
	f := miniFixture(t)
	resp, err := f.engine.Recommend(context.Background(), Request{UserID: "u3", Tags: []string{"Beach"}, K: 2, RequestID: "req-1"})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	md := resp.Metadata
	if md.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want req-1", md.RequestID)
	}
	if md.Generation != 1 {
		t.Errorf("Generation = %d, want 1", md.Generation)
	}
	if md.RuleSet == "" {
		t.Error("RuleSet is empty")
	}
	if md.Candidates != 4 {
		t.Errorf("Candidates = %d, want 4 (p4 is seen)", md.Candidates)
	}
	if len(md.ExpandedTags) == 0 || md.ExpandedTags[0] != "beach" {
		t.Errorf("ExpandedTags = %v, want beach first", md.ExpandedTags)
	}
	if contains(md.SignalsUsed, SignalCF) {
		t.Errorf("SignalsUsed = %v, want no cf (u3 shares no places with anyone)", md.SignalsUsed)
	}
	if !contains(md.SignalsUsed, SignalContent) {
		t.Errorf("SignalsUsed = %v, want content", md.SignalsUsed)
	}
	top := resp.Items[0]
	if top.Name != "Ha Long Bay" || top.Province != "Quang Ninh" {
		t.Errorf("top item = %+v, want Ha Long Bay in Quang Ninh", top)
	}
	if top.Reason == "" || len(top.Signals) == 0 {
		t.Errorf("top item = %+v, want reason and signal breakdown", top)
	}

	resp, err = f.engine.Recommend(context.Background(), Request{K: 1})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Metadata.RequestID == "" {
		t.Error("generated RequestID is empty")
	}
}

func TestEngine_Recommend_Query(t *testing.T) {
	f := miniFixture(t)
	resp, err := f.engine.Recommend(context.Background(), Request{Query: "mountain trip in Lâm Đồng", K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("Recommend() = %v, want the two Lam Dong places", resp.IDs())
	}
	for _, it := range resp.Items {
		if it.Province != "Lam Dong" {
			t.Errorf("item %s province = %q, want Lam Dong", it.PlaceID, it.Province)
		}
	}
	if resp.Metadata.Phrase == "" {
		t.Error("Phrase is empty, want the extracted phrase")
	}
	if len(resp.Metadata.Provinces) != 1 {
		t.Errorf("Provinces = %v, want one detected province", resp.Metadata.Provinces)
	}
	if resp.Metadata.Degraded {
		t.Error("Degraded = true without an extractor")
	}
}

type failingExtractor struct{}

func (failingExtractor) Extract(context.Context, string) (*query.Extraction, error) {
	return nil, apperr.Unavailable("test.Extract", "extractor down")
}

func TestEngine_Recommend_ExtractorDegrades(t *testing.T) {
	f := newFixture(t, fixtureOptions{ratings: miniRatings, extractor: failingExtractor{}})
	resp, err := f.engine.Recommend(context.Background(), Request{Query: "beach", K: 2})
	if err != nil {
		t.Fatalf("Recommend() error = %v, want degraded success", err)
	}
	if !resp.Metadata.Degraded {
		t.Error("Degraded = false, want true")
	}
	if got := resp.IDs(); !equalIDs(got, []string{"p1", "p2"}) {
		t.Errorf("Recommend() = %v, want [p1 p2]", got)
	}
}

func TestEngine_Recommend_Filter(t *testing.T) {
	f := miniFixture(t)
	ctx := context.Background()

	resp, err := f.engine.Recommend(ctx, Request{Tags: []string{"Mountain"}, Filter: `"waterfall" in place.tags`, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got := resp.IDs(); !equalIDs(got, []string{"p5"}) {
		t.Errorf("Recommend() = %v, want [p5]", got)
	}

	_, err = f.engine.Recommend(ctx, Request{Tags: []string{"Mountain"}, Filter: "place.tags +", K: 5})
	if !apperr.IsInvalidArgument(err) {
		t.Errorf("Recommend(bad filter) error = %v, want INVALID_ARGUMENT", err)
	}
}

func TestEngine_Recommend_InvalidRequest(t *testing.T) {
	f := miniFixture(t)
	tests := []struct {
		name string
		req  Request
	}{
		{"negative k", Request{K: -1}},
		{"too many tags", Request{Tags: make([]string, 33)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := f.engine.Recommend(context.Background(), tt.req)
			if !apperr.IsInvalidArgument(err) {
				t.Errorf("Recommend() error = %v, want INVALID_ARGUMENT", err)
			}
			if resp != nil {
				t.Errorf("Recommend() response = %+v, want nil", resp)
			}
		})
	}
}

func TestEngine_Recommend_KClamped(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Limits.DefaultK = 2
	cfg.Limits.MaxK = 3
	f := newFixture(t, fixtureOptions{ratings: miniRatings, cfg: cfg})

	resp, err := f.engine.Recommend(context.Background(), Request{Tags: []string{"Beach"}})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != 2 {
		t.Errorf("len(Items) = %d, want default k 2", len(resp.Items))
	}
	resp, err = f.engine.Recommend(context.Background(), Request{Tags: []string{"Beach"}, K: 50})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(resp.Items) != 3 {
		t.Errorf("len(Items) = %d, want max k 3", len(resp.Items))
	}
}

func TestEngine_Recommend_NoSnapshot(t *testing.T) {
	m := NewManager(newCatalog(t, miniPlaces()), newFeedback(t, nil), storage.NewMemoryStore(), nil, zerolog.Nop())
	e, err := NewEngine(nil, m, newFeedback(t, nil), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	resp, err := e.Recommend(context.Background(), Request{Tags: []string{"Beach"}})
	if !apperr.IsUnavailable(err) {
		t.Errorf("Recommend() error = %v, want UNAVAILABLE", err)
	}
	if resp == nil || len(resp.Items) != 0 {
		t.Fatalf("Recommend() response = %+v, want empty response", resp)
	}
	if resp.Metadata.Fallback != FallbackNoContent {
		t.Errorf("Fallback = %q, want %q", resp.Metadata.Fallback, FallbackNoContent)
	}
}

func TestEngine_Recommend_EmptyCatalog(t *testing.T) {
	f := newFixture(t, fixtureOptions{places: []catalog.Place{}})
	resp, err := f.engine.Recommend(context.Background(), Request{Tags: []string{"Beach"}, K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v, want nil for empty catalog", err)
	}
	if len(resp.Items) != 0 {
		t.Errorf("Recommend() = %v, want empty", resp.IDs())
	}
}

func TestEngine_Recommend_AllZeroFallback(t *testing.T) {
	// No feedback means no popularity; an unknown tag means no content.
	f := newFixture(t, fixtureOptions{})
	resp, err := f.engine.Recommend(context.Background(), Request{Tags: []string{"Snowboarding"}, K: 3})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Metadata.Fallback != FallbackAllZero {
		t.Errorf("Fallback = %q, want %q", resp.Metadata.Fallback, FallbackAllZero)
	}
	if got := resp.IDs(); !equalIDs(got, []string{"p1", "p2", "p3"}) {
		t.Errorf("Recommend() = %v, want id order [p1 p2 p3]", got)
	}
}

func TestEngine_Recommend_Cancelled(t *testing.T) {
	f := miniFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := f.engine.Recommend(ctx, Request{UserID: "u1", Tags: []string{"Beach"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Recommend() error = %v, want context.Canceled", err)
	}
	if resp != nil {
		t.Errorf("Recommend() response = %+v, want nil", resp)
	}
}

func TestEngine_Recommend_Cache(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(t, fixtureOptions{ratings: miniRatings, cfg: cfg})
	ctx := context.Background()
	req := Request{UserID: "u2", Tags: []string{"Beach"}, K: 3}

	first, err := f.engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if first.Metadata.CacheHit {
		t.Error("first response CacheHit = true, want false")
	}

	second, err := f.engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second response CacheHit = false, want true")
	}
	if !equalIDs(first.IDs(), second.IDs()) {
		t.Errorf("cached response = %v, want %v", second.IDs(), first.IDs())
	}
	if second.Metadata.RequestID == first.Metadata.RequestID {
		t.Error("cached response reused the original request id")
	}

	// Mutating a returned response must not leak into the cache.
	second.Items[0].PlaceID = "tampered"
	third, _ := f.engine.Recommend(ctx, req)
	if third.Items[0].PlaceID == "tampered" {
		t.Error("cache returned a response mutated by a caller")
	}

	if _, err := f.manager.Rebuild(ctx, KindPopularity); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	fourth, err := f.engine.Recommend(ctx, req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if fourth.Metadata.CacheHit {
		t.Error("response after rebuild CacheHit = true, want false")
	}
	if fourth.Metadata.Generation != 2 {
		t.Errorf("Generation after rebuild = %d, want 2", fourth.Metadata.Generation)
	}
}

func TestEngine_adjust(t *testing.T) {
	f := miniFixture(t)
	snap := f.manager.Snapshot()

	r := &request{
		Request:   Request{IncludeSeen: true},
		snap:      snap,
		likes:     []feedback.LikeMark{{PlaceID: "p2", IsLike: false}},
		effective: map[string]float64{"p2": 1, "p3": 5},
	}
	scores := map[string]float64{"p1": 1, "p2": 1, "p3": 1, "p4": -1}
	f.engine.adjust(r, scores)

	if math.Abs(scores["p2"]-0.75) > 1e-9 {
		t.Errorf("disliked p2 = %v, want 0.75", scores["p2"])
	}
	if scores["p1"] >= 1 || scores["p1"] <= 0.75 {
		t.Errorf("p1 similar to disliked p2 = %v, want in (0.75, 1)", scores["p1"])
	}
	if math.Abs(scores["p3"]-0.7) > 1e-9 {
		t.Errorf("seen p3 = %v, want 0.7", scores["p3"])
	}
	if scores["p4"] != -1 {
		t.Errorf("unrelated p4 = %v, want -1", scores["p4"])
	}
}

func TestEngine_Recommend_DislikeOnlyUser(t *testing.T) {
	f := miniFixture(t)
	ctx := context.Background()
	if err := f.fb.SetLike(ctx, "u9", "p1", false); err != nil {
		t.Fatalf("SetLike() error = %v", err)
	}

	resp, err := f.engine.Recommend(ctx, Request{UserID: "u9", Tags: []string{"Beach"}, K: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if resp.Metadata.Mode != ModePersonalized {
		t.Errorf("Mode = %q, want personalized for a user with a dislike", resp.Metadata.Mode)
	}
	if !contains(resp.IDs(), "p1") {
		t.Errorf("Recommend() = %v, want disliked p1 still ranked (not seen)", resp.IDs())
	}
}

func TestEngine_Recommend_Concurrent(t *testing.T) {
	cfg := DefaultConfig()
	f := newFixture(t, fixtureOptions{ratings: miniRatings, cfg: cfg})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := f.engine.Recommend(ctx, Request{UserID: "u1", Tags: []string{"Mountain"}, K: 3}); err != nil {
				errs <- err
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := f.manager.Rebuild(ctx, KindPopularity); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent call error = %v", err)
	}
}

func TestCacheKey(t *testing.T) {
	base := Request{UserID: "u1", Tags: []string{"Beach"}, K: 5}
	tests := []struct {
		name string
		req  Request
		gen  int64
		same bool
	}{
		{"identical", base, 1, true},
		{"tag normalization", Request{UserID: "u1", Tags: []string{"  BEACH "}, K: 5}, 1, true},
		{"request id ignored", Request{UserID: "u1", Tags: []string{"Beach"}, K: 5, RequestID: "x"}, 1, true},
		{"generation", base, 2, false},
		{"user", Request{UserID: "u2", Tags: []string{"Beach"}, K: 5}, 1, false},
		{"k", Request{UserID: "u1", Tags: []string{"Beach"}, K: 6}, 1, false},
		{"seen policy", Request{UserID: "u1", Tags: []string{"Beach"}, K: 5, IncludeSeen: true}, 1, false},
		{"filter", Request{UserID: "u1", Tags: []string{"Beach"}, K: 5, Filter: "true"}, 1, false},
	}
	want := cacheKey(base, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cacheKey(tt.req, tt.gen) == want; got != tt.same {
				t.Errorf("cacheKey equal = %v, want %v", got, tt.same)
			}
		})
	}
}
