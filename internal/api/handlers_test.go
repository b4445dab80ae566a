// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/catalog"
	"github.com/tomtom215/wayfarer/internal/feedback"
	"github.com/tomtom215/wayfarer/internal/rating"
	"github.com/tomtom215/wayfarer/internal/recommend"
	"github.com/tomtom215/wayfarer/internal/recommend/storage"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *APIError       `json:"error"`
}

type testServer struct {
	handler http.Handler
	manager *recommend.Manager
}

func newTestServer(t *testing.T, build bool) *testServer {
	t.Helper()
	cat, err := catalog.NewMemoryStore([]catalog.Place{
		{ID: "p1", Name: "Ha Long Bay", Tags: []string{"Quang Ninh", "Beach", "Island"}},
		{ID: "p2", Name: "Tra Co", Tags: []string{"Quang Ninh", "Beach", "Seafood"}},
		{ID: "p3", Name: "Da Lat", Tags: []string{"Lam Dong", "Mountain", "Cool"}},
		{ID: "p4", Name: "Old Quarter", Tags: []string{"Ha Noi", "Historical", "Cultural"}},
		{ID: "p5", Name: "Datanla", Tags: []string{"Lam Dong", "Mountain", "Waterfall"}},
	})
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	fb := feedback.NewMemoryStore()
	for _, r := range []struct {
		user, place string
		score       float64
	}{
		{"u1", "p1", 5.0}, {"u1", "p2", 4.5}, {"u1", "p3", 2.0},
		{"u2", "p3", 5.0}, {"u2", "p5", 4.5}, {"u2", "p1", 2.5},
		{"u3", "p4", 5.0},
	} {
		if err := fb.UpsertRating(context.Background(), r.user, r.place, r.score); err != nil {
			t.Fatalf("UpsertRating() error = %v", err)
		}
	}

	cfg := recommend.DefaultConfig()
	cfg.Cache.Enabled = false
	manager := recommend.NewManager(cat, fb, storage.NewMemoryStore(), cfg, zerolog.Nop())
	if build {
		if _, err := manager.Rebuild(context.Background(), recommend.KindAll); err != nil {
			t.Fatalf("Rebuild() error = %v", err)
		}
	}
	engine, err := recommend.NewEngine(cfg, manager, fb, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	srv := NewServer(engine, rating.NewEngine(cat, fb, zerolog.Nop()))
	return &testServer{handler: srv.Router(), manager: manager}
}

func (s *testServer) do(t *testing.T, method, target, body string, header ...string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (%s)", err, env.Data)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, false)
	rec, env := s.do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Status != "success" {
		t.Errorf("envelope status = %q, want success", env.Status)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestReadyz(t *testing.T) {
	s := newTestServer(t, false)

	rec, env := s.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status before build = %d, want 503", rec.Code)
	}
	var status ReadyStatus
	decodeData(t, env, &status)
	if status.Ready || len(status.Missing) != len(recommend.Kinds) {
		t.Errorf("before build = %+v, want not ready with all kinds missing", status)
	}

	if _, err := s.manager.Rebuild(context.Background(), recommend.KindAll); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	rec, env = s.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status after build = %d, want 200", rec.Code)
	}
	var built ReadyStatus
	decodeData(t, env, &built)
	if !built.Ready || built.Generation != 1 || len(built.Missing) != 0 {
		t.Errorf("after build = %+v, want ready generation 1", built)
	}
}

func TestRecommend(t *testing.T) {
	s := newTestServer(t, true)

	rec, env := s.do(t, http.MethodGet, "/v1/recommend?user=u3&tags=Beach&k=2", "", "X-Request-ID", "req-7")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp recommend.Response
	decodeData(t, env, &resp)

	var ids []string
	for _, item := range resp.Items {
		ids = append(ids, item.PlaceID)
	}
	if strings.Join(ids, ",") != "p1,p2" {
		t.Errorf("items = %v, want [p1 p2]", ids)
	}
	if resp.Metadata.RequestID != "req-7" {
		t.Errorf("request id = %q, want req-7", resp.Metadata.RequestID)
	}
	if resp.Metadata.Generation != 1 {
		t.Errorf("generation = %d, want 1", resp.Metadata.Generation)
	}
}

func TestRecommend_ListParams(t *testing.T) {
	s := newTestServer(t, true)
	rec, env := s.do(t, http.MethodGet, "/v1/recommend?provinces=Lam+Dong,+Ha+Noi&k=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp recommend.Response
	decodeData(t, env, &resp)
	for _, item := range resp.Items {
		if item.PlaceID == "p1" || item.PlaceID == "p2" {
			t.Errorf("item %s outside requested provinces", item.PlaceID)
		}
	}
	if len(resp.Items) != 3 {
		t.Errorf("items = %d, want 3", len(resp.Items))
	}
}

func TestRecommend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		build  bool
		target string
		status int
		code   string
	}{
		{"non-integer k", true, "/v1/recommend?k=ten", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"negative k", true, "/v1/recommend?k=-1", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad include_seen", true, "/v1/recommend?include_seen=maybe", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"bad filter", true, "/v1/recommend?filter=place.nope(", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"no snapshot", false, "/v1/recommend?tags=Beach", http.StatusServiceUnavailable, "UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.build)
			rec, env := s.do(t, http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if env.Status != "error" || env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("envelope = %+v, want error %s", env, tt.code)
			}
		})
	}
}

func TestRecordInteraction(t *testing.T) {
	s := newTestServer(t, true)

	rec, env := s.do(t, http.MethodPost, "/v1/interactions", `{"user_id":"u9","place_id":"p1","event":"like"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res rating.Result
	decodeData(t, env, &res)
	if res.Status != rating.StatusCreated || !res.Changed || res.RuleSet != rating.RuleSetVersion {
		t.Errorf("result = %+v, want created and changed", res)
	}

	rec, env = s.do(t, http.MethodGet, "/v1/ratings/u9/p1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("rating status = %d, want 200", rec.Code)
	}
	var got RatingResponse
	decodeData(t, env, &got)
	if got.Score != res.Score {
		t.Errorf("stored score = %v, want %v", got.Score, res.Score)
	}
}

func TestRecordInteraction_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed json", `{"user_id":`, http.StatusBadRequest},
		{"unknown field", `{"user_id":"u1","place_id":"p1","event":"like","extra":1}`, http.StatusBadRequest},
		{"missing user", `{"place_id":"p1","event":"like"}`, http.StatusBadRequest},
		{"unknown event", `{"user_id":"u1","place_id":"p1","event":"share"}`, http.StatusBadRequest},
		{"watch without duration", `{"user_id":"u1","place_id":"p1","event":"watch"}`, http.StatusBadRequest},
		{"unknown place", `{"user_id":"u1","place_id":"nowhere","event":"like"}`, http.StatusNotFound},
	}
	s := newTestServer(t, true)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodPost, "/v1/interactions", tt.body)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if env.Error == nil {
				t.Error("missing error body")
			}
		})
	}
}

func TestGetRating_NotFound(t *testing.T) {
	s := newTestServer(t, true)
	rec, env := s.do(t, http.MethodGet, "/v1/ratings/u1/p4", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestRebuild(t *testing.T) {
	s := newTestServer(t, true)

	rec, env := s.do(t, http.MethodPost, "/admin/rebuild/popularity", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var res RebuildResponse
	decodeData(t, env, &res)
	if res.Kind != "popularity" || res.Generation != 2 || len(res.Missing) != 0 {
		t.Errorf("rebuild = %+v, want popularity at generation 2", res)
	}
	if s.manager.Snapshot().Generation != 2 {
		t.Errorf("published generation = %d, want 2", s.manager.Snapshot().Generation)
	}

	rec, _ = s.do(t, http.MethodPost, "/admin/rebuild/everything", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", rec.Code)
	}
	rec, _ = s.do(t, http.MethodGet, "/admin/rebuild/all", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, true)
	s.do(t, http.MethodGet, "/healthz", "")

	rec, _ := s.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wayfarer_admin_request_duration_seconds") {
		t.Error("metrics output missing admin request histogram")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{context.Canceled, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if _, got := classify(tt.err); got != tt.status {
			t.Errorf("classify(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	if got := sanitizeLogValue("a\nb\x7f"); got != `a\x0ab\x7f` {
		t.Errorf("sanitizeLogValue() = %q", got)
	}
}
