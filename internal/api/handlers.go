// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/apperr"
	"github.com/tomtom215/wayfarer/internal/middleware"
	"github.com/tomtom215/wayfarer/internal/rating"
	"github.com/tomtom215/wayfarer/internal/recommend"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// ReadyStatus is the body of /readyz.
type ReadyStatus struct {
	Ready       bool      `json:"ready"`
	Generation  int64     `json:"generation"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Missing     []string  `json:"missing,omitempty"`
}

// InteractionRequest is the body of POST /v1/interactions. Event uses the
// command-line form: like, dislike, comment, search, watch=<seconds>.
type InteractionRequest struct {
	UserID  string `json:"user_id" validate:"required,max=128"`
	PlaceID string `json:"place_id" validate:"required,max=128"`
	Event   string `json:"event" validate:"required,max=64"`
}

// RatingResponse is the body of GET /v1/ratings/{user}/{place}.
type RatingResponse struct {
	UserID  string  `json:"user_id"`
	PlaceID string  `json:"place_id"`
	Score   float64 `json:"score"`
}

// RebuildResponse is the body of POST /admin/rebuild/{kind}.
type RebuildResponse struct {
	Kind        string    `json:"kind"`
	Generation  int64     `json:"generation"`
	PublishedAt time.Time `json:"published_at"`
	RuleSet     string    `json:"rule_set"`
	Missing     []string  `json:"missing,omitempty"`
}

// Healthz reports liveness.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"}, time.Now())
}

// Readyz reports 200 once a snapshot that can serve rankings is published.
func (s *Server) Readyz(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	snap := s.manager.Snapshot()
	status := ReadyStatus{Ready: snap.Ready()}
	if snap != nil {
		status.Generation = snap.Generation
		status.PublishedAt = snap.PublishedAt
		status.Missing = kindNames(snap.Missing())
	} else {
		status.Missing = kindNames(recommend.Kinds)
	}

	code := http.StatusOK
	if !status.Ready {
		code = http.StatusServiceUnavailable
	}
	respondData(w, code, status, start)
}

// Recommend serves GET /v1/recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req, err := parseRecommendRequest(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	req.RequestID = middleware.GetRequestID(r.Context())

	resp, err := s.engine.Recommend(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, resp, start)
}

func parseRecommendRequest(r *http.Request) (recommend.Request, error) {
	const op = "api.Recommend"
	q := r.URL.Query()

	req := recommend.Request{
		UserID:    strings.TrimSpace(q.Get("user")),
		Tags:      listParam(q["tags"]),
		Query:     q.Get("q"),
		Provinces: listParam(q["provinces"]),
		Filter:    q.Get("filter"),
	}
	if v := q.Get("k"); v != "" {
		k, err := strconv.Atoi(v)
		if err != nil {
			return req, apperr.InvalidArgument(op, "k must be an integer, got %q", v)
		}
		req.K = k
	}
	if v := q.Get("include_seen"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, apperr.InvalidArgument(op, "include_seen must be a boolean, got %q", v)
		}
		req.IncludeSeen = b
	}
	return req, nil
}

// listParam accepts both repeated parameters and comma-separated values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// RecordInteraction serves POST /v1/interactions.
func (s *Server) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	const op = "api.RecordInteraction"
	start := time.Now()

	var body InteractionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respondError(w, r, apperr.InvalidArgument(op, "invalid JSON body: %v", err))
		return
	}
	if verr := validation.ValidateStruct(&body); verr != nil {
		respondError(w, r, verr.ToAppError(op))
		return
	}
	ev, err := rating.ParseEvent(body.Event)
	if err != nil {
		respondError(w, r, err)
		return
	}

	res, err := s.ratings.Record(r.Context(), body.UserID, body.PlaceID, ev)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, res, start)
}

// GetRating serves GET /v1/ratings/{user}/{place}.
func (s *Server) GetRating(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	user, place := chi.URLParam(r, "user"), chi.URLParam(r, "place")

	score, ok, err := s.ratings.GetRating(r.Context(), user, place)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if !ok {
		respondError(w, r, apperr.NotFound("api.GetRating", "no rating for user %q and place %q", user, place))
		return
	}
	respondData(w, http.StatusOK, RatingResponse{UserID: user, PlaceID: place, Score: score}, start)
}

// Rebuild serves POST /admin/rebuild/{kind}. The rebuild runs on the
// request context; a client that disconnects cancels it.
func (s *Server) Rebuild(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	kind, err := recommend.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	snap, err := s.manager.Rebuild(r.Context(), kind)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, RebuildResponse{
		Kind:        string(kind),
		Generation:  snap.Generation,
		PublishedAt: snap.PublishedAt,
		RuleSet:     snap.RuleSet,
		Missing:     kindNames(snap.Missing()),
	}, start)
}

func kindNames(kinds []recommend.Kind) []string {
	if len(kinds) == 0 {
		return nil
	}
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}
