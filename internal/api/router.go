// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/wayfarer/internal/middleware"
	"github.com/tomtom215/wayfarer/internal/rating"
	"github.com/tomtom215/wayfarer/internal/recommend"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// Server holds the collaborators of the admin handlers.
type Server struct {
	engine  *recommend.Engine
	manager *recommend.Manager
	ratings *rating.Engine
}

// NewServer creates the admin handlers over a recommendation engine and a
// rating engine.
func NewServer(engine *recommend.Engine, ratings *rating.Engine) *Server {
	return &Server{
		engine:  engine,
		manager: engine.Manager(),
		ratings: ratings,
	}
}

// Router builds the chi router with the middleware stack applied to every
// route.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.Healthz)
	r.Get("/readyz", s.Readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/recommend", s.Recommend)
		r.Post("/interactions", s.RecordInteraction)
		r.Get("/ratings/{user}/{place}", s.GetRating)
	})

	r.Post("/admin/rebuild/{kind}", s.Rebuild)

	return r
}
