// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package api exposes the engine's public operations over HTTP with chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atelier-labs/cloe/internal/config"
)

// Router builds the HTTP routing tree around a Handler.
type Router struct {
	handler *Handler
	cfg     config.ServerConfig
}

// NewRouter creates the API router.
func NewRouter(handler *Handler, cfg config.ServerConfig) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup wires middleware and routes and returns the root handler.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.Limit(
			rt.cfg.RateLimitReqs,
			rt.cfg.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		))
		r.Use(requestMetrics)

		r.Post("/events", rt.handler.RecordEvent)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/start", rt.handler.StartSession)
			r.Post("/continue", rt.handler.ContinueSession)
			r.Post("/end", rt.handler.EndSession)
		})

		r.Get("/metrics/{kind}", rt.handler.Metrics)
		r.Get("/affinity/clusters", rt.handler.AffinityClusters)
		r.Get("/trends/correlated", rt.handler.CorrelatedTrends)
		r.Get("/recommendations", rt.handler.Recommendations)
		r.Get("/greeting", rt.handler.Greeting)

		r.Post("/jobs/{cadence}/run", rt.handler.RunJob)
		r.Get("/reports/{kind}/latest", rt.handler.LatestReport)

		r.Get("/health", rt.handler.Health)
	})

	// Prometheus exposition stays outside the rate-limited API tree.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
