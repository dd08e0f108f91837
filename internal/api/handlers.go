// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/affinity"
	"github.com/atelier-labs/cloe/internal/analytics"
	"github.com/atelier-labs/cloe/internal/greeting"
	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/recommend"
	"github.com/atelier-labs/cloe/internal/reports"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/tracking"
	"github.com/atelier-labs/cloe/internal/trend"
)

// Handler holds the engine components behind the public API.
type Handler struct {
	recorder   *tracking.Recorder
	tracker    *tracking.Tracker
	agg        *analytics.Aggregator
	clusters   *affinity.Engine
	correlator *trend.Correlator
	recommends *recommend.Engine
	greeter    *greeting.Machine
	contexts   *greeting.ContextBuilder
	runner     *reports.Runner
	logger     zerolog.Logger
}

// NewHandler creates the API handler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandler(
	recorder *tracking.Recorder,
	tracker *tracking.Tracker,
	agg *analytics.Aggregator,
	clusters *affinity.Engine,
	correlator *trend.Correlator,
	recommends *recommend.Engine,
	greeter *greeting.Machine,
	contexts *greeting.ContextBuilder,
	runner *reports.Runner,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		recorder:   recorder,
		tracker:    tracker,
		agg:        agg,
		clusters:   clusters,
		correlator: correlator,
		recommends: recommends,
		greeter:    greeter,
		contexts:   contexts,
		runner:     runner,
		logger:     logger.With().Str("component", "api").Logger(),
	}
}

// RecordEvent handles POST /api/v1/events.
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID  string         `json:"user_id"`
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	eventType := models.EventType(req.Type)
	if !eventType.Valid() {
		respondError(w, http.StatusBadRequest, "unknown event type")
		return
	}

	eventID := h.recorder.Record(r.Context(), req.UserID, eventType, req.Payload)
	respondJSON(w, http.StatusAccepted, map[string]string{"event_id": eventID})
}

// StartSession handles POST /api/v1/sessions/start.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID    string `json:"user_id"`
		Referrer  string `json:"referrer"`
		UserAgent string `json:"user_agent"`
	}
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	sessionID, err := h.tracker.Start(r.Context(), req.UserID, req.Referrer, req.UserAgent)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("session start failed")
		respondError(w, http.StatusInternalServerError, "session start failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
}

// ContinueSession handles POST /api/v1/sessions/continue.
func (h *Handler) ContinueSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Page   string `json:"page"`
	}
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.tracker.Continue(r.Context(), req.UserID, req.Page); err != nil {
		h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("session continue failed")
		respondError(w, http.StatusInternalServerError, "session continue failed")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// EndSession handles POST /api/v1/sessions/end. Ending an already closed
// session is a no-op success.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.tracker.End(r.Context(), req.UserID); err != nil {
		h.logger.Error().Err(err).Str("user_id", req.UserID).Msg("session end failed")
		respondError(w, http.StatusInternalServerError, "session end failed")
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// Metrics handles GET /api/v1/metrics/{kind}?period=&previous=.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}
	previous := r.URL.Query().Get("previous") == "true"

	result, err := h.agg.Metrics(r.Context(), chi.URLParam(r, "kind"), period, previous)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// AffinityClusters handles GET /api/v1/affinity/clusters?period=.
func (h *Handler) AffinityClusters(w http.ResponseWriter, r *http.Request) {
	period, ok := parsePeriod(w, r)
	if !ok {
		return
	}

	clusters, engagement := h.clusters.Clusters(r.Context(), period)
	respondJSON(w, http.StatusOK, map[string]any{
		"clusters":   clusters,
		"engagement": engagement,
	})
}

// CorrelatedTrends handles GET /api/v1/trends/correlated.
func (h *Handler) CorrelatedTrends(w http.ResponseWriter, r *http.Request) {
	internal := h.agg.StyleEngagement(r.Context(), models.PeriodWeek, false)
	respondJSON(w, http.StatusOK, h.correlator.Correlated(r.Context(), internal))
}

// Recommendations handles GET /api/v1/recommendations?user_id=&type=&limit=.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	typ := models.RecommendType(q.Get("type"))
	if q.Get("type") == "" {
		typ = models.RecommendArtwork
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	result, err := h.recommends.Recommend(r.Context(), q.Get("user_id"), typ, limit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Greeting handles GET /api/v1/greeting?user_id=.
func (h *Handler) Greeting(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	var active []string
	if userID != "" {
		internal := h.agg.StyleEngagement(r.Context(), models.PeriodWeek, false)
		correlated := h.correlator.Correlated(r.Context(), internal)
		active = append(correlated.Matching, correlated.Opportunities...)
	}

	gctx := h.contexts.Build(r.Context(), userID, active)
	respondJSON(w, http.StatusOK, h.greeter.Greet(gctx))
}

// RunJob handles POST /api/v1/jobs/{cadence}/run.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.runner.Run(r.Context(), chi.URLParam(r, "cadence"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// LatestReport handles GET /api/v1/reports/{kind}/latest.
func (h *Handler) LatestReport(w http.ResponseWriter, r *http.Request) {
	kind := models.ReportKind(chi.URLParam(r, "kind"))
	switch kind {
	case models.ReportTrend, models.ReportSEO, models.ReportMonthly:
	default:
		respondError(w, http.StatusBadRequest, "unknown report kind")
		return
	}

	snapshot, err := h.runner.Latest(r.Context(), kind)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "no snapshot for kind")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("kind", string(kind)).Msg("latest report lookup failed")
		respondError(w, http.StatusInternalServerError, "report lookup failed")
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// parsePeriod reads the period query parameter, defaulting to day. A 400 is
// written for unknown values.
func parsePeriod(w http.ResponseWriter, r *http.Request) (models.Period, bool) {
	raw := r.URL.Query().Get("period")
	if raw == "" {
		return models.PeriodDay, true
	}
	period := models.Period(raw)
	if !period.Valid() {
		respondError(w, http.StatusBadRequest, "unknown period")
		return "", false
	}
	return period, true
}
