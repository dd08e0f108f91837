// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package telemetry provides Prometheus instrumentation for the engine:
// event recording, session lifecycle, recommendation serving, trend feed
// fetches, report runs, and API latency.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracking metrics
	EventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloe_events_recorded_total",
			Help: "Total number of user events recorded",
		},
		[]string{"type"},
	)

	EventRecordFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloe_event_record_failures_total",
			Help: "Total number of event writes that failed and were swallowed",
		},
	)

	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloe_sessions_started_total",
			Help: "Total number of sessions opened",
		},
	)

	SessionsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloe_sessions_closed_total",
			Help: "Total number of sessions closed",
		},
		[]string{"reason"}, // "logout", "timeout"
	)

	// Recommendation metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloe_recommendations_served_total",
			Help: "Total number of recommendation responses",
		},
		[]string{"type", "personalized"},
	)

	// Trend feed metrics
	TrendFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloe_trend_fetches_total",
			Help: "Total number of external trend feed fetches",
		},
		[]string{"source", "outcome"}, // "ok", "error", "cache_hit", "fallback"
	)

	// Report metrics
	ReportRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloe_report_runs_total",
			Help: "Total number of report job runs",
		},
		[]string{"kind", "outcome"}, // "ok", "degraded"
	)

	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloe_report_duration_seconds",
			Help:    "Duration of report job runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloe_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloe_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// ObserveReportRun records one report job run.
func ObserveReportRun(kind string, degraded bool, elapsed time.Duration) {
	outcome := "ok"
	if degraded {
		outcome = "degraded"
	}
	ReportRuns.WithLabelValues(kind, outcome).Inc()
	ReportDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}
