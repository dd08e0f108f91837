// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package reports composes the analytics, affinity, trend, and tracking
// components into periodic persisted report snapshots.
package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/affinity"
	"github.com/atelier-labs/cloe/internal/analytics"
	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/telemetry"
	"github.com/atelier-labs/cloe/internal/trend"
)

// latestKeyPrefix stores the most recent snapshot per report kind. Re-runs
// overwrite it; nothing ever appends.
const latestKeyPrefix = "report:latest:"

// Cadences accepted by Run.
const (
	CadenceDaily   = "daily"
	CadenceWeekly  = "weekly"
	CadenceMonthly = "monthly"
)

// Runner builds and persists report snapshots.
type Runner struct {
	agg        *analytics.Aggregator
	clusters   *affinity.Engine
	correlator *trend.Correlator
	store      store.Store
	logger     zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewRunner creates a report runner.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRunner(agg *analytics.Aggregator, clusters *affinity.Engine, correlator *trend.Correlator, st store.Store, logger zerolog.Logger) *Runner {
	return &Runner{
		agg:        agg,
		clusters:   clusters,
		correlator: correlator,
		store:      st,
		logger:     logger.With().Str("component", "reports").Logger(),
		now:        time.Now,
	}
}

// Run executes the job for one cadence and returns the persisted snapshot.
func (r *Runner) Run(ctx context.Context, cadence string) (*models.ReportSnapshot, error) {
	switch cadence {
	case CadenceDaily:
		return r.RunDaily(ctx)
	case CadenceWeekly:
		return r.RunWeekly(ctx)
	case CadenceMonthly:
		return r.RunMonthly(ctx)
	default:
		return nil, fmt.Errorf("unknown report cadence %q", cadence)
	}
}

// RunDaily produces the trend report: engagement rankings, affinity
// clusters, and external trend correlation over the day window.
func (r *Runner) RunDaily(ctx context.Context) (*models.ReportSnapshot, error) {
	return r.compose(ctx, models.ReportTrend, models.PeriodDay, []section{
		{"engagement", func(ctx context.Context) (any, error) {
			return r.agg.StyleEngagement(ctx, models.PeriodDay, false), nil
		}},
		{"clusters", func(ctx context.Context) (any, error) {
			clusters, _ := r.clusters.Clusters(ctx, models.PeriodDay)
			return clusters, nil
		}},
		{"correlated_trends", func(ctx context.Context) (any, error) {
			internal := r.agg.StyleEngagement(ctx, models.PeriodDay, false)
			return r.correlator.Correlated(ctx, internal), nil
		}},
		{"style_growth", func(ctx context.Context) (any, error) {
			return r.styleGrowth(ctx, models.PeriodDay), nil
		}},
		{"funnel", func(ctx context.Context) (any, error) {
			return r.agg.Funnel(ctx, models.PeriodDay, false), nil
		}},
	})
}

// RunWeekly produces the SEO report: content gaps, search trends, and the
// weekly funnel.
func (r *Runner) RunWeekly(ctx context.Context) (*models.ReportSnapshot, error) {
	return r.compose(ctx, models.ReportSEO, models.PeriodWeek, []section{
		{"top_styles", func(ctx context.Context) (any, error) {
			return r.agg.StyleEngagement(ctx, models.PeriodWeek, false), nil
		}},
		{"content_gaps", func(ctx context.Context) (any, error) {
			internal := r.agg.StyleEngagement(ctx, models.PeriodWeek, false)
			return r.correlator.Correlated(ctx, internal).Opportunities, nil
		}},
		{"search_terms", func(ctx context.Context) (any, error) {
			return r.searchTermTrends(ctx, models.PeriodWeek), nil
		}},
		{"funnel", func(ctx context.Context) (any, error) {
			return r.agg.Funnel(ctx, models.PeriodWeek, false), nil
		}},
	})
}

// RunMonthly produces the full analytics report over the month window.
func (r *Runner) RunMonthly(ctx context.Context) (*models.ReportSnapshot, error) {
	metricSection := func(kind string) section {
		return section{kind, func(ctx context.Context) (any, error) {
			return r.agg.Metrics(ctx, kind, models.PeriodMonth, false)
		}}
	}
	return r.compose(ctx, models.ReportMonthly, models.PeriodMonth, []section{
		metricSection("funnel"),
		metricSection("price_sensitivity"),
		metricSection("abandoned_carts"),
		metricSection("hour_of_day"),
		metricSection("weekday"),
		metricSection("region"),
		metricSection("sessions"),
		metricSection("engagement"),
		{"clusters", func(ctx context.Context) (any, error) {
			clusters, _ := r.clusters.Clusters(ctx, models.PeriodMonth)
			return clusters, nil
		}},
		{"style_growth", func(ctx context.Context) (any, error) {
			return r.styleGrowth(ctx, models.PeriodMonth), nil
		}},
	})
}

// section is one independently computed part of a report.
type section struct {
	name  string
	build func(ctx context.Context) (any, error)
}

// compose runs every section, substituting a nil entry for any that fails,
// and upserts the latest snapshot for the kind. A section failure degrades
// the report; only a snapshot persistence failure fails the run.
func (r *Runner) compose(ctx context.Context, kind models.ReportKind, period models.Period, sections []section) (*models.ReportSnapshot, error) {
	start := r.now()
	snapshot := &models.ReportSnapshot{
		Kind:        kind,
		Period:      period,
		GeneratedAt: start.UTC(),
		Sections:    make(map[string]any, len(sections)),
	}

	degraded := false
	for _, s := range sections {
		value, err := s.build(ctx)
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("kind", string(kind)).
				Str("section", s.name).
				Msg("report section failed, substituting empty result")
			degraded = true
			value = nil
		}
		snapshot.Sections[s.name] = value
	}

	if err := r.store.UpsertKeyed(ctx, latestKeyPrefix+string(kind), snapshot, 0); err != nil {
		telemetry.ObserveReportRun(string(kind), true, r.now().Sub(start))
		return nil, fmt.Errorf("persist %s report: %w", kind, err)
	}

	telemetry.ObserveReportRun(string(kind), degraded, r.now().Sub(start))
	r.logger.Info().
		Str("kind", string(kind)).
		Bool("degraded", degraded).
		Int("sections", len(sections)).
		Msg("report snapshot persisted")
	return snapshot, nil
}

// Latest returns the most recent persisted snapshot for a kind.
func (r *Runner) Latest(ctx context.Context, kind models.ReportKind) (*models.ReportSnapshot, error) {
	var snapshot models.ReportSnapshot
	if err := r.store.GetKeyed(ctx, latestKeyPrefix+string(kind), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// styleGrowth computes per-style engagement growth between the previous and
// current window. Styles present in either window appear in the result.
func (r *Runner) styleGrowth(ctx context.Context, period models.Period) map[string]float64 {
	current := r.agg.StyleEngagement(ctx, period, false)
	previous := r.agg.StyleEngagement(ctx, period, true)

	prevScores := make(map[string]float64, len(previous))
	for _, row := range previous {
		prevScores[row.StyleID] = row.Score
	}

	growth := make(map[string]float64, len(current))
	for _, row := range current {
		growth[row.StyleID] = trend.Growth(prevScores[row.StyleID], row.Score)
	}
	for style, score := range prevScores {
		if _, ok := growth[style]; !ok {
			growth[style] = trend.Growth(score, 0)
		}
	}
	return growth
}

// searchTermTrends counts search-event queries in the window and attaches
// growth against the previous window.
func (r *Runner) searchTermTrends(ctx context.Context, period models.Period) map[string]any {
	count := func(previous bool) map[string]float64 {
		events := r.queryWindow(ctx, period, previous)
		terms := make(map[string]float64)
		for i := range events {
			if q := events[i].PayloadString("query"); q != "" {
				terms[q]++
			}
		}
		return terms
	}

	current := count(false)
	previous := count(true)

	growth := make(map[string]float64, len(current))
	for term, n := range current {
		growth[term] = trend.Growth(previous[term], n)
	}

	return map[string]any{
		"counts": current,
		"growth": growth,
	}
}

func (r *Runner) queryWindow(ctx context.Context, period models.Period, previous bool) []models.UserEvent {
	from, to := analytics.Window(period, previous, r.now().UTC())
	events, err := r.store.QueryEvents(ctx, store.EventFilter{
		Types: []models.EventType{models.EventSearch},
		From:  from,
		To:    to,
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("search term query failed")
		return nil
	}
	return events
}
