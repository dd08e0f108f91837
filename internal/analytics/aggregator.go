// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
)

// Aggregator runs window-scoped queries over the event log. It holds no
// mutable state of its own; every method is a pure function of the window
// and the rows the store returns.
type Aggregator struct {
	log    store.EventLog
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewAggregator creates a metrics aggregator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewAggregator(log store.EventLog, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		log:    log,
		logger: logger.With().Str("component", "analytics").Logger(),
		now:    time.Now,
	}
}

// queryWindow fetches events of the given types inside the period window.
// Store errors are logged and surface as an empty row set so callers
// degrade to zeroed metrics instead of failing.
func (a *Aggregator) queryWindow(ctx context.Context, period models.Period, previous bool, types ...models.EventType) []models.UserEvent {
	from, to := Window(period, previous, a.now().UTC())

	events, err := a.log.QueryEvents(ctx, store.EventFilter{
		Types: types,
		From:  from,
		To:    to,
	})
	if err != nil {
		a.logger.Error().
			Err(err).
			Str("period", string(period)).
			Msg("event query failed, serving zeroed metrics")
		return nil
	}
	return events
}

// Metrics dispatches a named metric query. Supported kinds: funnel,
// price_sensitivity, abandoned_carts, hour_of_day, weekday, region,
// age_group, gender, language, engagement, sessions.
func (a *Aggregator) Metrics(ctx context.Context, kind string, period models.Period, previous bool) (any, error) {
	switch kind {
	case "funnel":
		return a.Funnel(ctx, period, previous), nil
	case "price_sensitivity":
		return a.PriceSensitivity(ctx, period, previous), nil
	case "abandoned_carts":
		return a.AbandonedCarts(ctx, period, previous), nil
	case "hour_of_day", "weekday", "region", "age_group", "gender", "language":
		return a.Distribution(ctx, kind, period, previous), nil
	case "engagement":
		return a.StyleEngagement(ctx, period, previous), nil
	case "sessions":
		return a.SessionSummary(ctx, period, previous), nil
	default:
		return nil, fmt.Errorf("unknown metric kind %q", kind)
	}
}

// SessionSummary aggregates session durations from session_end events in
// the window.
func (a *Aggregator) SessionSummary(ctx context.Context, period models.Period, previous bool) models.SessionSummary {
	events := a.queryWindow(ctx, period, previous, models.EventSessionEnd)

	var summary models.SessionSummary
	for i := range events {
		summary.Sessions++
		summary.TotalDuration += events[i].PayloadFloat("duration")
	}
	if summary.Sessions > 0 {
		summary.AverageDuration = summary.TotalDuration / float64(summary.Sessions)
	}
	return summary
}

// LoginCount returns the user's login count inside the window.
func (a *Aggregator) LoginCount(ctx context.Context, userID string, period models.Period) int {
	from, to := Window(period, false, a.now().UTC())

	events, err := a.log.QueryEvents(ctx, store.EventFilter{
		UserID: userID,
		Types:  []models.EventType{models.EventLogin},
		From:   from,
		To:     to,
	})
	if err != nil {
		a.logger.Error().Err(err).Str("user_id", userID).Msg("login count query failed")
		return 0
	}
	return len(events)
}
