// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package trend fetches external trend snapshots and correlates them with
// internal engagement rankings.
package trend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/atelier-labs/cloe/internal/config"
	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/telemetry"
)

// Fetcher retrieves one external trend snapshot by source id.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string) (*models.TrendSnapshot, error)
}

// FeedClient fetches trend snapshots from the configured feed endpoint.
// Requests run behind a per-client rate limiter and a circuit breaker so a
// misbehaving feed cannot stall report jobs or pile up connections.
type FeedClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*models.TrendSnapshot]
	logger  zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewFeedClient creates a feed client from configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFeedClient(cfg config.TrendConfig, logger zerolog.Logger) *FeedClient {
	c := &FeedClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		logger:  logger.With().Str("component", "trend_feed").Logger(),
		now:     time.Now,
	}

	c.breaker = gobreaker.NewCircuitBreaker[*models.TrendSnapshot](gobreaker.Settings{
		Name:    "trend-feed",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("trend feed breaker state change")
		},
	})
	return c
}

// Fetch retrieves the snapshot for one source. The returned snapshot always
// carries the source id and a fetch timestamp.
func (c *FeedClient) Fetch(ctx context.Context, sourceID string) (*models.TrendSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	snapshot, err := c.breaker.Execute(func() (*models.TrendSnapshot, error) {
		return c.fetch(ctx, sourceID)
	})
	if err != nil {
		telemetry.TrendFetches.WithLabelValues(sourceID, "error").Inc()
		return nil, err
	}

	telemetry.TrendFetches.WithLabelValues(sourceID, "ok").Inc()
	return snapshot, nil
}

func (c *FeedClient) fetch(ctx context.Context, sourceID string) (*models.TrendSnapshot, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, sourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trend feed %s: %w", sourceID, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trend feed %s returned status %d", sourceID, resp.StatusCode)
	}

	var snapshot models.TrendSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("decode trend feed %s: %w", sourceID, err)
	}

	snapshot.SourceID = sourceID
	snapshot.FetchedAt = c.now().UTC()
	return &snapshot, nil
}
