// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package trend

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/telemetry"
)

// snapshotKeyPrefix scopes cached snapshots in the keyed-value store.
const snapshotKeyPrefix = "trend:snapshot:"

// Correlator serves trend snapshots from a TTL cache backed by the keyed
// value store and correlates them against internal engagement rankings.
//
// Snapshots are cached without a store-side TTL on purpose: an expired row
// is never served on the happy path, but it stays available as a stale
// fallback when the feed is down.
type Correlator struct {
	kv      store.KeyValue
	fetcher Fetcher
	sources []string
	logger  zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewCorrelator creates a trend correlator over the given feed sources.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewCorrelator(kv store.KeyValue, fetcher Fetcher, sources []string, logger zerolog.Logger) *Correlator {
	return &Correlator{
		kv:      kv,
		fetcher: fetcher,
		sources: sources,
		logger:  logger.With().Str("component", "trend").Logger(),
		now:     time.Now,
	}
}

// Snapshot returns the snapshot for one source: fresh cache when available,
// otherwise a re-fetch, otherwise the stale cached snapshot, otherwise an
// empty one. Callers always get a usable snapshot.
func (c *Correlator) Snapshot(ctx context.Context, sourceID string) *models.TrendSnapshot {
	var cached models.TrendSnapshot
	cacheErr := c.kv.GetKeyed(ctx, snapshotKeyPrefix+sourceID, &cached)
	if cacheErr == nil && !cached.Expired(c.now().UTC()) {
		telemetry.TrendFetches.WithLabelValues(sourceID, "cache_hit").Inc()
		return &cached
	}

	fresh, err := c.fetcher.Fetch(ctx, sourceID)
	if err == nil {
		if storeErr := c.kv.UpsertKeyed(ctx, snapshotKeyPrefix+sourceID, fresh, 0); storeErr != nil {
			c.logger.Error().Err(storeErr).Str("source", sourceID).Msg("snapshot cache write failed")
		}
		return fresh
	}

	c.logger.Warn().Err(err).Str("source", sourceID).Msg("trend fetch failed, falling back")
	telemetry.TrendFetches.WithLabelValues(sourceID, "fallback").Inc()

	if cacheErr == nil {
		return &cached
	}
	return &models.TrendSnapshot{SourceID: sourceID, FetchedAt: c.now().UTC()}
}

// Correlated merges all configured sources against the internal engagement
// table. Matching and opportunity sets are deduplicated across sources and
// sorted for deterministic output.
func (c *Correlator) Correlated(ctx context.Context, internal []models.StyleEngagement) models.CorrelatedTrends {
	internalNames := make(map[string]struct{}, len(internal))
	for _, row := range internal {
		internalNames[row.StyleID] = struct{}{}
	}

	matching := make(map[string]struct{})
	opportunities := make(map[string]struct{})
	for _, sourceID := range c.sources {
		snapshot := c.Snapshot(ctx, sourceID)
		for _, name := range snapshotNames(snapshot) {
			if _, ok := internalNames[name]; ok {
				matching[name] = struct{}{}
			} else {
				opportunities[name] = struct{}{}
			}
		}
	}

	return models.CorrelatedTrends{
		Matching:      sortedKeys(matching),
		Opportunities: sortedKeys(opportunities),
	}
}

// Correlate matches one snapshot against an internal name set. Exposed for
// per-source correlation in reports.
func Correlate(internal []models.StyleEngagement, snapshot *models.TrendSnapshot) models.CorrelatedTrends {
	internalNames := make(map[string]struct{}, len(internal))
	for _, row := range internal {
		internalNames[row.StyleID] = struct{}{}
	}

	matching := make(map[string]struct{})
	opportunities := make(map[string]struct{})
	for _, name := range snapshotNames(snapshot) {
		if _, ok := internalNames[name]; ok {
			matching[name] = struct{}{}
		} else {
			opportunities[name] = struct{}{}
		}
	}

	return models.CorrelatedTrends{
		Matching:      sortedKeys(matching),
		Opportunities: sortedKeys(opportunities),
	}
}

// snapshotNames flattens a snapshot's styles, themes, and hashtags into one
// name list.
func snapshotNames(s *models.TrendSnapshot) []string {
	names := make([]string, 0, len(s.Styles)+len(s.Themes)+len(s.Hashtags))
	for _, e := range s.Styles {
		names = append(names, e.Name)
	}
	for _, e := range s.Themes {
		names = append(names, e.Name)
	}
	for _, e := range s.Hashtags {
		names = append(names, e.Name)
	}
	return names
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
