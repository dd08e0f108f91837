// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package models

import "time"

// TrendSnapshotTTL is how long a fetched snapshot may be served from cache.
const TrendSnapshotTTL = 12 * time.Hour

// TrendEntry is one externally trending style, theme, or hashtag.
type TrendEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// TrendSnapshot is one external feed's view of what is trending. Snapshots
// are replaced wholesale on cache expiry, never patched.
type TrendSnapshot struct {
	SourceID  string       `json:"source_id"`
	Styles    []TrendEntry `json:"styles,omitempty"`
	Themes    []TrendEntry `json:"themes,omitempty"`
	Hashtags  []TrendEntry `json:"hashtags,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Expired reports whether the snapshot is older than the TTL at the given
// time. The cache never serves expired snapshots on the happy path; they
// remain a fallback when a re-fetch fails.
func (s *TrendSnapshot) Expired(now time.Time) bool {
	return now.Sub(s.FetchedAt) > TrendSnapshotTTL
}

// CorrelatedTrends is the result of matching internal popularity against an
// external snapshot. Derived per call, never persisted.
type CorrelatedTrends struct {
	// Matching lists styles popular internally and trending externally.
	Matching []string `json:"matching"`

	// Opportunities lists styles trending externally but absent from the
	// internal ranking - content gaps.
	Opportunities []string `json:"opportunities"`
}
