// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package affinity derives style clusters from co-engagement. Clusters are
// rebuilt fully on every run from the likes inside the aggregation window;
// nothing is mutated incrementally.
package affinity

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/analytics"
	"github.com/atelier-labs/cloe/internal/models"
)

// MaxClusters caps how many clusters one run may seed.
const MaxClusters = 5

// Pair is one co-occurrence entry: two styles liked by the same users.
type Pair struct {
	StyleA      string
	StyleB      string
	CommonUsers int
}

// Engine builds affinity clusters from aggregated engagement data.
type Engine struct {
	agg    *analytics.Aggregator
	logger zerolog.Logger
}

// NewEngine creates a clustering engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(agg *analytics.Aggregator, logger zerolog.Logger) *Engine {
	return &Engine{
		agg:    agg,
		logger: logger.With().Str("component", "affinity").Logger(),
	}
}

// Clusters runs a full clustering pass for the window and returns the
// clusters together with the complete ranked engagement table, clustered
// styles or not.
func (e *Engine) Clusters(ctx context.Context, period models.Period) ([]models.StyleAffinityCluster, []models.StyleEngagement) {
	likes := e.agg.StyleLikesByUser(ctx, period, false)
	pairs := CoOccurrence(likes)
	clusters := BuildClusters(pairs)

	e.logger.Debug().
		Int("pairs", len(pairs)).
		Int("clusters", len(clusters)).
		Str("period", string(period)).
		Msg("clustering pass complete")

	return clusters, e.agg.StyleEngagement(ctx, period, false)
}

// CoOccurrence builds the co-occurrence list from per-user liked-style sets.
// Pairs are ordered by common user count descending; ties keep the pairs'
// canonical order (lexicographic on the style ids), which makes the list
// deterministic regardless of map iteration order.
func CoOccurrence(likesByUser map[string][]string) []Pair {
	counts := make(map[[2]string]int)
	for _, styles := range likesByUser {
		for i := 0; i < len(styles); i++ {
			for j := i + 1; j < len(styles); j++ {
				counts[[2]string{styles[i], styles[j]}]++
			}
		}
	}

	pairs := make([]Pair, 0, len(counts))
	for key, n := range counts {
		pairs = append(pairs, Pair{StyleA: key[0], StyleB: key[1], CommonUsers: n})
	}

	// Canonical order first, then a stable sort by count so equal counts
	// keep that order.
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].StyleA != pairs[j].StyleA {
			return pairs[i].StyleA < pairs[j].StyleA
		}
		return pairs[i].StyleB < pairs[j].StyleB
	})
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].CommonUsers > pairs[j].CommonUsers
	})
	return pairs
}

// BuildClusters assigns styles to at most MaxClusters disjoint clusters.
//
// Seeding pass: walk the sorted pair list; a pair whose styles are both
// unassigned seeds a new cluster with strength = common user count, until
// the cluster cap is reached. Growth pass: walk the list again; a pair with
// exactly one assigned style attaches the other style to that cluster.
func BuildClusters(pairs []Pair) []models.StyleAffinityCluster {
	clusters := make([]models.StyleAffinityCluster, 0, MaxClusters)
	assigned := make(map[string]int)

	for _, p := range pairs {
		if len(clusters) >= MaxClusters {
			break
		}
		_, aDone := assigned[p.StyleA]
		_, bDone := assigned[p.StyleB]
		if aDone || bDone {
			continue
		}
		clusters = append(clusters, models.StyleAffinityCluster{
			Styles:   []string{p.StyleA, p.StyleB},
			Strength: float64(p.CommonUsers),
		})
		assigned[p.StyleA] = len(clusters) - 1
		assigned[p.StyleB] = len(clusters) - 1
	}

	for _, p := range pairs {
		idxA, aDone := assigned[p.StyleA]
		idxB, bDone := assigned[p.StyleB]
		switch {
		case aDone && !bDone:
			clusters[idxA].Styles = append(clusters[idxA].Styles, p.StyleB)
			assigned[p.StyleB] = idxA
		case bDone && !aDone:
			clusters[idxB].Styles = append(clusters[idxB].Styles, p.StyleA)
			assigned[p.StyleA] = idxB
		}
	}

	return clusters
}
