// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package recommend ranks candidate items per user from aggregated
// preference signals, falling back to global popularity for anonymous
// callers.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/config"
	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/telemetry"
	"github.com/atelier-labs/cloe/internal/tracking"
)

// preferenceWeights score how strongly each event type signals preference
// for the attributes it carries. Mirrors the engagement weighting.
var preferenceWeights = map[models.EventType]float64{
	models.EventView:     1,
	models.EventLike:     5,
	models.EventPurchase: 20,
}

// preferenceLookback bounds how far back preference signals reach.
const preferenceLookback = 30 * 24 * time.Hour

// Engine ranks candidates for a user.
type Engine struct {
	source   CandidateSource
	log      store.EventLog
	recorder *tracking.Recorder

	defaultLimit int
	maxLimit     int

	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewEngine creates a recommendation engine. The recorder is optional; pass
// nil to disable learning events.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(source CandidateSource, log store.EventLog, recorder *tracking.Recorder, cfg config.RecommendConfig, logger zerolog.Logger) *Engine {
	return &Engine{
		source:       source,
		log:          log,
		recorder:     recorder,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
		logger:       logger.With().Str("component", "recommend").Logger(),
		now:          time.Now,
	}
}

// Recommend returns up to limit ranked items of the given type. An empty
// user id serves the globally trending fallback. A zero limit applies the
// configured default; oversized limits are clamped.
func (e *Engine) Recommend(ctx context.Context, userID string, typ models.RecommendType, limit int) (*models.RecommendationResult, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("invalid recommendation type %q", typ)
	}
	if limit <= 0 {
		limit = e.defaultLimit
	}
	if limit > e.maxLimit {
		limit = e.maxLimit
	}

	candidates := e.source.Candidates(ctx, typ)

	result := &models.RecommendationResult{
		UserID:      userID,
		Type:        typ,
		GeneratedAt: e.now().UTC(),
	}

	if userID != "" {
		if prefs := e.preferenceVector(ctx, userID); len(prefs) > 0 {
			result.Items = rankPersonalized(candidates, prefs, limit)
			result.Personalized = true
		}
	}
	if !result.Personalized {
		result.Items = rankTrending(candidates, limit)
	}

	e.recordServed(ctx, result)
	return result, nil
}

// preferenceVector aggregates the user's attribute preferences from their
// recent events. Empty when the user has no usable history.
func (e *Engine) preferenceVector(ctx context.Context, userID string) map[string]float64 {
	to := e.now().UTC()
	events, err := e.log.QueryEvents(ctx, store.EventFilter{
		UserID: userID,
		Types:  []models.EventType{models.EventView, models.EventLike, models.EventPurchase},
		From:   to.Add(-preferenceLookback),
		To:     to,
	})
	if err != nil {
		e.logger.Error().Err(err).Str("user_id", userID).Msg("preference query failed")
		return nil
	}

	prefs := make(map[string]float64)
	for i := range events {
		weight := preferenceWeights[events[i].Type]
		for _, key := range attributeKeys {
			if v := events[i].PayloadString(key); v != "" {
				prefs[v] += weight
			}
		}
	}
	return prefs
}

// rankPersonalized scores candidates by attribute overlap with the
// preference vector. The dot product is normalized by the candidate's
// attribute count so attribute-heavy items gain no free advantage. Ties
// break by popularity, then item id.
func rankPersonalized(candidates []models.CandidateItem, prefs map[string]float64, limit int) []models.ScoredItem {
	scored := make([]models.ScoredItem, 0, len(candidates))
	popularity := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		var dot float64
		for _, attr := range c.Attributes {
			dot += prefs[attr]
		}
		score := 0.0
		if len(c.Attributes) > 0 {
			score = dot / math.Sqrt(float64(len(c.Attributes)))
		}
		scored = append(scored, models.ScoredItem{ItemID: c.ID, Score: score})
		popularity[c.ID] = c.Popularity
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if popularity[scored[i].ItemID] != popularity[scored[j].ItemID] {
			return popularity[scored[i].ItemID] > popularity[scored[j].ItemID]
		}
		return scored[i].ItemID < scored[j].ItemID
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// rankTrending ranks candidates by global popularity: engagement score
// descending, recency descending, item id ascending. Fully deterministic
// for identical inputs.
func rankTrending(candidates []models.CandidateItem, limit int) []models.ScoredItem {
	ordered := make([]models.CandidateItem, len(candidates))
	copy(ordered, candidates)

	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Popularity != ordered[j].Popularity {
			return ordered[i].Popularity > ordered[j].Popularity
		}
		if !ordered[i].AddedAt.Equal(ordered[j].AddedAt) {
			return ordered[i].AddedAt.After(ordered[j].AddedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}

	items := make([]models.ScoredItem, len(ordered))
	for i, c := range ordered {
		items[i] = models.ScoredItem{ItemID: c.ID, Score: c.Popularity}
	}
	return items
}

// recordServed publishes the learning event. Fire and forget: the recorder
// already swallows failures, and a nil recorder disables learning entirely.
func (e *Engine) recordServed(ctx context.Context, result *models.RecommendationResult) {
	personalized := "false"
	if result.Personalized {
		personalized = "true"
	}
	telemetry.RecommendationsServed.WithLabelValues(string(result.Type), personalized).Inc()

	if e.recorder == nil {
		return
	}
	e.recorder.Record(ctx, result.UserID, models.EventRecommendationServed, map[string]any{
		"type":         string(result.Type),
		"count":        len(result.Items),
		"personalized": result.Personalized,
	})
}
