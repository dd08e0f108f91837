// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/analytics"
	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
)

// CandidateSource provides the recommendable items for one type.
type CandidateSource interface {
	Candidates(ctx context.Context, typ models.RecommendType) []models.CandidateItem
}

// idKeys maps each recommendation type to the payload attribute carrying
// the item id in recorded events.
var idKeys = map[models.RecommendType]string{
	models.RecommendArtwork: "artwork_id",
	models.RecommendArtist:  "artist_id",
	models.RecommendStyle:   "style_id",
	models.RecommendFeature: "feature_id",
}

// attributeKeys are the payload attributes that become candidate traits.
var attributeKeys = []string{"style_id", "theme", "price_band"}

// EventCatalog derives the candidate pool from the event log itself: every
// item seen in a view, like, or purchase event inside the lookback window is
// a candidate, with popularity from the engagement weights and attributes
// from the event payloads.
type EventCatalog struct {
	log      store.EventLog
	lookback time.Duration
	logger   zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewEventCatalog creates a candidate source over the event log.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEventCatalog(log store.EventLog, logger zerolog.Logger) *EventCatalog {
	return &EventCatalog{
		log:      log,
		lookback: models.PeriodMonth.Length(),
		logger:   logger.With().Str("component", "recommend_catalog").Logger(),
		now:      time.Now,
	}
}

// Candidates returns the candidate pool for one recommendation type. Store
// errors degrade to an empty pool.
func (c *EventCatalog) Candidates(ctx context.Context, typ models.RecommendType) []models.CandidateItem {
	idKey, ok := idKeys[typ]
	if !ok {
		return nil
	}

	to := c.now().UTC()
	events, err := c.log.QueryEvents(ctx, store.EventFilter{
		Types: []models.EventType{models.EventView, models.EventLike, models.EventPurchase},
		From:  to.Add(-c.lookback),
		To:    to,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("type", string(typ)).Msg("candidate query failed")
		return nil
	}

	type tally struct {
		item                    models.CandidateItem
		views, likes, purchases int
	}

	byID := make(map[string]*tally)
	for i := range events {
		itemID := events[i].PayloadString(idKey)
		if itemID == "" {
			continue
		}

		t, seen := byID[itemID]
		if !seen {
			t = &tally{item: models.CandidateItem{
				ID:      itemID,
				Type:    typ,
				AddedAt: events[i].Timestamp,
			}}
			byID[itemID] = t
		}
		if events[i].Timestamp.Before(t.item.AddedAt) {
			t.item.AddedAt = events[i].Timestamp
		}

		switch events[i].Type {
		case models.EventView:
			t.views++
		case models.EventLike:
			t.likes++
		case models.EventPurchase:
			t.purchases++
		}

		for _, key := range attributeKeys {
			if key == idKey {
				continue
			}
			if v := events[i].PayloadString(key); v != "" && !contains(t.item.Attributes, v) {
				t.item.Attributes = append(t.item.Attributes, v)
			}
		}
	}

	out := make([]models.CandidateItem, 0, len(byID))
	for _, t := range byID {
		t.item.Popularity = analytics.EngagementScore(t.views, t.likes, t.purchases)
		out = append(out, t.item)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
