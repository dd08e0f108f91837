// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package analytics

import (
	"context"
	"sort"

	"github.com/atelier-labs/cloe/internal/models"
)

// Engagement score weights. Purchases dominate likes dominate views.
const (
	viewWeight     = 1
	likeWeight     = 5
	purchaseWeight = 20
)

// EngagementScore computes the weighted engagement score for raw counts.
func EngagementScore(views, likes, purchases int) float64 {
	return float64(views*viewWeight + likes*likeWeight + purchases*purchaseWeight)
}

// StyleEngagement returns the per-style engagement table for the window,
// ranked by score descending (style id ascending on ties, for determinism).
// Events contribute through their style_id payload attribute.
func (a *Aggregator) StyleEngagement(ctx context.Context, period models.Period, previous bool) []models.StyleEngagement {
	events := a.queryWindow(ctx, period, previous,
		models.EventView, models.EventLike, models.EventPurchase)

	byStyle := make(map[string]*models.StyleEngagement)
	for i := range events {
		styleID := events[i].PayloadString("style_id")
		if styleID == "" {
			continue
		}

		row, ok := byStyle[styleID]
		if !ok {
			row = &models.StyleEngagement{StyleID: styleID}
			byStyle[styleID] = row
		}
		switch events[i].Type {
		case models.EventView:
			row.Views++
		case models.EventLike:
			row.Likes++
		case models.EventPurchase:
			row.Purchases++
		}
	}

	out := make([]models.StyleEngagement, 0, len(byStyle))
	for _, row := range byStyle {
		row.Score = EngagementScore(row.Views, row.Likes, row.Purchases)
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].StyleID < out[j].StyleID
	})
	return out
}

// StyleLikesByUser returns, per user, the set of styles they liked inside
// the window. This is the co-engagement input for affinity clustering.
func (a *Aggregator) StyleLikesByUser(ctx context.Context, period models.Period, previous bool) map[string][]string {
	events := a.queryWindow(ctx, period, previous, models.EventLike)

	seen := make(map[string]map[string]struct{})
	for i := range events {
		styleID := events[i].PayloadString("style_id")
		if styleID == "" || events[i].UserID == "" {
			continue
		}
		if seen[events[i].UserID] == nil {
			seen[events[i].UserID] = make(map[string]struct{})
		}
		seen[events[i].UserID][styleID] = struct{}{}
	}

	out := make(map[string][]string, len(seen))
	for userID, styles := range seen {
		list := make([]string, 0, len(styles))
		for s := range styles {
			list = append(list, s)
		}
		sort.Strings(list)
		out[userID] = list
	}
	return out
}
