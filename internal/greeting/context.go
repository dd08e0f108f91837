// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package greeting

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
)

// Signal windows for context building.
const (
	recentSaleWindow = 7 * 24 * time.Hour
	styleWindow      = 30 * 24 * time.Hour
	loginWindow      = 365 * 24 * time.Hour

	// dominantStyleMinLikes is how many likes a style needs inside the
	// window before it counts as a recurring preference.
	dominantStyleMinLikes = 3
)

// ContextBuilder assembles a GreetingContext from the user's event history.
// Login events double as profile snapshots: their payload may carry
// display_name, artwork_count, and followed_trends.
type ContextBuilder struct {
	log    store.EventLog
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewContextBuilder creates a greeting context builder.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewContextBuilder(log store.EventLog, logger zerolog.Logger) *ContextBuilder {
	return &ContextBuilder{
		log:    log,
		logger: logger.With().Str("component", "greeting_context").Logger(),
		now:    time.Now,
	}
}

// Build assembles the context for one user. Followed trends are filtered
// against activeTrends so only currently trending names can trigger the
// trend-following state. An empty user id yields an anonymous context.
// Query failures degrade individual signals to their zero values.
func (b *ContextBuilder) Build(ctx context.Context, userID string, activeTrends []string) *models.GreetingContext {
	gctx := &models.GreetingContext{UserID: userID}
	if userID == "" {
		return gctx
	}

	now := b.now().UTC()

	logins := b.query(ctx, store.EventFilter{
		UserID: userID,
		Types:  []models.EventType{models.EventLogin},
		From:   now.Add(-loginWindow),
		To:     now,
	})
	gctx.LoginCount = len(logins)
	if len(logins) > 0 {
		latest := logins[len(logins)-1]
		gctx.LastLogin = latest.Timestamp
		gctx.DisplayName = latest.PayloadString("display_name")
		gctx.ArtworkCount = int(latest.PayloadFloat("artwork_count"))
		gctx.FollowedTrends = intersect(payloadStrings(latest.Payload["followed_trends"]), activeTrends)
	}

	sales := b.query(ctx, store.EventFilter{
		Types: []models.EventType{models.EventPurchase},
		From:  now.Add(-recentSaleWindow),
		To:    now,
	})
	for i := range sales {
		if sales[i].PayloadString("seller_id") == userID {
			gctx.HasRecentSale = true
			break
		}
	}

	likes := b.query(ctx, store.EventFilter{
		UserID: userID,
		Types:  []models.EventType{models.EventLike},
		From:   now.Add(-styleWindow),
		To:     now,
	})
	gctx.PreferredStyles = dominantStyles(likes)

	return gctx
}

func (b *ContextBuilder) query(ctx context.Context, filter store.EventFilter) []models.UserEvent {
	events, err := b.log.QueryEvents(ctx, filter)
	if err != nil {
		b.logger.Error().Err(err).Str("user_id", filter.UserID).Msg("context query failed")
		return nil
	}
	return events
}

// dominantStyles returns styles liked at least dominantStyleMinLikes times,
// most liked first.
func dominantStyles(likes []models.UserEvent) []string {
	counts := make(map[string]int)
	for i := range likes {
		if s := likes[i].PayloadString("style_id"); s != "" {
			counts[s]++
		}
	}

	var styles []string
	for s, n := range counts {
		if n >= dominantStyleMinLikes {
			styles = append(styles, s)
		}
	}
	sort.Slice(styles, func(i, j int) bool {
		if counts[styles[i]] != counts[styles[j]] {
			return counts[styles[i]] > counts[styles[j]]
		}
		return styles[i] < styles[j]
	})
	return styles
}

// payloadStrings coerces a payload value into a string slice. JSON decoding
// yields []any; accept []string too for directly constructed events.
func payloadStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func intersect(values, allowed []string) []string {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		allowedSet[a] = struct{}{}
	}
	var out []string
	for _, v := range values {
		if _, ok := allowedSet[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
