// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package analytics

import (
	"context"
	"strconv"
	"strings"

	"github.com/atelier-labs/cloe/internal/models"
)

// hourDomain and weekdayDomain are the temporal distribution domains.
// Demographic domains come from the tracking taxonomy.
var (
	hourDomain    = buildHourDomain()
	weekdayDomain = models.CategoryDomain("weekday")
)

func buildHourDomain() []string {
	out := make([]string, 24)
	for h := 0; h < 24; h++ {
		out[h] = strconv.Itoa(h)
	}
	return out
}

// Distribution returns a full-domain histogram over the named dimension:
// hour_of_day and weekday bucket on event time, the demographic dimensions
// (region, age_group, gender, language) bucket on the matching payload
// attribute. Every domain bucket is present even when zero; percentages
// are over the non-zero total.
func (a *Aggregator) Distribution(ctx context.Context, dimension string, period models.Period, previous bool) models.Distribution {
	events := a.queryWindow(ctx, period, previous)

	domain, bucket := bucketerFor(dimension)
	counts := make(map[string]int, len(domain))
	for _, b := range domain {
		counts[b] = 0
	}

	total := 0
	for i := range events {
		b := bucket(&events[i])
		if _, known := counts[b]; !known {
			continue
		}
		counts[b]++
		total++
	}

	percentages := make(map[string]float64, len(counts))
	for b, c := range counts {
		percentages[b] = pct(c, total)
	}

	return models.Distribution{
		Dimension:   dimension,
		Counts:      counts,
		Percentages: percentages,
		Total:       total,
	}
}

// bucketerFor returns the domain and bucketing function for a dimension.
// Unknown dimensions get an empty domain, which yields an all-zero
// distribution rather than an error.
func bucketerFor(dimension string) ([]string, func(*models.UserEvent) string) {
	switch dimension {
	case "hour_of_day":
		return hourDomain, func(e *models.UserEvent) string {
			return strconv.Itoa(e.Timestamp.Hour())
		}
	case "weekday":
		return weekdayDomain, func(e *models.UserEvent) string {
			return strings.ToLower(e.Timestamp.Weekday().String())
		}
	case "region", "age_group", "gender", "language":
		return models.CategoryDomain(dimension), func(e *models.UserEvent) string {
			return e.PayloadString(dimension)
		}
	default:
		return nil, func(*models.UserEvent) string { return "" }
	}
}
