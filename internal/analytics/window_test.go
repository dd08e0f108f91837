// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package analytics

import (
	"testing"
	"time"

	"github.com/atelier-labs/cloe/internal/models"
)

func TestWindowNeverOverlaps(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	periods := []models.Period{
		models.PeriodDay, models.PeriodWeek, models.PeriodMonth,
		models.PeriodQuarter, models.PeriodYear,
	}

	for _, p := range periods {
		t.Run(string(p), func(t *testing.T) {
			curFrom, curTo := Window(p, false, now)
			prevFrom, prevTo := Window(p, true, now)

			// Previous strictly precedes current and they share only
			// the boundary instant, which the half-open interval
			// excludes from the previous window.
			if !prevTo.Equal(curFrom) {
				t.Errorf("previous window ends at %v, current begins at %v; want contiguous", prevTo, curFrom)
			}
			if !prevFrom.Before(curFrom) {
				t.Errorf("previous window start %v not before current start %v", prevFrom, curFrom)
			}
			if !curTo.Equal(now) {
				t.Errorf("current window ends at %v, want now %v", curTo, now)
			}
			if got, want := curTo.Sub(curFrom), p.Length(); got != want {
				t.Errorf("current window length = %v, want %v", got, want)
			}
			if got, want := prevTo.Sub(prevFrom), p.Length(); got != want {
				t.Errorf("previous window length = %v, want %v", got, want)
			}
		})
	}
}

func TestPct(t *testing.T) {
	tests := []struct {
		num, den int
		want     float64
	}{
		{0, 0, 0},
		{5, 0, 0},
		{20, 100, 20},
		{10, 20, 50},
		{4, 100, 4},
		{100, 100, 100},
	}

	for _, tt := range tests {
		if got := pct(tt.num, tt.den); got != tt.want {
			t.Errorf("pct(%d, %d) = %v, want %v", tt.num, tt.den, got, tt.want)
		}
	}
}
