// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/affinity"
	"github.com/atelier-labs/cloe/internal/analytics"
	"github.com/atelier-labs/cloe/internal/config"
	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/trend"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// stubFetcher always fails, exercising the correlator's empty fallback.
type stubFetcher struct{}

func (stubFetcher) Fetch(ctx context.Context, sourceID string) (*models.TrendSnapshot, error) {
	return nil, fmt.Errorf("feed unavailable")
}

func newTestRunner(t *testing.T) (*Runner, *store.BadgerStore) {
	t.Helper()
	s, err := store.Open(store.Options{InMemory: true}, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	agg := analytics.NewAggregator(s, zerolog.Nop())
	clusters := affinity.NewEngine(agg, zerolog.Nop())
	correlator := trend.NewCorrelator(s, stubFetcher{}, []string{"feed-a"}, zerolog.Nop())

	r := NewRunner(agg, clusters, correlator, s, zerolog.Nop())
	r.now = func() time.Time { return testNow }
	return r, s
}

func seed(t *testing.T, s *store.BadgerStore, events []models.UserEvent) {
	t.Helper()
	ctx := context.Background()
	for i := range events {
		events[i].ID = fmt.Sprintf("e%d", i)
		if events[i].Timestamp.IsZero() {
			events[i].Timestamp = testNow.Add(-time.Hour)
		}
		if err := s.AppendEvent(ctx, &events[i]); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}
}

func TestRunDailyComposesSections(t *testing.T) {
	r, s := newTestRunner(t)
	seed(t, s, []models.UserEvent{
		{UserID: "u1", Type: models.EventView, Payload: map[string]any{"style_id": "cubism"}},
		{UserID: "u1", Type: models.EventLike, Payload: map[string]any{"style_id": "cubism"}},
	})

	snapshot, err := r.RunDaily(context.Background())
	if err != nil {
		t.Fatalf("RunDaily: %v", err)
	}
	if snapshot.Kind != models.ReportTrend || snapshot.Period != models.PeriodDay {
		t.Errorf("snapshot header = %s/%s, want trend/day", snapshot.Kind, snapshot.Period)
	}
	for _, name := range []string{"engagement", "clusters", "correlated_trends", "style_growth", "funnel"} {
		if _, ok := snapshot.Sections[name]; !ok {
			t.Errorf("daily report missing section %q", name)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	if _, err := r.RunDaily(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	r.now = func() time.Time { return testNow.Add(time.Hour) }
	second, err := r.RunDaily(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	latest, err := r.Latest(ctx, models.ReportTrend)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	// The latest snapshot is the re-run, not an accumulation.
	if !latest.GeneratedAt.Equal(second.GeneratedAt) {
		t.Errorf("latest snapshot from %v, want overwritten by second run %v",
			latest.GeneratedAt, second.GeneratedAt)
	}
}

func TestRunDispatch(t *testing.T) {
	r, _ := newTestRunner(t)
	ctx := context.Background()

	tests := []struct {
		cadence string
		kind    models.ReportKind
	}{
		{CadenceDaily, models.ReportTrend},
		{CadenceWeekly, models.ReportSEO},
		{CadenceMonthly, models.ReportMonthly},
	}
	for _, tt := range tests {
		snapshot, err := r.Run(ctx, tt.cadence)
		if err != nil {
			t.Fatalf("Run(%s): %v", tt.cadence, err)
		}
		if snapshot.Kind != tt.kind {
			t.Errorf("Run(%s) kind = %s, want %s", tt.cadence, snapshot.Kind, tt.kind)
		}
	}

	if _, err := r.Run(ctx, "hourly"); err == nil {
		t.Error("unknown cadence = nil error, want error")
	}
}

func TestWeeklySearchTerms(t *testing.T) {
	r, s := newTestRunner(t)
	seed(t, s, []models.UserEvent{
		{UserID: "u1", Type: models.EventSearch, Payload: map[string]any{"query": "cubism"}},
		{UserID: "u2", Type: models.EventSearch, Payload: map[string]any{"query": "cubism"}},
		// Previous week.
		{UserID: "u3", Type: models.EventSearch, Timestamp: testNow.Add(-8 * 24 * time.Hour),
			Payload: map[string]any{"query": "cubism"}},
	})

	snapshot, err := r.RunWeekly(context.Background())
	if err != nil {
		t.Fatalf("RunWeekly: %v", err)
	}

	terms, ok := snapshot.Sections["search_terms"].(map[string]any)
	if !ok {
		t.Fatalf("search_terms section = %T, want map", snapshot.Sections["search_terms"])
	}
	counts := terms["counts"].(map[string]float64)
	growth := terms["growth"].(map[string]float64)
	if counts["cubism"] != 2 {
		t.Errorf("cubism searches = %v, want 2", counts["cubism"])
	}
	if growth["cubism"] != 100 {
		t.Errorf("cubism growth = %v, want 100 (1 -> 2)", growth["cubism"])
	}
}

func TestStyleGrowthCoversBothWindows(t *testing.T) {
	r, s := newTestRunner(t)
	seed(t, s, []models.UserEvent{
		// Current day: cubism view (score 1).
		{UserID: "u1", Type: models.EventView, Payload: map[string]any{"style_id": "cubism"}},
		// Previous day: dada view only, gone now.
		{UserID: "u2", Type: models.EventView, Timestamp: testNow.Add(-30 * time.Hour),
			Payload: map[string]any{"style_id": "dada"}},
	})

	growth := r.styleGrowth(context.Background(), models.PeriodDay)
	if growth["cubism"] != 100 {
		t.Errorf("new style growth = %v, want 100", growth["cubism"])
	}
	if growth["dada"] != -100 {
		t.Errorf("vanished style growth = %v, want -100", growth["dada"])
	}
}

func TestSchedulerDueAndMarkRun(t *testing.T) {
	r, s := newTestRunner(t)
	sched := NewScheduler(r, s, config.ReportsConfig{Enabled: true, CheckInterval: time.Minute}, zerolog.Nop())
	sched.now = func() time.Time { return testNow }
	ctx := context.Background()

	if !sched.due(ctx, CadenceDaily) {
		t.Error("cadence with no recorded run not due")
	}

	sched.markRun(ctx, CadenceDaily)
	if sched.due(ctx, CadenceDaily) {
		t.Error("cadence due immediately after running")
	}

	sched.now = func() time.Time { return testNow.Add(25 * time.Hour) }
	if !sched.due(ctx, CadenceDaily) {
		t.Error("cadence not due after its interval elapsed")
	}
}

func TestSchedulerCheckAndRunFiresDueCadences(t *testing.T) {
	r, s := newTestRunner(t)
	sched := NewScheduler(r, s, config.ReportsConfig{Enabled: true, CheckInterval: time.Minute}, zerolog.Nop())
	sched.now = func() time.Time { return testNow }
	ctx := context.Background()

	sched.checkAndRun(ctx)

	for _, kind := range []models.ReportKind{models.ReportTrend, models.ReportSEO, models.ReportMonthly} {
		if _, err := r.Latest(ctx, kind); err != nil {
			t.Errorf("no %s snapshot after first check: %v", kind, err)
		}
	}

	// Nothing is due on the immediate next check.
	first, _ := r.Latest(ctx, models.ReportTrend)
	sched.checkAndRun(ctx)
	second, _ := r.Latest(ctx, models.ReportTrend)
	if !first.GeneratedAt.Equal(second.GeneratedAt) {
		t.Error("second check re-ran a cadence that was not due")
	}
}
