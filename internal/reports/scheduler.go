// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package reports

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/config"
	"github.com/atelier-labs/cloe/internal/store"
)

// lastRunKeyPrefix persists when each cadence last fired, so restarts do
// not re-run a cadence early or lose its place.
const lastRunKeyPrefix = "report:last_run:"

// cadenceIntervals maps each cadence to how often it is due.
var cadenceIntervals = map[string]time.Duration{
	CadenceDaily:   24 * time.Hour,
	CadenceWeekly:  7 * 24 * time.Hour,
	CadenceMonthly: 30 * 24 * time.Hour,
}

// Scheduler fires report cadences when due. It runs as a service under the
// supervision tree: Serve blocks until the context is canceled.
type Scheduler struct {
	runner *Runner
	kv     store.KeyValue
	cfg    config.ReportsConfig
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewScheduler creates a report scheduler.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewScheduler(runner *Runner, kv store.KeyValue, cfg config.ReportsConfig, logger zerolog.Logger) *Scheduler {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = time.Minute
	}
	return &Scheduler{
		runner: runner,
		kv:     kv,
		cfg:    cfg,
		logger: logger.With().Str("component", "report_scheduler").Logger(),
		now:    time.Now,
	}
}

// String names the service in supervisor logs.
func (s *Scheduler) String() string { return "report-scheduler" }

// Serve runs the scheduler loop until the context is canceled.
func (s *Scheduler) Serve(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("report scheduler disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	s.logger.Info().
		Dur("check_interval", s.cfg.CheckInterval).
		Msg("report scheduler starting")

	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	// Check immediately on start.
	s.checkAndRun(ctx)

	for {
		select {
		case <-ticker.C:
			s.checkAndRun(ctx)
		case <-ctx.Done():
			s.logger.Info().Msg("report scheduler stopping")
			return ctx.Err()
		}
	}
}

// checkAndRun fires every cadence that is due.
func (s *Scheduler) checkAndRun(ctx context.Context) {
	for _, cadence := range []string{CadenceDaily, CadenceWeekly, CadenceMonthly} {
		if !s.due(ctx, cadence) {
			continue
		}
		if _, err := s.runner.Run(ctx, cadence); err != nil {
			s.logger.Error().Err(err).Str("cadence", cadence).Msg("scheduled report run failed")
			continue
		}
		s.markRun(ctx, cadence)
	}
}

// due reports whether the cadence interval has elapsed since its last run.
// A cadence with no recorded run is due immediately.
func (s *Scheduler) due(ctx context.Context, cadence string) bool {
	var lastRun time.Time
	err := s.kv.GetKeyed(ctx, lastRunKeyPrefix+cadence, &lastRun)
	if err != nil {
		return true
	}
	return s.now().UTC().Sub(lastRun) >= cadenceIntervals[cadence]
}

func (s *Scheduler) markRun(ctx context.Context, cadence string) {
	if err := s.kv.UpsertKeyed(ctx, lastRunKeyPrefix+cadence, s.now().UTC(), 0); err != nil {
		s.logger.Error().Err(err).Str("cadence", cadence).Msg("last run bookkeeping failed")
	}
}
