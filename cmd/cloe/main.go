// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package main is the entry point for the CLOE engine.
//
// CLOE ingests user interaction events, aggregates them into time-windowed
// metrics, clusters content styles by co-engagement, correlates internal
// popularity with external trend feeds, serves personalized recommendations
// and greetings, and composes periodic report snapshots.
//
// # Startup order
//
//  1. Configuration: koanf v2 layering defaults, config.yaml, CLOE_ env vars
//  2. Logging: zerolog global logger per the logging config
//  3. Store: BadgerDB event log and keyed-value store
//  4. Engines: tracking, analytics, affinity, trend, recommend, greeting,
//     reports
//  5. Supervision: suture tree running the HTTP server and report scheduler
//
// # Signal handling
//
// SIGINT and SIGTERM cancel the root context; the supervision tree shuts
// services down gracefully and the store is closed last.
package main

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/affinity"
	"github.com/atelier-labs/cloe/internal/analytics"
	"github.com/atelier-labs/cloe/internal/api"
	"github.com/atelier-labs/cloe/internal/config"
	"github.com/atelier-labs/cloe/internal/greeting"
	"github.com/atelier-labs/cloe/internal/logging"
	"github.com/atelier-labs/cloe/internal/recommend"
	"github.com/atelier-labs/cloe/internal/reports"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/supervisor"
	"github.com/atelier-labs/cloe/internal/tracking"
	"github.com/atelier-labs/cloe/internal/trend"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger := logging.Logger()
		logger.Fatal().Err(err).Msg("configuration load failed")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger := logging.Logger()

	if err := run(cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("engine terminated")
	}
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func run(cfg *config.Config, logger zerolog.Logger) error {
	st, err := store.Open(store.Options{
		Path:     cfg.Store.Path,
		InMemory: cfg.Store.InMemory,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Error().Err(err).Msg("store close failed")
		}
	}()

	bus := tracking.NewBus()
	defer func() { _ = bus.Close() }()

	recorder := tracking.NewRecorder(st, bus, logger)
	tracker := tracking.NewTracker(st, recorder, cfg.Tracking.SessionTimeout, logger)
	agg := analytics.NewAggregator(st, logger)
	clusters := affinity.NewEngine(agg, logger)

	feed := trend.NewFeedClient(cfg.Trend, logger)
	correlator := trend.NewCorrelator(st, feed, cfg.Trend.Sources, logger)

	catalog := recommend.NewEventCatalog(st, logger)
	recommends := recommend.NewEngine(catalog, st, recorder, cfg.Recommend, logger)

	seed := cfg.Recommend.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	greeter := greeting.NewMachine(rand.New(rand.NewSource(seed)), logger)
	contexts := greeting.NewContextBuilder(st, logger)

	runner := reports.NewRunner(agg, clusters, correlator, st, logger)
	scheduler := reports.NewScheduler(runner, st, cfg.Reports, logger)

	handler := api.NewHandler(recorder, tracker, agg, clusters, correlator,
		recommends, greeter, contexts, runner, logger)
	router := api.NewRouter(handler, cfg.Server)
	server := api.NewServer(router, cfg.Server, logger)

	tree := supervisor.NewTree(logging.Slog(logger), supervisor.DefaultTreeConfig())
	tree.AddServingService(server)
	tree.AddJobService(scheduler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info().
		Str("addr", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Msg("cloe engine starting")

	return tree.Serve(ctx)
}
