// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package tracking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/telemetry"
)

// Recorder appends user events to the durable log. Recording never fails
// the caller: storage errors are logged and surface only as an empty event
// id.
type Recorder struct {
	log    store.EventLog
	bus    *Bus
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewRecorder creates an event recorder. The bus is optional; pass nil to
// disable side-effect publishing.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecorder(log store.EventLog, bus *Bus, logger zerolog.Logger) *Recorder {
	return &Recorder{
		log:    log,
		bus:    bus,
		logger: logger.With().Str("component", "tracking").Logger(),
		now:    time.Now,
	}
}

// Record appends one event and returns its id. On storage failure the
// error is logged and the empty id is returned; the caller's flow is never
// interrupted. An unrecognized event type is a programmer error and is
// dropped the same way.
func (r *Recorder) Record(ctx context.Context, userID string, eventType models.EventType, payload map[string]any) string {
	if !eventType.Valid() {
		r.logger.Error().
			Str("event_type", string(eventType)).
			Msg("dropping event with unrecognized type")
		return ""
	}

	event := models.UserEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      eventType,
		Timestamp: r.now().UTC(),
		Payload:   payload,
	}

	if err := r.log.AppendEvent(ctx, &event); err != nil {
		telemetry.EventRecordFailures.Inc()
		r.logger.Error().
			Err(err).
			Str("event_type", string(eventType)).
			Str("user_id", userID).
			Msg("event append failed")
		return ""
	}

	telemetry.EventsRecorded.WithLabelValues(string(eventType)).Inc()

	if r.bus != nil {
		if err := r.bus.Publish(&event); err != nil {
			// Fire and forget: the durable write already succeeded.
			r.logger.Warn().
				Err(err).
				Str("event_id", event.ID).
				Msg("bus publish failed")
		}
	}

	return event.ID
}
