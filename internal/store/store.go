// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package store defines the persistence port consumed by the engine and its
// BadgerDB implementation.
//
// The port is deliberately small: an append-only event log, a time-range
// query over it, and a keyed-value surface with optional TTL. Everything the
// engine persists (sessions, trend snapshots, report snapshots) goes through
// these three operations; the backing store stays opaque to callers.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/atelier-labs/cloe/internal/models"
)

// ErrNotFound indicates the requested key does not exist or has expired.
var ErrNotFound = errors.New("store: key not found")

// EventFilter selects events from the log. Zero-value fields match
// everything.
type EventFilter struct {
	// UserID restricts results to one user when non-empty.
	UserID string

	// Types restricts results to the listed event types when non-empty.
	Types []models.EventType

	// From is the inclusive lower bound on event time.
	From time.Time

	// To is the exclusive upper bound on event time.
	To time.Time
}

// Matches reports whether the event passes the filter.
func (f *EventFilter) Matches(e *models.UserEvent) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Timestamp.Before(f.To) {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// EventLog is the append-only event store. Appends must be safe under
// concurrent writers.
type EventLog interface {
	// AppendEvent writes one immutable event to the log.
	AppendEvent(ctx context.Context, event *models.UserEvent) error

	// QueryEvents returns events matching the filter in timestamp order.
	QueryEvents(ctx context.Context, filter EventFilter) ([]models.UserEvent, error)
}

// KeyValue is the keyed-value surface with optional expiry.
type KeyValue interface {
	// UpsertKeyed stores value under key, replacing any prior value.
	// A zero ttl means no expiry.
	UpsertKeyed(ctx context.Context, key string, value any, ttl time.Duration) error

	// GetKeyed unmarshals the value under key into dest.
	// Returns ErrNotFound when absent or expired.
	GetKeyed(ctx context.Context, key string, dest any) error

	// DeleteKeyed removes the value under key. Deleting an absent key is
	// a no-op.
	DeleteKeyed(ctx context.Context, key string) error
}

// Store combines the event log and keyed-value surfaces.
type Store interface {
	EventLog
	KeyValue
}
