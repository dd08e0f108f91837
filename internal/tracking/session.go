// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/models"
	"github.com/atelier-labs/cloe/internal/store"
	"github.com/atelier-labs/cloe/internal/telemetry"
)

// DefaultSessionTimeout closes a session when no activity arrives within it.
const DefaultSessionTimeout = 1800 * time.Second

// Keyed-value keys for session state. The current-session pointer is the
// only mutable reference; closed session rows stay in the store.
const (
	sessionKeyPrefix        = "session:"
	currentSessionKeyPrefix = "session:current:"
)

// Tracker manages session lifecycle per user. Each user has at most one
// active session; concurrent mutations for the same user are serialized by
// the store's per-key update semantics.
type Tracker struct {
	kv       store.KeyValue
	recorder *Recorder
	timeout  time.Duration
	logger   zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewTracker creates a session tracker. A non-positive timeout selects
// DefaultSessionTimeout.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewTracker(kv store.KeyValue, recorder *Recorder, timeout time.Duration, logger zerolog.Logger) *Tracker {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &Tracker{
		kv:       kv,
		recorder: recorder,
		timeout:  timeout,
		logger:   logger.With().Str("component", "session").Logger(),
		now:      time.Now,
	}
}

// Start opens a new session for the user and returns its id. A prior
// active session loses its current-session pointer but its row is kept.
func (t *Tracker) Start(ctx context.Context, userID, referrer, userAgent string) (string, error) {
	now := t.now().UTC()
	session := models.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		StartTime:    now,
		LastActivity: now,
		Referrer:     referrer,
		UserAgent:    userAgent,
		Active:       true,
	}

	if err := t.putSession(ctx, &session); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	if err := t.kv.UpsertKeyed(ctx, currentSessionKeyPrefix+userID, session.ID, 0); err != nil {
		return "", fmt.Errorf("store current-session pointer: %w", err)
	}

	telemetry.SessionsStarted.Inc()
	t.recorder.Record(ctx, userID, models.EventSessionStart, map[string]any{
		"session_id": session.ID,
		"referrer":   referrer,
	})

	return session.ID, nil
}

// Continue updates the session's last activity, appends a page view, and
// recomputes its running duration. A session idle past the timeout is
// closed and a fresh one opened; without any active session a new one is
// started.
func (t *Tracker) Continue(ctx context.Context, userID, path string) error {
	session, err := t.Current(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		if _, err := t.Start(ctx, userID, "", ""); err != nil {
			return err
		}
		session, err = t.Current(ctx, userID)
		if err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	now := t.now().UTC()
	if now.Sub(session.LastActivity) > t.timeout {
		// Close the stale session at its last activity, then open a
		// fresh one carrying this page view.
		t.closeSession(ctx, session, session.LastActivity, "timeout")

		if _, err := t.Start(ctx, userID, "", ""); err != nil {
			return err
		}
		session, err = t.Current(ctx, userID)
		if err != nil {
			return err
		}
	}

	session.LastActivity = now
	session.Duration = now.Sub(session.StartTime).Seconds()
	session.AppendPageView(models.PageView{Path: path, At: now})

	return t.putSession(ctx, session)
}

// End closes the user's active session. Idempotent: with no active session
// it is a safe no-op.
func (t *Tracker) End(ctx context.Context, userID string) error {
	session, err := t.Current(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	t.closeSession(ctx, session, t.now().UTC(), "logout")
	return nil
}

// Current returns the user's active session.
// Returns store.ErrNotFound when none exists.
func (t *Tracker) Current(ctx context.Context, userID string) (*models.Session, error) {
	var sessionID string
	if err := t.kv.GetKeyed(ctx, currentSessionKeyPrefix+userID, &sessionID); err != nil {
		return nil, err
	}

	var session models.Session
	if err := t.kv.GetKeyed(ctx, sessionKeyPrefix+sessionID, &session); err != nil {
		return nil, err
	}
	if !session.Active {
		return nil, store.ErrNotFound
	}
	return &session, nil
}

// closeSession marks the session inactive, computes the final duration,
// clears the current-session pointer, and emits the session_end event.
// Storage errors are logged; closing is best effort by design.
func (t *Tracker) closeSession(ctx context.Context, session *models.Session, endTime time.Time, reason string) {
	session.EndTime = &endTime
	session.Duration = endTime.Sub(session.StartTime).Seconds()
	session.Active = false

	if err := t.putSession(ctx, session); err != nil {
		t.logger.Error().Err(err).Str("session_id", session.ID).Msg("close session failed")
		return
	}
	if err := t.kv.DeleteKeyed(ctx, currentSessionKeyPrefix+session.UserID); err != nil {
		t.logger.Error().Err(err).Str("session_id", session.ID).Msg("clear current-session pointer failed")
	}

	telemetry.SessionsClosed.WithLabelValues(reason).Inc()
	t.recorder.Record(ctx, session.UserID, models.EventSessionEnd, map[string]any{
		"session_id": session.ID,
		"duration":   session.Duration,
		"reason":     reason,
	})
}

// putSession stores the session row under its id.
func (t *Tracker) putSession(ctx context.Context, session *models.Session) error {
	return t.kv.UpsertKeyed(ctx, sessionKeyPrefix+session.ID, session, 0)
}
