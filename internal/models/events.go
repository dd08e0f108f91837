// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package models defines the domain records shared across CLOE components.
//
// Records here are plain data: behavior lives in the component packages that
// own each record's lifecycle (tracking owns sessions, trend owns snapshots,
// and so on).
package models

import "time"

// EventType classifies a recorded user action.
type EventType string

// Recognized event types.
const (
	EventLogin                EventType = "login"
	EventView                 EventType = "view"
	EventLike                 EventType = "like"
	EventShare                EventType = "share"
	EventCartAdd              EventType = "cart_add"
	EventPurchase             EventType = "purchase"
	EventSearch               EventType = "search"
	EventSwipe                EventType = "swipe"
	EventSessionStart         EventType = "session_start"
	EventSessionEnd           EventType = "session_end"
	EventPageView             EventType = "page_view"
	EventRecommendationServed EventType = "recommendation_served"
)

// Valid reports whether the event type is one of the recognized values.
func (t EventType) Valid() bool {
	switch t {
	case EventLogin, EventView, EventLike, EventShare, EventCartAdd,
		EventPurchase, EventSearch, EventSwipe, EventSessionStart,
		EventSessionEnd, EventPageView, EventRecommendationServed:
		return true
	default:
		return false
	}
}

// UserEvent is one recorded user action. Events are immutable once written.
type UserEvent struct {
	// ID is the unique event identifier (UUIDv4).
	ID string `json:"id"`

	// UserID identifies the acting user. Empty for anonymous actions.
	UserID string `json:"user_id"`

	// Type classifies the action.
	Type EventType `json:"type"`

	// Timestamp is when the action occurred (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Payload carries action-specific attributes (style_id, item_id,
	// price, region, and similar).
	Payload map[string]any `json:"payload,omitempty"`
}

// PayloadString returns a string payload attribute, or "" when absent.
func (e *UserEvent) PayloadString(key string) string {
	if v, ok := e.Payload[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PayloadFloat returns a numeric payload attribute, or 0 when absent.
// JSON round-trips land numbers as float64; int is accepted for values
// built in-process.
func (e *UserEvent) PayloadFloat(key string) float64 {
	switch v := e.Payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

// PageView is one entry in a session's page-view history.
type PageView struct {
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

// MaxSessionPageViews caps a session's page-view list; the oldest entry is
// evicted when the cap is exceeded.
const MaxSessionPageViews = 100

// Session tracks one user's activity between start and end/timeout.
// A user has at most one active session at a time.
type Session struct {
	// ID is the unique session identifier (UUIDv4).
	ID string `json:"id"`

	// UserID identifies the session owner.
	UserID string `json:"user_id"`

	// StartTime is when the session was opened.
	StartTime time.Time `json:"start_time"`

	// LastActivity is the time of the most recent continue call.
	LastActivity time.Time `json:"last_activity"`

	// EndTime is set when the session is closed.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Duration is end - start in seconds, computed when closed and kept
	// current on every continue call.
	Duration float64 `json:"duration"`

	// PageViews holds the most recent page views, oldest first,
	// capped at MaxSessionPageViews.
	PageViews []PageView `json:"page_views,omitempty"`

	// Referrer is the referrer recorded at session start.
	Referrer string `json:"referrer,omitempty"`

	// UserAgent is the client user agent recorded at session start.
	UserAgent string `json:"user_agent,omitempty"`

	// Active reports whether the session is still open.
	Active bool `json:"active"`
}

// AppendPageView appends a page view, evicting the oldest entry past the cap.
func (s *Session) AppendPageView(pv PageView) {
	s.PageViews = append(s.PageViews, pv)
	if len(s.PageViews) > MaxSessionPageViews {
		s.PageViews = s.PageViews[len(s.PageViews)-MaxSessionPageViews:]
	}
}
