// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package models

import "time"

// GreetingContext carries the user state the greeting state machine selects
// on. Built per request, never persisted.
type GreetingContext struct {
	UserID          string    `json:"user_id,omitempty"`
	DisplayName     string    `json:"display_name,omitempty"`
	LastLogin       time.Time `json:"last_login,omitempty"`
	LoginCount      int       `json:"login_count"`
	ArtworkCount    int       `json:"artwork_count"`
	HasRecentSale   bool      `json:"has_recent_sale"`
	PreferredStyles []string  `json:"preferred_styles,omitempty"`
	FollowedTrends  []string  `json:"followed_trends,omitempty"`
}

// Anonymous reports whether the context belongs to an unknown user.
func (c *GreetingContext) Anonymous() bool {
	return c.UserID == ""
}

// Greeting is a selected, fully formatted greeting.
type Greeting struct {
	// State is the winning state machine state (first_sale, milestone,
	// returning_long, returning_short, trend_following, style_consistent,
	// time_based).
	State string `json:"state"`

	// Message is the formatted greeting text.
	Message string `json:"message"`
}
