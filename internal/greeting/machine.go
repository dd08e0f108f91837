// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package greeting selects a contextual greeting via a priority-ordered
// state machine over user history signals.
package greeting

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/atelier-labs/cloe/internal/models"
)

// Greeting states in priority order. Evaluation is first match wins.
const (
	StateFirstSale       = "first_sale"
	StateMilestone       = "milestone"
	StateReturningLong   = "returning_long"
	StateReturningShort  = "returning_short"
	StateTrendFollowing  = "trend_following"
	StateStyleConsistent = "style_consistent"
	StateTimeBased       = "time_based"
)

// Inactivity bounds for the returning states.
const (
	returningShortAfter = 2 * 24 * time.Hour
	returningLongAfter  = 30 * 24 * time.Hour
)

// Milestone thresholds. A context sits on a milestone when either counter
// equals one of these exactly, so each milestone fires once.
var (
	loginMilestones   = []int{10, 50, 100, 500}
	artworkMilestones = []int{1, 10, 50, 100}
)

// anonymousSubject substitutes for the display name of unknown users.
const anonymousSubject = "art lover"

// Machine selects and formats greetings. The random source only picks
// among candidate templates within the winning group; state selection is
// fully deterministic.
type Machine struct {
	rng    *rand.Rand
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewMachine creates a greeting state machine with the given random source.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMachine(rng *rand.Rand, logger zerolog.Logger) *Machine {
	return &Machine{
		rng:    rng,
		logger: logger.With().Str("component", "greeting").Logger(),
		now:    time.Now,
	}
}

// Greet evaluates the state machine for the context and returns the
// formatted greeting.
func (m *Machine) Greet(gctx *models.GreetingContext) models.Greeting {
	now := m.now()
	state := m.evaluate(gctx, now)

	name := gctx.DisplayName
	if gctx.Anonymous() || name == "" {
		name = anonymousSubject
	}

	params := templateParams{
		name:  name,
		count: strconv.Itoa(milestoneValue(gctx)),
	}
	if len(gctx.PreferredStyles) > 0 {
		params.style = gctx.PreferredStyles[0]
	}
	if len(gctx.FollowedTrends) > 0 {
		params.trend = gctx.FollowedTrends[0]
	}

	return models.Greeting{
		State:   state,
		Message: m.pickTemplate(state, now, params),
	}
}

// evaluate walks the states in fixed priority order and returns the first
// match. Anonymous contexts only ever reach the time-based default.
func (m *Machine) evaluate(gctx *models.GreetingContext, now time.Time) string {
	if gctx.Anonymous() {
		return StateTimeBased
	}

	switch {
	case gctx.HasRecentSale:
		return StateFirstSale
	case onMilestone(gctx):
		return StateMilestone
	case inactiveFor(gctx, now) > returningLongAfter:
		return StateReturningLong
	case inactiveFor(gctx, now) > returningShortAfter:
		return StateReturningShort
	case len(gctx.FollowedTrends) > 0:
		return StateTrendFollowing
	case len(gctx.PreferredStyles) > 0:
		return StateStyleConsistent
	default:
		return StateTimeBased
	}
}

// inactiveFor returns how long the user has been away. A zero last login
// reads as no inactivity so new users land in later states.
func inactiveFor(gctx *models.GreetingContext, now time.Time) time.Duration {
	if gctx.LastLogin.IsZero() {
		return 0
	}
	return now.Sub(gctx.LastLogin)
}

func onMilestone(gctx *models.GreetingContext) bool {
	return milestoneValue(gctx) > 0
}

// milestoneValue returns the milestone the context sits on, preferring the
// login milestone when both counters hit one. Zero means no milestone.
func milestoneValue(gctx *models.GreetingContext) int {
	for _, n := range loginMilestones {
		if gctx.LoginCount == n {
			return n
		}
	}
	for _, n := range artworkMilestones {
		if gctx.ArtworkCount == n {
			return n
		}
	}
	return 0
}

// dayPart buckets an hour of day: morning 5-12, afternoon 12-17, evening
// 17-22, night otherwise.
func dayPart(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}
