// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package greeting

import (
	"strings"
	"time"
)

// templateParams are the values substituted into template placeholders.
type templateParams struct {
	name  string
	count string
	style string
	trend string
}

// templates maps each state to its candidate strings. Placeholders:
// {name}, {count}, {style}, {trend}. The time-based group is keyed by day
// part instead.
var templates = map[string][]string{
	StateFirstSale: {
		"Congratulations on your sale, {name}! Your art found its collector.",
		"{name}, someone just took a piece of your world home. Well done!",
		"A sale! {name}, your work is resonating. Keep creating.",
	},
	StateMilestone: {
		"{name}, you just hit {count} - a real milestone. Thanks for being here!",
		"That makes {count}, {name}. Here's to the next one!",
	},
	StateReturningLong: {
		"Welcome back, {name}! A lot has changed since your last visit.",
		"{name}, it's been a while. Let us show you what's new.",
		"Good to see you again, {name}. The gallery missed you.",
	},
	StateReturningShort: {
		"Welcome back, {name}!",
		"Good to see you again, {name}.",
	},
	StateTrendFollowing: {
		"{name}, {trend} is heating up - fresh pieces just landed.",
		"More {trend} arrivals for you, {name}.",
	},
	StateStyleConsistent: {
		"{name}, new {style} works are in. Right up your alley.",
		"We saved some {style} finds for you, {name}.",
	},
}

// timeTemplates are the time-based defaults, keyed by day part.
var timeTemplates = map[string][]string{
	"morning": {
		"Good morning, {name}! Start the day with something beautiful.",
		"Morning, {name}. Fresh art awaits.",
	},
	"afternoon": {
		"Good afternoon, {name}! Take an art break.",
		"Afternoon, {name}. Something caught our eye for you.",
	},
	"evening": {
		"Good evening, {name}! Unwind with tonight's picks.",
		"Evening, {name}. The gallery glows after dark.",
	},
	"night": {
		"Burning the midnight oil, {name}? So are our artists.",
		"Late night browsing, {name}? Enjoy the quiet gallery.",
	},
}

// pickTemplate selects a uniform random candidate from the winning group
// and substitutes the parameters.
func (m *Machine) pickTemplate(state string, now time.Time, params templateParams) string {
	group := templates[state]
	if state == StateTimeBased {
		group = timeTemplates[dayPart(now.Hour())]
	}
	if len(group) == 0 {
		group = timeTemplates["morning"]
	}

	tmpl := group[m.rng.Intn(len(group))]
	return strings.NewReplacer(
		"{name}", params.name,
		"{count}", params.count,
		"{style}", params.style,
		"{trend}", params.trend,
	).Replace(tmpl)
}
