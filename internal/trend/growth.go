// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package trend

// Growth returns the percentage growth from previous to current. A zero
// previous with a positive current reads as 100% growth; two zeros read as
// no growth. Used for theme emergence, search-term trending, and
// platform-share growth alike.
func Growth(previous, current float64) float64 {
	switch {
	case previous > 0:
		return (current - previous) / previous * 100
	case current > 0:
		return 100
	default:
		return 0
	}
}
