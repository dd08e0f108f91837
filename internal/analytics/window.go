// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

// Package analytics provides window-scoped statistical queries over the
// recorded event log: conversion funnels, price-band sensitivity, abandoned
// carts, demographic and temporal distributions, and the per-style
// engagement counts the clustering engine consumes.
//
// Every query is a pure function of its window and the rows the store
// returns. Denominator-zero cases yield 0, never an error; store failures
// yield the documented zeroed result plus one log line.
package analytics

import (
	"time"

	"github.com/atelier-labs/cloe/internal/models"
)

// Window returns the half-open interval [from, to) for the period. With
// previous set it returns [now-2k, now-k), otherwise [now-k, now), where k
// is the period length; the two windows never overlap and the previous one
// strictly precedes the current one.
func Window(period models.Period, previous bool, now time.Time) (from, to time.Time) {
	k := period.Length()
	if previous {
		return now.Add(-2 * k), now.Add(-k)
	}
	return now.Add(-k), now
}

// pct returns num/den as a percentage, guarding the zero denominator as 0.
func pct(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}
