// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package models

import "time"

// ReportKind names a scheduled report.
type ReportKind string

// Scheduled report kinds.
const (
	ReportTrend   ReportKind = "trend"
	ReportSEO     ReportKind = "seo"
	ReportMonthly ReportKind = "monthly_analytics"
)

// ReportSnapshot is the persisted output of one report job run. Re-running a
// job overwrites the latest snapshot for its kind, never appends duplicates.
type ReportSnapshot struct {
	Kind        ReportKind     `json:"kind"`
	Period      Period         `json:"period"`
	GeneratedAt time.Time      `json:"generated_at"`
	Sections    map[string]any `json:"sections"`
}
