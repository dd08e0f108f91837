// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package models

import "time"

// Period selects the length of an aggregation window.
type Period string

// Supported aggregation periods.
const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Valid reports whether the period is one of the supported values.
func (p Period) Valid() bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return true
	default:
		return false
	}
}

// Length returns the window length for the period. Month, quarter, and year
// use fixed 30/91/365-day lengths; calendar drift is acceptable for
// window-relative analytics.
func (p Period) Length() time.Duration {
	const day = 24 * time.Hour
	switch p {
	case PeriodDay:
		return day
	case PeriodWeek:
		return 7 * day
	case PeriodMonth:
		return 30 * day
	case PeriodQuarter:
		return 91 * day
	case PeriodYear:
		return 365 * day
	default:
		return day
	}
}

// MetricSample is one appended time-series observation. Samples are never
// mutated, only appended or summarized.
type MetricSample struct {
	MetricName string    `json:"metric_name"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Value      float64   `json:"value"`
	Timestamp  time.Time `json:"timestamp"`
}

// FunnelMetrics holds the view->like->cart->purchase conversion counts and
// stage-to-stage rates for one window. Rates are percentages in [0,100].
type FunnelMetrics struct {
	Viewers    int `json:"viewers"`
	Likers     int `json:"likers"`
	CartAdders int `json:"cart_adders"`
	Purchasers int `json:"purchasers"`

	ViewToLike     float64 `json:"view_to_like"`
	LikeToCart     float64 `json:"like_to_cart"`
	CartToPurchase float64 `json:"cart_to_purchase"`
	Overall        float64 `json:"overall"`
}

// PriceBandMetrics holds funnel metrics and revenue for one price band.
type PriceBandMetrics struct {
	Band    string        `json:"band"`
	Funnel  FunnelMetrics `json:"funnel"`
	Revenue float64       `json:"revenue"`
}

// AbandonedCartMetrics summarizes carts that never converted in the window.
type AbandonedCartMetrics struct {
	TotalCarts      int     `json:"total_carts"`
	AbandonedCarts  int     `json:"abandoned_carts"`
	AbandonmentRate float64 `json:"abandonment_rate"`
	AbandonedValue  float64 `json:"abandoned_value"`

	// RecoveryPotential assumes a fixed 25% recovery rate on abandoned value.
	RecoveryPotential float64 `json:"recovery_potential"`
}

// Distribution is a full-domain histogram: every bucket of the domain is
// present even when its count is zero. Percentages are over the non-zero
// total.
type Distribution struct {
	Dimension   string             `json:"dimension"`
	Counts      map[string]int     `json:"counts"`
	Percentages map[string]float64 `json:"percentages"`
	Total       int                `json:"total"`
}

// StyleEngagement is one row of the ranked engagement table.
type StyleEngagement struct {
	StyleID   string  `json:"style_id"`
	Views     int     `json:"views"`
	Likes     int     `json:"likes"`
	Purchases int     `json:"purchases"`
	Score     float64 `json:"score"`
}

// SessionSummary aggregates session durations over a window.
type SessionSummary struct {
	Sessions        int     `json:"sessions"`
	TotalDuration   float64 `json:"total_duration"`
	AverageDuration float64 `json:"average_duration"`
}

// StyleAffinityCluster is a set of styles frequently co-liked by the same
// users. Clusters are rebuilt fully on each run; membership is disjoint
// within a run.
type StyleAffinityCluster struct {
	Styles   []string `json:"styles"`
	Strength float64  `json:"strength"`
}

// Contains reports whether the cluster includes the given style.
func (c *StyleAffinityCluster) Contains(styleID string) bool {
	for _, s := range c.Styles {
		if s == styleID {
			return true
		}
	}
	return false
}
