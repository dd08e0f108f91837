// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package models

import "time"

// RecommendType selects the kind of item to recommend.
type RecommendType string

// Supported recommendation types.
const (
	RecommendArtwork RecommendType = "artwork"
	RecommendArtist  RecommendType = "artist"
	RecommendStyle   RecommendType = "style"
	RecommendFeature RecommendType = "feature"
)

// Valid reports whether the type is one of the supported values.
func (t RecommendType) Valid() bool {
	switch t {
	case RecommendArtwork, RecommendArtist, RecommendStyle, RecommendFeature:
		return true
	default:
		return false
	}
}

// ScoredItem is one ranked recommendation.
type ScoredItem struct {
	ItemID string  `json:"item_id"`
	Score  float64 `json:"score"`
}

// RecommendationResult is a ranked recommendation list for one user.
type RecommendationResult struct {
	// UserID is empty for anonymous requests.
	UserID      string        `json:"user_id,omitempty"`
	Type        RecommendType `json:"type"`
	Items       []ScoredItem  `json:"items"`
	GeneratedAt time.Time     `json:"generated_at"`

	// Personalized reports whether user preference signals contributed;
	// false means the globally trending fallback was used.
	Personalized bool `json:"personalized"`
}

// CandidateItem is a recommendable item with the attributes preference
// vectors are matched against.
type CandidateItem struct {
	ID   string        `json:"id"`
	Type RecommendType `json:"type"`

	// Attributes are categorical traits (style ids, themes, price band).
	Attributes []string `json:"attributes,omitempty"`

	// Popularity is the global engagement score used for tie breaks and
	// the anonymous fallback.
	Popularity float64 `json:"popularity"`

	// AddedAt orders equally popular items by recency.
	AddedAt time.Time `json:"added_at"`
}
