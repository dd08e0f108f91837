// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package models

// CategoryGroup classifies what aspect of behavior a tracking category
// describes.
type CategoryGroup string

// Tracking category groups.
const (
	GroupTemporal    CategoryGroup = "temporal"
	GroupDemographic CategoryGroup = "demographic"
	GroupBehavioral  CategoryGroup = "behavioral"
	GroupMarketing   CategoryGroup = "marketing"
	GroupContent     CategoryGroup = "content"
)

// ValueType classifies the shape of a category's values.
type ValueType string

// Tracking category value types.
const (
	ValueNumeric     ValueType = "numeric"
	ValueCategorical ValueType = "categorical"
	ValueComplex     ValueType = "complex"
	ValueBoolean     ValueType = "boolean"
)

// CollectionMode describes how a category's values are obtained.
type CollectionMode string

// Tracking category collection modes.
const (
	CollectAutomatic    CollectionMode = "automatic"
	CollectDerived      CollectionMode = "derived"
	CollectProfileBased CollectionMode = "profile_based"
	CollectActionBased  CollectionMode = "action_based"
)

// TrackingCategoryDef is one taxonomy entry describing a tracked attribute
// of user behavior or demographics. Static configuration, loaded once.
type TrackingCategoryDef struct {
	Name           string         `json:"name"`
	Group          CategoryGroup  `json:"group"`
	ValueType      ValueType      `json:"value_type"`
	Domain         []string       `json:"domain,omitempty"`
	PrivacyTag     string         `json:"privacy_tag"`
	CollectionMode CollectionMode `json:"collection_mode"`
}

// builtinTaxonomy is the static tracking taxonomy. Values with a bounded
// domain list it so distributions can initialize every bucket.
var builtinTaxonomy = []TrackingCategoryDef{
	{Name: "hour_of_day", Group: GroupTemporal, ValueType: ValueNumeric, PrivacyTag: "none", CollectionMode: CollectAutomatic},
	{Name: "weekday", Group: GroupTemporal, ValueType: ValueCategorical, Domain: []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}, PrivacyTag: "none", CollectionMode: CollectAutomatic},
	{Name: "session_duration", Group: GroupTemporal, ValueType: ValueNumeric, PrivacyTag: "none", CollectionMode: CollectDerived},
	{Name: "region", Group: GroupDemographic, ValueType: ValueCategorical, Domain: []string{"north_america", "south_america", "europe", "asia", "africa", "oceania"}, PrivacyTag: "personal", CollectionMode: CollectProfileBased},
	{Name: "age_group", Group: GroupDemographic, ValueType: ValueCategorical, Domain: []string{"18-24", "25-34", "35-44", "45-54", "55+"}, PrivacyTag: "personal", CollectionMode: CollectProfileBased},
	{Name: "gender", Group: GroupDemographic, ValueType: ValueCategorical, Domain: []string{"female", "male", "other", "undisclosed"}, PrivacyTag: "personal", CollectionMode: CollectProfileBased},
	{Name: "language", Group: GroupDemographic, ValueType: ValueCategorical, Domain: []string{"en", "de", "fr", "es", "it", "ja", "other"}, PrivacyTag: "personal", CollectionMode: CollectProfileBased},
	{Name: "style_preference", Group: GroupBehavioral, ValueType: ValueComplex, PrivacyTag: "behavioral", CollectionMode: CollectActionBased},
	{Name: "price_sensitivity", Group: GroupBehavioral, ValueType: ValueCategorical, Domain: []string{"budget", "mid", "premium", "luxury"}, PrivacyTag: "behavioral", CollectionMode: CollectDerived},
	{Name: "purchase_funnel_stage", Group: GroupBehavioral, ValueType: ValueCategorical, Domain: []string{"view", "like", "cart", "purchase"}, PrivacyTag: "behavioral", CollectionMode: CollectDerived},
	{Name: "referrer", Group: GroupMarketing, ValueType: ValueCategorical, PrivacyTag: "none", CollectionMode: CollectAutomatic},
	{Name: "campaign", Group: GroupMarketing, ValueType: ValueCategorical, PrivacyTag: "none", CollectionMode: CollectAutomatic},
	{Name: "followed_trend", Group: GroupContent, ValueType: ValueComplex, PrivacyTag: "behavioral", CollectionMode: CollectActionBased},
	{Name: "search_terms", Group: GroupContent, ValueType: ValueComplex, PrivacyTag: "behavioral", CollectionMode: CollectActionBased},
}

// Taxonomy returns the static tracking taxonomy.
func Taxonomy() []TrackingCategoryDef {
	out := make([]TrackingCategoryDef, len(builtinTaxonomy))
	copy(out, builtinTaxonomy)
	return out
}

// TaxonomyByGroup returns the taxonomy entries in the given group.
func TaxonomyByGroup(group CategoryGroup) []TrackingCategoryDef {
	var out []TrackingCategoryDef
	for _, def := range builtinTaxonomy {
		if def.Group == group {
			out = append(out, def)
		}
	}
	return out
}

// CategoryDomain returns the declared domain for a category name, or nil if
// the category is unknown or open-domain.
func CategoryDomain(name string) []string {
	for _, def := range builtinTaxonomy {
		if def.Name == name {
			return def.Domain
		}
	}
	return nil
}
