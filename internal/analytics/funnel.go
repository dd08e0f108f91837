// CLOE - Behavioral Analytics and Personalization Engine
// Copyright 2026 Atelier Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-labs/cloe

package analytics

import (
	"context"

	"github.com/atelier-labs/cloe/internal/models"
)

// funnelTypes are the event types contributing to conversion funnels.
var funnelTypes = []models.EventType{
	models.EventView,
	models.EventLike,
	models.EventCartAdd,
	models.EventPurchase,
}

// Funnel computes the view->like->cart->purchase conversion rates for the
// window. Stage counts are unique users; every rate guards its zero
// denominator as 0.
func (a *Aggregator) Funnel(ctx context.Context, period models.Period, previous bool) models.FunnelMetrics {
	events := a.queryWindow(ctx, period, previous, funnelTypes...)
	return buildFunnel(events)
}

// buildFunnel computes funnel metrics from a row set.
func buildFunnel(events []models.UserEvent) models.FunnelMetrics {
	stages := map[models.EventType]map[string]struct{}{
		models.EventView:     {},
		models.EventLike:     {},
		models.EventCartAdd:  {},
		models.EventPurchase: {},
	}
	for i := range events {
		if users, ok := stages[events[i].Type]; ok {
			users[events[i].UserID] = struct{}{}
		}
	}

	m := models.FunnelMetrics{
		Viewers:    len(stages[models.EventView]),
		Likers:     len(stages[models.EventLike]),
		CartAdders: len(stages[models.EventCartAdd]),
		Purchasers: len(stages[models.EventPurchase]),
	}
	m.ViewToLike = pct(m.Likers, m.Viewers)
	m.LikeToCart = pct(m.CartAdders, m.Likers)
	m.CartToPurchase = pct(m.Purchasers, m.CartAdders)
	m.Overall = pct(m.Purchasers, m.Viewers)
	return m
}

// priceBands are the fixed bands price sensitivity is grouped by. Bounds
// are [low, high) in the listing currency.
var priceBands = []struct {
	name string
	low  float64
	high float64
}{
	{"under_50", 0, 50},
	{"50_to_200", 50, 200},
	{"200_to_1000", 200, 1000},
	{"1000_plus", 1000, 0}, // no upper bound
}

// bandFor returns the price band name for a price.
func bandFor(price float64) string {
	for _, b := range priceBands {
		if price >= b.low && (b.high == 0 || price < b.high) {
			return b.name
		}
	}
	return priceBands[0].name
}

// PriceSensitivity groups funnel behavior by fixed price bands. Events
// without a price payload fall into the lowest band. Revenue sums purchase
// prices per band. All bands are present in the result even when empty.
func (a *Aggregator) PriceSensitivity(ctx context.Context, period models.Period, previous bool) []models.PriceBandMetrics {
	events := a.queryWindow(ctx, period, previous, funnelTypes...)

	byBand := make(map[string][]models.UserEvent)
	revenue := make(map[string]float64)
	for i := range events {
		band := bandFor(events[i].PayloadFloat("price"))
		byBand[band] = append(byBand[band], events[i])
		if events[i].Type == models.EventPurchase {
			revenue[band] += events[i].PayloadFloat("price")
		}
	}

	out := make([]models.PriceBandMetrics, 0, len(priceBands))
	for _, b := range priceBands {
		out = append(out, models.PriceBandMetrics{
			Band:    b.name,
			Funnel:  buildFunnel(byBand[b.name]),
			Revenue: revenue[b.name],
		})
	}
	return out
}

// AbandonedCarts summarizes carts that never converted inside the window.
// A cart is abandoned when its user added to cart but recorded no purchase;
// recovery potential assumes a fixed 25% recovery rate.
func (a *Aggregator) AbandonedCarts(ctx context.Context, period models.Period, previous bool) models.AbandonedCartMetrics {
	events := a.queryWindow(ctx, period, previous, models.EventCartAdd, models.EventPurchase)

	cartValue := make(map[string]float64)
	purchased := make(map[string]struct{})
	for i := range events {
		switch events[i].Type {
		case models.EventCartAdd:
			cartValue[events[i].UserID] += events[i].PayloadFloat("price")
		case models.EventPurchase:
			purchased[events[i].UserID] = struct{}{}
		}
	}

	var m models.AbandonedCartMetrics
	m.TotalCarts = len(cartValue)
	for userID, value := range cartValue {
		if _, ok := purchased[userID]; ok {
			continue
		}
		m.AbandonedCarts++
		m.AbandonedValue += value
	}
	m.AbandonmentRate = pct(m.AbandonedCarts, m.TotalCarts)
	m.RecoveryPotential = m.AbandonedValue * 0.25
	return m
}
