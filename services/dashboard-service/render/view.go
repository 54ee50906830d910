// Package render turns dashboard state into view models and text.
package render

import (
	"fmt"

	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/state"
)

const (
	// LowStockThreshold marks a card as low below this quantity.
	LowStockThreshold = 20
	// CriticalMinutes and CriticalStock define a critical depletion.
	CriticalMinutes = 10.0
	CriticalStock   = 30

	UnknownVelocity = "Calculating..."
	LoadingMessage  = "Loading inventory..."
)

// Card is the view of one sku.
type Card struct {
	SKU        string              `json:"sku"`
	Stock      int                 `json:"stock"`
	Low        bool                `json:"low"`
	Velocity   string              `json:"velocity"`
	TimeToZero string              `json:"time_to_zero,omitempty"`
	Critical   bool                `json:"critical"`
	History    []models.ChartPoint `json:"history"`
}

// Dashboard is the admin view.
type Dashboard struct {
	Loading  bool                `json:"loading"`
	Message  string              `json:"message,omitempty"`
	Cards    []Card              `json:"cards"`
	Activity []models.SaleRecord `json:"activity"`
}

// Depletion is the predicted time until a sku runs out.
type Depletion struct {
	Minutes  float64
	Critical bool
}

// DepletionOf computes time-to-zero. ok is false when stock or velocity is
// unknown or non-positive.
func DepletionOf(s state.State, sku string) (Depletion, bool) {
	stock, okStock := s.StockOf(sku)
	velocity, okVelocity := s.VelocityOf(sku)
	if !okStock || !okVelocity || stock <= 0 || velocity <= 0 {
		return Depletion{}, false
	}
	minutes := float64(stock) / velocity
	return Depletion{
		Minutes:  minutes,
		Critical: minutes <= CriticalMinutes && stock <= CriticalStock,
	}, true
}

// Cards returns one card per known sku, sorted by sku.
func Cards(s state.State) []Card {
	skus := s.SKUs()
	cards := make([]Card, 0, len(skus))
	for _, sku := range skus {
		stock := s.Stock[sku]
		card := Card{
			SKU:      sku,
			Stock:    stock,
			Low:      stock < LowStockThreshold,
			Velocity: UnknownVelocity,
			History:  append([]models.ChartPoint{}, s.History[sku]...),
		}
		// A pushed zero is a known rate and renders "0.00 units/min"; only a
		// missing forecast shows UnknownVelocity.
		if v, ok := s.VelocityOf(sku); ok {
			card.Velocity = fmt.Sprintf("%.2f units/min", v)
		}
		if d, ok := DepletionOf(s, sku); ok {
			card.TimeToZero = fmt.Sprintf("%.1f mins", d.Minutes)
			card.Critical = d.Critical
		}
		cards = append(cards, card)
	}
	return cards
}

// DashboardView builds the admin view. An empty stock projection is the
// loading state, whether or not hydration has finished.
func DashboardView(s state.State) Dashboard {
	view := Dashboard{
		Cards:    Cards(s),
		Activity: append([]models.SaleRecord{}, s.Activity...),
	}
	if len(view.Cards) == 0 {
		view.Loading = true
		view.Message = LoadingMessage
	}
	return view
}

// StorefrontItem is one purchasable product.
type StorefrontItem struct {
	SKU     string `json:"sku"`
	Stock   int    `json:"stock"`
	InStock bool   `json:"in_stock"`
}

// Storefront is the storefront view.
type Storefront struct {
	Loading bool             `json:"loading"`
	Message string           `json:"message,omitempty"`
	Items   []StorefrontItem `json:"items"`
}

// StorefrontView builds the storefront view from a stock list.
func StorefrontView(items []models.InventoryItem) Storefront {
	view := Storefront{Items: make([]StorefrontItem, 0, len(items))}
	for _, item := range items {
		view.Items = append(view.Items, StorefrontItem{
			SKU:     item.SKU,
			Stock:   item.Quantity,
			InStock: item.Quantity > 0,
		})
	}
	if len(view.Items) == 0 {
		view.Loading = true
		view.Message = LoadingMessage
	}
	return view
}
