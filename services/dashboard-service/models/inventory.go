package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// InventoryItem is one row of GET /api/inventory.
type InventoryItem struct {
	SKU        string   `json:"sku"`
	Quantity   int      `json:"quantity"`
	AIVelocity *float64 `json:"aiVelocity,omitempty"`
}

// KnownVelocity reports the item's velocity when the inventory service has one.
// The service stores 0.0 for items that were never predicted, so zero counts as unknown.
func (i InventoryItem) KnownVelocity() (float64, bool) {
	if i.AIVelocity == nil || *i.AIVelocity == 0 {
		return 0, false
	}
	return *i.AIVelocity, true
}

// StockUpdate is the payload of /topic/inventory. The broker sends the whole
// inventory entity; only sku and quantity are read.
type StockUpdate struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// PredictionEvent is the payload of /topic/ai-predictions and the Kafka
// smart-ai-predictions topic.
type PredictionEvent struct {
	SKU        string  `json:"sku" validate:"required"`
	AIVelocity float64 `json:"ai_velocity"`
}

// OrderEvent is the payload of the Kafka order-events topic.
type OrderEvent struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=1"`
}

// SaleRecord is one entry of the recent-activity list.
type SaleRecord struct {
	SKU          string    `json:"sku"`
	QuantitySold int       `json:"quantitySold"`
	Timestamp    time.Time `json:"timestamp"`
}

// saleTimestampLayouts covers zone-less LocalDateTime output and RFC 3339.
var saleTimestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON accepts both "timestamp" and "saleTimestamp" field names.
func (s *SaleRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		SKU           string `json:"sku"`
		QuantitySold  int    `json:"quantitySold"`
		Timestamp     string `json:"timestamp"`
		SaleTimestamp string `json:"saleTimestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.SKU = raw.SKU
	s.QuantitySold = raw.QuantitySold

	ts := raw.Timestamp
	if ts == "" {
		ts = raw.SaleTimestamp
	}
	if ts == "" {
		s.Timestamp = time.Time{}
		return nil
	}

	parsed, err := ParseSaleTimestamp(ts)
	if err != nil {
		return err
	}
	s.Timestamp = parsed
	return nil
}

// ParseSaleTimestamp parses the timestamp formats the inventory service emits.
// Zone-less values are read as UTC.
func ParseSaleTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range saleTimestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised sale timestamp %q", value)
}

// ChartPoint is one sample of a sku's rolling stock chart.
type ChartPoint struct {
	Time  string `json:"time"`
	Stock int    `json:"stock"`
}

// ChartTimeLayout formats ChartPoint.Time.
const ChartTimeLayout = "15:04:05"

// NewChartPoint stamps a stock value with its display time.
func NewChartPoint(at time.Time, stock int) ChartPoint {
	return ChartPoint{Time: at.Format(ChartTimeLayout), Stock: stock}
}

// BuyRequest is the storefront buy action body.
type BuyRequest struct {
	SKU      string `json:"sku" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1"`
}
