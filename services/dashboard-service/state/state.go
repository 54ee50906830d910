// Package state holds the dashboard projections and the pure reducer that
// advances them. Every update produces a new State; previous values are never
// mutated, so snapshots can be shared freely between goroutines.
package state

import (
	"sort"
	"time"

	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
)

const (
	// MaxChartPoints bounds each sku's rolling chart.
	MaxChartPoints = 15
	// MaxActivity bounds the recent-activity list.
	MaxActivity = 10
)

// State is the full set of dashboard projections.
type State struct {
	// Stock is the last known quantity per sku. A missing key means "not yet known".
	Stock map[string]int
	// Velocity is the last known predicted depletion rate (units/minute) per sku.
	Velocity map[string]float64
	// History is the rolling chart per sku, oldest first.
	History map[string][]models.ChartPoint
	// Activity is the recent sales list, newest first.
	Activity []models.SaleRecord
	// Hydrated is set once the inventory list has been loaded.
	Hydrated bool
}

// Empty returns the initial state.
func Empty() State {
	return State{
		Stock:    map[string]int{},
		Velocity: map[string]float64{},
		History:  map[string][]models.ChartPoint{},
	}
}

// StockOf returns the quantity for sku and whether it is known.
func (s State) StockOf(sku string) (int, bool) {
	q, ok := s.Stock[sku]
	return q, ok
}

// VelocityOf returns the velocity for sku and whether it is known.
func (s State) VelocityOf(sku string) (float64, bool) {
	v, ok := s.Velocity[sku]
	return v, ok
}

// SKUs returns every sku with a known stock value, sorted.
func (s State) SKUs() []string {
	skus := make([]string, 0, len(s.Stock))
	for sku := range s.Stock {
		skus = append(skus, sku)
	}
	sort.Strings(skus)
	return skus
}

// Action is a single state transition request.
type Action interface {
	isAction()
}

// Hydrated carries the result of the initial inventory read.
type Hydrated struct {
	Items []models.InventoryItem
	At    time.Time
}

// SalesLoaded carries the result of the initial sales read.
type SalesLoaded struct {
	Records []models.SaleRecord
}

// InventoryUpdated is a /topic/inventory message.
type InventoryUpdated struct {
	Update models.StockUpdate
	At     time.Time
}

// PredictionUpdated is an /topic/ai-predictions message.
type PredictionUpdated struct {
	Event models.PredictionEvent
}

// SaleRecorded is a single live sale.
type SaleRecorded struct {
	Record models.SaleRecord
}

func (Hydrated) isAction()          {}
func (SalesLoaded) isAction()       {}
func (InventoryUpdated) isAction()  {}
func (PredictionUpdated) isAction() {}
func (SaleRecorded) isAction()      {}

// Reduce applies a to s and returns the resulting state. s is left untouched.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Hydrated:
		return reduceHydrated(s, a)
	case SalesLoaded:
		return reduceSalesLoaded(s, a)
	case InventoryUpdated:
		return reduceInventoryUpdated(s, a)
	case PredictionUpdated:
		return reducePredictionUpdated(s, a)
	case SaleRecorded:
		return reduceSaleRecorded(s, a)
	default:
		return s
	}
}

func reduceHydrated(s State, a Hydrated) State {
	next := s
	next.Stock = copyMap(s.Stock)
	next.Velocity = copyMap(s.Velocity)
	next.History = copyMap(s.History)
	next.Hydrated = true

	for _, item := range a.Items {
		if item.SKU == "" {
			continue
		}
		next.Stock[item.SKU] = item.Quantity
		if v, ok := item.KnownVelocity(); ok {
			next.Velocity[item.SKU] = v
		}
		next.History[item.SKU] = []models.ChartPoint{models.NewChartPoint(a.At, item.Quantity)}
	}
	return next
}

func reduceSalesLoaded(s State, a SalesLoaded) State {
	records := make([]models.SaleRecord, len(a.Records))
	copy(records, a.Records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})
	if len(records) > MaxActivity {
		records = records[:MaxActivity]
	}

	next := s
	next.Activity = records
	return next
}

func reduceInventoryUpdated(s State, a InventoryUpdated) State {
	sku := a.Update.SKU
	if sku == "" {
		return s
	}

	next := s
	next.Stock = copyMap(s.Stock)
	next.Stock[sku] = a.Update.Quantity

	next.History = copyMap(s.History)
	next.History[sku] = appendBounded(s.History[sku], models.NewChartPoint(a.At, a.Update.Quantity), MaxChartPoints)
	return next
}

func reducePredictionUpdated(s State, a PredictionUpdated) State {
	if a.Event.SKU == "" {
		return s
	}
	next := s
	next.Velocity = copyMap(s.Velocity)
	next.Velocity[a.Event.SKU] = a.Event.AIVelocity
	return next
}

func reduceSaleRecorded(s State, a SaleRecorded) State {
	n := len(s.Activity) + 1
	if n > MaxActivity {
		n = MaxActivity
	}
	activity := make([]models.SaleRecord, 0, n)
	activity = append(activity, a.Record)
	activity = append(activity, s.Activity[:n-1]...)

	next := s
	next.Activity = activity
	return next
}

// appendBounded returns a new slice holding points plus p, dropping the oldest
// entries beyond limit.
func appendBounded(points []models.ChartPoint, p models.ChartPoint, limit int) []models.ChartPoint {
	start := 0
	if len(points)+1 > limit {
		start = len(points) + 1 - limit
	}
	out := make([]models.ChartPoint, 0, len(points)-start+1)
	out = append(out, points[start:]...)
	return append(out, p)
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
