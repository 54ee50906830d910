package state_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/state"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func velocity(v float64) *float64 { return &v }

func TestReduce_HydrateThenInventoryUpdate(t *testing.T) {
	s := state.Reduce(state.Empty(), state.Hydrated{
		Items: []models.InventoryItem{{SKU: "A", Quantity: 5}},
		At:    t0,
	})
	s = state.Reduce(s, state.InventoryUpdated{Update: models.StockUpdate{SKU: "A", Quantity: 3}, At: t0.Add(time.Second)})

	stock, ok := s.StockOf("A")
	require.True(t, ok)
	assert.Equal(t, 3, stock)
	require.Len(t, s.History["A"], 2)
	assert.Equal(t, models.ChartPoint{Time: "12:00:00", Stock: 5}, s.History["A"][0])
	assert.Equal(t, models.ChartPoint{Time: "12:00:01", Stock: 3}, s.History["A"][1])
	assert.True(t, s.Hydrated)
}

func TestReduce_HydrateVelocity(t *testing.T) {
	s := state.Reduce(state.Empty(), state.Hydrated{
		Items: []models.InventoryItem{
			{SKU: "A", Quantity: 5, AIVelocity: velocity(1.5)},
			{SKU: "B", Quantity: 7, AIVelocity: velocity(0)},
			{SKU: "C", Quantity: 9},
			{SKU: "", Quantity: 1},
		},
		At: t0,
	})

	v, ok := s.VelocityOf("A")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	_, ok = s.VelocityOf("B")
	assert.False(t, ok, "zero velocity from hydration is not a prediction")
	_, ok = s.VelocityOf("C")
	assert.False(t, ok)

	assert.Equal(t, []string{"A", "B", "C"}, s.SKUs())
}

func TestReduce_LastWriteWins(t *testing.T) {
	s := state.Empty()
	for _, q := range []int{10, 4, 8} {
		s = state.Reduce(s, state.InventoryUpdated{Update: models.StockUpdate{SKU: "A", Quantity: q}, At: t0})
	}
	s = state.Reduce(s, state.PredictionUpdated{Event: models.PredictionEvent{SKU: "A", AIVelocity: 2}})
	s = state.Reduce(s, state.PredictionUpdated{Event: models.PredictionEvent{SKU: "A", AIVelocity: 0.5}})

	assert.Equal(t, 8, s.Stock["A"])
	assert.Equal(t, 0.5, s.Velocity["A"])
}

func TestReduce_ChartHistoryEvictsOldest(t *testing.T) {
	s := state.Empty()
	for i := 0; i < state.MaxChartPoints+5; i++ {
		s = state.Reduce(s, state.InventoryUpdated{
			Update: models.StockUpdate{SKU: "A", Quantity: i},
			At:     t0.Add(time.Duration(i) * time.Second),
		})
		assert.LessOrEqual(t, len(s.History["A"]), state.MaxChartPoints)
	}

	history := s.History["A"]
	require.Len(t, history, state.MaxChartPoints)
	assert.Equal(t, 5, history[0].Stock)
	assert.Equal(t, state.MaxChartPoints+4, history[len(history)-1].Stock)
}

func TestReduce_ActivityNewestFirstAndBounded(t *testing.T) {
	s := state.Empty()
	for i := 0; i < state.MaxActivity+3; i++ {
		s = state.Reduce(s, state.SaleRecorded{Record: models.SaleRecord{
			SKU:          fmt.Sprintf("S%d", i),
			QuantitySold: 1,
			Timestamp:    t0.Add(time.Duration(i) * time.Minute),
		}})
	}

	require.Len(t, s.Activity, state.MaxActivity)
	assert.Equal(t, "S12", s.Activity[0].SKU)
	assert.Equal(t, "S3", s.Activity[len(s.Activity)-1].SKU)
}

func TestReduce_SalesLoadedSortsAndCaps(t *testing.T) {
	records := make([]models.SaleRecord, 0, 12)
	for i := 0; i < 12; i++ {
		records = append(records, models.SaleRecord{SKU: fmt.Sprintf("S%d", i), Timestamp: t0.Add(time.Duration(i) * time.Minute)})
	}

	s := state.Reduce(state.Empty(), state.SalesLoaded{Records: records})

	require.Len(t, s.Activity, state.MaxActivity)
	assert.Equal(t, "S11", s.Activity[0].SKU)
	assert.Equal(t, "S2", s.Activity[state.MaxActivity-1].SKU)
	assert.Equal(t, "S0", records[0].SKU, "input slice untouched")
}

func TestReduce_DoesNotMutatePrevious(t *testing.T) {
	prev := state.Reduce(state.Empty(), state.Hydrated{Items: []models.InventoryItem{{SKU: "A", Quantity: 5}}, At: t0})
	prev = state.Reduce(prev, state.SaleRecorded{Record: models.SaleRecord{SKU: "A", QuantitySold: 1}})

	next := state.Reduce(prev, state.InventoryUpdated{Update: models.StockUpdate{SKU: "A", Quantity: 1}, At: t0})
	next = state.Reduce(next, state.PredictionUpdated{Event: models.PredictionEvent{SKU: "A", AIVelocity: 3}})
	next = state.Reduce(next, state.SaleRecorded{Record: models.SaleRecord{SKU: "B", QuantitySold: 2}})

	assert.Equal(t, 5, prev.Stock["A"])
	assert.Len(t, prev.History["A"], 1)
	_, ok := prev.VelocityOf("A")
	assert.False(t, ok)
	require.Len(t, prev.Activity, 1)
	assert.Equal(t, "A", prev.Activity[0].SKU)

	assert.Equal(t, 1, next.Stock["A"])
	assert.Len(t, next.Activity, 2)
}

func TestReduce_IgnoresEmptySKU(t *testing.T) {
	s := state.Empty()
	s = state.Reduce(s, state.InventoryUpdated{Update: models.StockUpdate{Quantity: 4}, At: t0})
	s = state.Reduce(s, state.PredictionUpdated{Event: models.PredictionEvent{AIVelocity: 4}})

	assert.Empty(t, s.Stock)
	assert.Empty(t, s.Velocity)
	assert.Empty(t, s.History)
}

func TestState_UnknownIsNotZero(t *testing.T) {
	s := state.Empty()
	_, ok := s.StockOf("A")
	assert.False(t, ok)
	_, ok = s.VelocityOf("A")
	assert.False(t, ok)
}
