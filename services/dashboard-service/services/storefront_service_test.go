package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yashrajoria/inventory-dashboard/services/common/errors"
	"github.com/yashrajoria/inventory-dashboard/services/common/logger"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStorefront_MountReadsOnce(t *testing.T) {
	inv := &fakeInventory{items: []models.InventoryItem{{SKU: "A", Quantity: 5}}}
	sf := services.NewStorefrontService(inv, &fakeOrders{}, services.StorefrontOptions{})

	require.NoError(t, sf.Mount(context.Background()))
	inv.items = []models.InventoryItem{{SKU: "A", Quantity: 1}}
	require.NoError(t, sf.Mount(context.Background()))

	assert.Equal(t, 1, inv.inventoryCalls())
	view := sf.View()
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Stock)
}

func TestStorefront_MountFailureShowsLoading(t *testing.T) {
	inv := &fakeInventory{itemsErr: errors.New("down")}
	sf := services.NewStorefrontService(inv, &fakeOrders{}, services.StorefrontOptions{})

	assert.Error(t, sf.Mount(context.Background()))
	assert.True(t, sf.View().Loading)

	inv.itemsErr = nil
	inv.items = []models.InventoryItem{{SKU: "A", Quantity: 5}}
	require.NoError(t, sf.Mount(context.Background()))
	assert.False(t, sf.View().Loading)
}

func TestStorefront_BuyIsFireAndForget(t *testing.T) {
	orders := &fakeOrders{release: make(chan struct{})}
	inv := &fakeInventory{items: []models.InventoryItem{{SKU: "A", Quantity: 5}}}
	sf := services.NewStorefrontService(inv, orders, services.StorefrontOptions{})
	require.NoError(t, sf.Mount(context.Background()))

	// Buy returns while the order is still held.
	require.NoError(t, sf.Buy(context.Background(), models.BuyRequest{SKU: "A", Quantity: 2}))
	assert.Empty(t, orders.orders())

	close(orders.release)
	sf.Close()
	assert.Equal(t, []models.BuyRequest{{SKU: "A", Quantity: 2}}, orders.orders())
	assert.Equal(t, 5, sf.View().Items[0].Stock, "storefront stock is never decremented")
}

func TestStorefront_BuySurvivesCancelledRequest(t *testing.T) {
	orders := &fakeOrders{release: make(chan struct{})}
	sf := services.NewStorefrontService(&fakeInventory{}, orders, services.StorefrontOptions{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, sf.Buy(ctx, models.BuyRequest{SKU: "A", Quantity: 1}))
	cancel()

	close(orders.release)
	sf.Close()
	assert.Len(t, orders.orders(), 1)
}

func TestStorefront_BuyFailureIsSwallowed(t *testing.T) {
	orders := &fakeOrders{err: errors.New("insufficient stock")}
	sf := services.NewStorefrontService(&fakeInventory{}, orders, services.StorefrontOptions{})

	assert.NoError(t, sf.Buy(context.Background(), models.BuyRequest{SKU: "A", Quantity: 1}))
	sf.Close()
	assert.Len(t, orders.orders(), 1)
}

func TestStorefront_BuyFailureLoggedWithRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })

	orders := &fakeOrders{err: errors.New("insufficient stock")}
	sf := services.NewStorefrontService(&fakeInventory{}, orders, services.StorefrontOptions{})

	ctx := logger.WithRequestID(context.Background(), "req-42")
	require.NoError(t, sf.Buy(ctx, models.BuyRequest{SKU: "A", Quantity: 1}))
	sf.Close()

	failed := logs.FilterMessage("Order placement failed").All()
	require.Len(t, failed, 1)
	fields := failed[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "A", fields["sku"])
	assert.Equal(t, "insufficient stock", fields["error"])
}

func TestStorefront_BuyValidation(t *testing.T) {
	orders := &fakeOrders{}
	sf := services.NewStorefrontService(&fakeInventory{}, orders, services.StorefrontOptions{})

	for _, req := range []models.BuyRequest{
		{SKU: "", Quantity: 1},
		{SKU: "A", Quantity: 0},
		{SKU: "A", Quantity: -3},
	} {
		err := sf.Buy(context.Background(), req)
		assert.ErrorIs(t, err, apperrors.ErrValidation, "%+v", req)
	}
	sf.Close()
	assert.Empty(t, orders.orders())
}

func TestStorefront_DuplicateBuySuppressed(t *testing.T) {
	orders := &fakeOrders{}
	sf := services.NewStorefrontService(&fakeInventory{}, orders, services.StorefrontOptions{Guard: &seenGuard{}})

	require.NoError(t, sf.Buy(context.Background(), models.BuyRequest{SKU: "A", Quantity: 1}))
	assert.ErrorIs(t, sf.Buy(context.Background(), models.BuyRequest{SKU: "A", Quantity: 1}), apperrors.ErrDuplicateOrder)
	require.NoError(t, sf.Buy(context.Background(), models.BuyRequest{SKU: "A", Quantity: 2}))

	sf.Close()
	assert.Len(t, orders.orders(), 2)
}
