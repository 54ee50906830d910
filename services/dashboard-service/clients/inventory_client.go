package clients

import (
	"context"
	"time"

	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
)

// InventoryClient reads hydration state from the inventory service REST API.
type InventoryClient struct {
	rest restClient
}

// NewInventoryClient creates a new InventoryClient
func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{rest: newRESTClient("inventory service", baseURL, timeout)}
}

// ListInventory fetches GET /api/inventory.
func (c *InventoryClient) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := c.rest.getJSON(ctx, "/api/inventory", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ListSales fetches GET /api/inventory/sales.
func (c *InventoryClient) ListSales(ctx context.Context) ([]models.SaleRecord, error) {
	var sales []models.SaleRecord
	if err := c.rest.getJSON(ctx, "/api/inventory/sales", &sales); err != nil {
		return nil, err
	}
	return sales, nil
}
