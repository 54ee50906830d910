package clients

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/yashrajoria/inventory-dashboard/services/common/logger"
	"go.uber.org/zap"
)

// OrderClient places orders against the order service.
type OrderClient struct {
	rest restClient
}

// NewOrderClient creates a new OrderClient
func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{rest: newRESTClient("order service", baseURL, timeout)}
}

// PlaceOrder issues POST /api/orders/place?sku=&quantity=. The response body
// carries no contract and is discarded; only transport and status failures are reported.
func (c *OrderClient) PlaceOrder(ctx context.Context, sku string, quantity int) error {
	query := url.Values{}
	query.Set("sku", sku)
	query.Set("quantity", strconv.Itoa(quantity))

	requestID := logger.RequestID(ctx)
	if requestID == "unknown" {
		requestID = uuid.NewString()
	}
	headers := http.Header{}
	headers.Set("X-Request-ID", requestID)

	logger.Debug(ctx, "Placing order", zap.String("sku", sku), zap.Int("quantity", quantity))
	resp, err := c.rest.do(ctx, http.MethodPost, "/api/orders/place", query, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.rest.checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
