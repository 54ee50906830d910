package services

import (
	"context"
	"time"

	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/kafka"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/stream"
)

// InventoryReader is the hydration side of the inventory service.
type InventoryReader interface {
	ListInventory(ctx context.Context) ([]models.InventoryItem, error)
	ListSales(ctx context.Context) ([]models.SaleRecord, error)
}

// OrderPlacer places orders with the order service.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, sku string, quantity int) error
}

// Subscription is a live stream session.
type Subscription interface {
	Close()
	Done() <-chan struct{}
}

// StreamSubscriber opens stream sessions.
type StreamSubscriber interface {
	Subscribe(ctx context.Context, h stream.Handlers) (Subscription, error)
}

// EventFeed is an optional additional event source.
type EventFeed interface {
	Start(ctx context.Context, h kafka.Handlers)
	Close() error
}

// MetricsRecorder is the subset of the CloudWatch metrics client the services use.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
	RecordLatency(ctx context.Context, metricName string, duration time.Duration, dimensions map[string]string) error
	IsEnabled() bool
}

// STOMPSubscriber adapts a *stream.Subscriber to StreamSubscriber.
func STOMPSubscriber(s *stream.Subscriber) StreamSubscriber {
	return stompSubscriber{s}
}

type stompSubscriber struct {
	s *stream.Subscriber
}

func (a stompSubscriber) Subscribe(ctx context.Context, h stream.Handlers) (Subscription, error) {
	sub, err := a.s.Subscribe(ctx, h)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// recordAsync ships a metric without blocking the caller.
func recordAsync(m MetricsRecorder, fn func(ctx context.Context, m MetricsRecorder)) {
	if m == nil || !m.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		fn(ctx, m)
	}()
}
