package services_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/kafka"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/services"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/stream"
)

// ---- inventory reader ----

type fakeInventory struct {
	items    []models.InventoryItem
	itemsErr error
	sales    []models.SaleRecord
	salesErr error

	mu    sync.Mutex
	calls int
}

func (f *fakeInventory) ListInventory(context.Context) ([]models.InventoryItem, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.items, f.itemsErr
}

func (f *fakeInventory) ListSales(context.Context) ([]models.SaleRecord, error) {
	return f.sales, f.salesErr
}

func (f *fakeInventory) inventoryCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ---- stream ----

type fakeSubscription struct {
	once   sync.Once
	done   chan struct{}
	closed int
	mu     sync.Mutex
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{done: make(chan struct{})}
}

func (s *fakeSubscription) Close() {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	s.once.Do(func() { close(s.done) })
}

func (s *fakeSubscription) Done() <-chan struct{} { return s.done }

func (s *fakeSubscription) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

type fakeSubscriber struct {
	sub *fakeSubscription
	err error

	mu       sync.Mutex
	handlers stream.Handlers
}

func (f *fakeSubscriber) Subscribe(_ context.Context, h stream.Handlers) (services.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	f.handlers = h
	f.mu.Unlock()
	return f.sub, nil
}

func (f *fakeSubscriber) inventory(u models.StockUpdate) {
	f.mu.Lock()
	h := f.handlers
	f.mu.Unlock()
	h.OnInventory(u)
}

func (f *fakeSubscriber) prediction(e models.PredictionEvent) {
	f.mu.Lock()
	h := f.handlers
	f.mu.Unlock()
	h.OnPrediction(e)
}

// ---- kafka feed ----

type fakeFeed struct {
	handlers kafka.Handlers
	started  bool
	closed   bool
}

func (f *fakeFeed) Start(_ context.Context, h kafka.Handlers) {
	f.handlers = h
	f.started = true
}

func (f *fakeFeed) Close() error {
	f.closed = true
	return nil
}

// ---- order placer ----

type fakeOrders struct {
	mu     sync.Mutex
	placed []models.BuyRequest
	err    error
	// release, when set, holds every order until it is closed.
	release chan struct{}
}

func (f *fakeOrders) PlaceOrder(ctx context.Context, sku string, quantity int) error {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.placed = append(f.placed, models.BuyRequest{SKU: sku, Quantity: quantity})
	return f.err
}

func (f *fakeOrders) orders() []models.BuyRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.BuyRequest(nil), f.placed...)
}

// ---- sns ----

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
	topics   []string
}

func (p *fakePublisher) Publish(_ context.Context, topicArn string, message []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topicArn)
	p.messages = append(p.messages, message)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

// ---- order guard ----

type seenGuard struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (g *seenGuard) Allow(_ context.Context, sku string, quantity int) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = map[string]bool{}
	}
	key := fmt.Sprintf("%s:%d", sku, quantity)
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}
