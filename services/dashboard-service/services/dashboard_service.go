package services

import (
	"context"
	"errors"
	"sync"
	"time"

	awspkg "github.com/yashrajoria/inventory-dashboard/pkg/aws"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/kafka"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/render"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/state"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/stream"
	"go.uber.org/zap"
)

var errAlreadyStarted = errors.New("dashboard already started")

// DashboardOptions wires the optional collaborators of DashboardService.
type DashboardOptions struct {
	Feed             EventFeed
	Alerter          *DepletionAlerter
	Metrics          MetricsRecorder
	HydrationTimeout time.Duration
	Now              func() time.Time
}

// DashboardService hydrates the projections, keeps them live from the stream
// and releases every resource it acquired on Close.
type DashboardService struct {
	inventory  InventoryReader
	subscriber StreamSubscriber
	opts       DashboardOptions
	log        *zap.Logger

	store *state.Store

	mu      sync.Mutex
	started bool
	sub     Subscription
	cancel  context.CancelFunc
}

// NewDashboardService creates a DashboardService. The store starts empty and
// serves the loading state until hydration lands.
func NewDashboardService(inventory InventoryReader, subscriber StreamSubscriber, opts DashboardOptions, log *zap.Logger) *DashboardService {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.HydrationTimeout <= 0 {
		opts.HydrationTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := &DashboardService{
		inventory:  inventory,
		subscriber: subscriber,
		opts:       opts,
		log:        log,
	}
	d.store = state.NewStore(state.Empty(), d.onChange)
	return d
}

// Start hydrates from the REST API and then subscribes to the stream.
// Hydration and subscription failures are logged, never returned: the dashboard
// keeps serving whatever it has. Start returns an error only when called twice.
func (d *DashboardService) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return errAlreadyStarted
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	d.hydrate(ctx)

	sub, err := d.subscriber.Subscribe(ctx, stream.Handlers{
		OnInventory:   d.applyInventory,
		OnPrediction:  d.applyPrediction,
		OnDecodeError: d.recordDecodeError,
	})
	if err != nil {
		d.log.Error("Error subscribing to inventory stream", zap.Error(err))
	} else {
		d.mu.Lock()
		d.sub = sub
		d.mu.Unlock()
	}

	if d.opts.Feed != nil {
		d.opts.Feed.Start(ctx, kafka.Handlers{
			OnPrediction: d.applyPrediction,
			OnOrder:      d.applyOrder,
		})
	}
	return nil
}

// hydrate performs the one-shot inventory and sales reads.
func (d *DashboardService) hydrate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.HydrationTimeout)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		start := time.Now()
		items, err := d.inventory.ListInventory(ctx)
		if err != nil {
			d.log.Error("Error fetching inventory history", zap.Error(err))
			recordAsync(d.opts.Metrics, func(ctx context.Context, m MetricsRecorder) {
				_ = m.RecordCount(ctx, awspkg.MetricHydrationFailed, map[string]string{"Resource": "inventory"})
			})
			return
		}
		if !d.store.Dispatch(state.Hydrated{Items: items, At: d.opts.Now()}) {
			return
		}
		d.log.Info("Inventory history loaded", zap.Int("items", len(items)))
		elapsed := time.Since(start)
		recordAsync(d.opts.Metrics, func(ctx context.Context, m MetricsRecorder) {
			_ = m.RecordLatency(ctx, awspkg.MetricHydrationLatency, elapsed, map[string]string{"Resource": "inventory"})
		})
	}()

	go func() {
		defer wg.Done()
		sales, err := d.inventory.ListSales(ctx)
		if err != nil {
			d.log.Error("Error fetching sales history", zap.Error(err))
			recordAsync(d.opts.Metrics, func(ctx context.Context, m MetricsRecorder) {
				_ = m.RecordCount(ctx, awspkg.MetricHydrationFailed, map[string]string{"Resource": "sales"})
			})
			return
		}
		d.store.Dispatch(state.SalesLoaded{Records: sales})
	}()

	wg.Wait()
}

func (d *DashboardService) applyInventory(u models.StockUpdate) {
	d.store.Dispatch(state.InventoryUpdated{Update: u, At: d.opts.Now()})
}

func (d *DashboardService) applyPrediction(e models.PredictionEvent) {
	d.store.Dispatch(state.PredictionUpdated{Event: e})
}

func (d *DashboardService) applyOrder(e models.OrderEvent, at time.Time) {
	if at.IsZero() {
		at = d.opts.Now()
	}
	d.store.Dispatch(state.SaleRecorded{Record: models.SaleRecord{SKU: e.SKU, QuantitySold: e.Quantity, Timestamp: at}})
}

func (d *DashboardService) recordDecodeError(topic string, _ error) {
	recordAsync(d.opts.Metrics, func(ctx context.Context, m MetricsRecorder) {
		_ = m.RecordCount(ctx, awspkg.MetricStreamDecodeError, map[string]string{"Topic": topic})
	})
}

// onChange runs on the store goroutine after every applied action.
func (d *DashboardService) onChange(prev, next state.State, a state.Action) {
	var sku, kind string
	switch a := a.(type) {
	case state.InventoryUpdated:
		sku, kind = a.Update.SKU, "inventory"
	case state.PredictionUpdated:
		sku, kind = a.Event.SKU, "prediction"
	case state.SaleRecorded:
		kind = "sale"
	case state.Hydrated:
		if d.opts.Alerter != nil {
			for _, s := range next.SKUs() {
				d.opts.Alerter.Observe(next, s)
			}
		}
		return
	default:
		return
	}

	recordAsync(d.opts.Metrics, func(ctx context.Context, m MetricsRecorder) {
		_ = m.RecordCount(ctx, awspkg.MetricStreamMessages, map[string]string{"Kind": kind})
	})

	if sku != "" && d.opts.Alerter != nil {
		d.opts.Alerter.Observe(next, sku)
	}
}

// Snapshot returns the current projections.
func (d *DashboardService) Snapshot() state.State {
	return d.store.Snapshot()
}

// View returns the admin view model.
func (d *DashboardService) View() render.Dashboard {
	return render.DashboardView(d.store.Snapshot())
}

// Flush waits until every event received so far has been applied.
func (d *DashboardService) Flush(ctx context.Context) error {
	return d.store.Flush(ctx)
}

// StreamDone is closed when the stream subscription ends. It is nil when no
// subscription is active.
func (d *DashboardService) StreamDone() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sub == nil {
		return nil
	}
	return d.sub.Done()
}

// Close releases the subscription, the feed and the store, in that order.
// Events still in flight are discarded.
func (d *DashboardService) Close() {
	d.mu.Lock()
	sub := d.sub
	d.sub = nil
	cancel := d.cancel
	d.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if d.opts.Feed != nil {
		if err := d.opts.Feed.Close(); err != nil {
			d.log.Warn("Error closing Kafka feed", zap.Error(err))
		}
	}
	if cancel != nil {
		cancel()
	}
	d.store.Close()
	if d.opts.Alerter != nil {
		d.opts.Alerter.Wait()
	}
}
