package services

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	apperrors "github.com/yashrajoria/inventory-dashboard/services/common/errors"
	"github.com/yashrajoria/inventory-dashboard/services/common/logger"
	awspkg "github.com/yashrajoria/inventory-dashboard/pkg/aws"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/render"
	"go.uber.org/zap"
)

var validate = validator.New()

// StorefrontOptions wires the optional collaborators of StorefrontService.
type StorefrontOptions struct {
	Guard        OrderGuard
	Metrics      MetricsRecorder
	OrderTimeout time.Duration
}

// StorefrontService reads stock once and places orders in the background.
// Its stock view is never refreshed or decremented after the first read.
type StorefrontService struct {
	inventory InventoryReader
	orders    OrderPlacer
	opts      StorefrontOptions

	mu      sync.RWMutex
	mounted bool
	items   []models.InventoryItem

	wg sync.WaitGroup
}

func NewStorefrontService(inventory InventoryReader, orders OrderPlacer, opts StorefrontOptions) *StorefrontService {
	if opts.Guard == nil {
		opts.Guard = AllowAll{}
	}
	if opts.OrderTimeout <= 0 {
		opts.OrderTimeout = 10 * time.Second
	}
	return &StorefrontService{
		inventory: inventory,
		orders:    orders,
		opts:      opts,
	}
}

// Mount performs the one-time stock read. Later calls are no-ops once a read
// has succeeded. A failed read leaves the view empty and is returned.
func (s *StorefrontService) Mount(ctx context.Context) error {
	s.mu.RLock()
	mounted := s.mounted
	s.mu.RUnlock()
	if mounted {
		return nil
	}

	items, err := s.inventory.ListInventory(ctx)
	if err != nil {
		logger.Error(ctx, "Error fetching storefront stock", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		s.items = items
		s.mounted = true
	}
	return nil
}

// View returns the storefront view model.
func (s *StorefrontService) View() render.Storefront {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return render.StorefrontView(s.items)
}

// Buy validates req and issues the order in the background. The returned
// error covers validation and duplicate suppression only; the order outcome
// is logged.
func (s *StorefrontService) Buy(ctx context.Context, req models.BuyRequest) error {
	if err := validate.Struct(req); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, err)
	}

	allowed, err := s.opts.Guard.Allow(ctx, req.SKU, req.Quantity)
	if err != nil {
		logger.Warn(ctx, "Order guard unavailable, allowing buy", zap.Error(err))
		allowed = true
	}
	if !allowed {
		return apperrors.ErrDuplicateOrder
	}

	orderCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.place(orderCtx, req)
	}()
	return nil
}

func (s *StorefrontService) place(ctx context.Context, req models.BuyRequest) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.OrderTimeout)
	defer cancel()

	if err := s.orders.PlaceOrder(ctx, req.SKU, req.Quantity); err != nil {
		logger.Error(ctx, "Order placement failed", err,
			zap.String("sku", req.SKU),
			zap.Int("quantity", req.Quantity),
		)
		recordAsync(s.opts.Metrics, func(ctx context.Context, m MetricsRecorder) {
			_ = m.RecordCount(ctx, awspkg.MetricOrdersFailed, map[string]string{"SKU": req.SKU})
		})
		return
	}

	logger.Info(ctx, "Order placed",
		zap.String("sku", req.SKU),
		zap.Int("quantity", req.Quantity),
	)
	recordAsync(s.opts.Metrics, func(ctx context.Context, m MetricsRecorder) {
		_ = m.RecordCount(ctx, awspkg.MetricOrdersPlaced, map[string]string{"SKU": req.SKU})
	})
}

// Close waits for in-flight orders.
func (s *StorefrontService) Close() {
	s.wg.Wait()
}
