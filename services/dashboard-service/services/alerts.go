package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	awspkg "github.com/yashrajoria/inventory-dashboard/pkg/aws"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/render"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/state"
	"go.uber.org/zap"
)

// DepletionAlert is the message published when a sku becomes critical.
type DepletionAlert struct {
	SKU           string    `json:"sku"`
	Quantity      int       `json:"quantity"`
	AIVelocity    float64   `json:"ai_velocity"`
	MinutesToZero float64   `json:"minutes_to_zero"`
	DetectedAt    time.Time `json:"detected_at"`
}

// DepletionAlerter publishes one alert each time a sku enters the critical
// depletion condition.
type DepletionAlerter struct {
	publisher awspkg.SNSPublisher
	topicArn  string
	metrics   MetricsRecorder
	log       *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	critical map[string]bool
	wg       sync.WaitGroup
}

func NewDepletionAlerter(publisher awspkg.SNSPublisher, topicArn string, metrics MetricsRecorder, log *zap.Logger) *DepletionAlerter {
	if log == nil {
		log = zap.NewNop()
	}
	return &DepletionAlerter{
		publisher: publisher,
		topicArn:  topicArn,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
		critical:  map[string]bool{},
	}
}

// Observe checks sku against s and publishes when it has just become critical.
// It reports whether an alert was sent.
func (a *DepletionAlerter) Observe(s state.State, sku string) bool {
	d, ok := render.DepletionOf(s, sku)
	isCritical := ok && d.Critical

	a.mu.Lock()
	was := a.critical[sku]
	if isCritical {
		a.critical[sku] = true
	} else {
		delete(a.critical, sku)
	}
	a.mu.Unlock()

	if !isCritical || was {
		return false
	}

	alert := DepletionAlert{
		SKU:           sku,
		Quantity:      s.Stock[sku],
		AIVelocity:    s.Velocity[sku],
		MinutesToZero: d.Minutes,
		DetectedAt:    a.now().UTC(),
	}
	a.log.Warn("Critical depletion predicted",
		zap.String("sku", sku),
		zap.Int("quantity", alert.Quantity),
		zap.Float64("minutes_to_zero", alert.MinutesToZero),
	)

	if a.publisher == nil || a.topicArn == "" {
		return true
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.publish(alert)
	}()
	return true
}

func (a *DepletionAlerter) publish(alert DepletionAlert) {
	body, err := json.Marshal(alert)
	if err != nil {
		a.log.Error("Failed to marshal depletion alert", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.publisher.Publish(ctx, a.topicArn, body); err != nil {
		a.log.Error("Failed to publish depletion alert", zap.String("sku", alert.SKU), zap.Error(err))
		return
	}
	recordAsync(a.metrics, func(ctx context.Context, m MetricsRecorder) {
		_ = m.RecordCount(ctx, awspkg.MetricDepletionAlerts, map[string]string{"SKU": alert.SKU})
	})
}

// Wait blocks until every pending publish has finished.
func (a *DepletionAlerter) Wait() {
	a.wg.Wait()
}
