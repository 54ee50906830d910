package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/segmentio/kafka-go"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"go.uber.org/zap"
)

const (
	// TopicPredictions carries {sku, ai_velocity} forecasts.
	TopicPredictions = "smart-ai-predictions"
	// TopicOrders carries {sku, quantity} for every placed order.
	TopicOrders = "order-events"
)

var validate = validator.New()

// Handlers receive decoded broker events.
type Handlers struct {
	OnPrediction func(models.PredictionEvent)
	OnOrder      func(models.OrderEvent, time.Time)
}

// Feed reads prediction and order events straight from Kafka.
type Feed struct {
	predictions *kafka.Reader
	orders      *kafka.Reader
	log         *zap.Logger

	wg        sync.WaitGroup
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewFeed creates readers for both topics in the given consumer group.
func NewFeed(brokers []string, groupID string, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	newReader := func(topic string) *kafka.Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			MinBytes:    1,
			MaxBytes:    1e6, // 1MB
			MaxWait:     500 * time.Millisecond,
			StartOffset: kafka.LastOffset,
		})
	}
	return &Feed{
		predictions: newReader(TopicPredictions),
		orders:      newReader(TopicOrders),
		log:         log,
	}
}

// Start consumes both topics until ctx ends or Close is called.
func (f *Feed) Start(ctx context.Context, h Handlers) {
	ctx, f.cancel = context.WithCancel(ctx)

	f.wg.Add(2)
	go f.consume(ctx, f.predictions, func(m kafka.Message) error {
		e, err := DecodePrediction(m.Value)
		if err != nil {
			return err
		}
		if h.OnPrediction != nil {
			h.OnPrediction(e)
		}
		return nil
	})
	go f.consume(ctx, f.orders, func(m kafka.Message) error {
		e, err := DecodeOrder(m.Value)
		if err != nil {
			return err
		}
		if h.OnOrder != nil {
			h.OnOrder(e, m.Time)
		}
		return nil
	})

	f.log.Info("Kafka feed started", zap.Strings("topics", []string{TopicPredictions, TopicOrders}))
}

func (f *Feed) consume(ctx context.Context, r *kafka.Reader, handle func(kafka.Message) error) {
	defer f.wg.Done()
	topic := r.Config().Topic
	for {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				f.log.Error("Failed to read Kafka message", zap.String("topic", topic), zap.Error(err))
			}
			return
		}
		if err := handle(m); err != nil {
			f.log.Warn("Ignored unparseable Kafka message", zap.String("topic", topic), zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

// Close stops consumption and closes both readers.
func (f *Feed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		if f.cancel != nil {
			f.cancel()
		}
		f.wg.Wait()
		err = errors.Join(f.predictions.Close(), f.orders.Close())
	})
	return err
}

// DecodePrediction parses a smart-ai-predictions payload.
func DecodePrediction(value []byte) (models.PredictionEvent, error) {
	var e models.PredictionEvent
	if err := json.Unmarshal(value, &e); err != nil {
		return e, fmt.Errorf("invalid prediction event: %w", err)
	}
	if err := validate.Struct(e); err != nil {
		return e, fmt.Errorf("invalid prediction event: %w", err)
	}
	return e, nil
}

// DecodeOrder parses an order-events payload.
func DecodeOrder(value []byte) (models.OrderEvent, error) {
	var e models.OrderEvent
	if err := json.Unmarshal(value, &e); err != nil {
		return e, fmt.Errorf("invalid order event: %w", err)
	}
	if err := validate.Struct(e); err != nil {
		return e, fmt.Errorf("invalid order event: %w", err)
	}
	return e, nil
}
