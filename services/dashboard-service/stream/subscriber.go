// Package stream subscribes to the inventory service's STOMP topics and turns
// broker frames into typed events.
package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-stomp/stomp/v3"
	apperrors "github.com/yashrajoria/inventory-dashboard/services/common/errors"
	"github.com/yashrajoria/inventory-dashboard/services/dashboard-service/models"
	"go.uber.org/zap"
)

const (
	// TopicInventory carries a full inventory entity after every stock change.
	TopicInventory = "/topic/inventory"
	// TopicPredictions carries {sku, ai_velocity} depletion forecasts.
	TopicPredictions = "/topic/ai-predictions"

	defaultDisconnectTimeout = 3 * time.Second
)

var validate = validator.New()

// Handlers receive decoded messages. They are called from the subscription's
// pump goroutines and must not block for long.
type Handlers struct {
	OnInventory  func(models.StockUpdate)
	OnPrediction func(models.PredictionEvent)
	// OnDecodeError is optional; it sees frames that could not be decoded.
	OnDecodeError func(destination string, err error)
}

// Config holds STOMP session options.
type Config struct {
	Login     string
	Passcode  string
	Host      string
	HeartBeat time.Duration
	// DisconnectTimeout bounds the wait for the broker's DISCONNECT receipt.
	// Zero means 3s.
	DisconnectTimeout time.Duration
}

// Subscriber opens subscriptions to the inventory and prediction topics.
type Subscriber struct {
	dialer Dialer
	cfg    Config
	log    *zap.Logger
}

// NewSubscriber creates a Subscriber
func NewSubscriber(dialer Dialer, cfg Config, log *zap.Logger) *Subscriber {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.DisconnectTimeout <= 0 {
		cfg.DisconnectTimeout = defaultDisconnectTimeout
	}
	return &Subscriber{dialer: dialer, cfg: cfg, log: log}
}

// Subscribe connects, subscribes to both topics and starts dispatching to h.
// The returned Subscription must be closed; it is also closed when ctx ends.
func (s *Subscriber) Subscribe(ctx context.Context, h Handlers) (*Subscription, error) {
	raw, err := s.dialer.Dial(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStreamConnect, err)
	}

	conn, err := s.connect(ctx, raw)
	if err != nil {
		_ = raw.Close()
		return nil, apperrors.Wrap(apperrors.ErrStreamConnect, err)
	}

	sub := &Subscription{
		conn:              conn,
		raw:               raw,
		log:               s.log,
		disconnectTimeout: s.cfg.DisconnectTimeout,
		done:              make(chan struct{}),
	}

	routes := []struct {
		topic  string
		decode func([]byte) error
	}{
		{TopicInventory, func(body []byte) error {
			var u models.StockUpdate
			if err := decode(body, &u); err != nil {
				return err
			}
			if h.OnInventory != nil {
				h.OnInventory(u)
			}
			return nil
		}},
		{TopicPredictions, func(body []byte) error {
			var e models.PredictionEvent
			if err := decode(body, &e); err != nil {
				return err
			}
			if h.OnPrediction != nil {
				h.OnPrediction(e)
			}
			return nil
		}},
	}

	for _, r := range routes {
		ss, err := conn.Subscribe(r.topic, stomp.AckAuto)
		if err != nil {
			sub.Close()
			return nil, apperrors.Wrap(apperrors.ErrStreamSubscribe, fmt.Errorf("%s: %w", r.topic, err))
		}

		sub.wg.Add(1)
		go sub.pump(ss, r.topic, r.decode, h.OnDecodeError)
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	s.log.Info("Subscribed to inventory stream", zap.Strings("topics", []string{TopicInventory, TopicPredictions}))
	return sub, nil
}

// connect runs the STOMP handshake, abandoning it when ctx ends.
func (s *Subscriber) connect(ctx context.Context, raw io.ReadWriteCloser) (*stomp.Conn, error) {
	opts := []func(*stomp.Conn) error{
		stomp.ConnOpt.HeartBeat(s.cfg.HeartBeat, s.cfg.HeartBeat),
	}
	if s.cfg.Login != "" {
		opts = append(opts, stomp.ConnOpt.Login(s.cfg.Login, s.cfg.Passcode))
	}
	if s.cfg.Host != "" {
		opts = append(opts, stomp.ConnOpt.Host(s.cfg.Host))
	}

	type result struct {
		conn *stomp.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := stomp.Connect(raw, opts...)
		ch <- result{conn, err}
	}()

	select {
	case r := <-ch:
		return r.conn, r.err
	case <-ctx.Done():
		// Closing the transport unblocks the handshake goroutine.
		_ = raw.Close()
		return nil, ctx.Err()
	}
}

func decode(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return validate.Struct(out)
}

// Subscription is a live STOMP session. Close releases it exactly once.
type Subscription struct {
	conn              *stomp.Conn
	raw               io.ReadWriteCloser
	log               *zap.Logger
	disconnectTimeout time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
	closing   atomic.Bool
	done      chan struct{}

	mu  sync.Mutex
	err error
}

func (s *Subscription) pump(ss *stomp.Subscription, topic string, handle func([]byte) error, onDecodeError func(string, error)) {
	defer s.wg.Done()
	for msg := range ss.C {
		if msg.Err != nil {
			if s.closing.Load() {
				return
			}
			s.setErr(msg.Err)
			s.log.Warn("Stream subscription ended", zap.String("topic", topic), zap.Error(msg.Err))
			go s.Close()
			return
		}
		if err := handle(msg.Body); err != nil {
			s.log.Warn("Ignored undecodable stream message", zap.String("topic", topic), zap.Error(err))
			if onDecodeError != nil {
				onDecodeError(topic, err)
			}
		}
	}
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Err returns the error that ended the subscription, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the subscription has been released.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close sends DISCONNECT, closes the transport and waits for the pump
// goroutines. DISCONNECT drops every subscription of the session on the broker,
// so no per-subscription UNSUBSCRIBE is sent. Close returns within the
// configured disconnect timeout even when the broker never answers. Safe to
// call more than once and from any goroutine other than a handler.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.closing.Store(true)

		// A broken session gets no DISCONNECT; the transport is just closed.
		if s.Err() == nil {
			disconnected := make(chan struct{})
			go func() {
				_ = s.conn.Disconnect()
				close(disconnected)
			}()
			timer := time.NewTimer(s.disconnectTimeout)
			select {
			case <-disconnected:
			case <-timer.C:
				s.log.Warn("STOMP disconnect timed out; closing transport")
			}
			timer.Stop()
		}
		_ = s.raw.Close()

		s.wg.Wait()
		close(s.done)
		s.log.Info("Stream subscription released")
	})
}
