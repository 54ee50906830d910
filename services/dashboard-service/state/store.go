package state

import (
	"context"
	"sync"
	"sync/atomic"
)

// ChangeFunc observes a transition. It runs on the store goroutine, after the
// new state has been published, and must not call Dispatch synchronously.
type ChangeFunc func(prev, next State, a Action)

// Store owns the dashboard state inside a single goroutine. Producers send
// actions; readers take immutable snapshots. No locks guard the projections.
type Store struct {
	actions  chan envelope
	current  atomic.Pointer[State]
	onChange ChangeFunc

	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// envelope is either an action or a flush marker.
type envelope struct {
	action Action
	flush  chan struct{}
}

// NewStore starts the store loop immediately. onChange may be nil.
func NewStore(initial State, onChange ChangeFunc) *Store {
	s := &Store{
		actions:  make(chan envelope, 256),
		onChange: onChange,
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	s.current.Store(&initial)
	go s.loop()
	return s
}

func (s *Store) loop() {
	defer close(s.stopped)
	for {
		select {
		case env := <-s.actions:
			if env.flush != nil {
				close(env.flush)
				continue
			}
			prev := *s.current.Load()
			next := Reduce(prev, env.action)
			s.current.Store(&next)
			if s.onChange != nil {
				s.onChange(prev, next, env.action)
			}
		case <-s.quit:
			return
		}
	}
}

// Dispatch enqueues a. It returns false once the store is closed; the action is discarded.
func (s *Store) Dispatch(a Action) bool {
	select {
	case <-s.quit:
		return false
	default:
	}

	select {
	case s.actions <- envelope{action: a}:
		return true
	case <-s.quit:
		return false
	}
}

// Flush blocks until every action dispatched before it has been applied.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case s.actions <- envelope{flush: done}:
	case <-s.quit:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-s.stopped:
		return ErrStoreClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest state.
func (s *Store) Snapshot() State {
	return *s.current.Load()
}

// Close stops the loop and waits for it to exit. Pending actions are dropped.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.stopped
}
