package memory

import (
	"context"
	"sync"

	"github.com/louisbranch/diagramharness/internal/diagram/event"
)

// Subscription delivers refresh events from its own goroutine. Publishing
// never blocks the service: events queue until the subscriber reads them.
type Subscription struct {
	ctx     context.Context
	cancel  context.CancelFunc
	out     chan event.Refreshed
	notify  chan struct{}
	onClose func(*Subscription)

	mu     sync.Mutex
	queue  []event.Refreshed
	closed bool
	err    error

	closeOnce sync.Once
	done      chan struct{}
}

func newSubscription(parent context.Context, onClose func(*Subscription)) *Subscription {
	ctx, cancel := context.WithCancel(parent)
	sub := &Subscription{
		ctx:     ctx,
		cancel:  cancel,
		out:     make(chan event.Refreshed),
		notify:  make(chan struct{}, 1),
		onClose: onClose,
		done:    make(chan struct{}),
	}
	go sub.pump()
	return sub
}

// Events returns the delivery channel, closed when the subscription ends.
func (s *Subscription) Events() <-chan event.Refreshed {
	return s.out
}

// Err reports the context error that ended the subscription, or nil after
// Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the subscription and waits for the delivery goroutine.
func (s *Subscription) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		s.cancel()
	})
	<-s.done
	return nil
}

func (s *Subscription) enqueue(evt event.Refreshed) {
	s.mu.Lock()
	s.queue = append(s.queue, evt)
	s.mu.Unlock()
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) pump() {
	defer func() {
		if s.onClose != nil {
			s.onClose(s)
		}
		close(s.out)
		close(s.done)
	}()

	for {
		s.mu.Lock()
		var next *event.Refreshed
		if len(s.queue) > 0 {
			evt := s.queue[0]
			s.queue = s.queue[1:]
			next = &evt
		}
		s.mu.Unlock()

		if next == nil {
			select {
			case <-s.ctx.Done():
				s.finish()
				return
			case <-s.notify:
				continue
			}
		}

		select {
		case <-s.ctx.Done():
			s.finish()
			return
		case s.out <- *next:
		}
	}
}

func (s *Subscription) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.err = s.ctx.Err()
	}
}
