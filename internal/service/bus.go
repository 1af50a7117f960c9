package service

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/Harshitk-cp/strainfeed/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultFeedBuffer        = 16
	defaultHeartbeatInterval = 5 * time.Second
)

// UpdateBus fans every published batch out to all registered subscriptions.
// Publish never blocks: a subscription whose buffer is full is dropped.
type UpdateBus struct {
	logger  *zap.Logger
	metrics *metrics.Collector

	mu         sync.Mutex
	subs       map[*Subscription]struct{}
	bufferSize int
	heartbeat  time.Duration
	now        func() time.Time
}

func NewUpdateBus(logger *zap.Logger) *UpdateBus {
	return &UpdateBus{
		logger:     logger,
		subs:       make(map[*Subscription]struct{}),
		bufferSize: defaultFeedBuffer,
		heartbeat:  defaultHeartbeatInterval,
		now:        time.Now,
	}
}

// SetBufferSize changes the per-subscriber buffer for future subscriptions.
func (b *UpdateBus) SetBufferSize(n int) {
	if n > 0 {
		b.bufferSize = n
	}
}

func (b *UpdateBus) SetHeartbeatInterval(d time.Duration) {
	if d > 0 {
		b.heartbeat = d
	}
}

func (b *UpdateBus) SetMetrics(m *metrics.Collector) {
	b.metrics = m
}

// Subscribe registers a new subscription. It only sees batches published
// after this call returns.
func (b *UpdateBus) Subscribe() *Subscription {
	sub := &Subscription{
		id:        uuid.NewString(),
		ch:        make(chan domain.Batch, b.bufferSize),
		bus:       b,
		heartbeat: b.heartbeat,
		now:       b.now,
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	n := len(b.subs)
	b.mu.Unlock()

	b.metrics.SetSubscribers(n)
	b.logger.Debug("feed subscriber registered", zap.String("subscriber_id", sub.id), zap.Int("subscribers", n))
	return sub
}

// Unsubscribe stops delivery to sub. Calling it more than once is harmless.
func (b *UpdateBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	removed := b.remove(sub, ErrSubscriptionClosed)
	n := len(b.subs)
	b.mu.Unlock()

	if removed {
		b.metrics.SetSubscribers(n)
		b.logger.Debug("feed subscriber removed", zap.String("subscriber_id", sub.id), zap.Int("subscribers", n))
	}
}

// Publish delivers batch to every current subscription in publish order.
// With no subscribers the batch is discarded.
func (b *UpdateBus) Publish(batch domain.Batch) {
	var dropped []*Subscription

	b.mu.Lock()
	for sub := range b.subs {
		select {
		case sub.ch <- batch.Clone():
		default:
			b.remove(sub, ErrSubscriberOverrun)
			dropped = append(dropped, sub)
		}
	}
	n := len(b.subs)
	b.mu.Unlock()

	b.metrics.RecordPublish(string(batch.Kind))
	for _, sub := range dropped {
		b.metrics.RecordOverrun()
		b.logger.Warn("feed subscriber dropped",
			zap.String("subscriber_id", sub.id),
			zap.Error(ErrSubscriberOverrun))
	}
	if len(dropped) > 0 {
		b.metrics.SetSubscribers(n)
	}
}

// Len returns the number of registered subscriptions.
func (b *UpdateBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close drops every subscription.
func (b *UpdateBus) Close() {
	b.mu.Lock()
	for sub := range b.subs {
		b.remove(sub, ErrSubscriptionClosed)
	}
	b.mu.Unlock()
	b.metrics.SetSubscribers(0)
}

// remove must be called with b.mu held.
func (b *UpdateBus) remove(sub *Subscription, reason error) bool {
	if _, ok := b.subs[sub]; !ok {
		return false
	}
	delete(b.subs, sub)
	sub.setErr(reason)
	close(sub.ch)
	return true
}

// Subscription is one observer's view of the bus.
type Subscription struct {
	id        string
	ch        chan domain.Batch
	bus       *UpdateBus
	heartbeat time.Duration
	now       func() time.Time

	mu  sync.Mutex
	err error
}

func (s *Subscription) ID() string {
	return s.id
}

// C exposes the raw delivery channel. It is closed when the subscription
// ends; Err reports why.
func (s *Subscription) C() <-chan domain.Batch {
	return s.ch
}

// Next waits for the next batch. If nothing arrives within the heartbeat
// interval a heartbeat batch is returned instead.
func (s *Subscription) Next(ctx context.Context) (domain.Batch, error) {
	timer := time.NewTimer(s.heartbeat)
	defer timer.Stop()

	select {
	case batch, ok := <-s.ch:
		if !ok {
			return domain.Batch{}, s.Err()
		}
		return batch, nil
	case <-timer.C:
		return domain.NewHeartbeat(s.now()), nil
	case <-ctx.Done():
		return domain.Batch{}, ctx.Err()
	}
}

// Close unsubscribes from the bus.
func (s *Subscription) Close() {
	s.bus.Unsubscribe(s)
}

// Err returns nil while the subscription is active.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
