package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/metrics"
	"go.uber.org/zap"
)

const defaultStallMultiplier = 5

// TickReporter is the part of the engine the watchdog observes.
type TickReporter interface {
	LastTick() time.Time
	Interval() time.Duration
}

// Watchdog reports ErrEngineStalled when the engine has not completed a pass
// within StallMultiplier intervals. It never restarts the engine.
type Watchdog struct {
	engine  TickReporter
	logger  *zap.Logger
	metrics *metrics.Collector
	onStall func(error)
	now     func() time.Time

	multiplier int

	mu  sync.Mutex
	err error

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewWatchdog(engine TickReporter, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		engine:     engine,
		logger:     logger,
		now:        time.Now,
		multiplier: defaultStallMultiplier,
		stopCh:     make(chan struct{}),
	}
}

func (w *Watchdog) SetMultiplier(m int) {
	if m > 0 {
		w.multiplier = m
	}
}

// OnStall registers a callback invoked once per stall episode.
func (w *Watchdog) OnStall(fn func(error)) {
	w.onStall = fn
}

func (w *Watchdog) SetClock(now func() time.Time) {
	w.now = now
}

func (w *Watchdog) SetMetrics(m *metrics.Collector) {
	w.metrics = m
}

// Err returns the current stall error, or nil while the engine is healthy.
func (w *Watchdog) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Check evaluates engine liveness once.
func (w *Watchdog) Check() error {
	last := w.engine.LastTick()
	if last.IsZero() {
		return nil
	}

	limit := time.Duration(w.multiplier) * w.engine.Interval()
	since := w.now().Sub(last)

	w.mu.Lock()
	if since <= limit {
		recovered := w.err != nil
		w.err = nil
		w.mu.Unlock()
		if recovered {
			w.logger.Info("metric engine recovered")
		}
		return nil
	}

	first := w.err == nil
	w.err = fmt.Errorf("%w: no pass completed for %s (limit %s)", ErrEngineStalled, since.Round(time.Millisecond), limit)
	err := w.err
	w.mu.Unlock()

	if first {
		w.metrics.RecordStall()
		w.logger.Error("metric engine stalled",
			zap.Time("last_tick", last),
			zap.Duration("since", since),
			zap.Duration("limit", limit))
		if w.onStall != nil {
			w.onStall(err)
		}
	}
	return err
}

func (w *Watchdog) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.engine.Interval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				_ = w.Check()
			case <-w.stopCh:
				return
			}
		}
	}()
}

func (w *Watchdog) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}
