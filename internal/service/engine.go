package service

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Harshitk-cp/strainfeed/internal/domain"
	"github.com/Harshitk-cp/strainfeed/internal/metrics"
	"go.uber.org/zap"
)

const defaultTickInterval = 2 * time.Second

// EngineParams are the constants of the strain and mass model.
type EngineParams struct {
	ContradictionProbability float64
	DissonanceMin            float64
	DissonanceMax            float64
	DecayFactor              float64
	BaseMass                 float64
}

func DefaultEngineParams() EngineParams {
	return EngineParams{
		ContradictionProbability: 0.05,
		DissonanceMin:            0.1,
		DissonanceMax:            0.2,
		DecayFactor:              0.98,
		BaseMass:                 1.0,
	}
}

// RandomSource yields uniform samples in [0, 1).
type RandomSource interface {
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand() *lockedRand {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// ComputeUpdate derives the next state of one node:
//
//	time_factor = 1 + 1/max(Δt, 1)      Δt in seconds since last access
//	mass        = base * access_count * time_factor
//	amplitude   = amplitude + U[min, max)  with probability p
//	            = amplitude * decay        otherwise
//	resistance  = amplitude
func ComputeUpdate(n domain.Node, now time.Time, rnd RandomSource, p EngineParams) domain.Node {
	elapsed := now.Sub(n.LastAccessed).Seconds()
	timeFactor := 1.0 + 1.0/math.Max(elapsed, 1.0)

	n.Mass = p.BaseMass * float64(n.AccessCount) * timeFactor
	n.LastAccessed = now

	if rnd.Float64() < p.ContradictionProbability {
		n.Amplitude += p.DissonanceMin + rnd.Float64()*(p.DissonanceMax-p.DissonanceMin)
	} else {
		n.Amplitude *= p.DecayFactor
	}
	if n.Amplitude < 0 {
		n.Amplitude = 0
	}
	n.Resistance = n.Amplitude
	return n
}

type TickResult struct {
	Visited     int           `json:"visited"`
	Failed      int           `json:"failed"`
	Changed     int           `json:"changed"`
	Duration    time.Duration `json:"duration"`
	CompletedAt time.Time     `json:"completed_at"`
}

// MetricEngine periodically recomputes mass and strain for every node. It is
// the only engine-side writer of node state.
type MetricEngine struct {
	nodes     domain.NodeStore
	publisher domain.Publisher
	logger    *zap.Logger
	metrics   *metrics.Collector

	params EngineParams
	rnd    RandomSource
	now    func() time.Time

	interval time.Duration
	ticking  atomic.Bool
	lastTick atomic.Int64
	tickMu   sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewMetricEngine(nodes domain.NodeStore, publisher domain.Publisher, logger *zap.Logger) *MetricEngine {
	return &MetricEngine{
		nodes:     nodes,
		publisher: publisher,
		logger:    logger,
		params:    DefaultEngineParams(),
		rnd:       newLockedRand(),
		now:       time.Now,
		interval:  defaultTickInterval,
		stopCh:    make(chan struct{}),
	}
}

func (e *MetricEngine) SetInterval(d time.Duration) {
	e.interval = d
}

func (e *MetricEngine) SetRandomSource(r RandomSource) {
	e.rnd = r
}

func (e *MetricEngine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *MetricEngine) SetParams(p EngineParams) {
	e.params = p
}

func (e *MetricEngine) SetMetrics(m *metrics.Collector) {
	e.metrics = m
}

func (e *MetricEngine) Interval() time.Duration {
	return e.interval
}

// State reports whether a pass is in progress.
func (e *MetricEngine) State() domain.EngineState {
	if e.ticking.Load() {
		return domain.EngineTicking
	}
	return domain.EngineIdle
}

// LastTick returns when the most recent pass finished, or when the engine
// was started if no pass has finished yet. Zero means never started.
func (e *MetricEngine) LastTick() time.Time {
	ns := e.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Start runs passes on a fixed interval in a background goroutine. A stop
// request is only honoured between passes.
func (e *MetricEngine) Start() {
	e.lastTick.Store(e.now().UnixNano())

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		e.logger.Info("metric engine started", zap.Duration("interval", e.interval))

		for {
			select {
			case <-ticker.C:
				e.RunTick(context.Background())
			case <-e.stopCh:
				e.logger.Info("metric engine stopped")
				return
			}
		}
	}()
}

// Stop waits for any in-flight pass to finish.
func (e *MetricEngine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
}

// RunTick performs one full pass over the current node snapshot. Each node
// is its own read-modify-write; a failing node is logged and skipped.
func (e *MetricEngine) RunTick(ctx context.Context) *TickResult {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	e.ticking.Store(true)
	defer e.ticking.Store(false)

	start := e.now()
	result := &TickResult{}

	snapshot, err := e.nodes.GetAll(ctx)
	if err != nil {
		e.logger.Error("failed to snapshot nodes for tick", zap.Error(err))
		return result
	}

	changed := make([]domain.Node, 0, len(snapshot))
	for _, n := range snapshot {
		result.Visited++
		now := e.now()
		updated, err := e.nodes.Apply(ctx, n.ID, func(cur domain.Node) domain.Node {
			return ComputeUpdate(cur, now, e.rnd, e.params)
		})
		if err != nil {
			result.Failed++
			e.logger.Warn("failed to update node",
				zap.String("node_id", n.ID),
				zap.Error(err))
			continue
		}
		changed = append(changed, *updated)
	}

	end := e.now()
	result.Changed = len(changed)
	result.Duration = end.Sub(start)
	result.CompletedAt = end
	e.lastTick.Store(end.UnixNano())

	if len(changed) > 0 && e.publisher != nil {
		e.publisher.Publish(domain.NewUpdateBatch(end, changed))
	}

	e.metrics.ObserveTick(result.Duration, result.Visited, result.Failed)
	e.logger.Debug("tick complete",
		zap.Int("visited", result.Visited),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.Duration))

	return result
}
