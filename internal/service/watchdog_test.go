package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTicker struct {
	last     time.Time
	interval time.Duration
}

func (f *fakeTicker) LastTick() time.Time     { return f.last }
func (f *fakeTicker) Interval() time.Duration { return f.interval }

func TestWatchdog_Check(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := &fakeTicker{last: now, interval: 2 * time.Second}

	var stalls []error
	wd := NewWatchdog(engine, zap.NewNop())
	wd.SetMultiplier(5)
	wd.OnStall(func(err error) { stalls = append(stalls, err) })

	current := now.Add(9 * time.Second)
	wd.SetClock(func() time.Time { return current })
	require.NoError(t, wd.Check())
	assert.NoError(t, wd.Err())

	current = now.Add(11 * time.Second)
	err := wd.Check()
	assert.ErrorIs(t, err, ErrEngineStalled)
	assert.ErrorIs(t, wd.Err(), ErrEngineStalled)

	// Still stalled: no second notification.
	current = now.Add(20 * time.Second)
	assert.ErrorIs(t, wd.Check(), ErrEngineStalled)
	assert.Len(t, stalls, 1)

	engine.last = current
	assert.NoError(t, wd.Check())
	assert.NoError(t, wd.Err())

	current = current.Add(time.Minute)
	assert.ErrorIs(t, wd.Check(), ErrEngineStalled)
	assert.Len(t, stalls, 2)
}

func TestWatchdog_IgnoresEngineThatNeverStarted(t *testing.T) {
	wd := NewWatchdog(&fakeTicker{interval: time.Second}, zap.NewNop())
	wd.SetClock(func() time.Time { return time.Now().Add(time.Hour) })
	assert.NoError(t, wd.Check())
}

func TestWatchdog_StartStop(t *testing.T) {
	wd := NewWatchdog(&fakeTicker{interval: 5 * time.Millisecond}, zap.NewNop())
	wd.Start()
	time.Sleep(20 * time.Millisecond)
	wd.Stop()
	assert.NotPanics(t, wd.Stop)
}
