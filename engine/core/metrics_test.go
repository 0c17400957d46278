package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAverageAndFPS(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 150; i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9)
	fps, avg := m.Frame()
	assert.InDelta(t, 100.0, fps, 1.0)
	assert.InDelta(t, 10.0, avg, 1e-9)

	// The window holds the last 30 samples only.
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.020)
	}
	assert.InDelta(t, 20.0, m.FrameTime(), 1e-9)
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	time.Sleep(2 * time.Millisecond)
	c.Update()
	assert.Greater(t, c.Elapsed(), 0.0)

	c.Stop()
	e := c.Elapsed()
	time.Sleep(time.Millisecond)
	c.Update()
	assert.Equal(t, e, c.Elapsed())
}
