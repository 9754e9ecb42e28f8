// ABOUTME: Tests for tick clocks, drift correction and the task scheduler
// ABOUTME: Uses ManualClock so every test is deterministic
package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClock(t *testing.T) {
	c := NewManualClock(10)
	assert.Equal(t, uint32(10), c.Ticks())
	c.Advance(5)
	assert.Equal(t, uint32(15), c.Ticks())
	c.Set(3)
	assert.Equal(t, uint32(3), c.Ticks())
}

func TestRealClockMonotonic(t *testing.T) {
	c := NewRealClock()
	first := c.Ticks()
	time.Sleep(2 * TickDuration)
	assert.GreaterOrEqual(t, c.Ticks(), first+1)
}

func TestTickConversions(t *testing.T) {
	tests := []struct {
		ms    int
		ticks int
	}{
		{0, 0},
		{1, 1},
		{1000, 60},
		{1001, 61},
		{500, 30},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.ticks, MsecsToTicks(tt.ms), "%dms", tt.ms)
	}
	assert.Equal(t, 1000, TicksToMsecs(60))
	assert.Equal(t, 16, TicksToMsecs(1))
}

func bytesForFrame(frame, fps int) int {
	return frame * 22050 / fps * 2
}

func TestDriftCorrector(t *testing.T) {
	clock := NewManualClock(0)
	d := NewDriftCorrector(clock, 10, 22050)

	// before the first interval nothing changes
	assert.Equal(t, 10, d.Sample(50, 0))

	tests := []struct {
		name       string
		videoFrame int
		audioFrame int
		expected   int
	}{
		{"in sync", 50, 50, 10},
		{"video ahead", 60, 50, 9},
		{"still ahead stays clamped", 70, 50, 9},
		{"video behind", 40, 50, 10},
		{"still behind", 40, 50, 11},
		{"further behind stays clamped", 30, 50, 11},
		{"within tolerance", 51, 50, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Advance(DriftCheckInterval)
			assert.Equal(t, tt.expected, d.Sample(tt.videoFrame, bytesForFrame(tt.audioFrame, 10)))
			assert.Equal(t, tt.expected, d.FPS())
		})
	}

	drift, adjustment, checks := d.Stats()
	assert.Equal(t, 1, drift)
	assert.Equal(t, 0, adjustment)
	assert.Equal(t, 7, checks)
}

func TestAudioFrame(t *testing.T) {
	d := NewDriftCorrector(NewManualClock(0), 10, 22050)
	assert.Equal(t, 0, d.AudioFrame(0))
	assert.Equal(t, 10, d.AudioFrame(44100))
	assert.Equal(t, 5, d.AudioFrame(22050))
}

func TestSchedulerOrdering(t *testing.T) {
	clock := NewManualClock(0)
	s := NewScheduler(clock)

	var order []string
	s.After(TaskPoll, 5, func() { order = append(order, "late") })
	s.After(TaskPoll, 1, func() { order = append(order, "early") })
	s.After(TaskStatus, 1, func() { order = append(order, "early-second") })

	assert.Equal(t, 0, s.Poll())
	clock.Advance(1)
	assert.Equal(t, 2, s.Poll())
	clock.Advance(10)
	assert.Equal(t, 1, s.Poll())

	assert.Equal(t, []string{"early", "early-second", "late"}, order)
	assert.Equal(t, 0, s.Pending())
}

func TestSchedulerEvery(t *testing.T) {
	clock := NewManualClock(0)
	s := NewScheduler(clock)

	count := 0
	s.Every(TaskFreeUnused, 2, func() { count++ })

	for i := 0; i < 6; i++ {
		clock.Advance(1)
		s.Poll()
	}
	assert.Equal(t, 3, count)

	// a long stall runs once, not once per missed period
	clock.Advance(20)
	s.Poll()
	assert.Equal(t, 4, count)

	s.Cancel(TaskFreeUnused)
	clock.Advance(100)
	s.Poll()
	assert.Equal(t, 4, count)

	stats := s.Stats()
	assert.Equal(t, int64(4), stats.Ran)
	assert.Equal(t, int64(1), stats.Cancelled)
}

func TestSchedulerReentrant(t *testing.T) {
	clock := NewManualClock(0)
	s := NewScheduler(clock)

	ran := false
	s.After(TaskPoll, 0, func() {
		s.After(TaskPoll, 1, func() { ran = true })
	})
	s.Poll()
	require.Equal(t, 1, s.Pending())

	clock.Advance(1)
	s.Poll()
	assert.True(t, ran)
}

func TestSchedulerRunStops(t *testing.T) {
	s := NewScheduler(NewRealClock())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
