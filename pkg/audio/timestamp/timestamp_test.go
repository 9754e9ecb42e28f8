// ABOUTME: Tests for exact rational timestamps
// ABOUTME: Covers construction round trips, cross-rate ordering and frame arithmetic
package timestamp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var rates = []int{1, 7, 60, 75, 1000, 11025, 22050, 44100, 48000, 96000}

func TestMsecsRoundTrip(t *testing.T) {
	for _, rate := range rates {
		for _, ms := range []int{0, 1, 17, 999, 1000, 1500, 123456, -1, -1500} {
			t.Run(fmt.Sprintf("%dms@%d", ms, rate), func(t *testing.T) {
				assert.Equal(t, ms, New(ms, rate).Msecs())
			})
		}
	}
}

func TestConvertRoundTrip(t *testing.T) {
	for _, rate := range rates {
		for _, other := range rates {
			for _, ms := range []int{0, 3, 250, 1999, 60001} {
				ts := New(ms, rate)
				back := ts.ConvertToFramerate(other).ConvertToFramerate(rate)
				assert.Equal(t, ms, back.Msecs(), "%dms %d->%d->%d", ms, rate, other, rate)
				assert.True(t, ts.Equal(ts.ConvertToFramerate(other)), "%dms %d vs %d", ms, rate, other)
			}
		}
	}
}

func TestCrossRateOrdering(t *testing.T) {
	a := New(1000, 60)
	b := New(1001, 44100)
	c := NewFrames(1, 1, 7)

	require.True(t, a.Less(b))
	require.True(t, b.Less(c))
	assert.True(t, a.Less(c))
	assert.True(t, c.Greater(a))
	assert.True(t, a.LessEqual(a.ConvertToFramerate(75)))
	assert.True(t, a.GreaterEqual(New(1000, 75)))
	assert.False(t, a.Equal(b))
}

func TestAddFrames(t *testing.T) {
	tests := []struct {
		name   string
		start  Timestamp
		add    int
		secs   int
		frames int
	}{
		{"carry into seconds", NewFrames(0, 59, 60), 1, 1, 0},
		{"borrow from seconds", NewFrames(1, 0, 60), -1, 0, 59},
		{"large negative", NewFrames(0, 0, 75), -151, -3, 74},
		{"cd frames", NewFrames(0, 0, 75), 150, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.start.AddFrames(tt.add)
			assert.Equal(t, tt.secs, result.Secs())
			assert.Equal(t, tt.frames, result.NumberOfFrames())
		})
	}
}

func TestAddMsecs(t *testing.T) {
	ts := New(900, 60).AddMsecs(200)
	assert.Equal(t, 1100, ts.Msecs())

	ts = ts.AddMsecs(-1200)
	assert.Equal(t, -100, ts.Msecs())
	assert.Equal(t, -1, ts.Secs())
}

func TestArithmetic(t *testing.T) {
	a := NewFrames(1, 0, 60)
	b := NewFrames(0, 30, 60)

	assert.Equal(t, 30, a.Sub(b).TotalNumberOfFrames())
	assert.Equal(t, 90, a.Add(b).TotalNumberOfFrames())
	assert.Equal(t, -1500, New(1500, 60).Neg().Msecs())

	assert.Panics(t, func() { a.Add(New(0, 75)) })
	assert.Panics(t, func() { New(0, 0) })
}

func TestFrameDiff(t *testing.T) {
	assert.Equal(t, 30, NewFrames(2, 0, 60).FrameDiff(NewFrames(1, 30, 60)))
	assert.Equal(t, 30, New(1500, 60).FrameDiff(New(1000, 44100)))
	assert.Equal(t, -30, New(1000, 60).FrameDiff(New(1500, 75)))
	assert.Equal(t, 500, New(1500, 60).MsecsDiff(New(1000, 44100)))
}

func TestFrameAccessors(t *testing.T) {
	ts := New(1500, 75)
	assert.Equal(t, 75, ts.Framerate())
	assert.Equal(t, 1, ts.Secs())
	assert.Equal(t, 37, ts.NumberOfFrames())
	assert.Equal(t, 112, ts.TotalNumberOfFrames())

	full := New(1000, 60).ConvertToFramerate(44100)
	assert.Equal(t, 44100, full.TotalNumberOfFrames())
}
