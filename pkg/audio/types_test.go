// ABOUTME: Tests for audio types
// ABOUTME: Tests sample clamping, scaling and the in-memory stream
package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampedAdd(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int16
		expected int16
	}{
		{"zero", 0, 0, 0},
		{"simple", 100, -50, 50},
		{"positive saturation", 30000, 30000, MaxSample},
		{"negative saturation", -30000, -30000, MinSample},
		{"edge", MaxSample, 1, MaxSample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampedAdd(tt.a, tt.b))
		})
	}
}

func TestScaleToInt16(t *testing.T) {
	tests := []struct {
		name     string
		sample   int32
		depth    int
		expected int16
	}{
		{"16 bit passthrough", -1234, 16, -1234},
		{"24 bit max", 8388607, 24, MaxSample},
		{"24 bit min", -8388608, 24, MinSample},
		{"8 bit signed", -128, 8, MinSample},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScaleToInt16(tt.sample, tt.depth))
		})
	}
}

func TestSampleFromUint8(t *testing.T) {
	assert.Equal(t, int16(0), SampleFromUint8(0x80))
	assert.Equal(t, int16(MinSample), SampleFromUint8(0))
	assert.Equal(t, int16(0x7F00), SampleFromUint8(0xFF))
}

func TestMemoryStream(t *testing.T) {
	s := NewMemoryStream([]int16{1, 2, 3, 4, 5, 6}, 11025, true)
	require.Equal(t, 3, s.Frames())

	buf := make([]int16, 4)
	assert.Equal(t, 4, s.ReadBuffer(buf))
	assert.Equal(t, []int16{1, 2, 3, 4}, buf)
	assert.False(t, s.EndOfStream())

	assert.Equal(t, 2, s.ReadBuffer(buf))
	assert.True(t, s.EndOfStream())
	assert.Equal(t, 0, s.ReadBuffer(buf))

	require.True(t, s.Rewind())
	assert.False(t, s.EndOfData())
}

func TestMemoryStreamLength(t *testing.T) {
	s := Constant(22050, 1, 22050*3/2, false)
	assert.Equal(t, 1500, s.Length().Msecs())
}

func TestSquareWave(t *testing.T) {
	s := SquareWave(8000, 1000, 1000, 16, false)
	samples := s.Samples()

	// 8000/(1000*2) = 4 samples per half period
	assert.Equal(t, []int16{1000, 1000, 1000, 1000, -1000, -1000, -1000, -1000}, samples[:8])

	stereo := SquareWave(8000, 1000, 500, 4, true)
	assert.Equal(t, []int16{500, 500, 500, 500, 500, 500, 500, 500}, stereo.Samples())
}

func TestBus(t *testing.T) {
	a := NewMemoryStream([]int16{100, 200, 30000}, 22050, false)
	b := NewMemoryStream([]int16{1, 2, 30000, 4}, 22050, false)
	bus := NewBus(22050, false, a, b)

	buf := make([]int16, 5)
	assert.Equal(t, 4, bus.ReadBuffer(buf))
	assert.Equal(t, []int16{101, 202, 32767, 4, 0}, buf)
	assert.True(t, bus.EndOfStream())

	empty := NewBus(8000, true)
	assert.Equal(t, 2, empty.ReadBuffer(buf[:2]))
	assert.True(t, empty.IsStereo())
	assert.Equal(t, 8000, empty.Rate())
}
