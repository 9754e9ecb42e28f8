// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import (
	"time"

	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/encode"
)

// Sink represents an audio output device
type Sink interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Play starts pulling from stream until Close
	Play(stream audio.Stream) error

	// SetVolume sets the device volume (0-100)
	SetVolume(volume int)
	GetVolume() int
	SetMuted(muted bool)
	IsMuted() bool

	// Close releases output resources
	Close() error
}

// Config holds settings shared by the sinks
type Config struct {
	// Latency is the device buffer length
	Latency time.Duration
	// Capture, when set, receives a copy of everything played
	Capture encode.SampleWriter
	// BitDepth is the device sample size, 8 or 16
	BitDepth int
}

const defaultLatency = 50 * time.Millisecond

func (c Config) withDefaults() Config {
	if c.Latency <= 0 {
		c.Latency = defaultLatency
	}
	if c.BitDepth != 8 {
		c.BitDepth = 16
	}
	return c
}
