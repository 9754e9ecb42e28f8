// ABOUTME: Oto-based audio output implementation
// ABOUTME: The device pulls mixed PCM through a StreamReader with software volume
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	mu sync.Mutex

	cfg        Config
	otoCtx     *oto.Context
	player     *oto.Player
	reader     *StreamReader
	sampleRate int
	channels   int
	volume     int
	muted      bool
}

// NewOto creates a new Oto output
func NewOto(cfg Config) *Oto {
	return &Oto{
		cfg:    cfg.withDefaults(),
		volume: 100,
	}
}

// Open initializes the output device. oto allows one context per process,
// so reopening with a different format keeps the existing one.
func (o *Oto) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		if o.sampleRate != sampleRate || o.channels != channels {
			log.Warnf("Format change (%dHz %dch -> %dHz %dch) ignored: oto cannot reinitialize",
				o.sampleRate, o.channels, sampleRate, channels)
		}
		return nil
	}

	format := oto.FormatSignedInt16LE
	if o.cfg.BitDepth == 8 {
		format = oto.FormatUnsignedInt8
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       format,
		BufferSize:   o.cfg.Latency,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	log.Printf("Audio output initialized: %dHz, %d channels, %v buffer", sampleRate, channels, o.cfg.Latency)
	return nil
}

// Play attaches stream to a persistent player that pulls from it
func (o *Oto) Play(stream audio.Stream) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return fmt.Errorf("output not initialized")
	}
	if o.player != nil {
		return fmt.Errorf("output already playing")
	}
	if stream.Rate() != o.sampleRate {
		log.Warnf("Stream rate %dHz differs from device rate %dHz", stream.Rate(), o.sampleRate)
	}

	o.reader = NewStreamReader(stream, o.cfg.BitDepth, o.cfg.Capture)
	o.reader.SetVolume(o.volume)
	o.reader.SetMuted(o.muted)

	o.player = o.otoCtx.NewPlayer(o.reader)
	o.player.Play()
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Warnf("Closing player: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Warnf("Suspending audio context: %v", err)
		}
	}
	if o.cfg.Capture != nil {
		if err := o.cfg.Capture.Close(); err != nil {
			return fmt.Errorf("close capture: %w", err)
		}
		o.cfg.Capture = nil
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Oto) SetVolume(volume int) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.volume = min(max(volume, 0), 100)
	if o.reader != nil {
		o.reader.SetVolume(o.volume)
	}
	log.Debugf("Device volume set to %d", o.volume)
}

// SetMuted sets mute state
func (o *Oto) SetMuted(muted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.muted = muted
	if o.reader != nil {
		o.reader.SetMuted(muted)
	}
}

// GetVolume returns current volume
func (o *Oto) GetVolume() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.volume
}

// IsMuted returns mute state
func (o *Oto) IsMuted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.muted
}

// BufferedDuration reports how much audio the device has queued
func (o *Oto) BufferedDuration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil || o.sampleRate == 0 {
		return 0
	}
	frames := o.player.BufferedSize() / (2 * o.channels)
	return time.Duration(frames) * time.Second / time.Duration(o.sampleRate)
}
