// ABOUTME: Device-free output that pulls the stream in real time
// ABOUTME: Used for servers, tests and offline captures
package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

// Headless drains a stream at playback speed without a device
type Headless struct {
	mu sync.Mutex

	cfg        Config
	sampleRate int
	channels   int
	reader     *StreamReader
	scratch    []byte
	volume     int
	muted      bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewHeadless creates a headless sink
func NewHeadless(cfg Config) *Headless {
	return &Headless{
		cfg:    cfg.withDefaults(),
		volume: 100,
	}
}

func (h *Headless) Open(sampleRate, channels int) error {
	if sampleRate <= 0 || channels < 1 || channels > 2 {
		return fmt.Errorf("invalid output format %dHz %dch", sampleRate, channels)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sampleRate = sampleRate
	h.channels = channels
	log.Printf("Headless output: %dHz, %d channels", sampleRate, channels)
	return nil
}

// Attach connects stream without starting the pacing goroutine, for
// callers that drive Pull themselves
func (h *Headless) Attach(stream audio.Stream) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sampleRate == 0 {
		return fmt.Errorf("output not initialized")
	}
	if h.reader != nil {
		return fmt.Errorf("output already playing")
	}
	h.reader = NewStreamReader(stream, h.cfg.BitDepth, h.cfg.Capture)
	h.reader.SetVolume(h.volume)
	h.reader.SetMuted(h.muted)
	return nil
}

// Play attaches stream and pulls one latency period at a time
func (h *Headless) Play(stream audio.Stream) error {
	if err := h.Attach(stream); err != nil {
		return err
	}

	frames := int(int64(h.sampleRate) * int64(h.cfg.Latency) / int64(time.Second))
	h.done = make(chan struct{})
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ticker := time.NewTicker(h.cfg.Latency)
		defer ticker.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-ticker.C:
				if err := h.Pull(frames); err != nil {
					if err != io.EOF {
						log.Warnf("Headless output stopped: %v", err)
					}
					return
				}
			}
		}
	}()
	return nil
}

// Pull reads frames from the attached stream
func (h *Headless) Pull(frames int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.reader == nil {
		return fmt.Errorf("no stream attached")
	}
	size := frames * h.channels * h.cfg.BitDepth / 8
	if cap(h.scratch) < size {
		h.scratch = make([]byte, size)
	}
	_, err := io.ReadFull(h.reader, h.scratch[:size])
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return err
}

// Played returns the number of frames pulled so far
func (h *Headless) Played() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.reader == nil {
		return 0
	}
	return h.reader.Played()
}

func (h *Headless) Close() error {
	if h.done != nil {
		close(h.done)
		h.wg.Wait()
		h.done = nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cfg.Capture != nil {
		if err := h.cfg.Capture.Close(); err != nil {
			return fmt.Errorf("close capture: %w", err)
		}
		h.cfg.Capture = nil
	}
	return nil
}

func (h *Headless) SetVolume(volume int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.volume = min(max(volume, 0), 100)
	if h.reader != nil {
		h.reader.SetVolume(h.volume)
	}
}

func (h *Headless) GetVolume() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *Headless) SetMuted(muted bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.muted = muted
	if h.reader != nil {
		h.reader.SetMuted(muted)
	}
}

func (h *Headless) IsMuted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.muted
}
