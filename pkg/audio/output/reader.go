// ABOUTME: Adapts a pull stream to io.Reader for byte-oriented devices
// ABOUTME: Applies device volume and tees played samples to an optional capture
package output

import (
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/encode"
)

// StreamReader serves a stream as PCM bytes, either little-endian 16-bit
// or unsigned 8-bit. Short reads from the stream are padded with silence so
// the device never underruns; io.EOF is returned only once the stream has ended.
type StreamReader struct {
	mu sync.Mutex

	stream      audio.Stream
	channels    int
	encoder     encode.Encoder
	sampleBytes int
	samples     []int16
	volume      int
	muted       bool
	capture     encode.SampleWriter
	played      int64
}

// NewStreamReader wraps stream; capture may be nil. Bit depths other than
// 8 fall back to 16.
func NewStreamReader(stream audio.Stream, bitDepth int, capture encode.SampleWriter) *StreamReader {
	channels := 1
	if stream.IsStereo() {
		channels = 2
	}
	if bitDepth != 8 && bitDepth != 16 {
		log.Warnf("Unsupported output bit depth %d, using 16", bitDepth)
		bitDepth = 16
	}

	encoder, err := encode.NewPCM(audio.Format{
		Codec:      "pcm",
		SampleRate: stream.Rate(),
		Channels:   channels,
		BitDepth:   bitDepth,
	})
	if err != nil {
		// depths were checked above
		panic(err)
	}

	return &StreamReader{
		stream:      stream,
		channels:    channels,
		encoder:     encoder,
		sampleBytes: bitDepth / 8,
		volume:      100,
		capture:     capture,
	}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(p) / r.sampleBytes
	n -= n % r.channels
	if n == 0 {
		return 0, nil
	}

	if cap(r.samples) < n {
		r.samples = make([]int16, n)
	}
	samples := r.samples[:n]

	got := r.stream.ReadBuffer(samples)
	if got == 0 && r.stream.EndOfStream() {
		return 0, io.EOF
	}
	clear(samples[got:])

	applyVolume(samples, r.volume, r.muted)

	if r.capture != nil {
		if err := r.capture.WriteSamples(samples); err != nil {
			log.Printf("Capture failed, disabling: %v", err)
			r.capture = nil
		}
	}

	encoded, err := r.encoder.Encode(samples)
	if err != nil {
		return 0, err
	}
	copy(p, encoded)
	r.played += int64(n / r.channels)
	return len(encoded), nil
}

// SetVolume sets the volume (0-100)
func (r *StreamReader) SetVolume(volume int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.volume = min(max(volume, 0), 100)
}

func (r *StreamReader) GetVolume() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.volume
}

func (r *StreamReader) SetMuted(muted bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.muted = muted
}

func (r *StreamReader) IsMuted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.muted
}

// Played returns how many frames have been handed to the device
func (r *StreamReader) Played() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.played
}

// applyVolume scales samples in place; volume 100 leaves them untouched
func applyVolume(samples []int16, volume int, muted bool) {
	switch {
	case muted || volume <= 0:
		clear(samples)
	case volume >= 100:
	default:
		for i, s := range samples {
			samples[i] = int16(int32(s) * int32(volume) / 100)
		}
	}
}
