// ABOUTME: WAV capture writer
// ABOUTME: Wraps the go-audio WAV encoder for streaming 16-bit PCM to disk
package encode

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVWriter streams 16-bit PCM into a WAV container
type WAVWriter struct {
	enc    *wav.Encoder
	file   *os.File
	format *goaudio.Format
	buf    goaudio.IntBuffer
	frames int64
}

// NewWAVWriter writes to ws; the header is finalized on Close
func NewWAVWriter(ws io.WriteSeeker, sampleRate, channels int) *WAVWriter {
	format := &goaudio.Format{NumChannels: channels, SampleRate: sampleRate}
	return &WAVWriter{
		enc:    wav.NewEncoder(ws, sampleRate, 16, channels, 1),
		format: format,
		buf:    goaudio.IntBuffer{Format: format, SourceBitDepth: 16},
	}
}

// CreateWAV creates or truncates path and returns a writer that owns the file
func CreateWAV(path string, sampleRate, channels int) (*WAVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	w := NewWAVWriter(f, sampleRate, channels)
	w.file = f
	return w, nil
}

// WriteSamples appends interleaved samples
func (w *WAVWriter) WriteSamples(samples []int16) error {
	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, s := range samples {
		w.buf.Data[i] = int(s)
	}
	if err := w.enc.Write(&w.buf); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	w.frames += int64(len(samples) / w.format.NumChannels)
	return nil
}

// Frames returns how many sample frames have been written
func (w *WAVWriter) Frames() int64 {
	return w.frames
}

// Close finalizes the header and closes the file if the writer owns it
func (w *WAVWriter) Close() error {
	err := w.enc.Close()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("close wav: %w", err)
	}
	return nil
}
