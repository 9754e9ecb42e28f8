// ABOUTME: Pull-based PCM stream interfaces and an in-memory implementation
// ABOUTME: Streams yield interleaved signed 16-bit samples on demand
package audio

import "github.com/sciaudio/sciaudio/pkg/audio/timestamp"

// Stream is a source of interleaved signed 16-bit PCM.
//
// ReadBuffer never blocks; it returns fewer samples than requested when the
// source has nothing more to give right now. EndOfData reports that no data is
// currently available, EndOfStream that none ever will be again.
type Stream interface {
	ReadBuffer(buf []int16) int
	IsStereo() bool
	Rate() int
	EndOfData() bool
	EndOfStream() bool
}

// SeekableStream is a Stream with a known length that can restart from the beginning
type SeekableStream interface {
	Stream
	Rewind() bool
	Length() timestamp.Timestamp
}

// MemoryStream plays a fully resident PCM buffer
type MemoryStream struct {
	samples []int16
	rate    int
	stereo  bool
	pos     int
}

// NewMemoryStream wraps decoded samples; stereo data must be interleaved L/R
func NewMemoryStream(samples []int16, rate int, stereo bool) *MemoryStream {
	if stereo && len(samples)%2 != 0 {
		samples = samples[:len(samples)-1]
	}
	return &MemoryStream{
		samples: samples,
		rate:    rate,
		stereo:  stereo,
	}
}

func (s *MemoryStream) ReadBuffer(buf []int16) int {
	n := copy(buf, s.samples[s.pos:])
	s.pos += n
	return n
}

func (s *MemoryStream) IsStereo() bool    { return s.stereo }
func (s *MemoryStream) Rate() int         { return s.rate }
func (s *MemoryStream) EndOfData() bool   { return s.pos >= len(s.samples) }
func (s *MemoryStream) EndOfStream() bool { return s.EndOfData() }

// Rewind restarts playback from the first sample
func (s *MemoryStream) Rewind() bool {
	s.pos = 0
	return true
}

// Length returns the total play time of the buffer
func (s *MemoryStream) Length() timestamp.Timestamp {
	return timestamp.NewFrames(0, s.Frames(), s.rate)
}

// Frames returns the number of sample frames held
func (s *MemoryStream) Frames() int {
	if s.stereo {
		return len(s.samples) / 2
	}
	return len(s.samples)
}

// Samples exposes the underlying PCM
func (s *MemoryStream) Samples() []int16 {
	return s.samples
}
