// ABOUTME: SOL audio container parsing and streaming playback
// ABOUTME: Decodes raw or DPCM compressed payloads on demand as the mixer pulls
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/timestamp"
)

// SOL header flags
const (
	SOLCompressed = 1
	SOL16Bit      = 4
	SOLStereo     = 16
)

const solMinHeader = 13

// SOLHeader is the fixed header that precedes every SOL payload
type SOLHeader struct {
	ResourceType byte
	HeaderSize   int
	SampleRate   int
	Flags        byte
	DataSize     int
}

func (h SOLHeader) Compressed() bool { return h.Flags&SOLCompressed != 0 }
func (h SOLHeader) Is16Bit() bool    { return h.Flags&SOL16Bit != 0 }
func (h SOLHeader) Stereo() bool     { return h.Flags&SOLStereo != 0 }

// IsSOL reports whether data starts with a SOL header
func IsSOL(data []byte) bool {
	return len(data) >= solMinHeader && data[0]&0x80 != 0 && string(data[2:6]) == "SOL\x00"
}

// ParseSOLHeader validates and decodes the header. The returned offset is
// where the payload begins.
func ParseSOLHeader(data []byte) (SOLHeader, int, error) {
	if !IsSOL(data) {
		return SOLHeader{}, 0, fmt.Errorf("sol header: %w", ErrBadSignature)
	}

	h := SOLHeader{
		ResourceType: data[0] & 0x7F,
		HeaderSize:   int(data[1]),
		SampleRate:   int(binary.LittleEndian.Uint16(data[6:8])),
		Flags:        data[8],
		DataSize:     int(binary.LittleEndian.Uint32(data[9:13])),
	}

	offset := h.HeaderSize + 2
	if offset < solMinHeader || offset > len(data) {
		return SOLHeader{}, 0, fmt.Errorf("sol header size %d: %w", h.HeaderSize, ErrTruncated)
	}
	if h.SampleRate == 0 {
		return SOLHeader{}, 0, fmt.Errorf("sol sample rate 0: %w", ErrBadSignature)
	}

	return h, offset, nil
}

// SOLStream plays a SOL payload, decompressing as samples are requested
type SOLStream struct {
	header  SOLHeader
	payload []byte
	pos     int

	dpcm16  [2]DPCM16Decoder
	dpcm8   [2]DPCM8Decoder
	pending []int16
	scratch []int16
}

// NewSOLStream parses a SOL resource
func NewSOLStream(data []byte) (*SOLStream, error) {
	header, offset, err := ParseSOLHeader(data)
	if err != nil {
		return nil, err
	}

	payload := data[offset:]
	if header.DataSize < len(payload) {
		payload = payload[:header.DataSize]
	}

	s := &SOLStream{
		header:  header,
		payload: payload,
	}
	s.Rewind()
	return s, nil
}

// Header returns the parsed container header
func (s *SOLStream) Header() SOLHeader {
	return s.header
}

func (s *SOLStream) ReadBuffer(buf []int16) int {
	written := copy(buf, s.pending)
	s.pending = s.pending[written:]

	for written < len(buf) && s.pos < len(s.payload) {
		written += s.decode(buf[written:])
	}
	return written
}

func (s *SOLStream) decode(buf []int16) int {
	h := s.header
	remaining := s.payload[s.pos:]

	switch {
	case h.Compressed() && h.Is16Bit():
		n := min(len(buf), len(remaining))
		if !h.Stereo() {
			s.dpcm16[0].Decode(buf[:n], remaining[:n])
		} else {
			// interleaved bytes alternate between the two channel carries
			for i := 0; i < n; i++ {
				c := (s.pos + i) & 1
				s.dpcm16[c].Decode(buf[i:i+1], remaining[i:i+1])
			}
		}
		s.pos += n
		return n

	case h.Compressed():
		n := min((len(buf)+1)/2, len(remaining))
		if cap(s.scratch) < n*2 {
			s.scratch = make([]int16, n*2)
		}
		out := s.scratch[:n*2]
		if !h.Stereo() {
			s.dpcm8[0].Decode(out, remaining[:n])
		} else {
			for i := 0; i < n; i++ {
				b := remaining[i]
				s.dpcm8[0].decodeNibble(&out[i*2], b>>4)
				s.dpcm8[1].decodeNibble(&out[i*2+1], b&0x0F)
			}
		}
		s.pos += n
		copied := copy(buf, out)
		s.pending = append(s.pending[:0], out[copied:]...)
		return copied

	case h.Is16Bit():
		n := min(len(buf), len(remaining)/2)
		for i := 0; i < n; i++ {
			buf[i] = int16(binary.LittleEndian.Uint16(remaining[i*2:]))
		}
		s.pos += n * 2
		if n == 0 {
			// odd trailing byte
			s.pos = len(s.payload)
		}
		return n

	default:
		n := min(len(buf), len(remaining))
		for i := 0; i < n; i++ {
			buf[i] = audio.SampleFromUint8(remaining[i])
		}
		s.pos += n
		return n
	}
}

func (s *SOLStream) IsStereo() bool    { return s.header.Stereo() }
func (s *SOLStream) Rate() int         { return s.header.SampleRate }
func (s *SOLStream) EndOfData() bool   { return len(s.pending) == 0 && s.pos >= len(s.payload) }
func (s *SOLStream) EndOfStream() bool { return s.EndOfData() }

// Rewind restarts decoding; DPCM carries are reset to their initial values
func (s *SOLStream) Rewind() bool {
	s.pos = 0
	s.pending = s.pending[:0]
	s.dpcm16[0].Reset()
	s.dpcm16[1].Reset()
	s.dpcm8[0].Reset()
	s.dpcm8[1].Reset()
	return true
}

// Length returns the decoded play time
func (s *SOLStream) Length() timestamp.Timestamp {
	samples := len(s.payload)
	switch {
	case s.header.Compressed() && !s.header.Is16Bit():
		samples *= 2
	case !s.header.Compressed() && s.header.Is16Bit():
		samples /= 2
	}
	if s.header.Stereo() {
		samples /= 2
	}
	return timestamp.NewFrames(0, samples, s.header.SampleRate)
}
