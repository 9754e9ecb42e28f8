// ABOUTME: Container detection and loading entry point
// ABOUTME: Maps resource bytes to the matching seekable PCM stream
package decode

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

var (
	// ErrBadSignature means the data does not carry the expected magic bytes
	ErrBadSignature = errors.New("bad container signature")
	// ErrUnsupportedFormat means no decoder recognises the data
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrTruncated means the container header points past the end of the data
	ErrTruncated = errors.New("truncated audio data")
)

// Container identifies a supported audio container
type Container int

const (
	ContainerUnknown Container = iota
	ContainerSOL
	ContainerWAV
	ContainerMP3
	ContainerFLAC
)

func (c Container) String() string {
	switch c {
	case ContainerSOL:
		return "sol"
	case ContainerWAV:
		return "wav"
	case ContainerMP3:
		return "mp3"
	case ContainerFLAC:
		return "flac"
	default:
		return "unknown"
	}
}

// Detect sniffs the container from its leading bytes
func Detect(data []byte) Container {
	switch {
	case IsSOL(data):
		return ContainerSOL
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return ContainerWAV
	case len(data) >= 4 && bytes.Equal(data[:4], []byte("fLaC")):
		return ContainerFLAC
	case len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")):
		return ContainerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ContainerMP3
	default:
		return ContainerUnknown
	}
}

// Open builds a seekable stream over a resident resource. SOL payloads are
// decoded lazily; the other containers are decoded in full up front.
func Open(data []byte) (audio.SeekableStream, error) {
	switch c := Detect(data); c {
	case ContainerSOL:
		return NewSOLStream(data)
	case ContainerWAV:
		return DecodeWAV(data)
	case ContainerMP3:
		return DecodeMP3(data)
	case ContainerFLAC:
		return DecodeFLAC(data)
	default:
		return nil, fmt.Errorf("open %d bytes: %w", len(data), ErrUnsupportedFormat)
	}
}
