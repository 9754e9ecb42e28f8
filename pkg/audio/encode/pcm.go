// ABOUTME: PCM audio encoder
// ABOUTME: Encodes int16 samples to unsigned 8-bit or little-endian 16-bit PCM
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

// PCMEncoder encodes PCM audio
type PCMEncoder struct {
	bitDepth int
}

// NewPCM creates a new PCM encoder
func NewPCM(format audio.Format) (Encoder, error) {
	if format.Codec != "pcm" {
		return nil, fmt.Errorf("invalid codec for PCM encoder: %s", format.Codec)
	}

	if format.BitDepth != 8 && format.BitDepth != 16 {
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16)", format.BitDepth)
	}

	return &PCMEncoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Encode converts samples to PCM bytes
func (e *PCMEncoder) Encode(samples []int16) ([]byte, error) {
	if e.bitDepth == 8 {
		output := make([]byte, len(samples))
		for i, sample := range samples {
			output[i] = byte(sample>>8) ^ 0x80
		}
		return output, nil
	}
	return AppendInt16LE(make([]byte, 0, len(samples)*2), samples), nil
}

// Close releases resources
func (e *PCMEncoder) Close() error {
	return nil
}

// AppendInt16LE appends samples to dst as little-endian 16-bit words
func AppendInt16LE(dst []byte, samples []int16) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint16(dst, uint16(s))
	}
	return dst
}
