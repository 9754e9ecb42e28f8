// ABOUTME: Raw PCM decoder
// ABOUTME: Decodes headerless unsigned 8-bit and little-endian 16-bit PCM
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

// DecodeRaw converts headerless PCM into a resident stream
func DecodeRaw(data []byte, format audio.Format) (*audio.MemoryStream, error) {
	if format.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}
	if format.Channels != 1 && format.Channels != 2 {
		return nil, fmt.Errorf("unsupported channel count: %d (supported: 1, 2)", format.Channels)
	}

	var samples []int16
	switch format.BitDepth {
	case 8:
		// 8-bit PCM is unsigned
		samples = make([]int16, len(data))
		for i, b := range data {
			samples[i] = audio.SampleFromUint8(b)
		}
	case 16:
		samples = make([]int16, len(data)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
		}
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16)", format.BitDepth)
	}

	return audio.NewMemoryStream(samples, format.SampleRate, format.Stereo()), nil
}
