// ABOUTME: WAV decoder backed by go-audio/wav
// ABOUTME: Loads RIFF WAVE resources and CD tracks into resident 16-bit PCM
package decode

import (
	"bytes"
	"fmt"

	"github.com/go-audio/wav"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

// DecodeWAV fully decodes a WAV file. Multichannel files keep their first two channels.
func DecodeWAV(data []byte) (*audio.MemoryStream, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wav: %w", ErrBadSignature)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	if channels < 1 {
		return nil, fmt.Errorf("wav has %d channels: %w", channels, ErrUnsupportedFormat)
	}

	outChannels := min(channels, 2)
	frames := len(buf.Data) / channels
	samples := make([]int16, frames*outChannels)
	for i := 0; i < frames; i++ {
		for c := 0; c < outChannels; c++ {
			v := buf.Data[i*channels+c]
			if depth == 8 {
				samples[i*outChannels+c] = audio.SampleFromUint8(byte(v))
			} else {
				samples[i*outChannels+c] = audio.ScaleToInt16(int32(v), depth)
			}
		}
	}

	return audio.NewMemoryStream(samples, int(dec.SampleRate), outChannels == 2), nil
}
