// ABOUTME: FLAC decoder backed by mewkiz/flac
// ABOUTME: Decodes frame by frame into resident 16-bit PCM
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

// DecodeFLAC fully decodes a FLAC file. Multichannel files keep their first two channels.
func DecodeFLAC(data []byte) (*audio.MemoryStream, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open flac: %w", err)
	}
	defer stream.Close()

	channels := min(int(stream.Info.NChannels), 2)
	depth := int(stream.Info.BitsPerSample)
	if channels < 1 {
		return nil, fmt.Errorf("flac has no channels: %w", ErrUnsupportedFormat)
	}

	samples := make([]int16, 0, int(stream.Info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("flac decode error: %w", err)
		}

		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				samples = append(samples, audio.ScaleToInt16(frame.Subframes[c].Samples[i], depth))
			}
		}
	}

	return audio.NewMemoryStream(samples, int(stream.Info.SampleRate), channels == 2), nil
}
