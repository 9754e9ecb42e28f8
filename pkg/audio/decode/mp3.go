// ABOUTME: MP3 decoder backed by go-mp3
// ABOUTME: go-mp3 always yields 16-bit little-endian stereo
package decode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

// DecodeMP3 fully decodes an MP3 file
func DecodeMP3(data []byte) (*audio.MemoryStream, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}

	return audio.NewMemoryStream(samples, decoder.SampleRate(), true), nil
}
