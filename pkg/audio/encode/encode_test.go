// ABOUTME: Unit tests for the PCM encoder and WAV writer
// ABOUTME: WAV captures are decoded back through the decode package
package encode

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/decode"
)

func TestNewPCM(t *testing.T) {
	tests := []struct {
		name        string
		format      audio.Format
		errContains string
	}{
		{"valid 16-bit PCM", audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}, ""},
		{"valid 8-bit PCM", audio.Format{Codec: "pcm", SampleRate: 22050, Channels: 1, BitDepth: 8}, ""},
		{"invalid codec", audio.Format{Codec: "sol", SampleRate: 22050, Channels: 1, BitDepth: 16}, "invalid codec"},
		{"unsupported bit depth", audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 24}, "unsupported bit depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewPCM(tt.format)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, encoder)
		})
	}
}

func TestPCMEncode(t *testing.T) {
	samples := []int16{0, 32767, -32768, 0x1234, -0x5678}

	enc16, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 16})
	require.NoError(t, err)
	out, err := enc16.Encode(samples)
	require.NoError(t, err)
	require.Len(t, out, len(samples)*2)
	for i, s := range samples {
		assert.Equal(t, s, int16(binary.LittleEndian.Uint16(out[i*2:])), "sample %d", i)
	}

	enc8, err := NewPCM(audio.Format{Codec: "pcm", BitDepth: 8})
	require.NoError(t, err)
	out, err = enc8.Encode(samples)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, 0xFF, 0x00, 0x92, 0x29}, out)
	assert.NoError(t, enc8.Close())
}

func TestAppendInt16LE(t *testing.T) {
	out := AppendInt16LE([]byte{9}, []int16{1, -1})
	assert.Equal(t, []byte{9, 1, 0, 0xFF, 0xFF}, out)
}

func TestWAVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.wav")
	w, err := CreateWAV(path, 22050, 2)
	require.NoError(t, err)

	first := []int16{100, -100, 200, -200}
	second := []int16{32767, -32768}
	require.NoError(t, w.WriteSamples(first))
	require.NoError(t, w.WriteSamples(second))
	assert.Equal(t, int64(3), w.Frames())
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, decode.ContainerWAV, decode.Detect(data))

	stream, err := decode.DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 22050, stream.Rate())
	assert.True(t, stream.IsStereo())
	assert.Equal(t, append(first, second...), stream.Samples())
}

func TestCreateWAVBadPath(t *testing.T) {
	_, err := CreateWAV(filepath.Join(t.TempDir(), "missing", "x.wav"), 22050, 1)
	assert.Error(t, err)
}
