// ABOUTME: Tests for robot container audio records
// ABOUTME: Tests primer header validation and track parsing round trips
package robot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeHeader(t *testing.T, h PrimerHeader) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, h.Encode(&buf))
	return &buf
}

func TestParsePrimerHeader(t *testing.T) {
	tests := []struct {
		name     string
		header   PrimerHeader
		reserved int
		err      error
	}{
		{"valid", PrimerHeader{TotalSize: 30, EvenSize: 20, OddSize: 10}, 0, nil},
		{"fits reserved", PrimerHeader{TotalSize: 30, EvenSize: 20, OddSize: 10}, 44, nil},
		{"compressed", PrimerHeader{TotalSize: 30, CompressionType: 1, EvenSize: 20, OddSize: 10}, 0, ErrUnsupportedCompression},
		{"sizes disagree", PrimerHeader{TotalSize: 31, EvenSize: 20, OddSize: 10}, 0, ErrPrimerSizeMismatch},
		{"exceeds reserved", PrimerHeader{TotalSize: 30, EvenSize: 20, OddSize: 10}, 40, ErrPrimerSizeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := ParsePrimerHeader(encodeHeader(t, tt.header), tt.reserved)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.header, h)
		})
	}
}

func TestParsePrimerHeaderShort(t *testing.T) {
	_, err := ParsePrimerHeader(bytes.NewReader([]byte{1, 2, 3}), 0)
	assert.Error(t, err)
}

func TestReadTrack(t *testing.T) {
	h := PrimerHeader{TotalSize: 6, EvenSize: 4, OddSize: 2}
	buf := encodeHeader(t, h)
	buf.Write([]byte{1, 2, 3, 4, 5, 6})

	blocks := []AudioBlock{
		{Position: 8, Data: append(repeat(0, RunwayBytes), 7, 8)},
		{Position: 5, Data: append(repeat(0, RunwayBytes), 9)},
	}
	for _, b := range blocks {
		require.NoError(t, b.Encode(buf))
	}

	track, err := ReadTrack(buf, DefaultPrimerReservedSize)
	require.NoError(t, err)

	assert.Equal(t, h, track.Primer)
	assert.Equal(t, Packet{Data: []byte{1, 2, 3, 4}, Position: 0}, track.Even)
	assert.Equal(t, Packet{Data: []byte{5, 6}, Position: 2}, track.Odd)
	assert.Equal(t, blocks, track.Blocks)

	packets := track.Packets()
	require.Len(t, packets, 4)
	assert.Equal(t, 16, packets[2].Position)
	assert.Equal(t, 10, packets[3].Position)
	assert.Equal(t, 1, packets[3].parity())
	assert.Equal(t, RunwayBytes, packets[3].Runway)
}

func TestReadTrackTruncatedBlock(t *testing.T) {
	buf := encodeHeader(t, PrimerHeader{})
	require.NoError(t, AudioBlock{Position: 0, Data: []byte{1, 2, 3}}.Encode(buf))
	buf.Truncate(buf.Len() - 1)

	_, err := ReadTrack(buf, DefaultPrimerReservedSize)
	assert.Error(t, err)
}

func TestReadTrackPrimerExceedsReserved(t *testing.T) {
	h := PrimerHeader{TotalSize: 40, EvenSize: 20, OddSize: 20}
	buf := encodeHeader(t, h)
	buf.Write(repeat(0, 40))

	_, err := ReadTrack(bytes.NewReader(buf.Bytes()), PrimerHeaderSize+40)
	require.NoError(t, err)

	_, err = ReadTrack(bytes.NewReader(buf.Bytes()), PrimerHeaderSize+39)
	assert.ErrorIs(t, err, ErrPrimerSizeMismatch)
}
