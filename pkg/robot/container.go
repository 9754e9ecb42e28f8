// ABOUTME: Robot container audio structures: the primer header and audio blocks
// ABOUTME: Parses little-endian records and turns them into stream packets
package robot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrUnsupportedCompression means the primer header names a compression type other than none
	ErrUnsupportedCompression = errors.New("unsupported robot audio compression")
	// ErrPrimerSizeMismatch means the primer sizes disagree with each other or the reserved region
	ErrPrimerSizeMismatch = errors.New("robot primer size mismatch")
)

// PrimerHeaderSize is the encoded size of PrimerHeader
const PrimerHeaderSize = 14

// DefaultPrimerReservedSize is the primer region most robot containers declare
const DefaultPrimerReservedSize = 19922

// PrimerHeader describes the two primer packets at the start of a track
type PrimerHeader struct {
	TotalSize       int
	CompressionType int
	EvenSize        int
	OddSize         int
}

// ParsePrimerHeader reads the primer header. reserved is the primer region
// size declared by the container; zero skips the region check.
func ParsePrimerHeader(r io.Reader, reserved int) (PrimerHeader, error) {
	var raw struct {
		Total       int32
		Compression int16
		Even        int32
		Odd         int32
	}
	if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
		return PrimerHeader{}, fmt.Errorf("failed to read primer header: %w", err)
	}

	h := PrimerHeader{
		TotalSize:       int(raw.Total),
		CompressionType: int(raw.Compression),
		EvenSize:        int(raw.Even),
		OddSize:         int(raw.Odd),
	}

	if h.CompressionType != 0 {
		return h, fmt.Errorf("compression type %d: %w", h.CompressionType, ErrUnsupportedCompression)
	}
	if h.EvenSize < 0 || h.OddSize < 0 || h.EvenSize+h.OddSize != h.TotalSize {
		return h, fmt.Errorf("even %d + odd %d != total %d: %w", h.EvenSize, h.OddSize, h.TotalSize, ErrPrimerSizeMismatch)
	}
	if reserved != 0 && PrimerHeaderSize+h.TotalSize > reserved {
		return h, fmt.Errorf("primer of %d bytes exceeds reserved %d: %w", h.TotalSize, reserved, ErrPrimerSizeMismatch)
	}

	return h, nil
}

// Encode writes the header in container byte order
func (h PrimerHeader) Encode(w io.Writer) error {
	buf := make([]byte, 0, PrimerHeaderSize)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.TotalSize))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(h.CompressionType))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.EvenSize))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(h.OddSize))
	_, err := w.Write(buf)
	return err
}

// ReadPrimers reads the even then odd primer data that follows the header
func ReadPrimers(r io.Reader, h PrimerHeader) (even, odd Packet, err error) {
	evenData := make([]byte, h.EvenSize)
	if _, err = io.ReadFull(r, evenData); err != nil {
		return even, odd, fmt.Errorf("failed to read even primer: %w", err)
	}
	oddData := make([]byte, h.OddSize)
	if _, err = io.ReadFull(r, oddData); err != nil {
		return even, odd, fmt.Errorf("failed to read odd primer: %w", err)
	}
	return Packet{Data: evenData, Position: 0}, Packet{Data: oddData, Position: 2}, nil
}

// AudioBlock is the audio record that may follow a video frame
type AudioBlock struct {
	// Position is the absolute position in the compressed audio stream
	Position int
	// Data includes the leading runway
	Data []byte
}

// ReadAudioBlock reads one block: position, size, then size bytes of DPCM data
func ReadAudioBlock(r io.Reader) (AudioBlock, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return AudioBlock{}, err
	}

	position := int(int32(binary.LittleEndian.Uint32(hdr[0:4])))
	size := int(int32(binary.LittleEndian.Uint32(hdr[4:8])))
	if size < 0 {
		return AudioBlock{}, fmt.Errorf("audio block at %d has size %d: %w", position, size, io.ErrUnexpectedEOF)
	}

	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return AudioBlock{}, fmt.Errorf("failed to read audio block at %d: %w", position, err)
	}
	return AudioBlock{Position: position, Data: data}, nil
}

// Encode writes the block in container byte order
func (b AudioBlock) Encode(w io.Writer) error {
	buf := make([]byte, 0, 8+len(b.Data))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(b.Position))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Data)))
	buf = append(buf, b.Data...)
	_, err := w.Write(buf)
	return err
}

// Packet converts the block into a stream packet. startOffset is the
// compressed position at which the track's audio began.
func (b AudioBlock) Packet(startOffset int) Packet {
	return Packet{
		Data:     b.Data,
		Position: (b.Position - startOffset) * 2,
		Runway:   RunwayBytes,
	}
}

// Track is a fully parsed robot audio track
type Track struct {
	Primer PrimerHeader
	Even   Packet
	Odd    Packet
	Blocks []AudioBlock
}

// ReadTrack parses a primer header, both primers and every audio block up to
// EOF. reserved is the container's primer region size; the header and both
// primers must fit inside it.
func ReadTrack(r io.Reader, reserved int) (*Track, error) {
	h, err := ParsePrimerHeader(r, reserved)
	if err != nil {
		return nil, err
	}

	even, odd, err := ReadPrimers(r, h)
	if err != nil {
		return nil, err
	}

	track := &Track{Primer: h, Even: even, Odd: odd}
	for {
		block, err := ReadAudioBlock(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read audio block %d: %w", len(track.Blocks), err)
		}
		track.Blocks = append(track.Blocks, block)
	}

	return track, nil
}

// PrimerPackets returns the even and odd primers
func (t *Track) PrimerPackets() (even, odd Packet) {
	return t.Even, t.Odd
}

// Packets returns every packet in submission order, primers first
func (t *Track) Packets() []Packet {
	even, odd := t.PrimerPackets()
	packets := []Packet{even, odd}
	for _, b := range t.Blocks {
		packets = append(packets, b.Packet(0))
	}
	return packets
}
