// ABOUTME: Robot audio ring buffer with primer gating and gap interpolation
// ABOUTME: Accepts out-of-order even/odd packets and feeds the mixer as a mono stream
package robot

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio/decode"
)

const (
	// SampleRate and BitDepth are fixed for robot audio
	SampleRate = 22050
	BitDepth   = 16

	// DefaultBufferSize is the ring capacity in bytes of decompressed PCM
	DefaultBufferSize = 88200

	// RunwayBytes lead every container audio block to prime the decoder
	RunwayBytes = 8
)

// Packet is one compressed audio packet.
//
// Position is the byte offset of its first sample in the decompressed,
// interleaved signal: multiples of 4 address the even half and offsets of
// 2 mod 4 the odd half. The first Runway decoded samples only prime the DPCM
// carry and are dropped.
type Packet struct {
	Data     []byte
	Position int
	Runway   int
}

func (p Packet) parity() int {
	if p.Position%4 != 0 {
		return 1
	}
	return 0
}

// Samples returns how many samples the packet produces
func (p Packet) Samples() int {
	return max(len(p.Data)-p.Runway, 0)
}

// Status reports playback progress for AV sync
type Status struct {
	BytesPlaying int
	Rate         int
	Bits         int
}

// Stream is the robot audio ring buffer.
//
// Internally everything is addressed in absolute sample slots; slot s lives
// at ring index s % capacity. Since the capacity is even, a slot keeps its
// parity in the ring.
type Stream struct {
	mu sync.Mutex

	ring     []int16
	capacity int

	readHead  int
	maxWrite  int
	writeHead int
	jointMin  [2]int

	waiting  bool
	finished bool
	firstPos int
	// primed is set once both primers have landed and is never cleared
	primed bool

	lastOut int16

	decodedPos int
	decoded    []int16
}

// NewStream allocates a ring of bufferSize bytes. The size must be a
// positive multiple of 4 so that both halves get whole slots.
func NewStream(bufferSize int) *Stream {
	if bufferSize <= 0 || bufferSize%4 != 0 {
		panic(fmt.Sprintf("robot: buffer size %d is not a positive multiple of 4", bufferSize))
	}
	capacity := bufferSize / 2
	return &Stream{
		ring:       make([]int16, capacity),
		capacity:   capacity,
		maxWrite:   capacity,
		writeHead:  1,
		jointMin:   [2]int{0, 1},
		waiting:    true,
		firstPos:   -1,
		decodedPos: -1,
	}
}

// AddPacket offers a packet to the stream. It returns false when the packet
// must be sent again later, either because the ring is full or because only
// part of it fit. Packets that are already behind playback are dropped and
// reported as accepted.
func (s *Stream) AddPacket(p Packet) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		log.Warnf("robot: packet %d sent to finished stream", p.Position)
		return false
	}

	c := p.parity()

	if p.Position <= 2 && s.firstPos == -1 && !s.primed {
		s.readHead = 0
		s.maxWrite = s.capacity
		s.writeHead = 1
		s.jointMin = [2]int{0, 1}
		s.waiting = true
		s.lastOut = 0
		s.firstPos = p.Position
		s.fill(p, c)
		return true
	}

	start := p.Position / 2
	end := start + 2*p.Samples()

	if end <= max(s.readHead, s.jointMin[c]) {
		log.Debugf("robot: dropping stale packet %d (read %d, joint %d)", p.Position, s.readHead*2, s.jointMin[c]*2)
		return true
	}

	if s.maxWrite <= s.jointMin[c] {
		log.Debugf("robot: rejecting packet %d, buffer full", p.Position)
		return false
	}

	s.fill(p, c)

	if s.firstPos != -1 && s.firstPos != p.Position {
		log.Debug("robot: primers received, audio begins")
		s.waiting = false
		s.primed = true
		s.firstPos = -1
	}

	if s.jointMin[c] < end {
		log.Debugf("robot: partial read of packet %d (%d of %d bytes)", p.Position, (end-s.jointMin[c])*2, (end-start)*2)
		return false
	}

	return true
}

// fill writes the packet's half into the ring. Slots of this half between
// the previous high-water mark and the packet start are gap-filled, and the
// other half is provisionally interpolated wherever real data has not landed.
func (s *Stream) fill(p Packet, c int) {
	samples := s.decodePacket(p)
	start := p.Position / 2
	end := start + 2*len(samples)

	limit := min(end, s.maxWrite)
	if limit%2 != c {
		limit++
	}

	lo := max(s.readHead, s.jointMin[c])
	if lo%2 != c {
		lo++
	}
	if lo >= limit {
		return
	}

	var first int16
	if len(samples) > 0 {
		first = samples[0]
	}
	for slot := lo; slot < start && slot < limit; slot += 2 {
		s.ring[slot%s.capacity] = average(s.neighbour(slot-1), first)
	}
	for slot := max(lo, start); slot < limit; slot += 2 {
		s.ring[slot%s.capacity] = samples[(slot-start)/2]
	}
	s.jointMin[c] = limit

	// slots of the other half that sit between two real samples of this half
	other := 1 - c
	from := max(s.jointMin[other], s.readHead)
	if from%2 != other {
		from++
	}
	for slot := from; slot+1 < limit; slot += 2 {
		s.ring[slot%s.capacity] = average(s.neighbour(slot-1), s.ring[(slot+1)%s.capacity])
	}

	s.writeHead = min(max(s.jointMin[0], s.jointMin[1]), s.maxWrite)
}

// decodePacket decompresses a packet once; retries of the same position reuse the result
func (s *Stream) decodePacket(p Packet) []int16 {
	if s.decodedPos == p.Position {
		return s.decoded
	}

	if cap(s.decoded) < len(p.Data) {
		s.decoded = make([]int16, len(p.Data))
	}
	out := s.decoded[:len(p.Data)]
	decode.DecodeDPCM16(out, p.Data, 0)

	s.decoded = out[min(p.Runway, len(out)):]
	s.decodedPos = p.Position
	return s.decoded
}

// neighbour returns the best known value at slot, falling back to the last
// played sample when the slot has been consumed or never written
func (s *Stream) neighbour(slot int) int16 {
	if slot < s.readHead || slot < 0 {
		return s.lastOut
	}
	if slot < s.jointMin[slot%2] {
		return s.ring[slot%s.capacity]
	}
	return s.lastOut
}

func average(a, b int16) int16 {
	return int16((int32(a) + int32(b)) / 2)
}

// Read copies up to len(buf) samples out of the ring. It returns 0 until
// both primers have arrived.
func (s *Stream) Read(buf []int16) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.waiting {
		return 0
	}

	n := min(len(buf), s.writeHead-s.readHead)
	if n <= 0 {
		return 0
	}

	s.interpolateMissing(s.readHead + n)

	for i := 0; i < n; i++ {
		buf[i] = s.ring[(s.readHead+i)%s.capacity]
	}
	s.lastOut = buf[n-1]

	s.readHead += n
	s.maxWrite = s.readHead + s.capacity
	return n
}

// interpolateMissing fills slots of a lagging half up to end so playback
// stays continuous, then marks them as consumed for that half
func (s *Stream) interpolateMissing(end int) {
	for c := 0; c < 2; c++ {
		if s.jointMin[c] >= end {
			continue
		}
		slot := max(s.jointMin[c], s.readHead)
		if slot%2 != c {
			slot++
		}
		for ; slot < end; slot += 2 {
			prev := s.neighbour(slot - 1)
			next := prev
			if slot+1 < s.jointMin[1-c] {
				next = s.ring[(slot+1)%s.capacity]
			}
			s.ring[slot%s.capacity] = average(prev, next)
			// later slots of this half may use the value just written
			s.jointMin[c] = slot + 2
		}
		if s.jointMin[c] < end {
			s.jointMin[c] = end + (c+end)%2
		}
	}
}

// Finish marks the end of the track; no further packets are accepted
func (s *Stream) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
}

// Status returns the playback position in decompressed bytes
func (s *Stream) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		BytesPlaying: s.readHead * 2,
		Rate:         SampleRate,
		Bits:         BitDepth,
	}
}

// Waiting reports whether the stream is still waiting for its primers
func (s *Stream) Waiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiting
}

// Finished reports whether Finish has been called
func (s *Stream) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

func (s *Stream) ReadBuffer(buf []int16) int { return s.Read(buf) }
func (s *Stream) IsStereo() bool             { return false }
func (s *Stream) Rate() int                  { return SampleRate }

func (s *Stream) EndOfData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readHead >= s.writeHead
}

func (s *Stream) EndOfStream() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished && s.readHead >= s.writeHead
}
