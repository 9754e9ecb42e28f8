// ABOUTME: RateConverter state shared by all conversion strategies
// ABOUTME: Holds the input staging buffer, rates and channel layout
package resample

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio"
)

const (
	// MaxVolume is the unity gain for Convert's volume arguments
	MaxVolume = 256

	fracBits = 15
	fracOne  = 1 << fracBits
	fracHalf = 1 << (fracBits - 1)

	bufferSize = 512

	// simpleLimit bounds the input rate for integer decimation
	simpleLimit = 65536
)

// strategy is one rate conversion algorithm. Each keeps its own phase so
// switching rates mid-stream never corrupts another strategy's state.
type strategy interface {
	convert(r *RateConverter, src audio.Stream, dst []int16, frames int, volL, volR int32) int
	name() string
}

// RateConverter resamples one stream into a mix buffer
type RateConverter struct {
	inRate    int
	outRate   int
	inStereo  bool
	outStereo bool
	reverse   bool

	buf   [bufferSize]int16
	inPos int
	inLen int

	// a stereo source that returned an odd count leaves its last sample here
	carry    int16
	hasCarry bool

	copier   copyStrategy
	decimate simpleStrategy
	lerp     linearStrategy
}

// New creates a converter. reverse swaps left and right on output.
func New(inRate, outRate int, inStereo, outStereo, reverse bool) *RateConverter {
	if inRate <= 0 || outRate <= 0 {
		panic(fmt.Sprintf("resample: invalid rates %d -> %d", inRate, outRate))
	}

	r := &RateConverter{
		inRate:    inRate,
		outRate:   outRate,
		inStereo:  inStereo,
		outStereo: outStereo,
		reverse:   reverse,
		decimate:  simpleStrategy{opos: 1},
		lerp:      linearStrategy{opos: fracOne},
	}

	log.WithFields(log.Fields{
		"in_rate":   inRate,
		"out_rate":  outRate,
		"in_stereo": inStereo,
		"strategy":  r.strategy().name(),
	}).Debug("rate converter created")

	return r
}

func (r *RateConverter) strategy() strategy {
	switch {
	case r.inRate == r.outRate:
		return &r.copier
	case r.inRate%r.outRate == 0 && r.inRate < simpleLimit:
		return &r.decimate
	default:
		return &r.lerp
	}
}

// Convert pulls from src and adds up to frames output frames into dst.
// dst holds interleaved stereo when the converter outputs stereo. Returns the
// number of frames produced, which is short only when src ran dry.
func (r *RateConverter) Convert(src audio.Stream, dst []int16, frames int, volL, volR uint16) int {
	frames = min(frames, len(dst)/r.outChannels())
	if frames <= 0 {
		return 0
	}
	return r.strategy().convert(r, src, dst, frames, int32(volL), int32(volR))
}

// Strategy names the algorithm the next Convert call will use
func (r *RateConverter) Strategy() string {
	return r.strategy().name()
}

func (r *RateConverter) InputRate() int  { return r.inRate }
func (r *RateConverter) OutputRate() int { return r.outRate }

// SetInputRate changes the source rate without resetting phase
func (r *RateConverter) SetInputRate(rate int) {
	if rate > 0 {
		r.inRate = rate
	}
}

// SetOutputRate changes the destination rate without resetting phase
func (r *RateConverter) SetOutputRate(rate int) {
	if rate > 0 {
		r.outRate = rate
	}
}

// NeedsDraining reports whether input has been buffered but not yet consumed
func (r *RateConverter) NeedsDraining() bool {
	return r.inLen != 0 || r.hasCarry
}

func (r *RateConverter) inChannels() int {
	if r.inStereo {
		return 2
	}
	return 1
}

func (r *RateConverter) outChannels() int {
	if r.outStereo {
		return 2
	}
	return 1
}

// fill refills the staging buffer with at most limit samples. Stereo input
// is kept frame aligned by holding back an unpaired trailing sample.
func (r *RateConverter) fill(src audio.Stream, limit int) bool {
	r.inPos = 0
	start := 0
	if r.hasCarry {
		r.buf[0] = r.carry
		r.hasCarry = false
		start = 1
	}
	end := max(min(limit, bufferSize), start)
	r.inLen = start + src.ReadBuffer(r.buf[start:end])
	if r.inStereo && r.inLen%2 != 0 {
		r.inLen--
		r.carry = r.buf[r.inLen]
		r.hasCarry = true
	}
	return r.inLen > 0
}

// next consumes one input frame; mono input is duplicated to both sides
func (r *RateConverter) next() (int16, int16) {
	left := r.buf[r.inPos]
	right := left
	if r.inStereo {
		right = r.buf[r.inPos+1]
	}
	n := r.inChannels()
	r.inPos += n
	r.inLen -= n
	return left, right
}

func (r *RateConverter) skip() {
	n := r.inChannels()
	r.inPos += n
	r.inLen -= n
}

// mix adds one volume-scaled frame into dst
func (r *RateConverter) mix(dst []int16, frame int, left, right int16, volL, volR int32) {
	l := int32(left) * volL / MaxVolume
	rt := int32(right) * volR / MaxVolume

	if !r.outStereo {
		dst[frame] = audio.Clamp16(int32(dst[frame]) + (l+rt)>>1)
		return
	}

	li, ri := frame*2, frame*2+1
	if r.reverse {
		li, ri = ri, li
	}
	dst[li] = audio.Clamp16(int32(dst[li]) + l)
	dst[ri] = audio.Clamp16(int32(dst[ri]) + rt)
}
