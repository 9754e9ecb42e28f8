// ABOUTME: The three rate conversion algorithms
// ABOUTME: Exact copy, integer decimation and fixed-point linear interpolation
package resample

import "github.com/sciaudio/sciaudio/pkg/audio"

type copyStrategy struct{}

func (copyStrategy) name() string { return "copy" }

func (copyStrategy) convert(r *RateConverter, src audio.Stream, dst []int16, frames int, volL, volR int32) int {
	written := 0
	for written < frames {
		if r.inLen == 0 && !r.fill(src, (frames-written)*r.inChannels()) {
			break
		}
		left, right := r.next()
		r.mix(dst, written, left, right, volL, volR)
		written++
	}
	return written
}

// simpleStrategy keeps the last of every inRate/outRate input frames
type simpleStrategy struct {
	opos int
}

func (*simpleStrategy) name() string { return "simple" }

func (s *simpleStrategy) convert(r *RateConverter, src audio.Stream, dst []int16, frames int, volL, volR int32) int {
	inc := r.inRate / r.outRate
	written := 0

	for written < frames {
		var left, right int16
		for {
			if r.inLen == 0 && !r.fill(src, bufferSize) {
				return written
			}
			s.opos--
			if s.opos >= 0 {
				r.skip()
				continue
			}
			left, right = r.next()
			break
		}

		s.opos += inc
		r.mix(dst, written, left, right, volL, volR)
		written++
	}
	return written
}

// linearStrategy interpolates between the previous and current input frame
// using a phase accumulator with fracBits of fraction
type linearStrategy struct {
	opos int
	last [2]int
	cur  [2]int
}

func (*linearStrategy) name() string { return "linear" }

func (s *linearStrategy) convert(r *RateConverter, src audio.Stream, dst []int16, frames int, volL, volR int32) int {
	inc := (r.inRate << fracBits) / r.outRate
	written := 0

	for written < frames {
		for s.opos >= fracOne {
			if r.inLen == 0 && !r.fill(src, bufferSize) {
				return written
			}
			left, right := r.next()
			s.last = s.cur
			s.cur = [2]int{int(left), int(right)}
			s.opos -= fracOne
		}

		for s.opos < fracOne && written < frames {
			left := s.last[0] + ((s.cur[0]-s.last[0])*s.opos+fracHalf)>>fracBits
			right := s.last[1] + ((s.cur[1]-s.last[1])*s.opos+fracHalf)>>fracBits
			r.mix(dst, written, int16(left), int16(right), volL, volR)
			written++
			s.opos += inc
		}
	}
	return written
}
