// ABOUTME: Exact rational time positions expressed in frames of an arbitrary rate
// ABOUTME: All arithmetic is integer-only so millisecond and frame values never drift
// Package timestamp represents points in time as whole seconds plus a frame
// count at an internal rate that is a multiple of 1000. Because both
// milliseconds and client frames map onto that internal rate exactly,
// conversions never accumulate rounding error.
package timestamp

import "fmt"

// Timestamp is an immutable value. The zero value is not usable; construct
// one with New or NewFrames.
type Timestamp struct {
	secs int
	// numFrames is always in [0, framerate) after normalization
	numFrames int
	// framerate is the internal rate: the client rate times factor
	framerate int
	factor    int
}

// New builds a Timestamp from milliseconds against the given frame rate
func New(ms, rate int) Timestamp {
	t := withRate(rate)
	t.secs = ms / 1000
	t.numFrames = (ms % 1000) * (t.framerate / 1000)
	t.normalize()
	return t
}

// NewFrames builds a Timestamp from whole seconds plus frames at the given rate
func NewFrames(secs, frames, rate int) Timestamp {
	t := withRate(rate)
	t.secs = secs + frames/rate
	t.numFrames = (frames % rate) * t.factor
	t.normalize()
	return t
}

func withRate(rate int) Timestamp {
	if rate <= 0 {
		panic(fmt.Sprintf("timestamp: invalid frame rate %d", rate))
	}
	factor := 1000 / gcd(1000, rate)
	return Timestamp{framerate: rate * factor, factor: factor}
}

func (t *Timestamp) normalize() {
	if t.numFrames < 0 {
		sub := 1 + (-t.numFrames / t.framerate)
		t.numFrames += t.framerate * sub
		t.secs -= sub
	}
	t.secs += t.numFrames / t.framerate
	t.numFrames %= t.framerate
}

// ConvertToFramerate re-expresses t against another frame rate, rounding to
// the nearest frame of the new rate
func (t Timestamp) ConvertToFramerate(rate int) Timestamp {
	if t.Framerate() == rate {
		return t
	}
	ts := withRate(rate)
	ts.secs = t.secs
	g := gcd(t.framerate, ts.framerate)
	p := t.framerate / g
	q := ts.framerate / g
	ts.numFrames = (t.numFrames*q + p/2) / p
	ts.normalize()
	return ts
}

// Cmp returns a negative number, zero or a positive number when t is before,
// equal to or after other. Differing frame rates are compared exactly.
func (t Timestamp) Cmp(other Timestamp) int {
	delta := t.secs - other.secs
	if delta == 0 {
		g := gcd(t.framerate, other.framerate)
		p := t.framerate / g
		q := other.framerate / g
		delta = t.numFrames*q - other.numFrames*p
	}
	return delta
}

func (t Timestamp) Equal(other Timestamp) bool        { return t.Cmp(other) == 0 }
func (t Timestamp) Less(other Timestamp) bool         { return t.Cmp(other) < 0 }
func (t Timestamp) LessEqual(other Timestamp) bool    { return t.Cmp(other) <= 0 }
func (t Timestamp) Greater(other Timestamp) bool      { return t.Cmp(other) > 0 }
func (t Timestamp) GreaterEqual(other Timestamp) bool { return t.Cmp(other) >= 0 }

// AddFrames offsets t by n frames of its own frame rate; n may be negative
func (t Timestamp) AddFrames(n int) Timestamp {
	t.numFrames += n * t.factor
	t.normalize()
	return t
}

// AddMsecs offsets t by n milliseconds; n may be negative
func (t Timestamp) AddMsecs(n int) Timestamp {
	t.secs += n / 1000
	t.numFrames += (n % 1000) * (t.framerate / 1000)
	t.normalize()
	return t
}

// Neg returns the negated interval
func (t Timestamp) Neg() Timestamp {
	t.secs = -t.secs
	t.numFrames = -t.numFrames
	t.normalize()
	return t
}

// Add sums two timestamps. Both must share the same frame rate.
func (t Timestamp) Add(other Timestamp) Timestamp {
	t.mustMatch(other)
	t.secs += other.secs
	t.numFrames += other.numFrames
	t.normalize()
	return t
}

// Sub subtracts other from t. Both must share the same frame rate.
func (t Timestamp) Sub(other Timestamp) Timestamp {
	t.mustMatch(other)
	t.secs -= other.secs
	t.numFrames -= other.numFrames
	t.normalize()
	return t
}

func (t Timestamp) mustMatch(other Timestamp) {
	if t.Framerate() != other.Framerate() {
		panic(fmt.Sprintf("timestamp: frame rate mismatch %d != %d", t.Framerate(), other.Framerate()))
	}
}

// FrameDiff returns t - other in frames of t's frame rate
func (t Timestamp) FrameDiff(other Timestamp) int {
	delta := 0
	if t.secs != other.secs {
		delta = (t.secs - other.secs) * t.framerate
	}
	delta += t.numFrames

	if t.framerate == other.framerate {
		delta -= other.numFrames
	} else {
		g := gcd(t.framerate, other.framerate)
		p := t.framerate / g
		q := other.framerate / g
		delta -= (other.numFrames*p + q/2) / q
	}

	return delta / t.factor
}

// MsecsDiff returns t - other in milliseconds
func (t Timestamp) MsecsDiff(other Timestamp) int {
	return t.Msecs() - other.Msecs()
}

// Msecs returns the position in milliseconds, rounded down
func (t Timestamp) Msecs() int {
	return t.secs*1000 + t.numFrames/(t.framerate/1000)
}

// Secs returns the whole seconds part
func (t Timestamp) Secs() int {
	return t.secs
}

// NumberOfFrames returns the frames past the whole-second boundary
func (t Timestamp) NumberOfFrames() int {
	return t.numFrames / t.factor
}

// TotalNumberOfFrames returns the position in frames of the client rate
func (t Timestamp) TotalNumberOfFrames() int {
	return t.numFrames/t.factor + t.secs*t.Framerate()
}

// Framerate returns the client frame rate
func (t Timestamp) Framerate() int {
	return t.framerate / t.factor
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%d.%03ds@%d", t.secs, t.NumberOfFrames()*1000/t.Framerate(), t.Framerate())
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}
