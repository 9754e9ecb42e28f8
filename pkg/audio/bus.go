// ABOUTME: Sums several endless streams into one for a single-stream sink
// ABOUTME: Inputs must already share the bus rate and channel layout
package audio

// Bus adds its inputs together with saturation
type Bus struct {
	inputs  []Stream
	rate    int
	stereo  bool
	scratch []int16
}

// NewBus creates a bus over inputs
func NewBus(rate int, stereo bool, inputs ...Stream) *Bus {
	return &Bus{inputs: inputs, rate: rate, stereo: stereo}
}

func (b *Bus) ReadBuffer(buf []int16) int {
	if len(b.inputs) == 0 {
		clear(buf)
		return len(buf)
	}

	n := b.inputs[0].ReadBuffer(buf)
	clear(buf[n:])

	if cap(b.scratch) < len(buf) {
		b.scratch = make([]int16, len(buf))
	}
	for _, in := range b.inputs[1:] {
		got := in.ReadBuffer(b.scratch[:len(buf)])
		for i, s := range b.scratch[:got] {
			buf[i] = ClampedAdd(buf[i], s)
		}
		n = max(n, got)
	}
	return n
}

func (b *Bus) IsStereo() bool  { return b.stereo }
func (b *Bus) Rate() int       { return b.rate }
func (b *Bus) EndOfData() bool { return b.EndOfStream() }

// EndOfStream is true once every input has ended
func (b *Bus) EndOfStream() bool {
	for _, in := range b.inputs {
		if !in.EndOfStream() {
			return false
		}
	}
	return true
}
