// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, sample clamping and saturating mix helpers
package audio

const (
	// MaxSample and MinSample bound a signed 16-bit sample
	MaxSample = 32767
	MinSample = -32768
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Stereo reports whether the format carries two interleaved channels
func (f Format) Stereo() bool {
	return f.Channels == 2
}

// Clamp16 saturates a 32-bit intermediate into the int16 range
func Clamp16(v int32) int16 {
	if v > MaxSample {
		return MaxSample
	}
	if v < MinSample {
		return MinSample
	}
	return int16(v)
}

// ClampedAdd adds two samples, saturating instead of wrapping
func ClampedAdd(a, b int16) int16 {
	return Clamp16(int32(a) + int32(b))
}

// ScaleToInt16 reduces a sample of the given bit depth to 16 bits
func ScaleToInt16(sample int32, bitDepth int) int16 {
	switch {
	case bitDepth > 16:
		return int16(sample >> uint(bitDepth-16))
	case bitDepth < 16:
		return int16(sample << uint(16-bitDepth))
	default:
		return int16(sample)
	}
}

// SampleFromUint8 converts an unsigned 8-bit sample to signed 16-bit
func SampleFromUint8(sample byte) int16 {
	return int16(uint16(sample)<<8 ^ 0x8000)
}
