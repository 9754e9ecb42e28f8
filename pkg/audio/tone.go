// ABOUTME: Integer square wave generator
// ABOUTME: Produces deterministic test and demo tones without floating point
package audio

// SquareWave renders a square wave of the given frequency and amplitude.
// The result is resident and seekable so it can be handed straight to a mixer channel.
func SquareWave(rate, frequency int, amplitude int16, frames int, stereo bool) *MemoryStream {
	channels := 1
	if stereo {
		channels = 2
	}

	samples := make([]int16, frames*channels)
	half := 1
	if frequency > 0 {
		half = rate / (frequency * 2)
		if half < 1 {
			half = 1
		}
	}

	for i := 0; i < frames; i++ {
		value := amplitude
		if (i/half)%2 == 1 {
			value = -amplitude
		}
		for c := 0; c < channels; c++ {
			samples[i*channels+c] = value
		}
	}

	return NewMemoryStream(samples, rate, stereo)
}

// Constant renders a DC signal, mostly useful for checking mix arithmetic
func Constant(rate int, value int16, frames int, stereo bool) *MemoryStream {
	channels := 1
	if stereo {
		channels = 2
	}
	samples := make([]int16, frames*channels)
	for i := range samples {
		samples[i] = value
	}
	return NewMemoryStream(samples, rate, stereo)
}
