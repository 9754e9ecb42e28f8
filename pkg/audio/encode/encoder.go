// ABOUTME: Encoder interfaces
// ABOUTME: Shared by the raw PCM encoder and the WAV writer
package encode

// Encoder encodes PCM samples to a byte format
type Encoder interface {
	// Encode converts PCM samples to encoded audio data
	Encode(samples []int16) ([]byte, error)

	// Close releases encoder resources
	Close() error
}

// SampleWriter consumes PCM samples, typically into a file
type SampleWriter interface {
	WriteSamples(samples []int16) error
	Close() error
}
