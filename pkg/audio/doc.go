// ABOUTME: Audio fundamentals package providing core stream types and sample helpers
// ABOUTME: Defines the pull-based Stream interface shared by decoders, converters and mixers
// Package audio provides the fundamental PCM types used across the sciaudio library.
//
// Every component on the data plane speaks interleaved signed 16-bit samples:
//   - Stream: a pull-based PCM source (decoders, robot audio, the mixer itself)
//   - SeekableStream: a Stream that can be rewound and has a known length
//   - MemoryStream: a fully resident SeekableStream
//
// Mixing is done with saturating arithmetic so that several channels can be
// accumulated into one buffer without wraparound:
//
//	dst[i] = audio.ClampedAdd(dst[i], sample)
package audio
