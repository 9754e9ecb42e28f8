// ABOUTME: Audio decoder package for SCI resources and CD tracks
// ABOUTME: Provides DPCM codecs, the SOL container and WAV, MP3 and FLAC loaders
// Package decode turns resident audio resources into seekable PCM streams.
//
// Supported containers: SOL (raw or DPCM8/DPCM16 compressed), WAV, MP3 and FLAC.
// DPCM decoding is exposed separately because robot video audio decompresses
// individual packets outside of any container.
//
// Example:
//
//	stream, err := decode.Open(resourceData)
//	n := stream.ReadBuffer(samples)
package decode
