// ABOUTME: Package encode turns mixed PCM back into bytes
// ABOUTME: Raw little-endian PCM for devices and WAV files for captures
// Package encode serializes signed 16-bit PCM.
//
// PCMEncoder produces the raw byte layout audio devices expect, and
// WAVWriter records a stream to a RIFF/WAVE file.
//
// Example:
//
//	w, err := encode.CreateWAV("capture.wav", 44100, 2)
//	err = w.WriteSamples(samples)
//	err = w.Close()
package encode
