// ABOUTME: Audio output package for playing the mixed stream
// ABOUTME: Provides the Sink interface with oto and headless implementations
// Package output connects an audio.Stream to a device.
//
// A Sink pulls from exactly one stream for as long as it is open, which in
// practice is the channel mixer. Oto plays through the platform device;
// Headless paces reads in real time without one, optionally capturing what
// it pulled.
//
// Example:
//
//	out := output.NewOto(output.Config{})
//	err := out.Open(44100, 2)
//	err = out.Play(mixer)
package output
