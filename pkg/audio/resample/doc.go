// ABOUTME: Fixed-point sample rate conversion package
// ABOUTME: Resamples, applies volume and mixes into a shared buffer in one pass
// Package resample provides the RateConverter used by every mixer channel.
//
// A converter pulls PCM from an audio.Stream, resamples it to the output
// rate, scales it by a left and right volume and adds the result into the
// destination buffer with saturation. Three strategies exist and one is
// chosen on every call from the current rates:
//   - copy when the rates match
//   - decimation when the input rate is an integer multiple of the output rate
//   - linear interpolation with 15 fractional bits otherwise
//
// Example:
//
//	conv := resample.New(22050, 44100, false, true, false)
//	frames := conv.Convert(stream, mixBuf, len(mixBuf)/2, resample.MaxVolume, resample.MaxVolume)
package resample
