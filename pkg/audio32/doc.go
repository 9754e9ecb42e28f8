// ABOUTME: Package audio32 is the software channel mixer
// ABOUTME: A bounded channel table mixed into one stream for the platform output
// Package audio32 mixes a fixed number of concurrently playing sound channels
// into a single PCM stream.
//
// Each channel owns a decoded stream and a rate converter. The mixer itself
// implements audio.Stream so the platform sink only ever sees one source.
// Two goroutines use a Mixer: the output goroutine calling Read, and the
// engine goroutine calling everything else. Resource unlocks caused by the
// output goroutine are deferred until the engine next touches the mixer,
// since resource managers are not expected to be goroutine-safe.
package audio32
