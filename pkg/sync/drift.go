// ABOUTME: AV drift correction between robot video and its audio stream
// ABOUTME: Samples drift on a fixed tick interval and moves the frame rate by one step at a time
package sync

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// DriftCheckInterval is how often drift is sampled, about five seconds
const DriftCheckInterval = 5 * TickRate

// DriftCorrector keeps a video decoder's frame rate tracking audio playback.
// Rather than resyncing hard, it moves the target rate at most one frame per
// second away from normal, which avoids audible warble.
type DriftCorrector struct {
	mu sync.RWMutex

	clock      Clock
	normalFPS  int
	fps        int
	audioRate  int
	nextCheck  uint32
	checks     int
	lastDrift  int
	adjustment int
}

// NewDriftCorrector builds a corrector for video running at normalFPS
// against mono 16-bit audio at audioRate
func NewDriftCorrector(clock Clock, normalFPS, audioRate int) *DriftCorrector {
	return &DriftCorrector{
		clock:     clock,
		normalFPS: normalFPS,
		fps:       normalFPS,
		audioRate: audioRate,
		nextCheck: clock.Ticks() + DriftCheckInterval,
	}
}

// AudioFrame converts an audio byte position into a video frame number
func (d *DriftCorrector) AudioFrame(bytesPlaying int) int {
	return (bytesPlaying / 2) * d.normalFPS / d.audioRate
}

// Sample compares the current video frame with the audio position and
// returns the frame rate the video should use from now on. Calls between
// check intervals return the current rate unchanged.
func (d *DriftCorrector) Sample(videoFrame, bytesPlaying int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Ticks()
	if int32(now-d.nextCheck) < 0 {
		return d.fps
	}
	d.nextCheck = now + DriftCheckInterval
	d.checks++

	drift := videoFrame - d.AudioFrame(bytesPlaying)
	d.lastDrift = drift

	switch {
	case drift > 1:
		// video ahead of audio
		d.fps = max(d.fps-1, d.normalFPS-1)
	case drift < -1:
		d.fps = min(d.fps+1, d.normalFPS+1)
	default:
		d.fps = d.normalFPS
	}
	d.adjustment = d.fps - d.normalFPS

	if d.checks <= 3 || d.adjustment != 0 {
		log.WithFields(log.Fields{
			"video_frame": videoFrame,
			"drift":       drift,
			"fps":         d.fps,
		}).Debug("robot drift sample")
	}

	return d.fps
}

// FPS returns the current target frame rate
func (d *DriftCorrector) FPS() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fps
}

// Stats returns the last measured drift in frames and the active adjustment
func (d *DriftCorrector) Stats() (drift, adjustment, checks int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastDrift, d.adjustment, d.checks
}
