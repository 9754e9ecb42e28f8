// ABOUTME: Feeds a robot audio track into the mixer as the video would
// ABOUTME: Resends rejected packets each tick and samples AV drift on its interval
package app

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/internal/protocol"
	"github.com/sciaudio/sciaudio/pkg/audio32"
	"github.com/sciaudio/sciaudio/pkg/robot"
	scisync "github.com/sciaudio/sciaudio/pkg/sync"
)

const defaultRobotFPS = 10

// robotFeed walks a parsed track. The engine goroutine drives it; status
// may be read from the monitor.
type robotFeed struct {
	mu sync.Mutex

	clock   scisync.Clock
	packets []robot.Packet
	next    int
	done    bool
	active  bool

	drift *scisync.DriftCorrector
	fps   int

	// simulated video position in frames times TickRate
	frameAcc  int
	lastTick  uint32
	bytesSeen int
}

func loadRobot(path string, clock scisync.Clock, fps, reserved int) (*robotFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open robot track: %w", err)
	}
	defer f.Close()

	track, err := robot.ReadTrack(bufio.NewReader(f), reserved)
	if err != nil {
		return nil, fmt.Errorf("robot track %s: %w", path, err)
	}

	log.Printf("Robot track %s: primers %d+%d bytes, %d audio blocks",
		path, track.Primer.EvenSize, track.Primer.OddSize, len(track.Blocks))
	return newRobotFeed(track.Packets(), clock, fps), nil
}

func newRobotFeed(packets []robot.Packet, clock scisync.Clock, fps int) *robotFeed {
	return &robotFeed{
		clock:    clock,
		packets:  packets,
		drift:    scisync.NewDriftCorrector(clock, fps, robot.SampleRate),
		fps:      fps,
		lastTick: clock.Ticks(),
	}
}

// feed submits packets until the mixer pushes back, then finishes the
// stream once the last one is in
func (f *robotFeed) feed(m *audio32.Mixer) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done {
		return
	}
	for f.next < len(f.packets) {
		if !m.PlayRobot(f.packets[f.next]) {
			return
		}
		f.active = true
		f.next++
	}
	m.FinishRobot()
	f.done = true
	log.Printf("Robot track fully queued (%d packets)", len(f.packets))
}

// sample advances the simulated video clock and applies drift correction
func (f *robotFeed) sample(m *audio32.Mixer) {
	st, ok := m.QueryRobot()

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Ticks()
	f.frameAcc += int(now-f.lastTick) * f.fps
	f.lastTick = now
	if !ok {
		return
	}
	f.bytesSeen = st.BytesPlaying

	frame := f.frameAcc / scisync.TickRate
	fps := f.drift.Sample(frame, st.BytesPlaying)
	if fps != f.fps {
		drift, adjustment, checks := f.drift.Stats()
		log.WithFields(log.Fields{
			"video_frame": frame,
			"audio_frame": f.drift.AudioFrame(st.BytesPlaying),
			"drift":       drift,
			"adjustment":  adjustment,
			"checks":      checks,
		}).Debugf("Robot fps %d -> %d", f.fps, fps)
		f.fps = fps
	}
}

// pending reports whether packets are still queued for the mixer
func (f *robotFeed) pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.done
}

func (f *robotFeed) status() protocol.RobotStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return protocol.RobotStatus{
		Active:       f.active,
		Queued:       len(f.packets) - f.next,
		BytesPlaying: f.bytesSeen,
		FPS:          f.fps,
	}
}
