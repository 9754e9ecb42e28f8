// ABOUTME: One slot of the mixer's channel table
// ABOUTME: Holds the stream, its converter and the per-channel playback state
package audio32

import (
	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/resample"
	"github.com/sciaudio/sciaudio/pkg/robot"
)

const (
	// MaxVolume is the loudest channel volume
	MaxVolume = 127

	// PanUnset centres a channel without applying the pan law
	PanUnset = -1
	MaxPan   = 100
)

// Channel selectors accepted wherever a channel index is
const (
	NoExistingChannel int16 = -1
	AllChannels       int16 = -2
	RobotChannel      int16 = -3
)

type fade struct {
	active      bool
	startTick   uint32
	startVolume int16
	target      int16
	duration    uint32
	stopAfter   bool
}

type channel struct {
	id    ResourceID
	owner Owner

	stream    audio.Stream
	seekable  audio.SeekableStream
	robot     *robot.Stream
	converter *resample.RateConverter
	locked    bool

	volume int16
	pan    int16
	loop   bool

	paused    bool
	pausedAt  uint32
	startedAt uint32
	duration  uint16

	fade fade
}

func (c *channel) isRobot() bool {
	return c.robot != nil
}

// exhausted reports that neither the stream nor the converter has samples left
func (c *channel) exhausted() bool {
	return c.stream.EndOfStream() && !c.converter.NeedsDraining()
}

// position returns elapsed ticks, frozen while paused
func (c *channel) position(now uint32) uint32 {
	if c.paused {
		return c.pausedAt - c.startedAt
	}
	return now - c.startedAt
}

func clampVolume(v int) int16 {
	return int16(min(max(v, 0), MaxVolume))
}

func clampPan(p int) int16 {
	if p < 0 {
		return PanUnset
	}
	return int16(min(p, MaxPan))
}
