// ABOUTME: Robot video audio as a mixer channel
// ABOUTME: Packets feed a single robot.Stream that the mix pass pulls from
package audio32

import (
	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/robot"
)

// PlayRobot hands a robot audio packet to the robot channel, creating the
// channel on first use. It returns false when the packet must be resent
// later or no channel is free.
func (m *Mixer) PlayRobot(p robot.Packet) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drainUnlocks()

	idx := m.robotIndex()
	if idx < 0 {
		if m.numActive == len(m.channels) {
			log.Warnf("Mixer: no free channel for robot audio (%d in use)", m.numActive)
			return false
		}
		s := robot.NewStream(m.cfg.RobotBufferSize)
		idx = m.numActive
		m.channels[idx] = channel{
			stream:    s,
			robot:     s,
			converter: m.newConverter(s),
			volume:    MaxVolume,
			pan:       PanUnset,
			startedAt: m.clock.Ticks(),
		}
		m.numActive++
		log.Debugf("Mixer: robot audio started on channel %d", idx)
	}

	return m.channels[idx].robot.AddPacket(p)
}

// QueryRobot returns the robot stream status, or false without a robot channel
func (m *Mixer) QueryRobot() (robot.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.robotIndex()
	if idx < 0 {
		return robot.Status{}, false
	}
	return m.channels[idx].robot.Status(), true
}

// FinishRobot marks the robot stream complete. The channel is freed once
// its buffered audio has played out.
func (m *Mixer) FinishRobot() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.robotIndex()
	if idx < 0 {
		return false
	}
	m.channels[idx].robot.Finish()
	return true
}

// StopRobot drops the robot channel immediately
func (m *Mixer) StopRobot() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drainUnlocks()
	return m.stop(RobotChannel) > 0
}
