// ABOUTME: Point-in-time view of the mixer for the UI, monitor and debug dump
// ABOUTME: Snapshot copies channel state under the mixer lock
package audio32

import (
	"fmt"
	"strings"
)

// ChannelStatus describes one occupied slot
type ChannelStatus struct {
	Index     int        `json:"index"`
	ID        ResourceID `json:"id"`
	Resource  string     `json:"resource"`
	Owner     Owner      `json:"owner"`
	Volume    int16      `json:"volume"`
	Pan       int16      `json:"pan"`
	Loop      bool       `json:"loop"`
	Paused    bool       `json:"paused"`
	Fading    bool       `json:"fading"`
	Robot     bool       `json:"robot"`
	Monitored bool       `json:"monitored"`
	Position  uint32     `json:"position"`
	Duration  uint16     `json:"duration"`
	// Converter names the resampling algorithm feeding the mix
	Converter string `json:"converter"`
}

// Status describes the whole mixer
type Status struct {
	Capacity         int             `json:"capacity"`
	Active           int             `json:"active"`
	Master           int16           `json:"master"`
	Paused           bool            `json:"paused"`
	Rate             int             `json:"rate"`
	Stereo           bool            `json:"stereo"`
	Attenuation      string          `json:"attenuation"`
	AttenuatedMixing bool            `json:"attenuated_mixing"`
	PendingUnlocks   int             `json:"pending_unlocks"`
	Channels         []ChannelStatus `json:"channels"`
}

// Snapshot returns the current mixer state
func (m *Mixer) Snapshot() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	st := Status{
		Capacity:         len(m.channels),
		Active:           m.numActive,
		Master:           m.master,
		Paused:           m.paused,
		Rate:             m.cfg.Rate,
		Stereo:           m.cfg.Stereo,
		Attenuation:      m.cfg.Attenuation.String(),
		AttenuatedMixing: m.cfg.AttenuatedMixing,
		PendingUnlocks:   len(m.pendingUnlocks),
		Channels:         make([]ChannelStatus, 0, m.numActive),
	}

	for i := 0; i < m.numActive; i++ {
		ch := &m.channels[i]
		name := ch.id.String()
		if ch.isRobot() {
			name = "robot"
		}
		st.Channels = append(st.Channels, ChannelStatus{
			Index:     i,
			ID:        ch.id,
			Resource:  name,
			Owner:     ch.owner,
			Volume:    ch.volume,
			Pan:       ch.pan,
			Loop:      ch.loop,
			Paused:    ch.paused,
			Fading:    ch.fade.active,
			Robot:     ch.isRobot(),
			Monitored: int16(i) == m.monitored,
			Position:  ch.position(now),
			Duration:  ch.duration,
			Converter: ch.converter.Strategy(),
		})
	}
	return st
}

// String renders the audio list in the debugger's format
func (s Status) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d channels:\n", s.Active, s.Capacity)
	for _, c := range s.Channels {
		fmt.Fprintf(&b, "%d: %s, owner %d, vol %d, pan %d, %d/%d ticks, %s",
			c.Index, c.Resource, c.Owner, c.Volume, c.Pan, c.Position, c.Duration, c.Converter)
		if c.Loop {
			b.WriteString(", looping")
		}
		if c.Paused {
			b.WriteString(", paused")
		}
		if c.Fading {
			b.WriteString(", fading")
		}
		if c.Monitored {
			b.WriteString(", monitored")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
