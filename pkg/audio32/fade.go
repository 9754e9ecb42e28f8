// ABOUTME: Linear volume fades advanced by the mix pass
// ABOUTME: A finished fade snaps to its target and may stop the channel
package audio32

// Fade ramps a channel to target over speed*steps ticks. It returns false,
// starting nothing, when the channel is missing or already at target.
func (m *Mixer) Fade(sel int16, target, speed, steps int, stopAfter bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.target(sel)
	if idx < 0 {
		return false
	}
	ch := &m.channels[idx]
	to := clampVolume(target)
	if ch.volume == to {
		return false
	}

	ch.fade = fade{
		active:      true,
		startTick:   m.clock.Ticks(),
		startVolume: ch.volume,
		target:      to,
		duration:    uint32(max(speed*steps, 0)),
		stopAfter:   stopAfter,
	}
	return true
}

// processFade advances the fade on slot idx and reports whether the
// channel was stopped
func (m *Mixer) processFade(idx int) bool {
	ch := &m.channels[idx]
	f := &ch.fade

	elapsed := m.clock.Ticks() - f.startTick
	if f.duration == 0 || elapsed > f.duration {
		f.active = false
		ch.volume = f.target
		if f.stopAfter {
			m.stopChannel(idx)
			return true
		}
		return false
	}

	delta := int64(f.target-f.startVolume) * int64(elapsed) / int64(f.duration)
	ch.volume = f.startVolume + int16(delta)
	return false
}

// Fading reports whether a channel has a fade in progress
func (m *Mixer) Fading(sel int16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.target(sel)
	return idx >= 0 && m.channels[idx].fade.active
}
