// ABOUTME: The channel mixer: play, pause, resume, stop and the mix pass
// ABOUTME: One coarse mutex guards all state shared with the output goroutine
package audio32

import (
	"fmt"
	"math"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/decode"
	"github.com/sciaudio/sciaudio/pkg/audio/resample"
	"github.com/sciaudio/sciaudio/pkg/audio/timestamp"
	"github.com/sciaudio/sciaudio/pkg/robot"
	scisync "github.com/sciaudio/sciaudio/pkg/sync"
)

// SignalThreshold is the smallest absolute sample HasSignal treats as sound
const SignalThreshold = 1280

// Config holds mixer settings
type Config struct {
	Channels int
	Rate     int
	Stereo   bool
	BitDepth int

	Attenuation      Attenuation
	AttenuatedMixing bool
	ReverseStereo    bool

	RobotBufferSize int
}

// DefaultConfig returns the settings of a stock interpreter
func DefaultConfig() Config {
	return Config{
		Channels:         5,
		Rate:             44100,
		Stereo:           true,
		BitDepth:         16,
		Attenuation:      AttenuationClassic,
		AttenuatedMixing: true,
		RobotBufferSize:  robot.DefaultBufferSize,
	}
}

// Mixer owns the channel table
type Mixer struct {
	mu sync.Mutex

	cfg       Config
	clock     scisync.Clock
	resources ResourceManager

	channels  []channel
	numActive int
	monitored int16

	monitorBuf []int16
	monitorLen int

	master   int16
	paused   bool
	pausedAt uint32

	inAudioThread  bool
	pendingUnlocks []ResourceID
}

// NewMixer creates a mixer. Zero numeric fields in cfg take their defaults.
func NewMixer(cfg Config, clock scisync.Clock, resources ResourceManager) *Mixer {
	def := DefaultConfig()
	if cfg.Channels <= 0 {
		cfg.Channels = def.Channels
	}
	if cfg.Rate <= 0 {
		cfg.Rate = def.Rate
	}
	if cfg.BitDepth != 8 && cfg.BitDepth != 16 {
		cfg.BitDepth = def.BitDepth
	}
	if cfg.RobotBufferSize <= 0 {
		cfg.RobotBufferSize = def.RobotBufferSize
	}

	log.Printf("Mixer: %d channels, %dHz, stereo=%v, attenuation=%s",
		cfg.Channels, cfg.Rate, cfg.Stereo, cfg.Attenuation)

	return &Mixer{
		cfg:       cfg,
		clock:     clock,
		resources: resources,
		channels:  make([]channel, cfg.Channels),
		monitored: NoExistingChannel,
		master:    MaxVolume,
	}
}

func (m *Mixer) outChannels() int {
	if m.cfg.Stereo {
		return 2
	}
	return 1
}

func (m *Mixer) newConverter(s audio.Stream) *resample.RateConverter {
	return resample.New(s.Rate(), m.cfg.Rate, s.IsStereo(), m.cfg.Stereo, m.cfg.ReverseStereo)
}

// durationTicks converts a stream length to ticks, rounding up. Any
// non-empty stream lasts at least one tick so it never reads as a failed play.
func durationTicks(length timestamp.Timestamp) uint16 {
	frames := int64(length.TotalNumberOfFrames())
	if frames <= 0 {
		return 0
	}
	rate := int64(length.Framerate())
	ticks := (frames*scisync.TickRate + rate - 1) / rate
	return uint16(min(max(ticks, 1), math.MaxUint16))
}

// Play starts id on a free channel and returns its duration in ticks.
//
// If the same id and owner already has a channel, a paused channel is
// resumed and a playing one is left alone. A full pool or a resource that
// fails to load returns 0 and changes nothing.
func (m *Mixer) Play(id ResourceID, autoPlay, loop bool, volume int, owner Owner, monitor bool) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.freeUnusedChannels()

	if idx := m.findChannel(id, owner); idx != NoExistingChannel {
		ch := &m.channels[idx]
		if ch.paused {
			m.resumeChannel(int(idx))
		} else {
			log.Warnf("Mixer: %s is already playing on channel %d", id, idx)
		}
		if monitor {
			m.monitored = idx
		}
		return ch.duration
	}

	if m.numActive == len(m.channels) {
		log.Warnf("Mixer: no free channel to play %s (%d in use)", id, m.numActive)
		return 0
	}

	data, err := m.resources.Lock(id)
	if err != nil {
		log.Errorf("Mixer: failed to load %s: %v", id, err)
		return 0
	}
	stream, err := decode.Open(data)
	if err != nil {
		m.resources.Unlock(id)
		log.Errorf("Mixer: failed to decode %s: %v", id, err)
		return 0
	}

	now := m.clock.Ticks()
	idx := m.numActive
	m.channels[idx] = channel{
		id:        id,
		owner:     owner,
		stream:    stream,
		seekable:  stream,
		converter: m.newConverter(stream),
		locked:    true,
		volume:    clampVolume(volume),
		pan:       PanUnset,
		loop:      loop,
		startedAt: now,
		duration:  durationTicks(stream.Length()),
	}
	ch := &m.channels[idx]
	if !autoPlay {
		ch.paused = true
		ch.pausedAt = now
	}
	m.numActive++

	if monitor {
		m.monitored = int16(idx)
	}

	log.WithFields(log.Fields{
		"channel":  idx,
		"resource": id.String(),
		"rate":     stream.Rate(),
		"stereo":   stream.IsStereo(),
		"ticks":    ch.duration,
		"auto":     autoPlay,
	}).Debug("channel started")

	return ch.duration
}

// Preload checks that id loads and decodes without starting it
func (m *Mixer) Preload(id ResourceID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drainUnlocks()

	data, err := m.resources.Lock(id)
	if err != nil {
		return fmt.Errorf("preload %s: %w", id, err)
	}
	defer m.resources.Unlock(id)

	if _, err := decode.Open(data); err != nil {
		return fmt.Errorf("preload %s: %w", id, err)
	}
	return nil
}

// FindChannel returns the channel playing id for owner, or NoExistingChannel.
// NoOwner matches channels of any owner.
func (m *Mixer) FindChannel(id ResourceID, owner Owner) int16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findChannel(id, owner)
}

func (m *Mixer) findChannel(id ResourceID, owner Owner) int16 {
	for i := 0; i < m.numActive; i++ {
		ch := &m.channels[i]
		if ch.isRobot() || !ch.id.Equal(id) {
			continue
		}
		if owner == NoOwner || ch.owner == owner {
			return int16(i)
		}
	}
	return NoExistingChannel
}

func (m *Mixer) robotIndex() int {
	for i := 0; i < m.numActive; i++ {
		if m.channels[i].isRobot() {
			return i
		}
	}
	return -1
}

// target resolves a single-channel selector to a slot, or -1
func (m *Mixer) target(sel int16) int {
	if sel == RobotChannel {
		return m.robotIndex()
	}
	if sel < 0 || int(sel) >= m.numActive {
		return -1
	}
	return int(sel)
}

// Pause pauses one channel, every robot channel, or the whole mixer
func (m *Mixer) Pause(sel int16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Ticks()
	switch sel {
	case AllChannels:
		if m.paused {
			return false
		}
		m.paused = true
		m.pausedAt = now
		return true
	case RobotChannel:
		changed := false
		for i := 0; i < m.numActive; i++ {
			if m.channels[i].isRobot() {
				changed = m.pauseChannel(i, now) || changed
			}
		}
		return changed
	}

	idx := m.target(sel)
	if idx < 0 {
		return false
	}
	return m.pauseChannel(idx, now)
}

func (m *Mixer) pauseChannel(idx int, now uint32) bool {
	ch := &m.channels[idx]
	if ch.paused {
		return false
	}
	ch.paused = true
	ch.pausedAt = now
	return true
}

// Resume undoes Pause. Resuming something that is not paused is ignored.
func (m *Mixer) Resume(sel int16) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch sel {
	case AllChannels:
		if !m.paused {
			log.Warnf("Mixer: resume requested but the mixer is not paused")
			return false
		}
		elapsed := m.clock.Ticks() - m.pausedAt
		for i := 0; i < m.numActive; i++ {
			ch := &m.channels[i]
			ch.startedAt += elapsed
			ch.fade.startTick += elapsed
			if ch.paused {
				ch.pausedAt += elapsed
			}
		}
		m.paused = false
		return true
	case RobotChannel:
		changed := false
		for i := 0; i < m.numActive; i++ {
			if m.channels[i].isRobot() && m.channels[i].paused {
				changed = m.resumeChannel(i) || changed
			}
		}
		return changed
	}

	idx := m.target(sel)
	if idx < 0 {
		return false
	}
	return m.resumeChannel(idx)
}

func (m *Mixer) resumeChannel(idx int) bool {
	ch := &m.channels[idx]
	if !ch.paused {
		log.Warnf("Mixer: resume requested for channel %d which is not paused", idx)
		return false
	}
	elapsed := m.clock.Ticks() - ch.pausedAt
	ch.startedAt += elapsed
	ch.fade.startTick += elapsed
	ch.paused = false
	return true
}

// Stop frees one channel, every robot channel or all channels and returns
// how many were stopped. Survivors keep their relative order.
func (m *Mixer) Stop(sel int16) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.drainUnlocks()
	return m.stop(sel)
}

func (m *Mixer) stop(sel int16) int {
	switch sel {
	case AllChannels:
		n := m.numActive
		for i := 0; i < n; i++ {
			m.freeChannel(&m.channels[i])
			m.channels[i] = channel{}
		}
		m.numActive = 0
		m.monitored = NoExistingChannel
		return n
	case RobotChannel:
		n := 0
		for i := 0; i < m.numActive; i++ {
			if m.channels[i].isRobot() {
				m.stopChannel(i)
				i--
				n++
			}
		}
		return n
	}

	idx := m.target(sel)
	if idx < 0 {
		return 0
	}
	m.stopChannel(idx)
	return 1
}

// stopChannel frees slot idx and closes the gap
func (m *Mixer) stopChannel(idx int) {
	m.freeChannel(&m.channels[idx])

	copy(m.channels[idx:m.numActive-1], m.channels[idx+1:m.numActive])
	m.numActive--
	m.channels[m.numActive] = channel{}

	switch {
	case m.monitored == int16(idx):
		m.monitored = NoExistingChannel
		m.monitorLen = 0
	case m.monitored > int16(idx):
		m.monitored--
	}
}

// freeChannel releases the channel's resource lock, deferring it while
// running on the output goroutine
func (m *Mixer) freeChannel(ch *channel) {
	if !ch.locked {
		return
	}
	ch.locked = false
	if m.inAudioThread {
		m.pendingUnlocks = append(m.pendingUnlocks, ch.id)
		return
	}
	m.resources.Unlock(ch.id)
}

func (m *Mixer) drainUnlocks() {
	if m.inAudioThread || len(m.pendingUnlocks) == 0 {
		return
	}
	for _, id := range m.pendingUnlocks {
		m.resources.Unlock(id)
	}
	log.Debugf("Mixer: released %d deferred resource locks", len(m.pendingUnlocks))
	m.pendingUnlocks = m.pendingUnlocks[:0]
}

// FreeUnusedChannels frees channels whose streams have ended, rewinding
// looping ones instead, then releases any deferred resource locks
func (m *Mixer) FreeUnusedChannels() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.freeUnusedChannels()
}

func (m *Mixer) freeUnusedChannels() {
	now := m.clock.Ticks()
	for i := 0; i < m.numActive; i++ {
		ch := &m.channels[i]
		if ch.paused || !ch.exhausted() {
			continue
		}
		if ch.loop && ch.seekable != nil && ch.seekable.Rewind() {
			ch.startedAt = now
			continue
		}
		m.stopChannel(i)
		i--
	}
	m.drainUnlocks()
}

// SetVolume sets a channel volume. AllChannels sets the master volume.
func (m *Mixer) SetVolume(sel int16, volume int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := clampVolume(volume)
	if sel == AllChannels {
		m.master = v
		return true
	}
	idx := m.target(sel)
	if idx < 0 {
		return false
	}
	m.channels[idx].volume = v
	return true
}

// GetVolume returns a channel volume, the master volume for AllChannels,
// or -1 when no such channel exists
func (m *Mixer) GetVolume(sel int16) int16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sel == AllChannels {
		return m.master
	}
	idx := m.target(sel)
	if idx < 0 {
		return -1
	}
	return m.channels[idx].volume
}

// SetPan sets a channel's pan; negative values unset it
func (m *Mixer) SetPan(sel int16, pan int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.target(sel)
	if idx < 0 {
		return false
	}
	m.channels[idx].pan = clampPan(pan)
	return true
}

// SetLoop changes whether a channel restarts when its stream ends
func (m *Mixer) SetLoop(sel int16, loop bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.target(sel)
	if idx < 0 {
		return false
	}
	m.channels[idx].loop = loop
	return true
}

// Position returns how many ticks a channel has played, or -1
func (m *Mixer) Position(sel int16) int32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.target(sel)
	if idx < 0 {
		return -1
	}
	return int32(m.channels[idx].position(m.now()))
}

// now is the current tick, frozen while the mixer is paused
func (m *Mixer) now() uint32 {
	if m.paused {
		return m.pausedAt
	}
	return m.clock.Ticks()
}

// SetRate changes the output rate of every converter
func (m *Mixer) SetRate(rate int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rate <= 0 {
		return
	}
	m.cfg.Rate = rate
	for i := 0; i < m.numActive; i++ {
		m.channels[i].converter.SetOutputRate(rate)
	}
}

// SetAttenuatedMixing toggles attenuation and returns the previous setting
func (m *Mixer) SetAttenuatedMixing(on bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.cfg.AttenuatedMixing
	m.cfg.AttenuatedMixing = on
	return prev
}

func (m *Mixer) AttenuatedMixing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.AttenuatedMixing
}

// ActiveChannels returns the number of occupied slots
func (m *Mixer) ActiveChannels() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.numActive
}

func (m *Mixer) Capacity() int { return len(m.channels) }
func (m *Mixer) BitDepth() int { return m.cfg.BitDepth }

// PendingUnlocks returns how many resource unlocks are waiting for the engine
func (m *Mixer) PendingUnlocks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pendingUnlocks)
}

// Read is the mix pass. It fills buf with interleaved output and always
// returns a whole number of frames; silence is written when nothing plays.
func (m *Mixer) Read(buf []int16) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.inAudioThread = true
	defer func() { m.inAudioThread = false }()

	m.freeUnusedChannels()

	outCh := m.outChannels()
	n := len(buf) - len(buf)%outCh
	buf = buf[:n]
	clear(buf)
	m.monitorLen = 0

	if m.paused || m.numActive == 0 {
		return n
	}

	frames := n / outCh
	for i := 0; i < m.numActive; i++ {
		ch := &m.channels[i]
		if ch.paused {
			continue
		}
		if ch.fade.active && m.processFade(i) {
			i--
			continue
		}

		left, right := m.channelVolumes(i)

		if int16(i) != m.monitored {
			ch.converter.Convert(ch.stream, buf, frames, left, right)
			continue
		}

		if cap(m.monitorBuf) < n {
			m.monitorBuf = make([]int16, n)
		}
		mon := m.monitorBuf[:n]
		clear(mon)
		m.monitorLen = ch.converter.Convert(ch.stream, mon, frames, left, right) * outCh
		for j, s := range mon[:m.monitorLen] {
			buf[j] = audio.ClampedAdd(buf[j], s)
		}
	}

	return n
}

// channelVolumes computes converter volumes for slot idx
func (m *Mixer) channelVolumes(idx int) (uint16, uint16) {
	ch := &m.channels[idx]

	exclusive := m.cfg.Attenuation == AttenuationClassic && m.monitored != NoExistingChannel
	if exclusive && int16(idx) != m.monitored {
		return 0, 0
	}

	vol := converterVolume(int(ch.volume) * int(m.master) / MaxVolume)
	left, right := panVolumes(vol, ch.pan, m.cfg.Stereo)

	if m.cfg.AttenuatedMixing && !exclusive {
		left = m.cfg.Attenuation.attenuate(left, idx, m.numActive)
		right = m.cfg.Attenuation.attenuate(right, idx, m.numActive)
	}
	return uint16(left), uint16(right)
}

// HasSignal reports whether the monitored channel's last mixed block
// contained anything above the noise floor
func (m *Mixer) HasSignal() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.monitorBuf[:m.monitorLen] {
		if s > SignalThreshold || s < -SignalThreshold {
			return true
		}
	}
	return false
}

// The mixer is itself an endless stream for the platform sink.

func (m *Mixer) ReadBuffer(buf []int16) int { return m.Read(buf) }
func (m *Mixer) IsStereo() bool             { return m.cfg.Stereo }
func (m *Mixer) EndOfData() bool            { return false }
func (m *Mixer) EndOfStream() bool          { return false }

func (m *Mixer) Rate() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.Rate
}
