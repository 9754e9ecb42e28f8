// ABOUTME: Tests for the channel mixer
// ABOUTME: Resources are in-memory SOL buffers and time comes from a ManualClock
package audio32

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/timestamp"
	"github.com/sciaudio/sciaudio/pkg/robot"
	scisync "github.com/sciaudio/sciaudio/pkg/sync"
)

var errMissing = errors.New("missing")

type fakeResources struct {
	data    map[ResourceID][]byte
	locks   map[ResourceID]int
	unlocks []ResourceID
}

func newFakeResources() *fakeResources {
	return &fakeResources{
		data:  make(map[ResourceID][]byte),
		locks: make(map[ResourceID]int),
	}
}

func (f *fakeResources) Lock(id ResourceID) ([]byte, error) {
	data, ok := f.data[id]
	if !ok {
		return nil, errMissing
	}
	f.locks[id]++
	return data, nil
}

func (f *fakeResources) Unlock(id ResourceID) {
	f.locks[id]--
	f.unlocks = append(f.unlocks, id)
}

// pcmSOL wraps 16-bit mono samples in an uncompressed SOL container
func pcmSOL(rate int, samples []int16) []byte {
	payload := make([]byte, 0, len(samples)*2)
	for _, s := range samples {
		payload = binary.LittleEndian.AppendUint16(payload, uint16(s))
	}
	data := []byte{0x8D, 0x0B, 'S', 'O', 'L', 0}
	data = binary.LittleEndian.AppendUint16(data, uint16(rate))
	data = append(data, 4)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(payload)))
	return append(data, payload...)
}

func constantSOL(value int16, frames int) []byte {
	return pcmSOL(22050, audio.Constant(22050, value, frames, false).Samples())
}

type fixture struct {
	mixer *Mixer
	res   *fakeResources
	clock *scisync.ManualClock
}

func newFixture(t *testing.T, mutate func(*Config)) *fixture {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Rate = 22050
	if mutate != nil {
		mutate(&cfg)
	}
	res := newFakeResources()
	clock := scisync.NewManualClock(0)
	return &fixture{
		mixer: NewMixer(cfg, clock, res),
		res:   res,
		clock: clock,
	}
}

func (f *fixture) add(id ResourceID, data []byte) ResourceID {
	f.res.data[id] = data
	return id
}

func assertAll(t *testing.T, buf []int16, want int16) {
	t.Helper()
	for i, s := range buf {
		if !assert.Equal(t, want, s, "sample %d", i) {
			return
		}
	}
}

func TestPoolExhaustion(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Channels = 2 })
	a := f.add(AudioID(1), constantSOL(100, 4410))
	b := f.add(AudioID(2), constantSOL(100, 4410))
	c := f.add(AudioID(3), constantSOL(100, 4410))

	assert.Equal(t, uint16(12), f.mixer.Play(a, true, false, 127, NoOwner, false))
	assert.Equal(t, uint16(12), f.mixer.Play(b, true, false, 127, NoOwner, false))

	assert.Equal(t, uint16(0), f.mixer.Play(c, true, false, 127, NoOwner, false))
	assert.Equal(t, 2, f.mixer.ActiveChannels())
	assert.Equal(t, 0, f.res.locks[c], "refused play must not lock")
	assert.Equal(t, NoExistingChannel, f.mixer.FindChannel(c, NoOwner))
}

func TestLoadFailures(t *testing.T) {
	f := newFixture(t, nil)
	bad := f.add(AudioID(9), []byte("not audio at all"))

	assert.Equal(t, uint16(0), f.mixer.Play(AudioID(8), true, false, 127, NoOwner, false))
	assert.Equal(t, uint16(0), f.mixer.Play(bad, true, false, 127, NoOwner, false))
	assert.Equal(t, 0, f.mixer.ActiveChannels())
	assert.Equal(t, 0, f.res.locks[bad], "undecodable resource must be unlocked")

	assert.ErrorIs(t, f.mixer.Preload(AudioID(8)), errMissing)
	assert.Error(t, f.mixer.Preload(bad))
	assert.Equal(t, 0, f.res.locks[bad])
}

func TestPlayExistingChannel(t *testing.T) {
	f := newFixture(t, nil)
	id := f.add(AudioID(1), constantSOL(100, 22050))

	d := f.mixer.Play(id, false, false, 127, NoOwner, false)
	require.NotZero(t, d)
	assert.True(t, f.mixer.Snapshot().Channels[0].Paused)

	// a second play resumes the paused channel
	assert.Equal(t, d, f.mixer.Play(id, true, false, 127, NoOwner, false))
	assert.False(t, f.mixer.Snapshot().Channels[0].Paused)

	// and a third leaves it alone
	assert.Equal(t, d, f.mixer.Play(id, true, false, 127, NoOwner, false))
	assert.Equal(t, 1, f.mixer.ActiveChannels())
	assert.Equal(t, 1, f.res.locks[id])
}

func TestTwoChannelMixAndStop(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Channels = 2 })
	one := f.add(AudioID(1), constantSOL(1000, 1000))
	two := f.add(AudioID(2), constantSOL(1000, 1000))

	require.NotZero(t, f.mixer.Play(one, true, false, 127, NoOwner, false))
	require.NotZero(t, f.mixer.Play(two, true, false, 64, NoOwner, false))

	buf := make([]int16, 100)
	assert.Equal(t, 100, f.mixer.Read(buf))
	assert.Equal(t, 2, f.mixer.ActiveChannels())

	// slot 0 at full volume is scaled by 1/3, slot 1 at half volume by 2/3
	slot0 := int16(1000 * (256 * 1 / 3) / 256)
	slot1 := int16(1000 * (64 * 256 / 127 * 2 / 3) / 256)
	assert.Equal(t, int16(332), slot0)
	assert.Equal(t, int16(335), slot1)
	assertAll(t, buf, slot0+slot1)

	assert.Equal(t, 1, f.mixer.Stop(0))
	assert.Equal(t, 1, f.mixer.ActiveChannels())
	assert.Equal(t, int16(0), f.mixer.FindChannel(two, NoOwner))
	assert.Equal(t, []ResourceID{one}, f.res.unlocks, "engine-side stop unlocks at once")

	// alone, the survivor plays unattenuated
	f.mixer.Read(buf)
	assertAll(t, buf, int16(1000*(64*256/127)/256))
}

func TestSingleChannelUnattenuated(t *testing.T) {
	f := newFixture(t, nil)
	wave := audio.SquareWave(22050, 441, 12000, 200, false).Samples()
	id := f.add(AudioID(1), pcmSOL(22050, wave))

	require.NotZero(t, f.mixer.Play(id, true, false, 127, NoOwner, false))

	buf := make([]int16, 400)
	f.mixer.Read(buf)
	for i, s := range wave {
		require.Equal(t, s, buf[i*2], "left %d", i)
		require.Equal(t, s, buf[i*2+1], "right %d", i)
	}
}

func TestSaturation(t *testing.T) {
	tests := []struct {
		name       string
		attenuated bool
	}{
		{"raw sum", false},
		{"classic attenuation", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, func(c *Config) { c.AttenuatedMixing = tt.attenuated })
			wave := pcmSOL(22050, audio.SquareWave(22050, 441, 32767, 500, false).Samples())
			for i := 1; i <= 5; i++ {
				require.NotZero(t, f.mixer.Play(f.add(AudioID(uint16(i)), wave), true, false, 127, NoOwner, false))
			}

			buf := make([]int16, 1000)
			f.mixer.Read(buf)
			for i, s := range buf {
				if s != 32767 && s != -32768 {
					t.Fatalf("sample %d = %d, want a saturated extreme", i, s)
				}
			}
		})
	}
}

func TestModifiedAttenuation(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Attenuation = AttenuationModified })
	require.NotZero(t, f.mixer.Play(f.add(AudioID(1), constantSOL(1000, 500)), true, false, 127, NoOwner, false))
	require.NotZero(t, f.mixer.Play(f.add(AudioID(2), constantSOL(1000, 500)), true, false, 127, NoOwner, false))

	buf := make([]int16, 20)
	f.mixer.Read(buf)
	// older slot shifted down by two doublings, newest untouched
	assertAll(t, buf, 250+1000)
}

func TestAttenuate(t *testing.T) {
	tests := []struct {
		name   string
		policy Attenuation
		index  int
		active int
		want   int
	}{
		{"classic alone", AttenuationClassic, 0, 1, 256},
		{"classic first of two", AttenuationClassic, 0, 2, 85},
		{"classic last of two", AttenuationClassic, 1, 2, 170},
		{"classic last of four", AttenuationClassic, 3, 4, 204},
		{"modified alone", AttenuationModified, 0, 1, 256},
		{"modified newest", AttenuationModified, 2, 3, 256},
		{"modified middle", AttenuationModified, 1, 3, 64},
		{"modified oldest", AttenuationModified, 0, 3, 16},
		{"modified underflow", AttenuationModified, 0, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.attenuate(256, tt.index, tt.active))
		})
	}
}

func TestParseAttenuation(t *testing.T) {
	a, err := ParseAttenuation("modified")
	require.NoError(t, err)
	assert.Equal(t, AttenuationModified, a)

	a, err = ParseAttenuation("")
	require.NoError(t, err)
	assert.Equal(t, AttenuationClassic, a)

	_, err = ParseAttenuation("loud")
	assert.Error(t, err)
}

func TestMonitoredChannel(t *testing.T) {
	f := newFixture(t, nil)
	background := f.add(AudioID(1), constantSOL(1000, 50))
	speech := f.add(AudioID(2), constantSOL(2000, 1000))

	require.NotZero(t, f.mixer.Play(background, true, false, 127, NoOwner, false))
	require.NotZero(t, f.mixer.Play(speech, true, false, 127, NoOwner, true))

	buf := make([]int16, 100)
	f.mixer.Read(buf)
	// only the monitored channel is audible, and unattenuated
	assertAll(t, buf, 2000)
	assert.True(t, f.mixer.HasSignal())

	// the muted channel still advanced and is now exhausted
	f.mixer.Read(buf)
	assert.Equal(t, 1, f.mixer.ActiveChannels())
	assert.Equal(t, int16(0), f.mixer.FindChannel(speech, NoOwner))
	assert.True(t, f.mixer.Snapshot().Channels[0].Monitored)
}

func TestPlayResumeTakesMonitor(t *testing.T) {
	f := newFixture(t, nil)
	music := f.add(AudioID(1), constantSOL(1000, 1000))
	speech := f.add(AudioID(2), constantSOL(2000, 1000))

	require.NotZero(t, f.mixer.Play(music, true, false, 127, NoOwner, false))
	require.NotZero(t, f.mixer.Play(speech, false, false, 127, NoOwner, false))
	assert.False(t, f.mixer.Snapshot().Channels[1].Monitored)

	// restarting the paused channel with monitor set both resumes and captures it
	require.NotZero(t, f.mixer.Play(speech, true, false, 127, NoOwner, true))
	st := f.mixer.Snapshot()
	assert.False(t, st.Channels[1].Paused)
	assert.True(t, st.Channels[1].Monitored)

	buf := make([]int16, 100)
	f.mixer.Read(buf)
	assertAll(t, buf, 2000)
}

func TestHasSignalThreshold(t *testing.T) {
	tests := []struct {
		name  string
		value int16
		want  bool
	}{
		{"silence", 0, false},
		{"noise floor", SignalThreshold, false},
		{"speech", SignalThreshold + 1, true},
		{"negative speech", -SignalThreshold - 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			id := f.add(AudioID(1), constantSOL(tt.value, 100))
			require.NotZero(t, f.mixer.Play(id, true, false, 127, NoOwner, true))

			assert.False(t, f.mixer.HasSignal(), "nothing mixed yet")
			f.mixer.Read(make([]int16, 64))
			assert.Equal(t, tt.want, f.mixer.HasSignal())
		})
	}
}

func TestStopCompactionRetargetsMonitor(t *testing.T) {
	f := newFixture(t, nil)
	ids := []ResourceID{AudioID(1), AudioID(2), AudioID(3), AudioID(4)}
	for i, id := range ids {
		f.add(id, constantSOL(10, 22050))
		require.NotZero(t, f.mixer.Play(id, true, false, 127, NoOwner, i == 2))
	}

	assert.Equal(t, 1, f.mixer.Stop(0))

	st := f.mixer.Snapshot()
	require.Len(t, st.Channels, 3)
	assert.Equal(t, AudioID(2), st.Channels[0].ID)
	assert.Equal(t, AudioID(3), st.Channels[1].ID)
	assert.Equal(t, AudioID(4), st.Channels[2].ID)
	assert.True(t, st.Channels[1].Monitored)

	// stopping a later slot leaves the monitor where it is
	assert.Equal(t, 1, f.mixer.Stop(2))
	assert.True(t, f.mixer.Snapshot().Channels[1].Monitored)

	// stopping the monitored channel clears it
	assert.Equal(t, 1, f.mixer.Stop(1))
	for _, c := range f.mixer.Snapshot().Channels {
		assert.False(t, c.Monitored)
	}

	assert.Equal(t, 0, f.mixer.Stop(5))
	assert.Equal(t, 1, f.mixer.Stop(AllChannels))
	assert.Equal(t, 0, f.mixer.ActiveChannels())
	for _, id := range ids {
		assert.Equal(t, 0, f.res.locks[id], "%s still locked", id)
	}
}

func TestFade(t *testing.T) {
	f := newFixture(t, nil)
	id := f.add(AudioID(1), constantSOL(1000, 22050))
	require.NotZero(t, f.mixer.Play(id, true, false, 100, NoOwner, false))

	assert.False(t, f.mixer.Fade(0, 100, 10, 2, true), "already at target")
	assert.False(t, f.mixer.Fade(3, 0, 10, 2, true), "no such channel")
	require.True(t, f.mixer.Fade(0, 0, 10, 2, true))
	assert.True(t, f.mixer.Fading(0))

	buf := make([]int16, 64)
	f.clock.Advance(10)
	f.mixer.Read(buf)
	assert.Equal(t, int16(50), f.mixer.GetVolume(0))

	// exactly at the duration the fade is still running
	f.clock.Advance(10)
	f.mixer.Read(buf)
	assert.Equal(t, int16(0), f.mixer.GetVolume(0))
	assert.Equal(t, 1, f.mixer.ActiveChannels())

	f.clock.Advance(1)
	f.mixer.Read(buf)
	assert.Equal(t, 0, f.mixer.ActiveChannels())
	assertAll(t, buf, 0)

	// the stop happened on the output side, so the unlock waits
	assert.Equal(t, 1, f.mixer.PendingUnlocks())
	assert.Empty(t, f.res.unlocks)
	f.mixer.FreeUnusedChannels()
	assert.Equal(t, 0, f.mixer.PendingUnlocks())
	assert.Equal(t, []ResourceID{id}, f.res.unlocks)
}

func TestFadeWithoutStop(t *testing.T) {
	f := newFixture(t, nil)
	require.NotZero(t, f.mixer.Play(f.add(AudioID(1), constantSOL(1000, 22050)), true, false, 100, NoOwner, false))
	require.True(t, f.mixer.Fade(0, 20, 5, 1, false))

	f.clock.Advance(6)
	f.mixer.Read(make([]int16, 16))
	assert.Equal(t, int16(20), f.mixer.GetVolume(0))
	assert.False(t, f.mixer.Fading(0))
	assert.Equal(t, 1, f.mixer.ActiveChannels())
}

func TestPauseResumePosition(t *testing.T) {
	f := newFixture(t, nil)
	f.clock.Set(100)
	require.NotZero(t, f.mixer.Play(f.add(AudioID(1), constantSOL(500, 22050)), true, false, 127, NoOwner, false))

	f.clock.Advance(30)
	assert.Equal(t, int32(30), f.mixer.Position(0))

	require.True(t, f.mixer.Pause(AllChannels))
	assert.False(t, f.mixer.Pause(AllChannels))
	f.clock.Advance(50)
	assert.Equal(t, int32(30), f.mixer.Position(0))

	buf := make([]int16, 32)
	f.mixer.Read(buf)
	assertAll(t, buf, 0)

	require.True(t, f.mixer.Resume(AllChannels))
	assert.False(t, f.mixer.Resume(AllChannels))
	assert.Equal(t, int32(30), f.mixer.Position(0))
	f.clock.Advance(10)
	assert.Equal(t, int32(40), f.mixer.Position(0))

	require.True(t, f.mixer.Pause(0))
	f.clock.Advance(5)
	assert.Equal(t, int32(40), f.mixer.Position(0))
	f.mixer.Read(buf)
	assertAll(t, buf, 0)

	require.True(t, f.mixer.Resume(0))
	assert.False(t, f.mixer.Resume(0), "resuming a playing channel is a no-op")
	assert.Equal(t, int32(40), f.mixer.Position(0))
	assert.Equal(t, int32(-1), f.mixer.Position(4))
}

func TestDurationTicks(t *testing.T) {
	tests := []struct {
		name   string
		frames int
		want   uint16
	}{
		{"empty", 0, 0},
		{"under a millisecond", 10, 1},
		{"partial tick rounds up", 747, 3},
		{"one second", 22050, 60},
		{"one frame over", 22051, 61},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, durationTicks(timestamp.NewFrames(0, tt.frames, 22050)))
		})
	}
}

func TestPlayTinySound(t *testing.T) {
	f := newFixture(t, nil)
	id := f.add(AudioID(1), constantSOL(100, 10))
	assert.Equal(t, uint16(1), f.mixer.Play(id, true, false, 127, NoOwner, false))
	assert.Equal(t, 1, f.mixer.ActiveChannels())
}

func TestDeferredUnlock(t *testing.T) {
	f := newFixture(t, nil)
	short := f.add(AudioID(1), constantSOL(700, 10))
	require.NotZero(t, f.mixer.Play(short, true, false, 127, NoOwner, false))

	buf := make([]int16, 200)
	f.mixer.Read(buf)
	assertAll(t, buf[:20], 700)
	assertAll(t, buf[20:], 0)

	// the exhausted channel is swept by the next mix pass
	f.mixer.Read(buf)
	assert.Equal(t, 0, f.mixer.ActiveChannels())
	assert.Equal(t, 1, f.mixer.PendingUnlocks())
	assert.Equal(t, 1, f.res.locks[short])

	// any engine-side call drains the queue
	second := f.add(AudioID(2), constantSOL(700, 10))
	require.NotZero(t, f.mixer.Play(second, true, false, 127, NoOwner, false))
	assert.Equal(t, 0, f.mixer.PendingUnlocks())
	assert.Equal(t, 0, f.res.locks[short])
}

func TestLoopRewinds(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Stereo = false })
	id := f.add(AudioID(1), constantSOL(300, 10))
	require.NotZero(t, f.mixer.Play(id, true, true, 127, NoOwner, false))

	buf := make([]int16, 16)
	for pass := 0; pass < 3; pass++ {
		f.mixer.Read(buf)
		assertAll(t, buf[:10], 300)
		assertAll(t, buf[10:], 0)
	}
	assert.Equal(t, 1, f.mixer.ActiveChannels())

	require.True(t, f.mixer.SetLoop(0, false))
	f.mixer.Read(buf)
	assert.Equal(t, 0, f.mixer.ActiveChannels())
}

func TestFindChannelKeys(t *testing.T) {
	f := newFixture(t, nil)
	data := constantSOL(1, 22050)
	plain := f.add(AudioID(5), data)
	line := f.add(Audio36ID(5, 0, 0, 0, 0), data)
	other := f.add(Audio36ID(5, 1, 2, 3, 4), data)

	require.NotZero(t, f.mixer.Play(plain, true, false, 127, NoOwner, false))
	require.NotZero(t, f.mixer.Play(line, true, false, 127, NoOwner, false))
	require.NotZero(t, f.mixer.Play(plain, true, false, 127, Owner(7), false), "other owner gets its own channel")

	assert.Equal(t, 3, f.mixer.ActiveChannels())
	assert.Equal(t, int16(0), f.mixer.FindChannel(plain, NoOwner))
	assert.Equal(t, int16(1), f.mixer.FindChannel(line, NoOwner))
	assert.Equal(t, int16(2), f.mixer.FindChannel(plain, Owner(7)))
	assert.Equal(t, NoExistingChannel, f.mixer.FindChannel(plain, Owner(8)))
	assert.Equal(t, NoExistingChannel, f.mixer.FindChannel(other, NoOwner))

	assert.False(t, plain.Equal(line))
	assert.Equal(t, "5.aud", plain.String())
	assert.Equal(t, "5_1_2_3_4.a36", other.String())
}

func TestVolumeAndPan(t *testing.T) {
	f := newFixture(t, nil)
	require.NotZero(t, f.mixer.Play(f.add(AudioID(1), constantSOL(1000, 22050)), true, false, 127, NoOwner, false))

	require.True(t, f.mixer.SetVolume(0, 500))
	assert.Equal(t, int16(MaxVolume), f.mixer.GetVolume(0))
	require.True(t, f.mixer.SetVolume(0, -3))
	assert.Equal(t, int16(0), f.mixer.GetVolume(0))
	require.True(t, f.mixer.SetVolume(0, 127))
	assert.False(t, f.mixer.SetVolume(3, 127))
	assert.Equal(t, int16(-1), f.mixer.GetVolume(3))

	tests := []struct {
		name        string
		pan         int
		left, right int16
	}{
		{"unset", -1, 1000, 1000},
		{"hard left", 0, 1000, 0},
		{"hard right", 100, 0, 1000},
		{"clamped right", 250, 0, 1000},
		{"centre", 50, 500, 500},
	}

	buf := make([]int16, 8)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, f.mixer.SetPan(0, tt.pan))
			f.mixer.Read(buf)
			assert.Equal(t, tt.left, buf[0])
			assert.Equal(t, tt.right, buf[1])
		})
	}
}

func TestMasterVolume(t *testing.T) {
	f := newFixture(t, nil)
	require.NotZero(t, f.mixer.Play(f.add(AudioID(1), constantSOL(1000, 22050)), true, false, 127, NoOwner, false))

	require.True(t, f.mixer.SetVolume(AllChannels, 64))
	assert.Equal(t, int16(64), f.mixer.GetVolume(AllChannels))
	assert.Equal(t, int16(127), f.mixer.GetVolume(0))

	buf := make([]int16, 4)
	f.mixer.Read(buf)
	assertAll(t, buf, int16(1000*(64*256/127)/256))
}

func TestResampledChannel(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Rate = 44100 })
	require.NotZero(t, f.mixer.Play(f.add(AudioID(1), constantSOL(800, 1000)), true, false, 127, NoOwner, false))
	assert.Equal(t, 44100, f.mixer.Rate())

	buf := make([]int16, 400)
	f.mixer.Read(buf)
	// after the interpolator's first frames the constant comes through intact
	assertAll(t, buf[8:], 800)
}

func TestRobotChannel(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Channels = 2 })
	_, ok := f.mixer.QueryRobot()
	assert.False(t, ok)
	assert.False(t, f.mixer.FinishRobot())

	require.True(t, f.mixer.PlayRobot(robot.Packet{Data: make([]byte, 40), Position: 0}))
	require.True(t, f.mixer.PlayRobot(robot.Packet{Data: make([]byte, 40), Position: 2}))
	assert.Equal(t, 1, f.mixer.ActiveChannels())

	st, ok := f.mixer.QueryRobot()
	require.True(t, ok)
	assert.Equal(t, robot.SampleRate, st.Rate)

	snap := f.mixer.Snapshot()
	require.Len(t, snap.Channels, 1)
	assert.True(t, snap.Channels[0].Robot)
	assert.Equal(t, "robot", snap.Channels[0].Resource)
	assert.Equal(t, int16(MaxVolume), f.mixer.GetVolume(RobotChannel))

	require.True(t, f.mixer.Pause(RobotChannel))
	assert.True(t, f.mixer.Snapshot().Channels[0].Paused)
	require.True(t, f.mixer.Resume(RobotChannel))

	f.mixer.Read(make([]int16, 256))
	st, _ = f.mixer.QueryRobot()
	assert.Positive(t, st.BytesPlaying)

	require.True(t, f.mixer.StopRobot())
	assert.Equal(t, 0, f.mixer.ActiveChannels())
	assert.False(t, f.mixer.StopRobot())
}

func TestRobotChannelFinishes(t *testing.T) {
	f := newFixture(t, nil)
	require.True(t, f.mixer.PlayRobot(robot.Packet{Data: make([]byte, 20), Position: 0}))
	require.True(t, f.mixer.PlayRobot(robot.Packet{Data: make([]byte, 20), Position: 2}))
	require.True(t, f.mixer.FinishRobot())

	buf := make([]int16, 512)
	for i := 0; i < 4 && f.mixer.ActiveChannels() > 0; i++ {
		f.mixer.Read(buf)
	}
	assert.Equal(t, 0, f.mixer.ActiveChannels())
	assert.Equal(t, 0, f.mixer.PendingUnlocks(), "robot channels hold no resource lock")
}

func TestRobotNeedsFreeChannel(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Channels = 1 })
	require.NotZero(t, f.mixer.Play(f.add(AudioID(1), constantSOL(1, 22050)), true, false, 127, NoOwner, false))
	assert.False(t, f.mixer.PlayRobot(robot.Packet{Data: make([]byte, 20), Position: 0}))
	assert.Equal(t, 1, f.mixer.ActiveChannels())
}

func TestSnapshotString(t *testing.T) {
	f := newFixture(t, nil)
	require.NotZero(t, f.mixer.Play(f.add(AudioID(3), constantSOL(1, 22050)), true, true, 90, Owner(2), true))

	out := f.mixer.Snapshot().String()
	assert.True(t, strings.HasPrefix(out, "1/5 channels:"))
	assert.Contains(t, out, "3.aud, owner 2, vol 90")
	assert.Contains(t, out, "ticks, copy, looping")
	assert.Contains(t, out, "monitored")
}

func TestSnapshotConverter(t *testing.T) {
	tests := []struct {
		name string
		rate int
		want string
	}{
		{"same rate", 22050, "copy"},
		{"integer decimation", 44100, "simple"},
		{"interpolated", 11025, "linear"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			data := pcmSOL(tt.rate, audio.Constant(tt.rate, 1, 100, false).Samples())
			require.NotZero(t, f.mixer.Play(f.add(AudioID(1), data), true, false, 127, NoOwner, false))
			assert.Equal(t, tt.want, f.mixer.Snapshot().Channels[0].Converter)
		})
	}
}

func TestMixerIsStream(t *testing.T) {
	f := newFixture(t, nil)
	var s audio.Stream = f.mixer
	assert.True(t, s.IsStereo())
	assert.False(t, s.EndOfStream())
	assert.Equal(t, 10, s.ReadBuffer(make([]int16, 11)), "whole frames only")

	assert.True(t, f.mixer.SetAttenuatedMixing(false))
	assert.False(t, f.mixer.AttenuatedMixing())
}
