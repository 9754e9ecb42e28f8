// ABOUTME: Red Book style CD audio redirected to ripped track files
// ABOUTME: Positions are 75 fps CD frames; playback is an endless stream at the output rate
package cdaudio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/decode"
	"github.com/sciaudio/sciaudio/pkg/audio/resample"
	"github.com/sciaudio/sciaudio/pkg/audio/timestamp"
	scisync "github.com/sciaudio/sciaudio/pkg/sync"
)

// FrameRate is the number of CD frames per second
const FrameRate = 75

// ErrTrackNotFound is returned when no file exists for a track
var ErrTrackNotFound = errors.New("cd track not found")

// Extensions are tried in order when locating a track file
var Extensions = []string{".flac", ".mp3", ".wav", ".raw"}

// RawFormat is the layout of headerless .raw tracks: CD-DA as read off the disc
var RawFormat = audio.Format{Codec: "pcm", SampleRate: 44100, Channels: 2, BitDepth: 16}

// Config holds CD player settings
type Config struct {
	Dir    string
	Rate   int
	Stereo bool
}

// Status describes the player
type Status struct {
	Track    int  `json:"track"`
	Playing  bool `json:"playing"`
	Paused   bool `json:"paused"`
	Position int  `json:"position"`
	Length   int  `json:"length"`
}

// Player plays one track segment at a time
type Player struct {
	mu sync.Mutex

	cfg   Config
	clock scisync.Clock

	track     int
	source    *segment
	converter *resample.RateConverter
	start     int
	length    int
	volume    uint16

	playing   bool
	paused    bool
	startedAt uint32
	pausedAt  uint32
}

// NewPlayer creates a player reading tracks from cfg.Dir
func NewPlayer(cfg Config, clock scisync.Clock) *Player {
	if cfg.Rate <= 0 {
		cfg.Rate = 44100
	}
	return &Player{
		cfg:    cfg,
		clock:  clock,
		volume: resample.MaxVolume,
	}
}

// TrackPath finds the file for track
func (p *Player) TrackPath(track int) (string, error) {
	for _, ext := range Extensions {
		path := filepath.Join(p.cfg.Dir, fmt.Sprintf("track%02d%s", track, ext))
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("track %d in %s: %w", track, p.cfg.Dir, ErrTrackNotFound)
}

// Play starts track at start CD frames for duration frames; a duration of
// zero or less plays to the end of the track
func (p *Player) Play(track, start, duration int) error {
	path, err := p.TrackPath(track)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read track %d: %w", track, err)
	}
	stream, err := openTrack(path, data)
	if err != nil {
		return fmt.Errorf("decode track %d: %w", track, err)
	}

	total := stream.Length().ConvertToFramerate(FrameRate).TotalNumberOfFrames()
	start = min(max(start, 0), total)
	length := total - start
	if duration > 0 {
		length = min(length, duration)
	}

	seg := newSegment(stream, cdFramesToSource(start, stream.Rate()), cdFramesToSource(length, stream.Rate()))

	p.mu.Lock()
	defer p.mu.Unlock()

	p.track = track
	p.source = seg
	p.converter = resample.New(stream.Rate(), p.cfg.Rate, stream.IsStereo(), p.cfg.Stereo, false)
	p.start = start
	p.length = length
	p.playing = true
	p.paused = false
	p.startedAt = p.clock.Ticks()

	log.Printf("CD: playing track %d from frame %d for %d frames (%s)", track, start, length, filepath.Base(path))
	return nil
}

func openTrack(path string, data []byte) (audio.SeekableStream, error) {
	if filepath.Ext(path) != ".raw" {
		return decode.Open(data)
	}
	stream, err := decode.DecodeRaw(data, RawFormat)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func cdFramesToSource(frames, rate int) int {
	return timestamp.NewFrames(0, frames, FrameRate).ConvertToFramerate(rate).TotalNumberOfFrames()
}

// Stop ends playback
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	p.paused = false
	p.source = nil
	p.converter = nil
}

// Pause freezes playback and position
func (p *Player) Pause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing || p.paused {
		return false
	}
	p.paused = true
	p.pausedAt = p.clock.Ticks()
	return true
}

// Resume continues after Pause
func (p *Player) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		return false
	}
	p.startedAt += p.clock.Ticks() - p.pausedAt
	p.paused = false
	return true
}

// SetVolume sets the CD volume on the 0..127 scale
func (p *Player) SetVolume(volume int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v := min(max(volume, 0), 127)
	p.volume = uint16(v * resample.MaxVolume / 127)
}

// Position returns the absolute CD frame being played, or -1 when stopped
func (p *Player) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position()
}

func (p *Player) position() int {
	if !p.playing {
		return -1
	}
	now := p.clock.Ticks()
	if p.paused {
		now = p.pausedAt
	}
	elapsed := timestamp.New(scisync.TicksToMsecs(int(now-p.startedAt)), FrameRate).TotalNumberOfFrames()
	return p.start + min(elapsed, p.length)
}

// Status reports the player state
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{
		Track:    p.track,
		Playing:  p.playing,
		Paused:   p.paused,
		Position: p.position(),
		Length:   p.length,
	}
}

// ReadBuffer mixes the current segment into buf, writing silence when
// nothing plays. The player is an endless stream.
func (p *Player) ReadBuffer(buf []int16) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	clear(buf)
	if !p.playing || p.paused {
		return len(buf)
	}

	outCh := 1
	if p.cfg.Stereo {
		outCh = 2
	}
	p.converter.Convert(p.source, buf, len(buf)/outCh, p.volume, p.volume)
	if p.source.EndOfStream() && !p.converter.NeedsDraining() {
		log.Debugf("CD: track %d finished", p.track)
		p.playing = false
	}
	return len(buf)
}

func (p *Player) IsStereo() bool    { return p.cfg.Stereo }
func (p *Player) Rate() int         { return p.cfg.Rate }
func (p *Player) EndOfData() bool   { return false }
func (p *Player) EndOfStream() bool { return false }

// segment limits a stream to a window of frames
type segment struct {
	stream   audio.Stream
	channels int
	skip     int
	left     int
}

func newSegment(stream audio.Stream, startFrames, frames int) *segment {
	channels := 1
	if stream.IsStereo() {
		channels = 2
	}
	return &segment{
		stream:   stream,
		channels: channels,
		skip:     startFrames * channels,
		left:     frames * channels,
	}
}

func (s *segment) ReadBuffer(buf []int16) int {
	if len(buf) == 0 {
		return 0
	}
	for s.skip > 0 {
		n := s.stream.ReadBuffer(buf[:min(len(buf), s.skip)])
		if n == 0 {
			s.skip = 0
			s.left = 0
			return 0
		}
		s.skip -= n
	}
	n := s.stream.ReadBuffer(buf[:min(len(buf), s.left)])
	s.left -= n
	if n == 0 && s.stream.EndOfStream() {
		s.left = 0
	}
	return n
}

func (s *segment) IsStereo() bool    { return s.stream.IsStereo() }
func (s *segment) Rate() int         { return s.stream.Rate() }
func (s *segment) EndOfData() bool   { return s.left == 0 }
func (s *segment) EndOfStream() bool { return s.left == 0 }
