// ABOUTME: Main player application orchestration
// ABOUTME: Wires resources, mixer, CD, output, monitor, discovery and TUI together
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sciaudio/sciaudio/internal/discovery"
	"github.com/sciaudio/sciaudio/internal/monitor"
	"github.com/sciaudio/sciaudio/internal/resource"
	"github.com/sciaudio/sciaudio/internal/ui"
	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/encode"
	"github.com/sciaudio/sciaudio/pkg/audio/output"
	"github.com/sciaudio/sciaudio/pkg/audio32"
	"github.com/sciaudio/sciaudio/pkg/cdaudio"
	"github.com/sciaudio/sciaudio/pkg/kernel"
	"github.com/sciaudio/sciaudio/pkg/robot"
	scisync "github.com/sciaudio/sciaudio/pkg/sync"
)

// NoPlay disables the startup play request
const NoPlay = -1

// Config holds player configuration
type Config struct {
	Name        string
	ResourceDir string
	TrackDir    string
	Mixer       audio32.Config

	// Play, Loop and Volume describe a resource to start immediately
	Play   int
	Loop   bool
	Volume int

	// RobotFile is a robot audio track to stream; RobotFPS is its video rate
	// and RobotPrimerReserved the primer region its container declares
	RobotFile           string
	RobotFPS            int
	RobotPrimerReserved int

	// Demo plays generated tones when no resource directory is given
	Demo bool

	Capture  string
	Headless bool
	Latency  time.Duration

	TUI         bool
	MonitorAddr string
	MDNS        bool

	// ExitWhenIdle stops Run once nothing is playing
	ExitWhenIdle bool
}

// Player represents the main player application
type Player struct {
	config Config

	clock     scisync.Clock
	resources *resource.Manager
	mixer     *audio32.Mixer
	cd        *cdaudio.Player
	kernel    *kernel.Kernel
	scheduler *scisync.Scheduler
	robot     *robotFeed

	sink      output.Sink
	monitor   *monitor.Server
	discovery *discovery.Manager
	controls  *ui.Controls
	tuiProg   *tea.Program

	requests   chan request
	idleChecks int
	demoDir    string
}

// errFinished ends the errgroup without reporting a failure
var errFinished = errors.New("player finished")

// New builds every component but starts nothing
func New(config Config) (*Player, error) {
	if config.Name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		config.Name = fmt.Sprintf("%s-sciaudio", hostname)
	}
	if config.Volume <= 0 {
		config.Volume = audio32.MaxVolume
	}
	if config.RobotFPS <= 0 {
		config.RobotFPS = defaultRobotFPS
	}
	if config.RobotPrimerReserved <= 0 {
		config.RobotPrimerReserved = robot.DefaultPrimerReservedSize
	}

	p := &Player{
		config:   config,
		clock:    scisync.NewRealClock(),
		requests: make(chan request),
	}

	dir := config.ResourceDir
	if dir == "" {
		if !config.Demo {
			return nil, fmt.Errorf("a resource directory is required without -demo")
		}
		demoDir, err := writeDemoResources()
		if err != nil {
			return nil, err
		}
		p.demoDir = demoDir
		dir = demoDir
	}

	resources, err := resource.NewManager(dir)
	if err != nil {
		p.cleanup()
		return nil, err
	}
	p.resources = resources

	p.mixer = audio32.NewMixer(config.Mixer, p.clock, resources)

	if config.TrackDir != "" {
		p.cd = cdaudio.NewPlayer(cdaudio.Config{
			Dir:    config.TrackDir,
			Rate:   p.mixer.Rate(),
			Stereo: p.mixer.IsStereo(),
		}, p.clock)
	}

	p.kernel = kernel.New(p.mixer, p.cd)
	p.scheduler = scisync.NewScheduler(p.clock)

	if config.RobotFile != "" {
		feed, err := loadRobot(config.RobotFile, p.clock, config.RobotFPS, config.RobotPrimerReserved)
		if err != nil {
			p.cleanup()
			return nil, err
		}
		p.robot = feed
	}

	return p, nil
}

// Mixer exposes the mixer for status dumps
func (p *Player) Mixer() *audio32.Mixer {
	return p.mixer
}

// Kernel exposes the kernel call dispatcher
func (p *Player) Kernel() *kernel.Kernel {
	return p.kernel
}

func (p *Player) channels() int {
	if p.mixer.IsStereo() {
		return 2
	}
	return 1
}

// openOutput creates the sink and starts it pulling mixer and CD audio
func (p *Player) openOutput() error {
	cfg := output.Config{Latency: p.config.Latency, BitDepth: p.mixer.BitDepth()}
	if p.config.Capture != "" {
		w, err := encode.CreateWAV(p.config.Capture, p.mixer.Rate(), p.channels())
		if err != nil {
			return err
		}
		cfg.Capture = w
		log.Printf("Capturing output to %s", p.config.Capture)
	}

	if p.config.Headless {
		p.sink = output.NewHeadless(cfg)
	} else {
		p.sink = output.NewOto(cfg)
	}

	if err := p.sink.Open(p.mixer.Rate(), p.channels()); err != nil {
		if cfg.Capture != nil {
			cfg.Capture.Close()
		}
		return fmt.Errorf("failed to open output: %w", err)
	}

	inputs := []audio.Stream{p.mixer}
	if p.cd != nil {
		inputs = append(inputs, p.cd)
	}
	bus := audio.NewBus(p.mixer.Rate(), p.mixer.IsStereo(), inputs...)
	return p.sink.Play(bus)
}

// startMonitor binds the monitor and advertises it
func (p *Player) startMonitor() error {
	p.monitor = monitor.NewServer(monitor.Config{Addr: p.config.MonitorAddr, Name: p.config.Name}, p)
	if err := p.monitor.Listen(); err != nil {
		return err
	}

	if p.config.MDNS {
		p.discovery = discovery.NewManager(discovery.Config{
			ServiceName: p.config.Name,
			Port:        p.monitor.Port(),
			Path:        monitor.Path,
			SessionID:   p.monitor.SessionID(),
		})
		if err := p.discovery.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}
	return nil
}

// startup issues the initial play requests before the engine loop runs
func (p *Player) startup() {
	if p.config.Demo && p.config.ResourceDir == "" {
		for _, n := range demoPlaylist {
			loop := 0
			if n.loop {
				loop = -1
			}
			if _, err := p.kernel.DoAudio(kernel.AudioPlay, audio32.NoOwner, n.number, loop, n.volume); err != nil {
				log.Printf("Demo play %d failed: %v", n.number, err)
			}
		}
	}

	if p.config.Play != NoPlay {
		loop := 0
		if p.config.Loop {
			loop = -1
		}
		ticks, err := p.kernel.DoAudio(kernel.AudioPlay, audio32.NoOwner, p.config.Play, loop, p.config.Volume)
		if err != nil {
			log.Printf("Play %d failed: %v", p.config.Play, err)
		} else if ticks == 0 {
			log.Warnf("Resource %d did not start", p.config.Play)
		} else {
			log.Printf("Playing %d.aud for %d ticks", p.config.Play, ticks)
		}
	}

	if p.robot != nil {
		p.robot.feed(p.mixer)
	}
}

// Run plays until ctx is cancelled, the TUI quits or, with ExitWhenIdle,
// everything has finished
func (p *Player) Run(ctx context.Context) error {
	defer p.cleanup()

	if err := p.openOutput(); err != nil {
		return err
	}
	if p.config.MonitorAddr != "" {
		if err := p.startMonitor(); err != nil {
			return err
		}
	}
	if p.config.TUI {
		p.controls = ui.NewControls()
		p.tuiProg = ui.Run(p.config.Name, p.controls)
	}

	p.schedule()
	p.startup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return p.runEngine(gctx)
	})

	if p.monitor != nil {
		g.Go(func() error {
			return p.monitor.Serve(gctx)
		})
	}

	if p.tuiProg != nil {
		g.Go(func() error {
			if _, err := p.tuiProg.Run(); err != nil {
				return fmt.Errorf("TUI: %w", err)
			}
			return errFinished
		})
		g.Go(func() error {
			<-gctx.Done()
			p.tuiProg.Quit()
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, errFinished) || errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// cleanup releases everything Run or New created
func (p *Player) cleanup() {
	if p.discovery != nil {
		p.discovery.Stop()
		p.discovery = nil
	}
	if p.sink != nil {
		if err := p.sink.Close(); err != nil {
			log.Printf("Error closing output: %v", err)
		}
		p.sink = nil
	}
	if p.mixer != nil {
		// the output has stopped pulling, so this also drains deferred unlocks
		p.mixer.Stop(audio32.AllChannels)
	}
	if p.demoDir != "" {
		os.RemoveAll(p.demoDir)
		p.demoDir = ""
	}
	log.Printf("Player stopped")
}
