// ABOUTME: Entry point for the sciaudio engine
// ABOUTME: Parses CLI flags, configures logging and runs the player application
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/internal/app"
	"github.com/sciaudio/sciaudio/internal/resource"
	"github.com/sciaudio/sciaudio/internal/version"
	"github.com/sciaudio/sciaudio/pkg/audio32"
)

var (
	resources   = flag.String("resources", "", "Directory of audio resources (N.aud, N.wav, ...)")
	tracks      = flag.String("tracks", "", "Directory of CD audio tracks (trackNN.wav/flac/mp3)")
	name        = flag.String("name", "", "Engine friendly name (default: hostname-sciaudio)")
	play        = flag.Int("play", app.NoPlay, "Resource number to play at startup")
	loop        = flag.Bool("loop", false, "Loop the startup resource")
	volume      = flag.Int("volume", audio32.MaxVolume, "Volume of the startup resource (0-127)")
	attenuation = flag.String("attenuation", "classic", "Mix attenuation policy: classic or modified")
	noAttenuate = flag.Bool("no-attenuation", false, "Disable attenuated mixing")
	channels    = flag.Int("channels", 5, "Number of mixer channels")
	rate        = flag.Int("rate", 44100, "Output sample rate")
	mono        = flag.Bool("mono", false, "Mix to mono instead of stereo")
	bits        = flag.Int("bits", 16, "Output bit depth: 8 or 16")
	robotFile   = flag.String("robot", "", "Robot audio track to stream")
	robotFPS    = flag.Int("robot-fps", 10, "Video frame rate of the robot track")
	robotPrimer = flag.Int("robot-primer-reserved", 0, "Primer region size of the robot container (0 for the usual 19922)")
	demo        = flag.Bool("demo", false, "Play generated demo tones")
	capture     = flag.String("capture", "", "Write the mixed output to a WAV file")
	headless    = flag.Bool("headless", false, "Do not open an audio device")
	latency     = flag.Duration("latency", 50*time.Millisecond, "Output buffer length")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	monitorPort = flag.Int("monitor-port", 8928, "Monitor WebSocket port (0 disables)")
	noMDNS      = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	exitIdle    = flag.Bool("exit-when-idle", false, "Exit once nothing is playing")
	list        = flag.Bool("list", false, "List the resources in -resources and exit")
	logFile     = flag.String("log-file", "sciaudio.log", "Log file path (empty for none)")
	logLevel    = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.UserAgent())
		return
	}

	if *list {
		if err := listResources(*resources); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	useTUI := !*noTUI && !*headless

	closeLog, err := setupLogging(useTUI)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeLog()

	policy, err := audio32.ParseAttenuation(*attenuation)
	if err != nil {
		log.Fatalf("Invalid -attenuation: %v", err)
	}

	mixer := audio32.DefaultConfig()
	mixer.Channels = *channels
	mixer.Rate = *rate
	mixer.Stereo = !*mono
	mixer.BitDepth = *bits
	mixer.Attenuation = policy
	mixer.AttenuatedMixing = !*noAttenuate

	config := app.Config{
		Name:                *name,
		ResourceDir:         *resources,
		TrackDir:            *tracks,
		Mixer:               mixer,
		Play:                *play,
		Loop:                *loop,
		Volume:              *volume,
		RobotFile:           *robotFile,
		RobotFPS:            *robotFPS,
		RobotPrimerReserved: *robotPrimer,
		Demo:                *demo,
		Capture:             *capture,
		Headless:            *headless,
		Latency:             *latency,
		TUI:                 useTUI,
		MDNS:                !*noMDNS,
		ExitWhenIdle:        *exitIdle,
	}
	if *monitorPort > 0 {
		config.MonitorAddr = fmt.Sprintf(":%d", *monitorPort)
	}

	if !useTUI {
		log.Printf("Starting %s", version.UserAgent())
		log.Printf("Press Ctrl-C to stop")
	}

	player, err := app.New(config)
	if err != nil {
		log.Fatalf("Failed to create player: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := player.Run(ctx); err != nil {
		log.Fatalf("Player error: %v", err)
	}
}

// setupLogging routes logrus to the log file, and to stdout as well when the
// TUI is not drawing there
func setupLogging(useTUI bool) (func(), error) {
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid -log-level: %w", err)
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if *logFile == "" {
		if useTUI {
			log.SetOutput(io.Discard)
		}
		return func() {}, nil
	}

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("error opening log file: %w", err)
	}

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}
	return func() { _ = f.Close() }, nil
}

func listResources(dir string) error {
	if dir == "" {
		return fmt.Errorf("-list needs -resources")
	}
	mgr, err := resource.NewManager(dir)
	if err != nil {
		return err
	}
	ids, err := mgr.List()
	if err != nil {
		return err
	}

	for _, id := range ids {
		path, err := mgr.Path(id)
		if err != nil {
			return err
		}
		fmt.Printf("%-28s %s\n", id, path)
	}
	fmt.Printf("%d resources\n", len(ids))
	return nil
}
