// ABOUTME: Command-line monitor for a running sciaudio engine
// ABOUTME: Finds the engine over mDNS or -addr, prints status and sends commands
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/internal/discovery"
	"github.com/sciaudio/sciaudio/internal/monitor"
	"github.com/sciaudio/sciaudio/internal/protocol"
	"github.com/sciaudio/sciaudio/pkg/audio32"
)

var (
	addr      = flag.String("addr", "", "Engine address host:port (skip mDNS)")
	name      = flag.String("name", "sciaudio-monitor", "Monitor name sent in the handshake")
	timeout   = flag.Duration("timeout", 10*time.Second, "Discovery and command timeout")
	command   = flag.String("command", "", "Command to send: play, stop, pause, resume, volume, fade")
	channel   = flag.Int("channel", int(audio32.AllChannels), "Target channel (-2 all, -3 robot)")
	resource  = flag.Int("resource", 0, "Target resource number instead of -channel")
	value     = flag.Int("value", audio32.MaxVolume, "Volume for volume, play and fade")
	loop      = flag.Bool("loop", false, "Loop a played resource")
	speed     = flag.Int("speed", 6, "Ticks per fade step")
	steps     = flag.Int("steps", 10, "Volume change per fade step")
	stopAfter = flag.Bool("stop-after", false, "Stop the channel when the fade completes")
	watch     = flag.Bool("watch", false, "Keep printing status until interrupted")
	verbose   = flag.Bool("verbose", false, "Log connection details")
)

func main() {
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if !*verbose {
		log.SetLevel(log.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	target := *addr
	if target == "" {
		found, err := discover(ctx)
		if err != nil {
			return err
		}
		target = found
	}

	dialCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	client, err := monitor.Dial(dialCtx, monitor.ClientConfig{Addr: target, Name: *name})
	if err != nil {
		return err
	}
	defer client.Close()

	w := client.Welcome()
	fmt.Printf("Connected to %s (%s %s)\n", w.Name, w.Product, w.Version)

	if *command != "" {
		cmdCtx, cancel := context.WithTimeout(ctx, *timeout)
		defer cancel()
		res, err := client.Do(cmdCtx, buildCommand())
		if err != nil {
			return fmt.Errorf("%s failed: %w", *command, err)
		}
		if !res.OK {
			return fmt.Errorf("%s: %s", res.Command, res.Error)
		}
		fmt.Printf("%s: ok (%d)\n", res.Command, res.Value)
		if !*watch {
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case st, ok := <-client.Status:
			if !ok {
				return fmt.Errorf("engine closed the connection")
			}
			printStatus(st)
			if !*watch {
				return nil
			}
		}
	}
}

func buildCommand() protocol.Command {
	return protocol.Command{
		Command:   *command,
		Channel:   int16(*channel),
		Resource:  *resource,
		Volume:    *value,
		Loop:      *loop,
		Speed:     *speed,
		Steps:     *steps,
		StopAfter: *stopAfter,
	}
}

// discover browses mDNS and returns the first engine found
func discover(ctx context.Context) (string, error) {
	log.Printf("Looking for engines...")
	disc := discovery.NewManager(discovery.Config{})
	disc.Browse()
	defer disc.Stop()

	select {
	case info := <-disc.Engines():
		fmt.Printf("Discovered %s at %s\n", info.Name, info.Addr())
		return info.Addr(), nil
	case <-time.After(*timeout):
		return "", fmt.Errorf("no engine found after %v", *timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func printStatus(st protocol.Status) {
	fmt.Println(st.Mixer.String())
	if st.CD != nil {
		fmt.Printf("CD: track %d playing=%v paused=%v at %d of %d\n",
			st.CD.Track, st.CD.Playing, st.CD.Paused, st.CD.Position, st.CD.Length)
	}
	if st.Robot != nil {
		fmt.Printf("Robot: active=%v queued=%d bytes=%d fps=%d\n",
			st.Robot.Active, st.Robot.Queued, st.Robot.BytesPlaying, st.Robot.FPS)
	}
}
