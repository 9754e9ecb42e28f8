// ABOUTME: Generated demo resources for running without game data
// ABOUTME: Writes square-wave WAV files into a temp directory
package app

import (
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/internal/resource"
	"github.com/sciaudio/sciaudio/pkg/audio"
	"github.com/sciaudio/sciaudio/pkg/audio/encode"
	"github.com/sciaudio/sciaudio/pkg/audio32"
)

type demoTone struct {
	number    int
	rate      int
	frequency int
	amplitude int16
	seconds   int
	stereo    bool
}

// rates differ on purpose so every converter strategy runs
var demoTones = []demoTone{
	{number: 1, rate: 22050, frequency: 220, amplitude: 6000, seconds: 4},
	{number: 2, rate: 11025, frequency: 330, amplitude: 4000, seconds: 3},
	{number: 3, rate: 44100, frequency: 440, amplitude: 3000, seconds: 2, stereo: true},
}

type demoPlay struct {
	number int
	loop   bool
	volume int
}

var demoPlaylist = []demoPlay{
	{number: 1, volume: audio32.MaxVolume},
	{number: 2, volume: 96},
	{number: 3, volume: 64},
}

func writeDemoResources() (string, error) {
	dir, err := os.MkdirTemp("", "sciaudio-demo-")
	if err != nil {
		return "", fmt.Errorf("failed to create demo dir: %w", err)
	}

	for _, tone := range demoTones {
		if err := writeTone(dir, tone); err != nil {
			os.RemoveAll(dir)
			return "", err
		}
	}
	log.Printf("Demo resources written to %s", dir)
	return dir, nil
}

func writeTone(dir string, tone demoTone) error {
	channels := 1
	if tone.stereo {
		channels = 2
	}
	name := resource.FileName(audio32.AudioID(uint16(tone.number)), ".wav")
	w, err := encode.CreateWAV(filepath.Join(dir, name), tone.rate, channels)
	if err != nil {
		return err
	}

	wave := audio.SquareWave(tone.rate, tone.frequency, tone.amplitude, tone.rate*tone.seconds, tone.stereo)
	if err := w.WriteSamples(wave.Samples()); err != nil {
		w.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return w.Close()
}
