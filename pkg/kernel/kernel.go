// ABOUTME: DoAudio and DoCDAudio argument decoding and dispatch
// ABOUTME: Returns the integer a script would receive, plus load errors
package kernel

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/pkg/audio32"
	"github.com/sciaudio/sciaudio/pkg/cdaudio"
)

var (
	// ErrUnknownSubop is returned for subop numbers with no handler
	ErrUnknownSubop = errors.New("unknown subop")
	// ErrMissingArgument is returned when a subop gets too few arguments
	ErrMissingArgument = errors.New("missing argument")
)

// Kernel routes audio kernel calls
type Kernel struct {
	mixer *audio32.Mixer
	cd    *cdaudio.Player
}

// New creates a dispatcher; cd may be nil when no tracks are configured
func New(mixer *audio32.Mixer, cd *cdaudio.Player) *Kernel {
	return &Kernel{mixer: mixer, cd: cd}
}

func arg(args []int, i, def int) int {
	if i < len(args) {
		return args[i]
	}
	return def
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func audio36(args []int) audio32.ResourceID {
	return audio32.Audio36ID(uint16(args[0]), uint8(args[1]), uint8(args[2]), uint8(args[3]), uint8(args[4]))
}

// resourceArgs splits a leading resource key from the remaining arguments.
// Five or more arguments start with an Audio36 tuple, fewer with a number.
func resourceArgs(args []int) (audio32.ResourceID, []int) {
	if len(args) >= 5 {
		return audio36(args), args[5:]
	}
	return audio32.AudioID(uint16(args[0])), args[1:]
}

// selectChannel resolves selector arguments: none means every channel, a
// lone negative number the robot channel, otherwise a resource key
func (k *Kernel) selectChannel(args []int, owner audio32.Owner) int16 {
	switch {
	case len(args) == 0:
		return audio32.AllChannels
	case len(args) == 1 && args[0] < 0:
		return audio32.RobotChannel
	case len(args) < 5:
		return k.mixer.FindChannel(audio32.AudioID(uint16(args[0])), owner)
	default:
		return k.mixer.FindChannel(audio36(args), owner)
	}
}

// DoAudio runs one DoAudio subop on behalf of owner
func (k *Kernel) DoAudio(op AudioSubop, owner audio32.Owner, args ...int) (int, error) {
	log.WithFields(log.Fields{
		"subop": op.String(),
		"owner": owner,
		"args":  args,
	}).Debug("DoAudio")

	switch op {
	case AudioInit, AudioDistort, AudioCritical:
		return 0, nil

	case AudioWaitForPlay, AudioPlay:
		if len(args) == 0 {
			return k.mixer.ActiveChannels(), nil
		}
		id, opts := resourceArgs(args)
		loop := arg(opts, 0, 0) == -1
		volume := arg(opts, 1, audio32.MaxVolume)
		monitor := arg(opts, 2, 0) != 0
		return int(k.mixer.Play(id, op == AudioPlay, loop, volume, owner, monitor)), nil

	case AudioStop:
		sel := k.selectChannel(args, owner)
		if sel == audio32.NoExistingChannel {
			return 0, nil
		}
		return k.mixer.Stop(sel), nil

	case AudioPause, AudioResume:
		sel := k.selectChannel(args, owner)
		if sel == audio32.NoExistingChannel {
			return 0, nil
		}
		if op == AudioPause {
			return boolInt(k.mixer.Pause(sel)), nil
		}
		return boolInt(k.mixer.Resume(sel)), nil

	case AudioPosition:
		sel := k.selectChannel(args, owner)
		if sel == audio32.NoExistingChannel || sel == audio32.AllChannels {
			return -1, nil
		}
		return int(k.mixer.Position(sel)), nil

	case AudioRate:
		if rate := arg(args, 0, 0); rate > 0 {
			k.mixer.SetRate(rate)
		}
		return k.mixer.Rate(), nil

	case AudioVolume:
		if len(args) == 0 {
			return int(k.mixer.GetVolume(audio32.AllChannels)), nil
		}
		sel := k.selectChannel(args[1:], owner)
		if sel == audio32.NoExistingChannel {
			return 0, nil
		}
		k.mixer.SetVolume(sel, args[0])
		return int(k.mixer.GetVolume(sel)), nil

	case AudioGetCapability:
		return 1, nil

	case AudioBitDepth:
		return k.mixer.BitDepth(), nil

	case AudioMixing:
		if len(args) > 0 {
			k.mixer.SetAttenuatedMixing(args[0] != 0)
		}
		return boolInt(k.mixer.AttenuatedMixing()), nil

	case AudioChannels:
		if k.mixer.IsStereo() {
			return 2, nil
		}
		return 1, nil

	case AudioPreload:
		if len(args) == 0 {
			return 0, nil
		}
		id, _ := resourceArgs(args)
		if err := k.mixer.Preload(id); err != nil {
			return 0, err
		}
		return 1, nil

	case AudioFade:
		if len(args) < 4 {
			return 0, fmt.Errorf("%s: %w", op, ErrMissingArgument)
		}
		sel := k.mixer.FindChannel(audio32.AudioID(uint16(args[0])), owner)
		return k.fade(sel, args[1:]), nil

	case AudioFade36:
		if len(args) < 8 {
			return 0, fmt.Errorf("%s: %w", op, ErrMissingArgument)
		}
		sel := k.mixer.FindChannel(audio36(args), owner)
		return k.fade(sel, args[5:]), nil

	case AudioHasSignal:
		return boolInt(k.mixer.HasSignal()), nil

	case AudioSetLoop:
		if len(args) < 2 {
			return 0, fmt.Errorf("%s: %w", op, ErrMissingArgument)
		}
		last := len(args) - 1
		sel := k.selectChannel(args[:last], owner)
		return boolInt(k.mixer.SetLoop(sel, args[last] == -1)), nil

	case AudioPan:
		if len(args) < 2 {
			return 0, fmt.Errorf("%s: %w", op, ErrMissingArgument)
		}
		sel := k.selectChannel(args[1:], owner)
		return boolInt(k.mixer.SetPan(sel, args[0])), nil

	case AudioPanOff:
		if len(args) < 1 {
			return 0, fmt.Errorf("%s: %w", op, ErrMissingArgument)
		}
		sel := k.selectChannel(args, owner)
		return boolInt(k.mixer.SetPan(sel, audio32.PanUnset)), nil
	}

	return 0, fmt.Errorf("DoAudio %s: %w", op, ErrUnknownSubop)
}

// fade starts a fade from target, speed, steps and an optional stop flag
func (k *Kernel) fade(sel int16, args []int) int {
	if sel == audio32.NoExistingChannel {
		return 0
	}
	return boolInt(k.mixer.Fade(sel, args[0], args[1], args[2], arg(args, 3, 0) != 0))
}

// DoCDAudio runs one CD subop. Missing tracks are logged and treated as
// silence since CD audio is optional.
func (k *Kernel) DoCDAudio(op CDSubop, args ...int) (int, error) {
	log.WithFields(log.Fields{
		"subop": op.String(),
		"args":  args,
	}).Debug("DoCDAudio")

	if k.cd == nil {
		log.Warnf("DoCDAudio %s ignored: no CD tracks configured", op)
		return 0, nil
	}

	switch op {
	case CDWPlay:
		return 0, nil

	case CDPlay:
		if len(args) < 1 {
			return 0, fmt.Errorf("%s: %w", op, ErrMissingArgument)
		}
		err := k.cd.Play(args[0], arg(args, 1, 0), arg(args, 2, 0))
		if errors.Is(err, cdaudio.ErrTrackNotFound) {
			log.Warnf("CD: %v", err)
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return 1, nil

	case CDStop:
		k.cd.Stop()
		return 0, nil

	case CDPause:
		return boolInt(k.cd.Pause()), nil

	case CDResume:
		return boolInt(k.cd.Resume()), nil

	case CDPosition:
		return k.cd.Position(), nil

	case CDVolume:
		if len(args) > 0 {
			k.cd.SetVolume(args[0])
		}
		return 0, nil

	case CDStatus:
		return boolInt(k.cd.Status().Playing), nil
	}

	return 0, fmt.Errorf("DoCDAudio %s: %w", op, ErrUnknownSubop)
}
