// ABOUTME: Attenuation policies applied when several channels mix at once
// ABOUTME: Classic scales linearly by slot, modified halves per step of age
package audio32

import (
	"fmt"

	"github.com/sciaudio/sciaudio/pkg/audio/resample"
)

// Attenuation selects how channel volumes are scaled by slot position
type Attenuation int

const (
	// AttenuationClassic scales slot i of n by (i+1)/(n+1). While a channel
	// is monitored only that channel is audible.
	AttenuationClassic Attenuation = iota
	// AttenuationModified shifts slot i of n right by 2*(n-1-i), so the
	// newest channel plays at full volume.
	AttenuationModified
)

func (a Attenuation) String() string {
	switch a {
	case AttenuationClassic:
		return "classic"
	case AttenuationModified:
		return "modified"
	default:
		return fmt.Sprintf("attenuation(%d)", int(a))
	}
}

// ParseAttenuation maps a policy name to its value
func ParseAttenuation(name string) (Attenuation, error) {
	switch name {
	case "classic", "":
		return AttenuationClassic, nil
	case "modified":
		return AttenuationModified, nil
	default:
		return 0, fmt.Errorf("unknown attenuation policy %q", name)
	}
}

// attenuate scales a converter volume for slot index out of active channels
func (a Attenuation) attenuate(vol, index, active int) int {
	if active <= 1 {
		return vol
	}
	switch a {
	case AttenuationModified:
		shift := 2 * (active - 1 - index)
		if shift >= 16 {
			return 0
		}
		return vol >> shift
	default:
		return vol * (index + 1) / (active + 1)
	}
}

// converterVolume maps a 0..127 channel volume onto the converter's scale
func converterVolume(vol int) int {
	return vol * resample.MaxVolume / MaxVolume
}

// panVolumes splits a volume across left and right by pan
func panVolumes(vol int, pan int16, stereo bool) (int, int) {
	if pan == PanUnset || !stereo {
		return vol, vol
	}
	p := int(pan)
	return (MaxPan - p) * vol / MaxPan, p * vol / MaxPan
}
