// ABOUTME: Typed subop numbers for DoAudio and DoCDAudio
// ABOUTME: Values are fixed by the scripts that call them
package kernel

import "fmt"

// AudioSubop selects a DoAudio operation
type AudioSubop int

const (
	AudioInit          AudioSubop = 0
	AudioWaitForPlay   AudioSubop = 1
	AudioPlay          AudioSubop = 2
	AudioStop          AudioSubop = 3
	AudioPause         AudioSubop = 4
	AudioResume        AudioSubop = 5
	AudioPosition      AudioSubop = 6
	AudioRate          AudioSubop = 7
	AudioVolume        AudioSubop = 8
	AudioGetCapability AudioSubop = 9
	AudioBitDepth      AudioSubop = 10
	AudioDistort       AudioSubop = 11
	AudioMixing        AudioSubop = 12
	AudioChannels      AudioSubop = 13
	AudioPreload       AudioSubop = 14
	AudioFade          AudioSubop = 15
	AudioFade36        AudioSubop = 16
	AudioHasSignal     AudioSubop = 17
	AudioCritical      AudioSubop = 18
	AudioSetLoop       AudioSubop = 19
	AudioPan           AudioSubop = 20
	AudioPanOff        AudioSubop = 21
)

var audioNames = map[AudioSubop]string{
	AudioInit:          "Init",
	AudioWaitForPlay:   "WaitForPlay",
	AudioPlay:          "Play",
	AudioStop:          "Stop",
	AudioPause:         "Pause",
	AudioResume:        "Resume",
	AudioPosition:      "Position",
	AudioRate:          "Rate",
	AudioVolume:        "Volume",
	AudioGetCapability: "GetCapability",
	AudioBitDepth:      "BitDepth",
	AudioDistort:       "Distort",
	AudioMixing:        "Mixing",
	AudioChannels:      "Channels",
	AudioPreload:       "Preload",
	AudioFade:          "Fade",
	AudioFade36:        "Fade36",
	AudioHasSignal:     "HasSignal",
	AudioCritical:      "Critical",
	AudioSetLoop:       "SetLoop",
	AudioPan:           "Pan",
	AudioPanOff:        "PanOff",
}

func (s AudioSubop) String() string {
	if name, ok := audioNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AudioSubop(%d)", int(s))
}

// CDSubop selects a DoCDAudio operation
type CDSubop int

const (
	CDWPlay    CDSubop = 1
	CDPlay     CDSubop = 2
	CDStop     CDSubop = 3
	CDPause    CDSubop = 4
	CDResume   CDSubop = 5
	CDPosition CDSubop = 6
	CDVolume   CDSubop = 8
	CDStatus   CDSubop = 10
)

func (s CDSubop) String() string {
	switch s {
	case CDWPlay:
		return "WPlay"
	case CDPlay:
		return "Play"
	case CDStop:
		return "Stop"
	case CDPause:
		return "Pause"
	case CDResume:
		return "Resume"
	case CDPosition:
		return "Position"
	case CDVolume:
		return "Volume"
	case CDStatus:
		return "Status"
	default:
		return fmt.Sprintf("CDSubop(%d)", int(s))
	}
}
