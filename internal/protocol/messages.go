// ABOUTME: Monitor protocol message type definitions
// ABOUTME: JSON envelopes exchanged between the engine and sciaudio-monitor
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/sciaudio/sciaudio/pkg/audio32"
	"github.com/sciaudio/sciaudio/pkg/cdaudio"
)

// Version is the monitor protocol revision
const Version = 1

// Message types
const (
	TypeHello   = "monitor/hello"
	TypeWelcome = "engine/hello"
	TypeStatus  = "engine/status"
	TypeCommand = "monitor/command"
	TypeResult  = "engine/result"
)

// Commands a monitor may send
const (
	CommandPlay   = "play"
	CommandStop   = "stop"
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandVolume = "volume"
	CommandFade   = "fade"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Hello is sent by a monitor to open a session
type Hello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// Welcome is the engine's reply to Hello
type Welcome struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Product   string `json:"product"`
	Version   string `json:"version"`
}

// RobotStatus reports the robot feeder
type RobotStatus struct {
	Active       bool `json:"active"`
	Queued       int  `json:"queued"`
	BytesPlaying int  `json:"bytes_playing"`
	FPS          int  `json:"fps"`
}

// Status is pushed to every monitor on a fixed interval
type Status struct {
	Mixer audio32.Status  `json:"mixer"`
	CD    *cdaudio.Status `json:"cd,omitempty"`
	Robot *RobotStatus    `json:"robot,omitempty"`
}

// Command asks the engine to act on the mixer.
//
// Channel is a slot index or one of the audio32 selectors. Resource names
// an audio number for play; when set for other commands it selects the
// channel playing it instead of Channel.
type Command struct {
	Command   string `json:"command"`
	Channel   int16  `json:"channel"`
	Resource  int    `json:"resource,omitempty"`
	Volume    int    `json:"volume,omitempty"`
	Loop      bool   `json:"loop,omitempty"`
	Speed     int    `json:"speed,omitempty"`
	Steps     int    `json:"steps,omitempty"`
	StopAfter bool   `json:"stop_after,omitempty"`
}

// Result answers one Command
type Result struct {
	Command string `json:"command"`
	OK      bool   `json:"ok"`
	Value   int    `json:"value"`
	Error   string `json:"error,omitempty"`
}

// Decode unmarshals a raw envelope
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return msg, fmt.Errorf("message without type")
	}
	return msg, nil
}

// DecodePayload converts a generic payload into v
func DecodePayload(msg Message, v interface{}) error {
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", msg.Type, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", msg.Type, err)
	}
	return nil
}
