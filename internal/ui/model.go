// ABOUTME: Bubbletea model for the mixer TUI
// ABOUTME: Shows the channel table and turns key presses into engine commands
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sciaudio/sciaudio/internal/protocol"
	"github.com/sciaudio/sciaudio/pkg/audio32"
)

const (
	volumeStep = 8
	boxWidth   = 60

	// fadeOutSpeed and fadeOutSteps make "f" a one second fade
	fadeOutSpeed = 6
	fadeOutSteps = 10
)

// Model represents the TUI state
type Model struct {
	name     string
	status   protocol.Status
	received bool
	selected int

	controls *Controls

	showDebug bool

	width  int
	height int
}

// StatusMsg carries a fresh engine status
type StatusMsg struct {
	Status protocol.Status
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString(m.renderChannels())
	b.WriteString(m.renderExtras())
	if m.showDebug {
		b.WriteString(m.renderDebug())
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func line(s string) string {
	return fmt.Sprintf("│ %-*s │\n", boxWidth-4, truncate(s, boxWidth-4))
}

func rule(left, right string) string {
	return left + strings.Repeat("─", boxWidth-2) + right + "\n"
}

func (m Model) renderHeader() string {
	mx := m.status.Mixer
	state := "Playing"
	if mx.Paused {
		state = "Paused"
	}
	if !m.received {
		state = "Waiting for engine"
	}

	s := rule("┌", "┐")
	s += line(fmt.Sprintf("%s: %s", m.name, state))
	s += line(fmt.Sprintf("Output: %dHz %s  attenuation: %s (%s)",
		mx.Rate, channelName(mx.Stereo), mx.Attenuation, onOff(mx.AttenuatedMixing)))
	s += line(fmt.Sprintf("Master: [%s] %d/%d", renderBar(int(mx.Master), audio32.MaxVolume, 16), mx.Master, audio32.MaxVolume))
	s += rule("├", "┤")
	return s
}

func (m Model) renderChannels() string {
	mx := m.status.Mixer
	s := line(fmt.Sprintf("Channels %d/%d", mx.Active, mx.Capacity))
	if len(mx.Channels) == 0 {
		return s + line("  (silent)")
	}

	for i, ch := range mx.Channels {
		cursor := " "
		if i == m.selected {
			cursor = ">"
		}
		name := ch.Resource
		if ch.Robot {
			name = "robot"
		}
		flags := ""
		if ch.Loop {
			flags += "L"
		}
		if ch.Paused {
			flags += "P"
		}
		if ch.Fading {
			flags += "F"
		}
		if ch.Monitored {
			flags += "M"
		}
		s += line(fmt.Sprintf("%s%d %-18s vol %3d pan %4d %5d/%-5d %s",
			cursor, ch.Index, name, ch.Volume, ch.Pan, ch.Position, ch.Duration, flags))
	}
	return s
}

func (m Model) renderExtras() string {
	s := ""
	if cd := m.status.CD; cd != nil && cd.Playing {
		s += line(fmt.Sprintf("CD: track %d at frame %d (%d frames)", cd.Track, cd.Position, cd.Length))
	}
	if r := m.status.Robot; r != nil && r.Active {
		s += line(fmt.Sprintf("Robot: %d bytes played, %d packets queued, %d fps", r.BytesPlaying, r.Queued, r.FPS))
	}
	return s
}

func (m Model) renderDebug() string {
	return rule("├", "┤") +
		line(fmt.Sprintf("DEBUG: pending unlocks %d", m.status.Mixer.PendingUnlocks)) +
		line(fmt.Sprintf("       window %dx%d", m.width, m.height))
}

func (m Model) renderHelp() string {
	return rule("├", "┤") +
		line("↑/↓:Select  +/-:Master  space:Pause  s:Stop  f:Fade") +
		line("S:Stop all  d:Debug  q:Quit") +
		rule("└", "┘")
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	channels := m.status.Mixer.Channels

	switch msg.String() {
	case "q", "ctrl+c":
		m.controls.quit()
		return m, tea.Quit
	case "up":
		if m.selected > 0 {
			m.selected--
		}
	case "down":
		if m.selected < len(channels)-1 {
			m.selected++
		}
	case "+", "=":
		m.controls.send(protocol.Command{Command: protocol.CommandVolume, Channel: audio32.AllChannels,
			Volume: min(int(m.status.Mixer.Master)+volumeStep, audio32.MaxVolume)})
	case "-":
		m.controls.send(protocol.Command{Command: protocol.CommandVolume, Channel: audio32.AllChannels,
			Volume: max(int(m.status.Mixer.Master)-volumeStep, 0)})
	case " ":
		if ch, ok := m.current(); ok {
			cmd := protocol.CommandPause
			if ch.Paused {
				cmd = protocol.CommandResume
			}
			m.controls.send(protocol.Command{Command: cmd, Channel: int16(ch.Index)})
		}
	case "s":
		if ch, ok := m.current(); ok {
			m.controls.send(protocol.Command{Command: protocol.CommandStop, Channel: int16(ch.Index)})
		}
	case "S":
		m.controls.send(protocol.Command{Command: protocol.CommandStop, Channel: audio32.AllChannels})
	case "f":
		if ch, ok := m.current(); ok {
			m.controls.send(protocol.Command{Command: protocol.CommandFade, Channel: int16(ch.Index),
				Speed: fadeOutSpeed, Steps: fadeOutSteps, StopAfter: true})
		}
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) current() (audio32.ChannelStatus, bool) {
	channels := m.status.Mixer.Channels
	if m.selected < 0 || m.selected >= len(channels) {
		return audio32.ChannelStatus{}, false
	}
	return channels[m.selected], true
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	m.status = msg.Status
	m.received = true
	if n := len(m.status.Mixer.Channels); m.selected >= n {
		m.selected = max(n-1, 0)
	}
}

// Utility functions
func renderBar(value, limit, width int) string {
	filled := (value * width) / limit
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len([]rune(s)) <= length {
		return s
	}
	r := []rune(s)
	return string(r[:length-3]) + "..."
}

func channelName(stereo bool) string {
	if stereo {
		return "Stereo"
	}
	return "Mono"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
