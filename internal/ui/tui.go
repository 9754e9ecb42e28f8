// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the command channel back to the engine
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sciaudio/sciaudio/internal/protocol"
)

// Controls carries user actions from the TUI to the engine
type Controls struct {
	Commands chan protocol.Command
	Quit     chan struct{}
}

// NewControls creates a control handler
func NewControls() *Controls {
	return &Controls{
		Commands: make(chan protocol.Command, 10),
		Quit:     make(chan struct{}, 1),
	}
}

func (c *Controls) send(cmd protocol.Command) {
	if c == nil {
		return
	}
	select {
	case c.Commands <- cmd:
	default:
	}
}

func (c *Controls) quit() {
	if c == nil {
		return
	}
	select {
	case c.Quit <- struct{}{}:
	default:
	}
}

// NewModel creates a TUI model
func NewModel(name string, controls *Controls) Model {
	return Model{
		name:     name,
		controls: controls,
	}
}

// Run creates the TUI program; the caller starts it
func Run(name string, controls *Controls) *tea.Program {
	return tea.NewProgram(NewModel(name, controls), tea.WithAltScreen())
}
