// ABOUTME: The engine goroutine: scheduled tasks plus commands from monitors and the TUI
// ABOUTME: Every mixer call that may unlock resources runs here
package app

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sciaudio/sciaudio/internal/protocol"
	"github.com/sciaudio/sciaudio/internal/ui"
	"github.com/sciaudio/sciaudio/pkg/audio32"
	"github.com/sciaudio/sciaudio/pkg/kernel"
	scisync "github.com/sciaudio/sciaudio/pkg/sync"
)

const (
	freeUnusedPeriod = 6
	statusPeriod     = 15
	idlePollPeriod   = 30

	executeTimeout = 2 * time.Second
)

type request struct {
	cmd   protocol.Command
	reply chan protocol.Result
}

// schedule registers the periodic engine tasks
func (p *Player) schedule() {
	p.scheduler.Every(scisync.TaskFreeUnused, freeUnusedPeriod, p.mixer.FreeUnusedChannels)
	p.scheduler.Every(scisync.TaskStatus, statusPeriod, p.publishStatus)

	if p.config.ExitWhenIdle {
		p.scheduler.Every(scisync.TaskPoll, idlePollPeriod, p.checkIdle)
	}
	if p.robot != nil {
		p.scheduler.Every(scisync.TaskRobotFeed, 1, func() { p.robot.feed(p.mixer) })
		p.scheduler.Every(scisync.TaskDriftSample, scisync.DriftCheckInterval, func() { p.robot.sample(p.mixer) })
	}
}

// runEngine is the engine goroutine
func (p *Player) runEngine(ctx context.Context) error {
	ticker := time.NewTicker(scisync.TickDuration)
	defer ticker.Stop()

	var commands <-chan protocol.Command
	var quit <-chan struct{}
	if p.controls != nil {
		commands = p.controls.Commands
		quit = p.controls.Quit
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-quit:
			log.Printf("Received quit from TUI")
			return errFinished

		case cmd := <-commands:
			res := p.execute(cmd)
			if !res.OK {
				log.Printf("TUI %s: %s", cmd.Command, res.Error)
			}

		case req := <-p.requests:
			req.reply <- p.execute(req.cmd)

		case <-ticker.C:
			p.scheduler.Poll()
			if p.idleChecks >= 2 {
				log.Printf("Nothing left to play")
				return errFinished
			}
		}
	}
}

// checkIdle counts consecutive polls with nothing playing. Two in a row are
// needed so a channel between loops is not mistaken for the end.
func (p *Player) checkIdle() {
	if p.busy() {
		p.idleChecks = 0
		return
	}
	p.idleChecks++
}

// busy reports whether anything can still produce sound
func (p *Player) busy() bool {
	if p.mixer.ActiveChannels() > 0 {
		return true
	}
	if p.cd != nil && p.cd.Status().Playing {
		return true
	}
	return p.robot != nil && p.robot.pending()
}

func (p *Player) publishStatus() {
	if p.tuiProg != nil {
		p.tuiProg.Send(ui.StatusMsg{Status: p.Status()})
		return
	}
	log.Debug(p.mixer.Snapshot().String())
}

// Status implements monitor.Handler. It never drains unlocks, so any
// goroutine may call it.
func (p *Player) Status() protocol.Status {
	st := protocol.Status{Mixer: p.mixer.Snapshot()}
	if p.cd != nil {
		cd := p.cd.Status()
		st.CD = &cd
	}
	if p.robot != nil {
		rs := p.robot.status()
		st.Robot = &rs
	}
	return st
}

// Execute implements monitor.Handler by handing cmd to the engine goroutine
func (p *Player) Execute(cmd protocol.Command) protocol.Result {
	req := request{cmd: cmd, reply: make(chan protocol.Result, 1)}
	timeout := time.NewTimer(executeTimeout)
	defer timeout.Stop()

	select {
	case p.requests <- req:
	case <-timeout.C:
		return protocol.Result{Command: cmd.Command, Error: "engine not running"}
	}

	select {
	case res := <-req.reply:
		return res
	case <-timeout.C:
		return protocol.Result{Command: cmd.Command, Error: "engine did not answer"}
	}
}

// selector resolves a command's target channel
func (p *Player) selector(cmd protocol.Command) int16 {
	if cmd.Resource != 0 {
		return p.mixer.FindChannel(audio32.AudioID(uint16(cmd.Resource)), audio32.NoOwner)
	}
	return cmd.Channel
}

// execute runs one command on the engine goroutine
func (p *Player) execute(cmd protocol.Command) protocol.Result {
	res := protocol.Result{Command: cmd.Command}

	switch cmd.Command {
	case protocol.CommandPlay:
		volume := cmd.Volume
		if volume == 0 {
			volume = audio32.MaxVolume
		}
		loop := 0
		if cmd.Loop {
			loop = -1
		}
		ticks, err := p.kernel.DoAudio(kernel.AudioPlay, audio32.NoOwner, cmd.Resource, loop, volume)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		res.Value = ticks
		res.OK = ticks != 0
		if !res.OK {
			res.Error = fmt.Sprintf("%d.aud did not start", cmd.Resource)
		}
		return res
	}

	sel := p.selector(cmd)
	if sel == audio32.NoExistingChannel {
		res.Error = "no such channel"
		return res
	}

	switch cmd.Command {
	case protocol.CommandStop:
		res.Value = p.mixer.Stop(sel)
		res.OK = res.Value > 0
	case protocol.CommandPause:
		res.OK = p.mixer.Pause(sel)
	case protocol.CommandResume:
		res.OK = p.mixer.Resume(sel)
	case protocol.CommandVolume:
		res.OK = p.mixer.SetVolume(sel, cmd.Volume)
		res.Value = int(p.mixer.GetVolume(sel))
	case protocol.CommandFade:
		res.OK = p.mixer.Fade(sel, cmd.Volume, cmd.Speed, cmd.Steps, cmd.StopAfter)
	default:
		res.Error = "unknown command " + cmd.Command
		return res
	}

	if !res.OK && res.Error == "" {
		res.Error = "no change"
	}
	return res
}
