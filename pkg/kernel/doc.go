// ABOUTME: Package kernel dispatches script audio calls to the mixer and CD player
// ABOUTME: Subop numbers match the interpreter's kernel table
// Package kernel decodes the integer argument lists scripts pass to the
// DoAudio and DoCDAudio kernel calls and forwards them to audio32 and
// cdaudio. The two surfaces stay separate: CD commands never touch mixer
// channels.
package kernel
