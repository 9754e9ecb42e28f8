// ABOUTME: Streaming audio for robot full-motion video
// ABOUTME: Interleaves even and odd DPCM packets into a bounded ring buffer
// Package robot implements the audio half of robot video playback.
//
// Robot audio arrives as DPCM16 packets addressed by absolute position. Even
// and odd packets each cover every other sample of one mono 22050 Hz signal,
// so the two halves can arrive independently and out of step. The Stream
// interleaves them into a fixed ring buffer, papers over whichever half is
// late by averaging neighbours, and pushes back on the producer when the
// buffer is full.
//
// Playback is gated on the two primer packets that open every track:
//
//	s := robot.NewStream(robot.DefaultBufferSize)
//	s.AddPacket(even)  // waiting
//	s.AddPacket(odd)   // playback may begin
//	n := s.Read(samples)
package robot
