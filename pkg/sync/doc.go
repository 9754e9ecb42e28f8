// ABOUTME: Tick clock, AV drift correction and tick-scheduled tasks
// ABOUTME: All timing is in integer ticks at 60 Hz, never wall-clock floats
// Package sync provides the timing primitives shared by the audio core.
//
//   - Clock: monotonic 60 Hz tick counter (RealClock, ManualClock for tests)
//   - DriftCorrector: nudges robot video frame rate to track audio position
//   - Scheduler: typed task queue ordered by due tick
//
// Example:
//
//	clock := sync.NewRealClock()
//	sched := sync.NewScheduler(clock)
//	sched.Every(sync.TaskFreeUnused, 1, mixer.FreeUnusedChannels)
//	go sched.Run(ctx)
package sync
