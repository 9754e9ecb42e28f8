// ABOUTME: Monotonic tick clocks
// ABOUTME: RealClock derives ticks from elapsed monotonic time, ManualClock is stepped by hand
package sync

import (
	"sync"
	"time"
)

// TickRate is the number of ticks per second
const TickRate = 60

// TickDuration is the real time covered by one tick, rounded down
const TickDuration = time.Second / TickRate

// Clock supplies the current tick count
type Clock interface {
	Ticks() uint32
}

// RealClock counts ticks since it was created
type RealClock struct {
	start time.Time
}

// NewRealClock starts a clock at tick 0
func NewRealClock() *RealClock {
	return &RealClock{start: time.Now()}
}

func (c *RealClock) Ticks() uint32 {
	elapsed := time.Since(c.start)
	return uint32(elapsed * TickRate / time.Second)
}

// ManualClock only moves when told to
type ManualClock struct {
	mu    sync.Mutex
	ticks uint32
}

// NewManualClock starts a clock at the given tick
func NewManualClock(start uint32) *ManualClock {
	return &ManualClock{ticks: start}
}

func (c *ManualClock) Ticks() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// Advance moves the clock forward by n ticks
func (c *ManualClock) Advance(n uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks += n
}

// Set jumps the clock to an absolute tick
func (c *ManualClock) Set(ticks uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = ticks
}

// MsecsToTicks converts milliseconds to ticks, rounding up
func MsecsToTicks(ms int) int {
	return (ms*TickRate + 999) / 1000
}

// TicksToMsecs converts ticks to milliseconds, rounding down
func TicksToMsecs(ticks int) int {
	return ticks * 1000 / TickRate
}
