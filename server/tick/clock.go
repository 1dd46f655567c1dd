package tick

import (
	"sync"
	"time"
)

// sampleCapacity is the size of the ring buffer of per-tick durations the
// clock retains for percentile reporting (§4.6.1's "/tick query" stats,
// matching vanilla's own 100-sample window).
const sampleCapacity = 100

// Mode is the clock's current run mode (§4.6.1).
type Mode uint8

const (
	// Running is the normal mode: one tick fires every period.
	Running Mode = iota
	// Frozen suspends ticking entirely until unfrozen.
	Frozen
	// Stepping runs a fixed number of ticks while otherwise frozen, then
	// reverts to Frozen.
	Stepping
	// Sprinting runs ticks back-to-back as fast as possible (ignoring the
	// configured rate) for a fixed number of ticks, then reverts to Running.
	Sprinting
)

func (m Mode) String() string {
	switch m {
	case Running:
		return "running"
	case Frozen:
		return "frozen"
	case Stepping:
		return "stepping"
	case Sprinting:
		return "sprinting"
	}
	return "unknown"
}

// defaultTickRate is the vanilla default of 20 ticks per second.
const defaultTickRate = 20.0

// TickClock tracks the server's tick rate, run mode, and recent tick-time
// samples, backing the /tick command's query/rate/freeze/unfreeze/step/
// sprint surface (§4.6.1).
type TickClock struct {
	mu sync.Mutex

	tickRate         float64
	nanosPerTick     int64
	mode             Mode
	stepTicksLeft    int32
	sprintTicksLeft  int32
	sprintTotalTicks int32

	samples    [sampleCapacity]int64
	sampleN    int
	sampleNext int
}

// NewTickClock creates a clock running at the vanilla default rate of 20
// ticks per second.
func NewTickClock() *TickClock {
	c := &TickClock{}
	c.SetTickRate(defaultTickRate)
	return c
}

// SetTickRate changes the target tick rate (ticks per second); rate is
// clamped to (0, 10000] matching the original command's bounded argument.
func (c *TickClock) SetTickRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rate <= 0 {
		rate = 0.01
	}
	if rate > 10000 {
		rate = 10000
	}
	c.tickRate = rate
	c.nanosPerTick = int64(float64(time.Second) / rate)
}

// TickRate returns the configured ticks-per-second rate.
func (c *TickClock) TickRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickRate
}

// NanosPerTick returns the configured nanoseconds between ticks at the
// current rate.
func (c *TickClock) NanosPerTick() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nanosPerTick
}

// SetFrozen freezes or unfreezes the clock. Freezing implicitly stops any
// in-progress stepping or sprinting (§4.6.1, matching the original /tick
// freeze command's "stop sprinting/stepping first").
func (c *TickClock) SetFrozen(frozen bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if frozen {
		c.mode = Frozen
		c.stepTicksLeft = 0
		c.sprintTicksLeft = 0
	} else if c.mode == Frozen {
		c.mode = Running
	}
}

// IsFrozen reports whether the clock is frozen (and not stepping).
func (c *TickClock) IsFrozen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode == Frozen
}

// IsStepping reports whether the clock is currently stepping forward.
func (c *TickClock) IsStepping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode == Stepping
}

// IsSprinting reports whether the clock is currently sprinting.
func (c *TickClock) IsSprinting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode == Sprinting
}

// StepGameIfPaused starts stepping forward by n ticks, only if the clock is
// currently frozen. Returns whether stepping was started.
func (c *TickClock) StepGameIfPaused(n int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Frozen || n <= 0 {
		return false
	}
	c.mode = Stepping
	c.stepTicksLeft = n
	return true
}

// StopStepping cancels stepping and returns to Frozen. Returns whether
// stepping was actually active.
func (c *TickClock) StopStepping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Stepping {
		return false
	}
	c.mode = Frozen
	c.stepTicksLeft = 0
	return true
}

// StartSprint begins sprinting n ticks as fast as possible. Returns
// whether sprinting was started: it is for any positive n, replacing any
// prior sprint, and is not for n <= 0.
func (c *TickClock) StartSprint(n int32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		return false
	}
	c.mode = Sprinting
	c.sprintTicksLeft = n
	c.sprintTotalTicks = n
	return true
}

// StopSprint cancels an in-progress sprint, returning to Running. Returns
// whether a sprint was actually active.
func (c *TickClock) StopSprint() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != Sprinting {
		return false
	}
	c.mode = Running
	c.sprintTicksLeft = 0
	c.sprintTotalTicks = 0
	return true
}

// Mode returns the clock's current run mode.
func (c *TickClock) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ShouldTick reports whether a tick should run right now, and decrements
// any active step/sprint countdown. The host loop calls this once per
// scheduling opportunity.
func (c *TickClock) ShouldTick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case Frozen:
		return false
	case Stepping:
		if c.stepTicksLeft <= 0 {
			c.mode = Frozen
			return false
		}
		c.stepTicksLeft--
		if c.stepTicksLeft == 0 {
			c.mode = Frozen
		}
		return true
	case Sprinting:
		if c.sprintTicksLeft <= 0 {
			c.mode = Running
			return true
		}
		c.sprintTicksLeft--
		if c.sprintTicksLeft == 0 {
			c.mode = Running
		}
		return true
	default:
		return true
	}
}

// RecordTickDuration appends a tick's wall-clock duration to the sample
// ring buffer.
func (c *TickClock) RecordTickDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[c.sampleNext] = int64(d)
	c.sampleNext = (c.sampleNext + 1) % sampleCapacity
	if c.sampleN < sampleCapacity {
		c.sampleN++
	}
}

// Percentiles returns the p50/p95/p99 tick durations (in nanoseconds) over
// the retained sample window, and the number of samples it was computed
// from. Returns all zeros if no samples have been recorded yet.
func (c *TickClock) Percentiles() (p50, p95, p99 int64, n int) {
	c.mu.Lock()
	sorted := make([]int64, c.sampleN)
	copy(sorted, c.samples[:c.sampleN])
	n = c.sampleN
	c.mu.Unlock()

	if n == 0 {
		return 0, 0, 0, 0
	}
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > v {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}
	p50 = sorted[n/2]
	p95 = sorted[int(float64(n)*0.95)]
	p99 = sorted[int(float64(n)*0.99)]
	return p50, p95, p99, n
}

// AverageTickTimeNanos returns the mean of every retained tick-time sample.
func (c *TickClock) AverageTickTimeNanos() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sampleN == 0 {
		return 0
	}
	var total int64
	for i := 0; i < c.sampleN; i++ {
		total += c.samples[i]
	}
	return total / int64(c.sampleN)
}
