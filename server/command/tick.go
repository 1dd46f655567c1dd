// Package command implements the /tick command surface the core exposes
// (§6.3), dispatched against a tick.TickClock.
package command

import (
	"fmt"
	"strconv"

	"github.com/blockforge/core/server/tick"
)

// Output is the minimal reply surface a command runs against; the
// networking/chat layer supplies the concrete implementation.
type Output interface {
	Printf(format string, args ...any)
	Error(msg string)
}

// TickCommand implements /tick query|rate|freeze|unfreeze|step|sprint
// against a single clock (§6.3, §4.6.1).
type TickCommand struct {
	Clock *tick.TickClock
}

// Run dispatches args (the command's arguments after the leading "tick"
// literal) to the matching subcommand.
func (c TickCommand) Run(o Output, args []string) {
	if len(args) == 0 {
		o.Error("usage: /tick query|rate <rate>|freeze|unfreeze|step [ticks]|step stop|sprint <ticks>|sprint stop")
		return
	}

	switch args[0] {
	case "query":
		c.query(o)
	case "rate":
		c.rate(o, args[1:])
	case "freeze":
		c.freeze(o)
	case "unfreeze":
		c.unfreeze(o)
	case "step":
		c.step(o, args[1:])
	case "sprint":
		c.sprint(o, args[1:])
	default:
		o.Error(fmt.Sprintf("unknown /tick subcommand %q", args[0]))
	}
}

func (c TickCommand) query(o Output) {
	rate := c.Clock.TickRate()
	avg := c.Clock.AverageTickTimeNanos()

	switch {
	case c.Clock.IsSprinting():
		o.Printf("Ticking rate: sprinting")
	case c.Clock.IsFrozen():
		o.Printf("Ticking rate: frozen")
	case c.Clock.NanosPerTick() < avg:
		o.Printf("Ticking rate: %.1f (lagging, target %.1fms, averaging %.1fms)", rate, nanosToMs(c.Clock.NanosPerTick()), nanosToMs(avg))
	default:
		o.Printf("Ticking rate: %.1f (running, target %.1fms, averaging %.1fms)", rate, nanosToMs(c.Clock.NanosPerTick()), nanosToMs(avg))
	}

	p50, p95, p99, n := c.Clock.Percentiles()
	o.Printf("Percentiles: P50=%.1fms P95=%.1fms P99=%.1fms (%d samples)", nanosToMs(p50), nanosToMs(p95), nanosToMs(p99), n)
}

func (c TickCommand) rate(o Output, args []string) {
	if len(args) != 1 {
		o.Error("usage: /tick rate <rate>")
		return
	}
	rate, err := strconv.ParseFloat(args[0], 64)
	if err != nil || rate < 1 || rate > 10000 {
		o.Error(fmt.Sprintf("rate must be a number between 1 and 10000, got %q", args[0]))
		return
	}
	c.Clock.SetTickRate(rate)
	o.Printf("Set the tick rate to %.1f per second", rate)
}

func (c TickCommand) freeze(o Output) {
	if c.Clock.IsSprinting() {
		c.Clock.StopSprint()
	}
	if c.Clock.IsStepping() {
		c.Clock.StopStepping()
	}
	c.Clock.SetFrozen(true)
	o.Printf("Ticking frozen")
}

func (c TickCommand) unfreeze(o Output) {
	c.Clock.SetFrozen(false)
	o.Printf("Ticking running")
}

func (c TickCommand) step(o Output, args []string) {
	if len(args) == 1 && args[0] == "stop" {
		if c.Clock.StopStepping() {
			o.Printf("Stopped the game's stepping")
		} else {
			o.Error("no ticks to stop stepping")
		}
		return
	}

	ticks := int32(1)
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			o.Error(fmt.Sprintf("ticks must be a positive integer, got %q", args[0]))
			return
		}
		ticks = int32(n)
	}

	if c.Clock.StepGameIfPaused(ticks) {
		o.Printf("Ticking forward by %d ticks", ticks)
	} else {
		o.Error("unable to step unless the game is paused")
	}
}

func (c TickCommand) sprint(o Output, args []string) {
	if len(args) == 1 && args[0] == "stop" {
		if c.Clock.StopSprint() {
			o.Printf("Stopped the game's sprinting")
		} else {
			o.Error("no sprint to stop")
		}
		return
	}
	if len(args) != 1 {
		o.Error("usage: /tick sprint <ticks>|stop")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		o.Error(fmt.Sprintf("ticks must be a positive integer, got %q", args[0]))
		return
	}
	c.Clock.StartSprint(int32(n))
	o.Printf("Sprinting for %d ticks", n)
}

func nanosToMs(nanos int64) float64 {
	return float64(nanos) / 1_000_000.0
}
