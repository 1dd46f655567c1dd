package command

import (
	"fmt"
	"strings"
	"testing"

	"github.com/blockforge/core/server/tick"
)

type fakeOutput struct {
	lines  []string
	errors []string
}

func (o *fakeOutput) Printf(format string, args ...any) {
	o.lines = append(o.lines, fmt.Sprintf(format, args...))
}
func (o *fakeOutput) Error(msg string) { o.errors = append(o.errors, msg) }

func TestTickRateRejectsOutOfBounds(t *testing.T) {
	c := TickCommand{Clock: tick.NewTickClock()}
	out := &fakeOutput{}
	c.Run(out, []string{"rate", "99999"})
	if len(out.errors) != 1 {
		t.Fatalf("expected rate out of bounds to error, got lines=%v errors=%v", out.lines, out.errors)
	}
	if c.Clock.TickRate() == 99999 {
		t.Fatal("expected clock rate unchanged on invalid input")
	}
}

func TestTickRateAcceptsValidValue(t *testing.T) {
	c := TickCommand{Clock: tick.NewTickClock()}
	out := &fakeOutput{}
	c.Run(out, []string{"rate", "10"})
	if len(out.errors) != 0 {
		t.Fatalf("expected no errors, got %v", out.errors)
	}
	if c.Clock.TickRate() != 10 {
		t.Fatalf("expected rate 10, got %v", c.Clock.TickRate())
	}
}

func TestTickFreezeStopsSprintAndStep(t *testing.T) {
	clock := tick.NewTickClock()
	clock.StartSprint(100)
	c := TickCommand{Clock: clock}
	out := &fakeOutput{}
	c.Run(out, []string{"freeze"})

	if !clock.IsFrozen() {
		t.Fatal("expected clock frozen after /tick freeze")
	}
	if clock.IsSprinting() {
		t.Fatal("expected sprint stopped by /tick freeze")
	}
}

func TestTickStepRequiresFrozenClock(t *testing.T) {
	c := TickCommand{Clock: tick.NewTickClock()}
	out := &fakeOutput{}
	c.Run(out, []string{"step"})
	if len(out.errors) != 1 {
		t.Fatalf("expected step to fail on a running clock, got %v / %v", out.lines, out.errors)
	}
}

func TestTickStepSucceedsWhenFrozen(t *testing.T) {
	clock := tick.NewTickClock()
	clock.SetFrozen(true)
	c := TickCommand{Clock: clock}
	out := &fakeOutput{}
	c.Run(out, []string{"step", "3"})
	if len(out.errors) != 0 {
		t.Fatalf("expected step to succeed while frozen, got errors=%v", out.errors)
	}
	if !clock.IsStepping() {
		t.Fatal("expected clock to be stepping")
	}
}

func TestTickUnknownSubcommandErrors(t *testing.T) {
	c := TickCommand{Clock: tick.NewTickClock()}
	out := &fakeOutput{}
	c.Run(out, []string{"bogus"})
	if len(out.errors) != 1 {
		t.Fatalf("expected unknown subcommand to error, got %v", out.errors)
	}
}

func TestTickQueryReportsFrozenStatus(t *testing.T) {
	clock := tick.NewTickClock()
	clock.SetFrozen(true)
	c := TickCommand{Clock: clock}
	out := &fakeOutput{}
	c.Run(out, []string{"query"})
	if len(out.lines) != 2 {
		t.Fatalf("expected two report lines, got %v", out.lines)
	}
	if !strings.Contains(out.lines[0], "frozen") {
		t.Fatalf("expected frozen status in query output, got %q", out.lines[0])
	}
}
