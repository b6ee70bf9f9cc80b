package framework

import (
	"context"

	"github.com/robotalks/drive.go/pkg/clock"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Controller defines one step of the cooperative loop. Controllers run to
// completion and must never block.
type Controller interface {
	Control(ControlContext) error
}

// Starter is implemented by controllers which need the loop start time,
// e.g. to baseline their timers.
type Starter interface {
	Start(now clock.Micros)
}

// ControlContext provides the context of current control
// iteration.
type ControlContext interface {
	// Context retrieves context.Context.
	Context() context.Context
	// Now is the clock reading taken when the iteration started.
	Now() clock.Micros
	// Iteration counts iterations since the loop started.
	Iteration() uint64
	// PriorityLevel gets the current priority level.
	PriorityLevel() int
	// PostRun injects post-run one-shot hooks at current
	// priority level. If called in post-run hooks, new hooks
	// are installed for next iteration.
	PostRun(hooks ...Controller)

	LoopControl
}

// LoopControl exposes access to the controlling loop. It is safe to use
// from other goroutines.
type LoopControl interface {
	// PreRunAt injects one-shot pre-run controller hooks at
	// specified priority level.
	PreRunAt(priorityLevel int, controllers ...Controller)
	// PostRunAt injects one-shot post-run controller hooks at
	// specified priority level.
	PostRunAt(priorityLevel int, controllers ...Controller)
}

// PriorityLevels is the total levels of priorities.
const PriorityLevels int = 16

// Predefine priority levels
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvInput drains inbound links.
	PrLvInput = PrLvTop
	// PrLvCommand applies decoded commands.
	PrLvCommand = PrLvHigh
	// PrLvSafety overrides commands, e.g. a dead-man's switch.
	PrLvSafety = PrLvHigh + 1
	// PrLvActuate drives actuators.
	PrLvActuate = PrLvNormal
	// PrLvSample samples sensors for the next report.
	PrLvSample = PrLvLow
	// PrLvReport emits reports.
	PrLvReport = PrLvIdle - 1
)

// ControlFunc defines the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}
