package framework

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/clock"
)

// Loop is a single threaded cooperative scheduler. Each iteration reads the
// clock once and runs every controller in priority order; controllers at
// the same level run in the order they were added.
type Loop struct {
	Clock clock.Clock
	// Idle is the pause between iterations in Run. Zero only yields the
	// processor.
	Idle time.Duration

	controllers [PriorityLevels]controllerList
	runners     []Runnable

	started bool
	iter    loopIteration
}

// LoopAdder provides specific logic to add components to loop.
type LoopAdder interface {
	AddToLoop(*Loop)
}

type loopIteration struct {
	*Loop
	ctx           context.Context
	now           clock.Micros
	count         uint64
	priorityLevel int
}

type controllerList struct {
	preHooks    []Controller
	controllers []Controller
	postHooks   []Controller
	lock        sync.Mutex
}

// NewLoop creates a Loop.
func NewLoop(clk clock.Clock) *Loop {
	l := &Loop{Clock: clk}
	l.iter.Loop = l
	return l
}

// Add adds LoopAdders.
func (l *Loop) Add(adders ...LoopAdder) *Loop {
	for _, adder := range adders {
		adder.AddToLoop(l)
	}
	return l
}

// AddController registers controllers to the loop.
func (l *Loop) AddController(priorityLevel int, ctls ...Controller) *Loop {
	lst := &l.controllers[priorityLevel]
	lst.controllers = append(lst.controllers, ctls...)
	for _, ctl := range ctls {
		if runner, ok := ctl.(Runnable); ok {
			l.runners = append(l.runners, runner)
		}
	}
	return l
}

// Every registers ctl to run at most once per period.
func (l *Loop) Every(priorityLevel int, period time.Duration, ctl Controller) *Periodic {
	p := &Periodic{Period: clock.FromDuration(period), Controller: ctl}
	l.AddController(priorityLevel, p)
	return p
}

// AddRunnable adds Runnable implementions started by Run.
func (l *Loop) AddRunnable(runnables ...Runnable) *Loop {
	l.runners = append(l.runners, runnables...)
	return l
}

// Start baselines every Starter with the current clock reading so nothing
// fires spuriously in the first iteration. RunOnce and Run call it on
// first use.
func (l *Loop) Start() clock.Micros {
	now := l.Clock.Micros()
	for i := range l.controllers {
		for _, ctl := range l.controllers[i].controllers {
			if s, ok := ctl.(Starter); ok {
				s.Start(now)
			}
		}
	}
	l.started, l.iter.count = true, 0
	glog.V(4).Infof("loop started at %d", now)
	return now
}

// Started reports whether Start has been called.
func (l *Loop) Started() bool {
	return l.started
}

// RunOnce executes one iteration.
func (l *Loop) RunOnce(ctx context.Context) {
	if !l.started {
		l.Start()
	}
	iter := &l.iter
	iter.ctx, iter.now = ctx, l.Clock.Micros()
	for i := 0; i < PriorityLevels; i++ {
		iter.priorityLevel = i
		l.controllers[i].run(iter)
	}
	iter.count++
}

// Run implements Runnable. Runnables registered with the loop run in
// their own goroutines; the first of them failing stops the loop.
func (l *Loop) Run(ctx context.Context) error {
	runner := NewRunnerWith(ctx).FailFast()
	runner.Go(l.runners...)
	ctx = runner.Context
	for {
		select {
		case <-ctx.Done():
			if err := runner.Wait(); err != nil {
				return err
			}
			return ctx.Err()
		default:
		}
		l.RunOnce(ctx)
		if l.Idle > 0 {
			time.Sleep(l.Idle)
		} else {
			runtime.Gosched()
		}
	}
}

// RunOrFail is intended to be used in main to simply run the loop.
func (l *Loop) RunOrFail() {
	if err := l.Run(NewRunner().HandleSignals().Context); err != nil && err != context.Canceled {
		log.Fatalln(err)
	}
}

// PreRunAt implements LoopControl.
func (l *Loop) PreRunAt(priorityLevel int, hooks ...Controller) {
	lst := &l.controllers[priorityLevel]
	lst.lock.Lock()
	lst.preHooks = append(lst.preHooks, hooks...)
	lst.lock.Unlock()
}

// PostRunAt implements LoopControl.
func (l *Loop) PostRunAt(priorityLevel int, hooks ...Controller) {
	lst := &l.controllers[priorityLevel]
	lst.lock.Lock()
	lst.postHooks = append(lst.postHooks, hooks...)
	lst.lock.Unlock()
}

func (t *loopIteration) Context() context.Context {
	return t.ctx
}

func (t *loopIteration) Now() clock.Micros {
	return t.now
}

func (t *loopIteration) Iteration() uint64 {
	return t.count
}

func (t *loopIteration) PriorityLevel() int {
	return t.priorityLevel
}

func (t *loopIteration) PostRun(hooks ...Controller) {
	t.PostRunAt(t.priorityLevel, hooks...)
}

func (c *controllerList) run(iter *loopIteration) {
	c.lock.Lock()
	ctls := c.preHooks
	c.preHooks = nil
	c.lock.Unlock()
	runControllers(iter, ctls)
	runControllers(iter, c.controllers)
	c.lock.Lock()
	ctls, c.postHooks = c.postHooks, nil
	c.lock.Unlock()
	runControllers(iter, ctls)
}

func runControllers(iter *loopIteration, ctls []Controller) {
	for _, ctl := range ctls {
		if err := ctl.Control(iter); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}

// Periodic gates a controller to run when at least Period elapsed since
// its last run.
type Periodic struct {
	Period     clock.Micros
	Controller Controller

	last clock.Micros
}

// Start implements Starter.
func (p *Periodic) Start(now clock.Micros) {
	p.last = now
	if s, ok := p.Controller.(Starter); ok {
		s.Start(now)
	}
}

// LastRun returns the start time of the last run.
func (p *Periodic) LastRun() clock.Micros {
	return p.last
}

// Due reports whether the controller runs at now.
func (p *Periodic) Due(now clock.Micros) bool {
	return clock.Elapsed(now, p.last) >= p.Period
}

// Control implements Controller.
func (p *Periodic) Control(cc ControlContext) error {
	now := cc.Now()
	if !p.Due(now) {
		return nil
	}
	p.last = now
	return p.Controller.Control(cc)
}
