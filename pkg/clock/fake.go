package clock

import (
	"sync"
	"time"
)

// Fake is a manually driven Clock for deterministic tests and simulation.
type Fake struct {
	lock sync.Mutex
	now  uint64
}

// NewFake creates a Fake clock starting at the given timestamp.
func NewFake(start Micros) *Fake {
	return &Fake{now: uint64(start)}
}

// Set moves the clock to t, keeping the accumulated wrap count.
func (f *Fake) Set(t Micros) {
	f.lock.Lock()
	f.now = f.now&^0xffffffff | uint64(t)
	f.lock.Unlock()
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) Micros {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.now += uint64(d / time.Microsecond)
	return Micros(f.now)
}

// Micros implements Clock.
func (f *Fake) Micros() Micros {
	f.lock.Lock()
	defer f.lock.Unlock()
	return Micros(f.now)
}

// Millis implements Clock.
func (f *Fake) Millis() uint32 {
	f.lock.Lock()
	defer f.lock.Unlock()
	return uint32(f.now / 1000)
}
