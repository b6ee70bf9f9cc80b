// Package clock provides the free-running microsecond time base shared by
// the scheduler and the motor state machine.
//
// All timestamps are 32-bit and wrap every 2^32 µs (about 71 minutes).
// Durations must always be computed with the wrapping helpers in this
// package, never by comparing two timestamps directly.
package clock

import (
	"sync/atomic"
	"time"
)

// Micros is a wrapping 32-bit microsecond timestamp.
type Micros uint32

// Clock is a monotonic time source.
type Clock interface {
	// Micros returns the current wrapping microsecond timestamp.
	Micros() Micros
	// Millis returns milliseconds since the clock started.
	Millis() uint32
}

// FromDuration converts d into a count of microseconds.
func FromDuration(d time.Duration) Micros {
	return Micros(d / time.Microsecond)
}

// Add returns the timestamp d after t.
func (t Micros) Add(d time.Duration) Micros {
	return t + FromDuration(d)
}

// Duration converts a microsecond count to time.Duration.
func (t Micros) Duration() time.Duration {
	return time.Duration(t) * time.Microsecond
}

// TimeReached reports whether now is at or after deadline, across wraps.
// It is valid as long as the two timestamps are less than 2^31 µs apart.
func TimeReached(now, deadline Micros) bool {
	return int32(now-deadline) >= 0
}

// Elapsed returns the time passed from since to now, across wraps.
func Elapsed(now, since Micros) Micros {
	return now - since
}

// Counter is a clock assembled from a narrow 16-bit hardware counter and
// a software overflow count incremented on every counter wrap.
type Counter struct {
	// Read returns the current value of the hardware counter.
	Read func() uint16

	overflows uint32
}

// NewCounter creates a Counter reading the hardware counter with read.
func NewCounter(read func() uint16) *Counter {
	return &Counter{Read: read}
}

// Overflow must be called from the counter wrap event.
func (c *Counter) Overflow() {
	atomic.AddUint32(&c.overflows, 1)
}

func (c *Counter) snapshot() (uint32, uint16) {
	for {
		ovf := atomic.LoadUint32(&c.overflows)
		cnt := c.Read()
		if ovf == atomic.LoadUint32(&c.overflows) {
			return ovf, cnt
		}
	}
}

// Micros implements Clock.
func (c *Counter) Micros() Micros {
	ovf, cnt := c.snapshot()
	return Micros(ovf<<16) + Micros(cnt)
}

// Millis implements Clock.
func (c *Counter) Millis() uint32 {
	ovf, cnt := c.snapshot()
	return uint32((uint64(ovf)<<16 + uint64(cnt)) / 1000)
}

// System is a Clock backed by the Go runtime monotonic clock.
type System struct {
	start time.Time
}

// NewSystem creates a System clock starting at zero.
func NewSystem() *System {
	return &System{start: time.Now()}
}

// Micros implements Clock.
func (s *System) Micros() Micros {
	return Micros(uint64(time.Since(s.start) / time.Microsecond))
}

// Millis implements Clock.
func (s *System) Millis() uint32 {
	return uint32(uint64(time.Since(s.start) / time.Millisecond))
}
