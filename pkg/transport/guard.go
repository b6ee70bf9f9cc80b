package transport

import (
	"runtime"
	"sync/atomic"
)

// Guard protects ring indices shared between the asynchronous link path
// and the polling loop. Mask/Unmask pairs must be short and must not nest.
type Guard interface {
	Mask()
	Unmask()
}

// SpinGuard is a Guard built on an atomic flag. Contenders yield the
// processor instead of parking, so it is safe to take from the link
// goroutines as well as from the loop.
type SpinGuard struct {
	masked int32
}

// Mask implements Guard.
func (g *SpinGuard) Mask() {
	for !atomic.CompareAndSwapInt32(&g.masked, 0, 1) {
		runtime.Gosched()
	}
}

// Unmask implements Guard.
func (g *SpinGuard) Unmask() {
	atomic.StoreInt32(&g.masked, 0)
}

// NopGuard is used when producer and consumer share one goroutine.
type NopGuard struct{}

// Mask implements Guard.
func (NopGuard) Mask() {}

// Unmask implements Guard.
func (NopGuard) Unmask() {}
