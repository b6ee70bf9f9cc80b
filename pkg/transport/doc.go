// Package transport bridges an asynchronous byte link to the polling
// firmware loop.
//
// Two fixed-capacity rings sit between the link and the application. The
// receive ring is filled from the asynchronous receive path and drops the
// oldest unread byte on overrun. The transmit ring is filled by the loop and
// applies backpressure: writes that do not fit are rejected with
// ErrWouldBlock and never block. A single transmit is kept in flight; its
// completion advances the ring and starts the next contiguous run.
//
// Every update of ring indices happens inside a Guard, the equivalent of
// masking interrupts on a microcontroller. A Guard is held for a handful
// of instructions and never across a transmit.
package transport
