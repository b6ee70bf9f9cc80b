package host

import "errors"

var (
	// ErrNotConnected indicates the client has no link to the device.
	ErrNotConnected = errors.New("not connected")
	// ErrTimeout indicates the device did not answer in time.
	ErrTimeout = errors.New("timeout")
	// ErrNoReply indicates the device answered a read with a different
	// register than expected. The pending read is abandoned.
	ErrNoReply = errors.New("no reply")
)
