package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrBadCRC indicates a checksum mismatch.
	ErrBadCRC = errors.New("bad crc")
	// ErrBadSync indicates a telemetry frame without the sync pattern.
	ErrBadSync = errors.New("bad sync")
	// ErrShortFrame indicates not enough bytes for a frame.
	ErrShortFrame = errors.New("short frame")
)

// FrameError reports a malformed telemetry frame.
type FrameError struct {
	Field string
	Value byte
}

// Error implements error.
func (e *FrameError) Error() string {
	return fmt.Sprintf("unexpected telemetry %s 0x%02x", e.Field, e.Value)
}
