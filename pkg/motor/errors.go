package motor

import "errors"

var (
	// ErrPulseRange indicates an empty or inverted pulse range.
	ErrPulseRange = errors.New("invalid pulse range")
	// ErrVelocityCaps indicates velocity caps with the wrong sign.
	ErrVelocityCaps = errors.New("invalid velocity caps")
)
