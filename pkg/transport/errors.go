package transport

import "errors"

var (
	// ErrWouldBlock indicates no byte could be queued for transmission.
	ErrWouldBlock = errors.New("would block")
	// ErrLinkBusy indicates the link refused to start a transmit.
	ErrLinkBusy = errors.New("link busy")
	// ErrRingSize indicates a ring capacity which is not a power of two.
	ErrRingSize = errors.New("ring size must be a power of two")
)
