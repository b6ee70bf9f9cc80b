package device

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrUnsupported is returned by Open on systems without a joystick API.
var ErrUnsupported = errors.New("joystick not supported on this system")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates this is the init state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// AxisCount returns the number of Axis on the device.
	AxisCount() int
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}

// EventSize is the size of a js_event record.
const EventSize = 8

const (
	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
	evINIT uint8 = 0x80
)

type event struct {
	value  int16
	typ    uint8
	number uint8
}

func (e event) IsInit() bool { return e.typ&evINIT != 0 }
func (e event) Index() int { return int(e.number) }

type axisEvent struct{ event }

func (e axisEvent) Value() int { return int(e.value) }

type buttonEvent struct{ event }

func (e buttonEvent) Pressed() bool { return e.value != 0 }

// Axis builds an axis event, used by tests and replays.
func Axis(index int, value int) AxisEvent {
	return axisEvent{event{value: int16(value), typ: evAXIS, number: uint8(index)}}
}

// Button builds a button event.
func Button(index int, pressed bool) ButtonEvent {
	var v int16
	if pressed {
		v = 1
	}
	return buttonEvent{event{value: v, typ: evBTN, number: uint8(index)}}
}

// DecodeEvent decodes a little-endian js_event record: u32 time, s16
// value, u8 type, u8 number. Unknown types decode to a plain Event.
func DecodeEvent(b []byte) (Event, error) {
	if len(b) < EventSize {
		return nil, io.ErrUnexpectedEOF
	}
	ev := event{
		value:  int16(binary.LittleEndian.Uint16(b[4:6])),
		typ:    b[6],
		number: b[7],
	}
	switch ev.typ &^ evINIT {
	case evBTN:
		return buttonEvent{ev}, nil
	case evAXIS:
		return axisEvent{ev}, nil
	}
	return ev, nil
}
