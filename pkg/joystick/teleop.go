package joystick

import (
	"github.com/robotalks/drive.go/pkg/joystick/device"
)

// AxisMax is the full deflection of a joystick axis.
const AxisMax = 32767

// Driver is the vehicle side of teleop, implemented by host.Client.
type Driver interface {
	SetMotor(mmps int16) error
	SetSteering(deg int8) error
	EmergencyStop() error
}

// Mapping binds joystick controls to vehicle commands.
type Mapping struct {
	// ThrottleAxis pushed forward (negative values) drives forward.
	ThrottleAxis int
	SteerAxis    int
	StopButton   int
	// Deadzone is the axis magnitude treated as center.
	Deadzone int

	MaxForward int16
	MaxReverse int16
	SteerLimit int
}

// DefaultMapping is the left stick of a common gamepad, button 0 stops.
func DefaultMapping() Mapping {
	return Mapping{
		ThrottleAxis: 1,
		SteerAxis:    0,
		StopButton:   0,
		Deadzone:     2000,
		MaxForward:   1000,
		MaxReverse:   -500,
		SteerLimit:   20,
	}
}

// Velocity maps a throttle axis value to mm/s within the caps.
func (m Mapping) Velocity(value int) int16 {
	v := -value
	if v > -m.Deadzone && v < m.Deadzone {
		return 0
	}
	if v > AxisMax {
		v = AxisMax
	}
	if v >= 0 {
		return int16(v * int(m.MaxForward) / AxisMax)
	}
	return int16(-v * int(m.MaxReverse) / AxisMax)
}

// Steering maps a steering axis value to degrees within the limit.
func (m Mapping) Steering(value int) int8 {
	if value > -m.Deadzone && value < m.Deadzone {
		return 0
	}
	if value < -AxisMax {
		value = -AxisMax
	}
	return int8(value * m.SteerLimit / AxisMax)
}

// Teleop turns joystick events into drive commands.
type Teleop struct {
	Driver  Driver
	Mapping Mapping

	motor    int16
	steering int8
	stopped  bool
}

// NewTeleop creates a Teleop.
func NewTeleop(d Driver, m Mapping) *Teleop {
	return &Teleop{Driver: d, Mapping: m}
}

// HandleEvent applies one event. Repeated values are not re-sent, the
// client heartbeat keeps the last command alive. After a stop the sticks
// must return to center before driving resumes.
func (t *Teleop) HandleEvent(ev device.Event) error {
	switch e := ev.(type) {
	case device.ButtonEvent:
		if e.Index() == t.Mapping.StopButton && e.Pressed() && !e.IsInit() {
			return t.Stop()
		}
	case device.AxisEvent:
		switch e.Index() {
		case t.Mapping.ThrottleAxis:
			v := t.Mapping.Velocity(e.Value())
			if t.stopped {
				if v != 0 {
					return nil
				}
				t.stopped = false
			}
			if v == t.motor {
				return nil
			}
			t.motor = v
			return t.Driver.SetMotor(v)
		case t.Mapping.SteerAxis:
			v := t.Mapping.Steering(e.Value())
			if v == t.steering {
				return nil
			}
			t.steering = v
			return t.Driver.SetSteering(v)
		}
	}
	return nil
}

// Stop sends the emergency stop and holds the motor at zero until the
// throttle is centered.
func (t *Teleop) Stop() error {
	t.motor, t.steering, t.stopped = 0, 0, true
	return t.Driver.EmergencyStop()
}
