// Package device holds the sensor and actuator collaborators of the
// vehicle core: steering servo, wheel speedometer and the inertial unit
// contract.
package device

import "errors"

// ErrNoSample indicates the inertial unit has no sample to offer.
var ErrNoSample = errors.New("no inertial sample")

// PWM is a pulse-width output measured in timer ticks.
type PWM interface {
	SetPulse(ticks uint16)
}

// InertialSample is one accelerometer and gyroscope reading.
type InertialSample struct {
	// Accel in mm/s².
	Accel [3]float32
	// Gyro in rad/s.
	Gyro [3]float32
}

// Inertial reads the inertial unit.
type Inertial interface {
	ReadInertial() (InertialSample, error)
}

// InertialFunc is the func form of Inertial.
type InertialFunc func() (InertialSample, error)

// ReadInertial implements Inertial.
func (f InertialFunc) ReadInertial() (InertialSample, error) {
	return f()
}

// NoInertial is used when no inertial unit is fitted.
type NoInertial struct{}

// ReadInertial implements Inertial.
func (NoInertial) ReadInertial() (InertialSample, error) {
	return InertialSample{}, ErrNoSample
}

// SpeedSensor samples the wheel speed in m/s.
type SpeedSensor interface {
	SampleSpeed() float32
}

// Steering positions the steering actuator.
type Steering interface {
	SetSteeringAngle(degrees int8)
}

// Counter is a free running 16-bit pulse counter.
type Counter interface {
	Count() uint16
}

// CounterFunc is the func form of Counter.
type CounterFunc func() uint16

// Count implements Counter.
func (f CounterFunc) Count() uint16 {
	return f()
}
