// Package sim simulates the vehicle hardware: the ESC and drive train, the
// steering servo, the wheel encoder and the inertial unit.
package sim

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/robotalks/drive.go/pkg/clock"
	"github.com/robotalks/drive.go/pkg/device"
	"github.com/robotalks/drive.go/pkg/framework"
)

// ErrIMUFault is returned by the simulated inertial unit while a fault is
// injected.
var ErrIMUFault = errors.New("simulated imu fault")

// Gravity in mm/s².
const Gravity = 9806.65

// CarConfig describes the simulated car.
type CarConfig struct {
	ESC ESCConfig
	// Servo calibration used to decode steering pulses.
	Servo device.ServoConfig
	// Wheelbase in meters.
	Wheelbase float64
	Encoder   device.SpeedometerConfig
}

// DefaultCarConfig matches the stock vehicle.
func DefaultCarConfig() CarConfig {
	return CarConfig{
		ESC:       DefaultESCConfig(),
		Servo:     device.DefaultServoConfig(),
		Wheelbase: 0.26,
		Encoder:   device.DefaultSpeedometerConfig(),
	}
}

// Car is the simulated vehicle. ESC and Steering receive the pulses of the
// control core, the encoder and the inertial unit report back.
type Car struct {
	ESC      *ESC
	Steering *SteeringServo

	cfg      CarConfig
	lock     sync.Mutex
	pose     Pose2D
	distance float64
	yawRate  float64
	lateral  float64
	imuFault bool
	last     clock.Micros
}

// NewCar creates a car at the origin, heading along X.
func NewCar(cfg CarConfig) *Car {
	return &Car{
		ESC:      NewESC(cfg.ESC),
		Steering: &SteeringServo{cfg: cfg.Servo},
		cfg:      cfg,
	}
}

// Pose returns the current pose.
func (c *Car) Pose() Pose2D {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pose
}

// Distance returns the traveled distance in meters regardless of
// direction.
func (c *Car) Distance() float64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.distance
}

// InjectIMUFault makes ReadInertial fail until cleared.
func (c *Car) InjectIMUFault(fault bool) {
	c.lock.Lock()
	c.imuFault = fault
	c.lock.Unlock()
}

// Step advances the simulation by dt using a kinematic bicycle model.
func (c *Car) Step(dt time.Duration) {
	secs := dt.Seconds()
	c.ESC.Step(secs)
	v := c.ESC.Velocity()
	steer := c.Steering.Angle()

	c.lock.Lock()
	defer c.lock.Unlock()
	c.yawRate = v / c.cfg.Wheelbase * math.Tan(steer.Radians())
	c.lateral = v * c.yawRate
	c.pose.Pos2D = c.pose.Add(c.pose.Heading.Project(v * secs))
	c.pose.Heading = c.pose.Heading.AddRadians(c.yawRate * secs)
	c.distance += math.Abs(v * secs)
}

// Count implements device.Counter as the wheel encoder.
func (c *Car) Count() uint16 {
	c.lock.Lock()
	defer c.lock.Unlock()
	turns := c.distance / float64(c.cfg.Encoder.Perimeter())
	return uint16(uint64(turns * float64(c.cfg.Encoder.PulsesPerTurn)))
}

// ReadInertial implements device.Inertial.
func (c *Car) ReadInertial() (device.InertialSample, error) {
	accel := c.ESC.Acceleration()
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.imuFault {
		return device.InertialSample{}, ErrIMUFault
	}
	return device.InertialSample{
		Accel: [3]float32{float32(accel * 1000), float32(c.lateral * 1000), Gravity},
		Gyro:  [3]float32{0, 0, float32(c.yawRate)},
	}, nil
}

// AddToLoop implements framework.LoopAdder, stepping the physics once per
// loop iteration.
func (c *Car) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvIdle, c)
}

// Start implements framework.Starter.
func (c *Car) Start(now clock.Micros) {
	c.last = now
}

// Control implements framework.Controller.
func (c *Car) Control(cc framework.ControlContext) error {
	now := cc.Now()
	if dt := clock.Elapsed(now, c.last); dt > 0 {
		c.Step(dt.Duration())
		c.last = now
	}
	return nil
}

// SteeringServo decodes steering pulses back into a wheel angle.
type SteeringServo struct {
	cfg   device.ServoConfig
	lock  sync.Mutex
	pulse uint16
}

// SetPulse implements device.PWM.
func (s *SteeringServo) SetPulse(ticks uint16) {
	s.lock.Lock()
	s.pulse = ticks
	s.lock.Unlock()
}

// Angle returns the wheel angle, zero before the first pulse.
func (s *SteeringServo) Angle() Angle {
	s.lock.Lock()
	ticks := s.pulse
	s.lock.Unlock()
	if ticks == 0 {
		return 0
	}
	span := float64(s.cfg.MaxPulse - s.cfg.MinPulse)
	percent := (float64(ticks)-float64(s.cfg.MinPulse))*100/span - float64(s.cfg.Offset)
	return AngleFromDegrees(percent*float64(2*s.cfg.Span)/100 - float64(s.cfg.Span))
}
