// Package vehicle wires the command link, the motor state machine and the
// sensors into the cooperative control loop.
package vehicle

import (
	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/clock"
	"github.com/robotalks/drive.go/pkg/device"
	"github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/motor"
	"github.com/robotalks/drive.go/pkg/protocol"
)

// Hardware are the collaborators of the core.
type Hardware struct {
	ESC      motor.PWM
	Steering device.Steering
	Speed    device.SpeedSensor
	Inertial device.Inertial
}

// Stats counts core events.
type Stats struct {
	Commands         uint32
	Telemetry        uint32
	TelemetrySkipped uint32
	FailsafeTrips    uint32
}

// Status is a snapshot of the core.
type Status struct {
	Motor     motor.State
	Target    motor.Target
	Duty      uint8
	Registers protocol.Registers
	Failsafe  bool
	Speed     float32
	Stats     Stats
}

// Core is the vehicle control core. All methods except AddToLoop must be
// called from the loop goroutine.
type Core struct {
	Clock    clock.Clock
	Protocol *protocol.Protocol
	Motor    *motor.Motor
	Hardware Hardware

	tasks       Tasks
	timeout     clock.Micros
	lastCommand clock.Micros
	failsafe    bool
	speed       float32
	stats       Stats
}

// NewCore creates a Core running the protocol over link.
func NewCore(p Profile, clk clock.Clock, link protocol.Link, hw Hardware) (*Core, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	m, err := motor.New(p.Motor, hw.ESC)
	if err != nil {
		return nil, err
	}
	if hw.Inertial == nil {
		hw.Inertial = device.NoInertial{}
	}
	return &Core{
		Clock:    clk,
		Protocol: protocol.New(link),
		Motor:    m,
		Hardware: hw,
		tasks:    p.Tasks,
		timeout:  clock.FromDuration(p.Tasks.Failsafe),
	}, nil
}

// AddToLoop implements framework.LoopAdder. Per iteration the link is
// drained, a pending command is applied, the failsafe evaluated, then the
// motor, speed and telemetry tasks run when due.
func (c *Core) AddToLoop(l *framework.Loop) {
	l.AddController(framework.PrLvInput, c)
	l.AddController(framework.PrLvCommand, framework.ControlFunc(c.applyCommand))
	l.AddController(framework.PrLvSafety, framework.ControlFunc(c.checkFailsafe))
	l.Every(framework.PrLvActuate, c.tasks.Motor, framework.ControlFunc(c.tickMotor))
	l.Every(framework.PrLvSample, c.tasks.Speed, framework.ControlFunc(c.sampleSpeed))
	l.Every(framework.PrLvReport, c.tasks.Telemetry, framework.ControlFunc(c.sendTelemetry))
}

// Start implements framework.Starter. The command timer starts now, the
// motor is driven to neutral and the steering centered.
func (c *Core) Start(now clock.Micros) {
	c.lastCommand, c.failsafe = now, false
	c.Motor.Start()
	if c.Hardware.Steering != nil {
		c.Hardware.Steering.SetSteeringAngle(0)
	}
	glog.Infof("vehicle core started")
}

// Control implements framework.Controller, draining the link.
func (c *Core) Control(framework.ControlContext) error {
	c.Protocol.ReaderTick()
	return nil
}

// Failsafe reports whether the failsafe holds the motor at zero.
func (c *Core) Failsafe() bool {
	return c.failsafe
}

// LastCommand returns the time of the last valid command.
func (c *Core) LastCommand() clock.Micros {
	return c.lastCommand
}

// Status returns a snapshot.
func (c *Core) Status() Status {
	return Status{
		Motor:     c.Motor.State(),
		Target:    c.Motor.Target(),
		Duty:      c.Motor.AppliedDuty(),
		Registers: c.Protocol.Registers,
		Failsafe:  c.failsafe,
		Speed:     c.speed,
		Stats:     c.stats,
	}
}

func (c *Core) applyCommand(cc framework.ControlContext) error {
	n := c.Protocol.Mailbox.Take()
	if n == protocol.NotifyNone {
		return nil
	}
	c.lastCommand = cc.Now()
	c.stats.Commands++
	if c.failsafe {
		glog.Infof("command link restored")
		c.failsafe = false
	}
	regs := &c.Protocol.Registers
	switch n {
	case protocol.NotifyServo:
		if c.Hardware.Steering != nil {
			c.Hardware.Steering.SetSteeringAngle(regs.Servo)
		}
	case protocol.NotifyMotor:
		c.Motor.SetTargetVelocity(regs.Motor)
	}
	return nil
}

// The failsafe stays engaged until the next command even when the clock
// wraps around the last command time.
func (c *Core) checkFailsafe(cc framework.ControlContext) error {
	if !c.failsafe && clock.Elapsed(cc.Now(), c.lastCommand) > c.timeout {
		c.failsafe = true
		c.stats.FailsafeTrips++
		glog.Warningf("no command for %v, failsafe engaged", c.timeout.Duration())
	}
	if c.failsafe {
		c.Motor.SetTargetVelocity(0)
	}
	return nil
}

func (c *Core) tickMotor(cc framework.ControlContext) error {
	c.Motor.Tick(cc.Now())
	return nil
}

func (c *Core) sampleSpeed(framework.ControlContext) error {
	if c.Hardware.Speed != nil {
		c.speed = c.Hardware.Speed.SampleSpeed()
	}
	return nil
}

func (c *Core) sendTelemetry(framework.ControlContext) error {
	sample, err := c.Hardware.Inertial.ReadInertial()
	if err != nil {
		c.stats.TelemetrySkipped++
		if glog.V(3) {
			glog.Infof("telemetry skipped: %v", err)
		}
		return nil
	}
	t := protocol.Telemetry{
		Timestamp: c.Clock.Millis(),
		Accel:     sample.Accel,
		Gyro:      sample.Gyro,
		Speed:     c.speed,
	}
	// the encoder has no direction, the motor command gives the sign
	if c.Protocol.Registers.Motor < 0 {
		t.Speed = -t.Speed
	}
	if c.Protocol.SendTelemetry(&t) == nil {
		c.stats.Telemetry++
	}
	return nil
}
