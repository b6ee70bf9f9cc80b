// Package periph binds the vehicle actuators and encoder to GPIO pins of
// a Linux board through periph.io.
package periph

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Timer geometry of the pulse outputs: 3.2 MHz ticks in a 20 ms frame.
const (
	FrameTicks = 64000
	FrameRate  = 50 * physic.Hertz
)

// Init loads the host drivers.
func Init() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("periph init: %v", err)
	}
	return nil
}

// PWMPin outputs pulses expressed in timer ticks on a hardware PWM pin.
type PWMPin struct {
	Pin        gpio.PinOut
	Frequency  physic.Frequency
	FrameTicks uint32
}

// NewPWMPin looks up a pin by name.
func NewPWMPin(name string) (*PWMPin, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return &PWMPin{Pin: pin, Frequency: FrameRate, FrameTicks: FrameTicks}, nil
}

// Duty converts ticks into a duty cycle of the frame.
func (p *PWMPin) Duty(ticks uint16) gpio.Duty {
	if uint32(ticks) >= p.FrameTicks {
		return gpio.DutyMax
	}
	return gpio.Duty(uint64(ticks) * uint64(gpio.DutyMax) / uint64(p.FrameTicks))
}

// SetPulse implements device.PWM.
func (p *PWMPin) SetPulse(ticks uint16) {
	if err := p.Pin.PWM(p.Duty(ticks), p.Frequency); err != nil {
		glog.Warningf("pwm %s: %v", p.Pin, err)
	}
}

// EdgeCounter counts rising edges on an input pin.
type EdgeCounter struct {
	Pin gpio.PinIn
	// Poll bounds the wait for one edge so Run notices cancellation.
	Poll time.Duration

	count uint32
}

// NewEdgeCounter looks up a pin by name.
func NewEdgeCounter(name string) (*EdgeCounter, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("unknown pin %q", name)
	}
	return &EdgeCounter{Pin: pin, Poll: 100 * time.Millisecond}, nil
}

// Name implements framework.Named.
func (c *EdgeCounter) Name() string {
	return "encoder:" + c.Pin.Name()
}

// Count implements device.Counter.
func (c *EdgeCounter) Count() uint16 {
	return uint16(atomic.LoadUint32(&c.count))
}

// Run implements framework.Runnable.
func (c *EdgeCounter) Run(ctx context.Context) error {
	if err := c.Pin.In(gpio.PullUp, gpio.RisingEdge); err != nil {
		return fmt.Errorf("encoder %s: %v", c.Pin, err)
	}
	defer c.Pin.Halt()
	for ctx.Err() == nil {
		if c.Pin.WaitForEdge(c.Poll) {
			atomic.AddUint32(&c.count, 1)
		}
	}
	return ctx.Err()
}
