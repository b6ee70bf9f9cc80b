package device

import (
	"github.com/robotalks/drive.go/pkg/clock"
)

// SpeedometerConfig describes the wheel encoder geometry.
type SpeedometerConfig struct {
	WheelDiameter float32 `yaml:"wheel_diameter_mm"`
	// PulsesPerTurn is measured, not necessarily integral.
	PulsesPerTurn float32 `yaml:"pulses_per_turn"`
}

// DefaultSpeedometerConfig is 52 pulses counted over 10 turns of a 68 mm
// wheel.
func DefaultSpeedometerConfig() SpeedometerConfig {
	return SpeedometerConfig{WheelDiameter: 68, PulsesPerTurn: 52.0 / 10.0}
}

// Perimeter returns the wheel perimeter in meters.
func (c SpeedometerConfig) Perimeter() float32 {
	return c.WheelDiameter * 3.14159 / 1000
}

// Speedometer converts encoder pulses into an unsigned speed.
type Speedometer struct {
	counter   Counter
	clock     clock.Clock
	perimeter float32
	perTurn   float32

	lastCount uint16
	lastMs    uint32
	speed     float32
}

// NewSpeedometer creates a Speedometer baselined at the current counter
// value.
func NewSpeedometer(cfg SpeedometerConfig, counter Counter, clk clock.Clock) *Speedometer {
	return &Speedometer{
		counter:   counter,
		clock:     clk,
		perimeter: cfg.Perimeter(),
		perTurn:   cfg.PulsesPerTurn,
		lastCount: counter.Count(),
		lastMs:    clk.Millis(),
	}
}

// Speed returns the last computed speed in m/s.
func (s *Speedometer) Speed() float32 {
	return s.speed
}

// SampleSpeed implements SpeedSensor. Sampling twice within the same
// millisecond returns the previous value.
func (s *Speedometer) SampleSpeed() float32 {
	now := s.clock.Millis()
	dt := now - s.lastMs
	if dt == 0 {
		return s.speed
	}
	count := s.counter.Count()
	pulses := count - s.lastCount
	meters := float32(pulses) / s.perTurn * s.perimeter
	s.speed = meters / (float32(dt) / 1000)
	s.lastCount, s.lastMs = count, now
	return s.speed
}
