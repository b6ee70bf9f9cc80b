package motor

import (
	"fmt"
	"time"
)

// PulseRange is the compare value span of a PWM output: Min is 0 %, Max is
// 100 %.
type PulseRange struct {
	Min uint16 `yaml:"min"`
	Max uint16 `yaml:"max"`
}

// Map converts a percentage into pulse ticks, clamping to 0..100.
func (r PulseRange) Map(percent int) uint16 {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return r.Min + uint16(uint32(r.Max-r.Min)*uint32(percent)/100)
}

// Config is the ESC calibration.
type Config struct {
	Pulse PulseRange `yaml:"pulse"`
	// MaxForward is the forward velocity cap in mm/s.
	MaxForward int16 `yaml:"max_forward"`
	// MaxReverse is the reverse velocity cap in mm/s, negative.
	MaxReverse int16 `yaml:"max_reverse"`

	BrakeDuration time.Duration `yaml:"brake_duration"`
	GapDuration   time.Duration `yaml:"gap_duration"`

	NeutralDuty uint8 `yaml:"neutral_duty"`
	// BrakeForwardDuty stops forward motion and engages reverse from neutral.
	BrakeForwardDuty uint8 `yaml:"brake_forward_duty"`
	// BrakeReverseDuty stops reverse motion.
	BrakeReverseDuty uint8 `yaml:"brake_reverse_duty"`
}

// DefaultConfig is the calibration of the stock ESC on a 50 Hz frame of
// 64000 ticks.
func DefaultConfig() Config {
	return Config{
		Pulse:            PulseRange{Min: 3200, Max: 6400},
		MaxForward:       1000,
		MaxReverse:       -500,
		BrakeDuration:    120 * time.Millisecond,
		GapDuration:      120 * time.Millisecond,
		NeutralDuty:      50,
		BrakeForwardDuty: 40,
		BrakeReverseDuty: 60,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Pulse.Max <= c.Pulse.Min {
		return fmt.Errorf("%w: %d..%d", ErrPulseRange, c.Pulse.Min, c.Pulse.Max)
	}
	if c.MaxForward <= 0 || c.MaxReverse >= 0 {
		return fmt.Errorf("%w: %d/%d", ErrVelocityCaps, c.MaxForward, c.MaxReverse)
	}
	return nil
}

// VelocityToDuty maps a velocity in mm/s onto the asymmetric duty scale:
// 50 is neutral, the caps map to 100 and 0.
func (c *Config) VelocityToDuty(v int16) uint8 {
	if v >= c.MaxForward {
		return 100
	}
	if v <= c.MaxReverse {
		return 0
	}
	if v >= 0 {
		return uint8(50 + int32(v)*50/int32(c.MaxForward))
	}
	return uint8(50 + int32(v)*50/(-int32(c.MaxReverse)))
}
