package device

import (
	"fmt"
)

// ServoConfig is the steering servo calibration.
type ServoConfig struct {
	MinPulse uint16 `yaml:"min_pulse"`
	MaxPulse uint16 `yaml:"max_pulse"`
	// Span is the mechanical half range in degrees mapped onto the pulse
	// range.
	Span int `yaml:"span"`
	// Limit clamps commanded angles to ±Limit degrees.
	Limit int `yaml:"limit"`
	// Offset in percent of the pulse range, trims the center.
	Offset int `yaml:"offset"`
}

// DefaultServoConfig is the calibration of the stock steering servo.
func DefaultServoConfig() ServoConfig {
	return ServoConfig{
		MinPulse: 3200,
		MaxPulse: 6400,
		Span:     35,
		Limit:    20,
		Offset:   5,
	}
}

// Servo drives the steering servo.
type Servo struct {
	cfg   ServoConfig
	out   PWM
	pulse uint16
}

// NewServo creates a Servo.
func NewServo(cfg ServoConfig, out PWM) (*Servo, error) {
	if cfg.MaxPulse <= cfg.MinPulse {
		return nil, fmt.Errorf("servo pulse range %d..%d", cfg.MinPulse, cfg.MaxPulse)
	}
	if cfg.Span <= 0 || cfg.Limit < 0 || cfg.Limit > cfg.Span {
		return nil, fmt.Errorf("servo limit %d outside span %d", cfg.Limit, cfg.Span)
	}
	return &Servo{cfg: cfg, out: out}, nil
}

// Start centers the servo.
func (s *Servo) Start() {
	s.SetSteeringAngle(0)
}

// Pulse returns the last pulse written.
func (s *Servo) Pulse() uint16 {
	return s.pulse
}

// SetPercent positions the servo at a percentage of its range, the center
// trim applied.
func (s *Servo) SetPercent(percent uint8) {
	s.apply(s.mapPercent(int(percent)))
}

// SetSteeringAngle implements Steering.
func (s *Servo) SetSteeringAngle(degrees int8) {
	angle := clamp(int(degrees), -s.cfg.Limit, s.cfg.Limit)
	s.apply(s.mapPercent((angle + s.cfg.Span) * 100 / (2 * s.cfg.Span)))
}

// SetAbsolute positions the servo from a 16-bit absolute value spanning
// -45..45 degrees.
func (s *Servo) SetAbsolute(v uint16) {
	centi := mapRange(int(v), 0, 65535, -4500, 4500)
	limit := s.cfg.Limit * 100
	centi = clamp(centi, -limit, limit)
	span := s.cfg.Span * 100
	lo, hi := int(s.cfg.MinPulse), int(s.cfg.MaxPulse)
	ticks := mapRange(centi, -span, span, lo, hi)
	ticks += (hi - lo) * s.cfg.Offset / 100
	s.apply(uint16(clamp(ticks, lo, hi)))
}

func (s *Servo) mapPercent(percent int) uint16 {
	percent = clamp(percent+s.cfg.Offset, 0, 100)
	return s.cfg.MinPulse + uint16(int(s.cfg.MaxPulse-s.cfg.MinPulse)*percent/100)
}

func (s *Servo) apply(ticks uint16) {
	s.pulse = ticks
	s.out.SetPulse(ticks)
}

func mapRange(x, inMin, inMax, outMin, outMax int) int {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
