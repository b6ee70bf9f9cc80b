package sim

import (
	"math"
	"sync"
)

// ESCConfig describes the simulated speed controller and drive train.
type ESCConfig struct {
	MinPulse, MaxPulse uint16
	// Deadband around neutral in percent.
	Deadband float64
	// MaxForward and MaxReverse are the speeds at full throttle in m/s.
	MaxForward float64
	MaxReverse float64
	// Lag is the time constant of the drive train in seconds.
	Lag float64
	// Brake is the deceleration while braking in m/s².
	Brake float64
}

// DefaultESCConfig matches the stock calibration.
func DefaultESCConfig() ESCConfig {
	return ESCConfig{
		MinPulse:   3200,
		MaxPulse:   6400,
		Deadband:   2,
		MaxForward: 1.0,
		MaxReverse: 0.5,
		Lag:        0.15,
		Brake:      4,
	}
}

// ESCMode is what the simulated ESC does with the current pulse.
type ESCMode int

const (
	ESCNeutral ESCMode = iota
	ESCForward
	ESCBrake
	ESCReverse
)

func (m ESCMode) String() string {
	switch m {
	case ESCNeutral:
		return "neutral"
	case ESCForward:
		return "forward"
	case ESCBrake:
		return "brake"
	case ESCReverse:
		return "reverse"
	}
	return "unknown"
}

// ESC simulates a car ESC with the usual reverse lockout: a pulse below
// neutral brakes, and only becomes reverse throttle after the brake was
// released to neutral.
type ESC struct {
	cfg ESCConfig

	lock      sync.Mutex
	percent   float64
	mode      ESCMode
	braked    bool
	armed     bool
	velocity  float64
	accel     float64
	lastPulse uint16
}

// NewESC creates an ESC at rest.
func NewESC(cfg ESCConfig) *ESC {
	return &ESC{cfg: cfg, percent: 50}
}

// SetPulse implements motor.PWM.
func (e *ESC) SetPulse(ticks uint16) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.lastPulse = ticks
	span := float64(e.cfg.MaxPulse - e.cfg.MinPulse)
	e.percent = (float64(ticks) - float64(e.cfg.MinPulse)) * 100 / span
	switch {
	case e.percent > 50+e.cfg.Deadband:
		e.mode, e.braked, e.armed = ESCForward, false, false
	case e.percent < 50-e.cfg.Deadband:
		if e.armed {
			e.mode = ESCReverse
		} else {
			e.mode, e.braked = ESCBrake, true
		}
	default:
		e.mode = ESCNeutral
		if e.braked {
			e.armed = true
		}
	}
}

// Mode returns what the ESC does.
func (e *ESC) Mode() ESCMode {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.mode
}

// Pulse returns the last pulse received.
func (e *ESC) Pulse() uint16 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.lastPulse
}

// Velocity returns the signed speed in m/s.
func (e *ESC) Velocity() float64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.velocity
}

// Acceleration returns the acceleration of the last step in m/s².
func (e *ESC) Acceleration() float64 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.accel
}

// Step advances the drive train by dt seconds.
func (e *ESC) Step(dt float64) {
	if dt <= 0 {
		return
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	v := e.velocity
	switch e.mode {
	case ESCForward:
		target := (e.percent - 50) / 50 * e.cfg.MaxForward
		v += (target - v) * math.Min(dt/e.cfg.Lag, 1)
	case ESCReverse:
		target := (e.percent - 50) / 50 * e.cfg.MaxReverse
		v += (target - v) * math.Min(dt/e.cfg.Lag, 1)
	case ESCBrake:
		dv := e.cfg.Brake * dt
		if math.Abs(v) <= dv {
			v = 0
		} else {
			v -= math.Copysign(dv, v)
		}
	default:
		// coasting
		v -= v * math.Min(dt/(4*e.cfg.Lag), 1)
	}
	e.accel = (v - e.velocity) / dt
	e.velocity = v
}
