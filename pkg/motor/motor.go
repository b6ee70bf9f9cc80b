// Package motor sequences an ESC through brake and neutral phases so the
// drive direction never flips without the hardware seeing a brake pulse
// followed by a neutral gap.
package motor

import (
	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/clock"
)

// State is a state of the actuation sequence.
type State int

const (
	Neutral State = iota
	ForwardHold
	ForwardBrakeTap
	ForwardNeutralGap
	ReverseHold
	ReverseBrakeTap
	ReverseNeutralGap
	NeutralToReverseTap
	NeutralToReverseGap
)

var stateNames = [...]string{
	"Neutral",
	"ForwardHold",
	"ForwardBrakeTap",
	"ForwardNeutralGap",
	"ReverseHold",
	"ReverseBrakeTap",
	"ReverseNeutralGap",
	"NeutralToReverseTap",
	"NeutralToReverseGap",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Timed reports whether the state waits for a deadline.
func (s State) Timed() bool {
	switch s {
	case ForwardBrakeTap, ForwardNeutralGap,
		ReverseBrakeTap, ReverseNeutralGap,
		NeutralToReverseTap, NeutralToReverseGap:
		return true
	}
	return false
}

// PWM is the output stage driven by the motor.
type PWM interface {
	SetPulse(ticks uint16)
}

// PWMFunc is the func form of PWM.
type PWMFunc func(ticks uint16)

// SetPulse implements PWM.
func (f PWMFunc) SetPulse(ticks uint16) {
	f(ticks)
}

// Target is the requested motion.
type Target struct {
	Velocity int16
	Duty     uint8
	Forward  bool
}

// Motor is the actuation state machine.
type Motor struct {
	cfg      Config
	out      PWM
	state    State
	forward  bool
	target   Target
	deadline clock.Micros
	duty     uint8
	brake    clock.Micros
	gap      clock.Micros
}

// New creates a motor in the Neutral state. Nothing is written to out
// until Start or the first Tick.
func New(cfg Config, out PWM) (*Motor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Motor{
		cfg:     cfg,
		out:     out,
		forward: true,
		target:  Target{Duty: cfg.NeutralDuty, Forward: true},
		duty:    cfg.NeutralDuty,
		brake:   clock.FromDuration(cfg.BrakeDuration),
		gap:     clock.FromDuration(cfg.GapDuration),
	}, nil
}

// Config returns the calibration in use.
func (m *Motor) Config() Config {
	return m.cfg
}

// Start drives the output to neutral.
func (m *Motor) Start() {
	m.ApplyDutyPercent(m.cfg.NeutralDuty)
}

// State returns the current state.
func (m *Motor) State() State {
	return m.state
}

// Forward reports the direction last engaged.
func (m *Motor) Forward() bool {
	return m.forward
}

// Target returns the requested motion.
func (m *Motor) Target() Target {
	return m.target
}

// AppliedDuty returns the last duty written to the output.
func (m *Motor) AppliedDuty() uint8 {
	return m.duty
}

// Deadline returns the deadline of a timed state.
func (m *Motor) Deadline() clock.Micros {
	return m.deadline
}

// SetTargetVelocity records the requested velocity in mm/s. Zero asks for
// neutral and keeps the previous direction.
func (m *Motor) SetTargetVelocity(v int16) {
	m.target.Velocity = v
	if v == 0 {
		m.target.Duty = m.cfg.NeutralDuty
		return
	}
	m.target.Duty = m.cfg.VelocityToDuty(v)
	m.target.Forward = v > 0
}

// ApplyDutyPercent writes a duty directly to the output.
func (m *Motor) ApplyDutyPercent(percent uint8) {
	m.duty = percent
	m.out.SetPulse(m.cfg.Pulse.Map(int(percent)))
}

// Tick advances the state machine. At most one phase is taken per call.
func (m *Motor) Tick(now clock.Micros) {
	stop := m.target.Velocity == 0
	switch m.state {
	case Neutral:
		m.ApplyDutyPercent(m.cfg.NeutralDuty)
		if stop {
			return
		}
		if m.target.Forward {
			m.hold(true)
		} else {
			m.tap(now, m.cfg.BrakeForwardDuty, NeutralToReverseTap)
		}
	case ForwardHold, ReverseHold:
		holding := m.state == ForwardHold
		switch {
		case stop:
			m.ApplyDutyPercent(m.cfg.NeutralDuty)
			m.enter(Neutral)
		case m.target.Forward == holding:
			m.ApplyDutyPercent(m.target.Duty)
		case holding:
			m.tap(now, m.cfg.BrakeForwardDuty, ForwardBrakeTap)
		default:
			m.tap(now, m.cfg.BrakeReverseDuty, ReverseBrakeTap)
		}
	case ForwardBrakeTap, ReverseBrakeTap, NeutralToReverseTap:
		if !clock.TimeReached(now, m.deadline) {
			return
		}
		m.ApplyDutyPercent(m.cfg.NeutralDuty)
		m.deadline = now + m.gap
		m.enter(m.state + 1)
	case ForwardNeutralGap, ReverseNeutralGap, NeutralToReverseGap:
		if !clock.TimeReached(now, m.deadline) {
			return
		}
		if stop {
			m.ApplyDutyPercent(m.cfg.NeutralDuty)
			m.enter(Neutral)
			return
		}
		m.hold(m.target.Forward)
	}
}

func (m *Motor) tap(now clock.Micros, duty uint8, next State) {
	m.ApplyDutyPercent(duty)
	m.deadline = now + m.brake
	m.enter(next)
}

func (m *Motor) hold(forward bool) {
	m.ApplyDutyPercent(m.target.Duty)
	m.forward = forward
	if forward {
		m.enter(ForwardHold)
	} else {
		m.enter(ReverseHold)
	}
}

func (m *Motor) enter(s State) {
	glog.V(3).Infof("motor %s -> %s duty %d", m.state, s, m.duty)
	m.state = s
}
