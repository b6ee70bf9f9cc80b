package vehicle

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/drive.go/pkg/device"
	"github.com/robotalks/drive.go/pkg/motor"
)

// Tasks holds the scheduler periods.
type Tasks struct {
	Motor     time.Duration `yaml:"motor"`
	Speed     time.Duration `yaml:"speed"`
	Telemetry time.Duration `yaml:"telemetry"`
	// Failsafe is the longest silence tolerated on the command link.
	Failsafe time.Duration `yaml:"failsafe"`
}

// Profile is the calibration of one vehicle.
type Profile struct {
	Motor       motor.Config             `yaml:"motor"`
	Servo       device.ServoConfig       `yaml:"servo"`
	Speedometer device.SpeedometerConfig `yaml:"speedometer"`
	Tasks       Tasks                    `yaml:"tasks"`
}

// DefaultProfile returns the stock calibration.
func DefaultProfile() Profile {
	return Profile{
		Motor:       motor.DefaultConfig(),
		Servo:       device.DefaultServoConfig(),
		Speedometer: device.DefaultSpeedometerConfig(),
		Tasks: Tasks{
			Motor:     time.Millisecond,
			Speed:     100 * time.Millisecond,
			Telemetry: 10 * time.Millisecond,
			Failsafe:  500 * time.Millisecond,
		},
	}
}

// Validate checks the profile.
func (p *Profile) Validate() error {
	if err := p.Motor.Validate(); err != nil {
		return err
	}
	if p.Speedometer.PulsesPerTurn <= 0 {
		return fmt.Errorf("pulses per turn must be positive")
	}
	if p.Tasks.Motor <= 0 || p.Tasks.Speed <= 0 || p.Tasks.Telemetry <= 0 || p.Tasks.Failsafe <= 0 {
		return fmt.Errorf("task periods must be positive")
	}
	return nil
}

// ReadProfile overlays the YAML document read from r onto the defaults.
// Unknown fields are rejected.
func ReadProfile(r io.Reader) (Profile, error) {
	p := DefaultProfile()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return p, fmt.Errorf("profile: %v", err)
	}
	return p, p.Validate()
}

// ParseProfile is ReadProfile on a byte slice.
func ParseProfile(data []byte) (Profile, error) {
	return ReadProfile(bytes.NewReader(data))
}

// LoadProfile reads a profile file.
func LoadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, fmt.Errorf("profile: %v", err)
	}
	defer f.Close()
	return ReadProfile(f)
}
