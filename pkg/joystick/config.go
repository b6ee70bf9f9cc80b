package joystick

import (
	"flag"

	"github.com/robotalks/drive.go/pkg/vehicle"
)

// Config defines the configurations for the controller.
type Config struct {
	DeviceIndex int
	Verbose     bool
	Mapping     Mapping
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Mapping:     DefaultMapping(),
}

// SetupFlags sets command line flags on fs.
func SetupFlags(fs *flag.FlagSet) {
	fs.IntVar(&defaultConfig.DeviceIndex, "device", defaultConfig.DeviceIndex, "Device index, -1 for auto detection.")
	fs.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Log joystick events.")
	fs.IntVar(&defaultConfig.Mapping.ThrottleAxis, "throttle-axis", defaultConfig.Mapping.ThrottleAxis, "Axis driving the motor.")
	fs.IntVar(&defaultConfig.Mapping.SteerAxis, "steer-axis", defaultConfig.Mapping.SteerAxis, "Axis driving the steering.")
	fs.IntVar(&defaultConfig.Mapping.StopButton, "stop-button", defaultConfig.Mapping.StopButton, "Emergency stop button.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewController creates a controller driving d within the caps of p.
func (c *Config) NewController(d Driver, p vehicle.Profile) *Controller {
	m := c.Mapping
	m.MaxForward, m.MaxReverse, m.SteerLimit = p.Motor.MaxForward, p.Motor.MaxReverse, p.Servo.Limit
	ctl := NewController(NewTeleop(d, m))
	ctl.DeviceIndex = c.DeviceIndex
	ctl.Verbose = c.Verbose
	return ctl
}
