package vehicle

import (
	"flag"
	"log"
	"os"
)

// Config defines the configurations of a vehicle process.
type Config struct {
	// Port is the UART the host talks over.
	Port string
	Baud int
	// Profile is the calibration file, empty for the stock calibration.
	Profile string
}

var defaultConfig = Config{
	Baud: 115200,
}

func init() {
	if port := os.Getenv("DRIVE_PORT"); port != "" {
		defaultConfig.Port = port
	}
	if profile := os.Getenv("DRIVE_PROFILE"); profile != "" {
		defaultConfig.Profile = profile
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port of the command link.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate of the command link.")
	flag.StringVar(&defaultConfig.Profile, "profile", defaultConfig.Profile, "Calibration profile (YAML).")
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

// LoadProfile loads the configured profile.
func (c *Config) LoadProfile() (Profile, error) {
	if c.Profile == "" {
		p := DefaultProfile()
		return p, p.Validate()
	}
	return LoadProfile(c.Profile)
}

// MustLoadProfile is LoadProfile for main.
func (c *Config) MustLoadProfile() Profile {
	p, err := c.LoadProfile()
	if err != nil {
		log.Fatalln(err)
	}
	return p
}
