package mqtt

import (
	"flag"
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// Config configures a Bridge.
type Config struct {
	// BrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix/
	BrokerURL string
	// ID names the vehicle in topics.
	ID    string
	Codec string
}

var defaultConfig = Config{
	BrokerURL: "mqtt://localhost:1883/drive/",
	Codec:     "json",
}

func init() {
	if val := os.Getenv("DRIVE_MQTT_URL"); val != "" {
		defaultConfig.BrokerURL = val
	}
	defaultConfig.ID = MachineID()
}

// MachineID returns an ID unique to this host, derived from the OS
// machine ID.
func MachineID() string {
	id, err := machineid.ProtectedID("drive")
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return "drive"
	}
	return id[:12]
}

// SetupFlags sets command line flags on fs.
func SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL")
	fs.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Vehicle ID in topics")
	fs.StringVar(&defaultConfig.Codec, "codec", defaultConfig.Codec, "Telemetry codec: json, proto or cbor")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewBridge creates the queue and bridge for cmd.
func (c *Config) NewBridge(cmd Commander) (*Bridge, error) {
	if c.ID == "" {
		return nil, fmt.Errorf("vehicle id must be specified")
	}
	codec, err := CodecByName(c.Codec)
	if err != nil {
		return nil, err
	}
	q, err := NewQueueFromURL(c.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %v", err)
	}
	return NewBridge(q, c.ID, codec, cmd), nil
}
