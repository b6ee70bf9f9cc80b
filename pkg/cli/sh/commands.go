package sh

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robotalks/drive.go/pkg/protocol"
)

// ReadTimeout bounds the wait for read replies.
var ReadTimeout = time.Second

// Register is one register value returned by read.
type Register struct {
	Addr  byte  `json:"addr"`
	Value int16 `json:"value"`
}

func (r Register) String() string {
	return fmt.Sprintf("[0x%02x] %d", r.Addr, r.Value)
}

// Registers is the result of read.
type Registers []Register

func (r Registers) String() string {
	lines := make([]string, len(r))
	for i, reg := range r {
		lines[i] = reg.String()
	}
	return strings.Join(lines, "\n")
}

// HeartbeatState is the result of heartbeat.
type HeartbeatState struct {
	Enabled bool `json:"enabled"`
}

func (h HeartbeatState) String() string {
	if h.Enabled {
		return "heartbeat on"
	}
	return "heartbeat off"
}

// TelemetryView is the result of telemetry.
type TelemetryView struct {
	*protocol.Telemetry
}

func (v TelemetryView) String() string {
	t := v.Telemetry
	return fmt.Sprintf("t=%dms speed=%.3fm/s accel=[%.0f %.0f %.0f]mm/s2 gyro=[%.3f %.3f %.3f]rad/s",
		t.Timestamp, t.Speed, t.Accel[0], t.Accel[1], t.Accel[2], t.Gyro[0], t.Gyro[1], t.Gyro[2])
}

func argCount(args []string, min, max int) error {
	if len(args) < min || len(args) > max {
		if min == max {
			return fmt.Errorf("expect %d arguments", min)
		}
		return fmt.Errorf("expect %d to %d arguments", min, max)
	}
	return nil
}

func parseInt(s string, bits int) (int64, error) {
	v, err := strconv.ParseInt(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseAddr(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || byte(v) > protocol.AddrMask {
		return 0, fmt.Errorf("invalid register address %q", s)
	}
	return byte(v), nil
}

var (
	// ConnectCmd opens a link.
	ConnectCmd = Command{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL (serial:///dev/ttyUSB0, tcp://host:port, ws://host:port/uart)",
		Offline: true,
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := argCount(args, 1, 1); err != nil {
				return nil, err
			}
			return nil, s.Connect(args[0])
		},
	}

	// DisconnectCmd stops the vehicle and closes the link.
	DisconnectCmd = Command{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Offline: true,
		Run: func(s *Shell, args []string) (interface{}, error) {
			s.Disconnect()
			return nil, nil
		},
	}

	// MotorCmd sets the velocity.
	MotorCmd = Command{
		Name:    "motor",
		Aliases: []string{"m"},
		Help:    "MM_PER_SEC",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := argCount(args, 1, 1); err != nil {
				return nil, err
			}
			v, err := parseInt(args[0], 16)
			if err != nil {
				return nil, err
			}
			c, _ := s.Client()
			return nil, c.SetMotor(int16(v))
		},
	}

	// SteerCmd sets the steering angle.
	SteerCmd = Command{
		Name:    "steer",
		Aliases: []string{"s"},
		Help:    "DEGREES",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := argCount(args, 1, 1); err != nil {
				return nil, err
			}
			v, err := parseInt(args[0], 8)
			if err != nil {
				return nil, err
			}
			c, _ := s.Client()
			return nil, c.SetSteering(int8(v))
		},
	}

	// WriteCmd writes a register.
	WriteCmd = Command{
		Name:    "write",
		Aliases: []string{"w"},
		Help:    "ADDR VALUE",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := argCount(args, 2, 2); err != nil {
				return nil, err
			}
			addr, err := parseAddr(args[0])
			if err != nil {
				return nil, err
			}
			v, err := parseInt(args[1], 16)
			if err != nil {
				return nil, err
			}
			c, _ := s.Client()
			return nil, c.WriteRegister(addr, int16(v))
		},
	}

	// ReadCmd reads registers.
	ReadCmd = Command{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "ADDR [COUNT]",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := argCount(args, 1, 2); err != nil {
				return nil, err
			}
			addr, err := parseAddr(args[0])
			if err != nil {
				return nil, err
			}
			count := int64(1)
			if len(args) > 1 {
				if count, err = parseInt(args[1], 16); err != nil || count < 1 || count > 255 {
					return nil, fmt.Errorf("invalid count %q", args[1])
				}
			}
			c, _ := s.Client()
			ctx, cancel := context.WithTimeout(context.Background(), ReadTimeout)
			defer cancel()
			values, err := c.ReadRegisters(ctx, addr, byte(count))
			if err != nil {
				return nil, err
			}
			regs := make(Registers, len(values))
			for i, v := range values {
				regs[i] = Register{Addr: (addr + byte(i)) & protocol.AddrMask, Value: v}
			}
			return regs, nil
		},
	}

	// StopCmd is the emergency stop.
	StopCmd = Command{
		Name:    "stop",
		Aliases: []string{"x"},
		Help:    "zero motor and steering",
		Run: func(s *Shell, args []string) (interface{}, error) {
			c, _ := s.Client()
			return nil, c.EmergencyStop()
		},
	}

	// HeartbeatCmd shows or switches the heartbeat.
	HeartbeatCmd = Command{
		Name:    "heartbeat",
		Aliases: []string{"hb"},
		Help:    "[on|off]",
		Run: func(s *Shell, args []string) (interface{}, error) {
			if err := argCount(args, 0, 1); err != nil {
				return nil, err
			}
			c, _ := s.Client()
			if len(args) == 1 {
				switch args[0] {
				case "on":
					c.EnableHeartbeat(true)
				case "off":
					c.EnableHeartbeat(false)
				default:
					return nil, fmt.Errorf("expect on or off")
				}
			}
			return HeartbeatState{Enabled: c.HeartbeatEnabled()}, nil
		},
	}

	// TelemetryCmd prints the latest telemetry.
	TelemetryCmd = Command{
		Name:    "telemetry",
		Aliases: []string{"t"},
		Run: func(s *Shell, args []string) (interface{}, error) {
			c, _ := s.Client()
			t := c.Latest()
			if t == nil {
				return nil, fmt.Errorf("no telemetry received")
			}
			return TelemetryView{t}, nil
		},
	}
)

func init() {
	AddCmds(
		&ConnectCmd,
		&DisconnectCmd,
		&MotorCmd,
		&SteerCmd,
		&WriteCmd,
		&ReadCmd,
		&StopCmd,
		&HeartbeatCmd,
		&TelemetryCmd,
	)
}
