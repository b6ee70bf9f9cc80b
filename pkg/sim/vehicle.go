package sim

import (
	"github.com/robotalks/drive.go/pkg/clock"
	"github.com/robotalks/drive.go/pkg/device"
	"github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/transport"
	"github.com/robotalks/drive.go/pkg/vehicle"
)

// Vehicle is the control core running against a simulated car, its UART
// exposed through a Hub.
type Vehicle struct {
	Car  *Car
	Hub  *Hub
	Port *transport.Port
	Core *vehicle.Core
	Loop *framework.Loop
}

// CarConfigFor derives the simulated car from a calibration profile.
func CarConfigFor(p vehicle.Profile) CarConfig {
	cfg := DefaultCarConfig()
	cfg.ESC.MinPulse, cfg.ESC.MaxPulse = p.Motor.Pulse.Min, p.Motor.Pulse.Max
	cfg.ESC.MaxForward = float64(p.Motor.MaxForward) / 1000
	cfg.ESC.MaxReverse = -float64(p.Motor.MaxReverse) / 1000
	cfg.Servo = p.Servo
	cfg.Encoder = p.Speedometer
	return cfg
}

// NewVehicle assembles a simulated vehicle.
func NewVehicle(p vehicle.Profile, clk clock.Clock) (*Vehicle, error) {
	car := NewCar(CarConfigFor(p))
	servo, err := device.NewServo(p.Servo, car.Steering)
	if err != nil {
		return nil, err
	}
	hub := NewHub()
	port := transport.NewPort(hub)
	core, err := vehicle.NewCore(p, clk, port.Serial, vehicle.Hardware{
		ESC:      car.ESC,
		Steering: servo,
		Speed:    device.NewSpeedometer(p.Speedometer, car, clk),
		Inertial: car,
	})
	if err != nil {
		return nil, err
	}
	loop := framework.NewLoop(clk).
		Add(core, car).
		AddRunnable(framework.NamedRun("uart", port))
	return &Vehicle{Car: car, Hub: hub, Port: port, Core: core, Loop: loop}, nil
}
