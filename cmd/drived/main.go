package main

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/clock"
	"github.com/robotalks/drive.go/pkg/device"
	"github.com/robotalks/drive.go/pkg/device/periph"
	fx "github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/host/link"
	"github.com/robotalks/drive.go/pkg/transport"
	"github.com/robotalks/drive.go/pkg/vehicle"
)

var (
	escPin     = "GPIO18"
	servoPin   = "GPIO13"
	encoderPin = "GPIO17"
	simIMU     bool
)

func init() {
	vehicle.SetupFlags()
	flag.StringVar(&escPin, "esc-pin", escPin, "PWM pin driving the ESC.")
	flag.StringVar(&servoPin, "servo-pin", servoPin, "PWM pin driving the steering servo.")
	flag.StringVar(&encoderPin, "encoder-pin", encoderPin, "Input pin of the wheel encoder.")
	flag.BoolVar(&simIMU, "sim-imu", simIMU, "Report a level, stationary inertial unit instead of skipping telemetry.")
}

func levelIMU() (device.InertialSample, error) {
	return device.InertialSample{Accel: [3]float32{0, 0, 9806.65}}, nil
}

func main() {
	flag.Parse()

	conf := vehicle.Default()
	if conf.Port == "" {
		log.Fatalln("no command link, use -port or DRIVE_PORT")
	}
	profile := conf.MustLoadProfile()
	if err := periph.Init(); err != nil {
		log.Fatalln(err)
	}
	esc, err := periph.NewPWMPin(escPin)
	if err != nil {
		log.Fatalln(err)
	}
	servoOut, err := periph.NewPWMPin(servoPin)
	if err != nil {
		log.Fatalln(err)
	}
	servo, err := device.NewServo(profile.Servo, servoOut)
	if err != nil {
		log.Fatalln(err)
	}
	encoder, err := periph.NewEdgeCounter(encoderPin)
	if err != nil {
		log.Fatalln(err)
	}
	uart, err := link.OpenSerial(conf.Port, conf.Baud)
	if err != nil {
		log.Fatalln(err)
	}
	defer uart.Close()

	var imu device.Inertial = device.NoInertial{}
	if simIMU {
		imu = device.InertialFunc(levelIMU)
	}

	clk := clock.NewSystem()
	port := transport.NewPort(uart)
	core, err := vehicle.NewCore(profile, clk, port.Serial, vehicle.Hardware{
		ESC:      esc,
		Steering: servo,
		Speed:    device.NewSpeedometer(profile.Speedometer, encoder, clk),
		Inertial: imu,
	})
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("drived on %s at %d baud", conf.Port, conf.Baud)
	fx.NewLoop(clk).
		Add(core).
		AddRunnable(fx.NamedRun("uart", port), encoder).
		RunOrFail()
}
