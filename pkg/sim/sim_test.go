package sim

import (
	"context"
	"math"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/drive.go/pkg/clock"
	"github.com/robotalks/drive.go/pkg/device"
	"github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/protocol"
	"github.com/robotalks/drive.go/pkg/transport"
	"github.com/robotalks/drive.go/pkg/vehicle"
)

func escPulse(percent int) uint16 {
	return uint16(3200 + 3200*percent/100)
}

func TestESCReverseLockout(t *testing.T) {
	esc := NewESC(DefaultESCConfig())
	esc.SetPulse(escPulse(20))
	assert.Equal(t, ESCBrake, esc.Mode())
	esc.Step(0.5)
	assert.Zero(t, esc.Velocity())

	esc.SetPulse(escPulse(50))
	assert.Equal(t, ESCNeutral, esc.Mode())
	esc.SetPulse(escPulse(20))
	assert.Equal(t, ESCReverse, esc.Mode())
	for i := 0; i < 100; i++ {
		esc.Step(0.01)
	}
	assert.InDelta(t, -0.3, esc.Velocity(), 0.01)

	esc.SetPulse(escPulse(75))
	assert.Equal(t, ESCForward, esc.Mode())
	esc.SetPulse(escPulse(20))
	assert.Equal(t, ESCBrake, esc.Mode(), "forward throttle disarms reverse")
}

func TestESCBrakeStops(t *testing.T) {
	esc := NewESC(DefaultESCConfig())
	esc.SetPulse(escPulse(100))
	for i := 0; i < 200; i++ {
		esc.Step(0.01)
	}
	require.InDelta(t, 1.0, esc.Velocity(), 0.01)
	esc.SetPulse(escPulse(40))
	esc.Step(0.1)
	assert.InDelta(t, 0.6, esc.Velocity(), 0.01)
	assert.InDelta(t, -4, esc.Acceleration(), 0.1)
	esc.Step(1)
	assert.Zero(t, esc.Velocity())
}

func TestSteeringServoDecodes(t *testing.T) {
	rec := &SteeringServo{cfg: device.DefaultServoConfig()}
	servo, err := device.NewServo(device.DefaultServoConfig(), rec)
	require.NoError(t, err)
	assert.Zero(t, rec.Angle())
	for _, deg := range []int8{0, 10, -20} {
		servo.SetSteeringAngle(deg)
		assert.InDelta(t, float64(deg), rec.Angle().Degrees(), 1.0)
	}
}

func TestCarTurns(t *testing.T) {
	car := NewCar(DefaultCarConfig())
	servo, err := device.NewServo(device.DefaultServoConfig(), car.Steering)
	require.NoError(t, err)
	servo.SetSteeringAngle(20)
	car.ESC.SetPulse(escPulse(75))
	for i := 0; i < 1000; i++ {
		car.Step(time.Millisecond)
	}
	pose := car.Pose()
	assert.Greater(t, pose.X, 0.1)
	assert.Greater(t, pose.Y, 0.0)
	assert.Greater(t, pose.Heading.Radians(), 0.0)

	imu, err := car.ReadInertial()
	require.NoError(t, err)
	assert.Greater(t, imu.Gyro[2], float32(0))
	assert.EqualValues(t, Gravity, imu.Accel[2])

	perimeter := float64(device.DefaultSpeedometerConfig().Perimeter())
	assert.InDelta(t, car.Distance()/perimeter*5.2, float64(car.Count()), 1)

	car.InjectIMUFault(true)
	_, err = car.ReadInertial()
	assert.ErrorIs(t, err, ErrIMUFault)
}

func TestAngleNormalize(t *testing.T) {
	a := AngleFromDegrees(170).AddRadians(math.Pi / 9)
	assert.InDelta(t, -170, a.Degrees(), 1e-9)
	assert.InDelta(t, -90, AngleFromDegrees(270).Degrees(), 1e-9)
}

// runCore drives the control core against a Car with a fake clock.
func runCore(t *testing.T, car *Car, clk *clock.Fake) (*framework.Loop, *transport.Serial) {
	var s *transport.Serial
	s = transport.NewSerial(transport.TransmitFunc(func(p []byte) error {
		s.TxComplete(len(p))
		return nil
	}))
	s.Guard = transport.NopGuard{}
	p := vehicle.DefaultProfile()
	servo, err := device.NewServo(p.Servo, car.Steering)
	require.NoError(t, err)
	core, err := vehicle.NewCore(p, clk, s, vehicle.Hardware{
		ESC:      car.ESC,
		Steering: servo,
		Speed:    device.NewSpeedometer(p.Speedometer, car, clk),
		Inertial: car,
	})
	require.NoError(t, err)
	return framework.NewLoop(clk).Add(core, car), s
}

func TestCoreEngagesReverse(t *testing.T) {
	clk := clock.NewFake(0)
	car := NewCar(DefaultCarConfig())
	loop, s := runCore(t, car, clk)
	ctx := context.Background()
	loop.RunOnce(ctx)

	f := protocol.NewWriteFrame(protocol.RegMotor, -300)
	s.Receive(f[:])
	for i := 0; i < 200; i++ {
		clk.Advance(time.Millisecond)
		loop.RunOnce(ctx)
	}
	assert.Equal(t, ESCNeutral, car.ESC.Mode(), "in the neutral gap")
	assert.Zero(t, car.ESC.Velocity())
	for i := 0; i < 300; i++ {
		clk.Advance(time.Millisecond)
		loop.RunOnce(ctx)
	}
	assert.Equal(t, ESCReverse, car.ESC.Mode())
	assert.Less(t, car.ESC.Velocity(), -0.1)
}

func TestHubFanOut(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var hosts []net.Conn
	for _, name := range []string{"a", "b"} {
		local, remote := net.Pipe()
		hosts = append(hosts, remote)
		go hub.Serve(ctx, name, local)
	}
	require.Eventually(t, func() bool { return hub.Clients() == 2 }, time.Second, time.Millisecond)

	_, err := hub.Write([]byte("telemetry"))
	require.NoError(t, err)
	for _, h := range hosts {
		buf := make([]byte, 16)
		n, err := h.Read(buf)
		require.NoError(t, err)
		assert.Equal(t, "telemetry", string(buf[:n]))
	}

	go hosts[1].Write([]byte{1, 2, 3})
	buf := make([]byte, 8)
	n, err := hub.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, buf[:n])

	hosts[0].Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, time.Millisecond)
	hub.Close()
	_, err = hub.Read(buf)
	assert.Error(t, err)
}

func TestSimulatedVehicleOverHub(t *testing.T) {
	v, err := NewVehicle(vehicle.DefaultProfile(), clock.NewSystem())
	require.NoError(t, err)
	v.Loop.Idle = 100 * time.Microsecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loopDone := make(chan error, 1)
	go func() { loopDone <- v.Loop.Run(ctx) }()

	local, remote := net.Pipe()
	go v.Hub.Serve(ctx, "test", local)

	var dec protocol.StreamDecoder
	buf := make([]byte, 256)
	remote.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		n, err := remote.Read(buf)
		require.NoError(t, err)
		dec.Write(buf[:n])
		if m, ok := dec.Next(); ok && m.Telemetry != nil {
			assert.EqualValues(t, Gravity, m.Telemetry.Accel[2])
			break
		}
	}
	cancel()
	remote.Close()
	assert.ErrorIs(t, <-loopDone, context.Canceled)
}
