package vehicle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/drive.go/pkg/clock"
	"github.com/robotalks/drive.go/pkg/device"
	"github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/motor"
	"github.com/robotalks/drive.go/pkg/protocol"
	"github.com/robotalks/drive.go/pkg/transport"
)

type pulseRecorder struct {
	pulses []uint16
}

func (r *pulseRecorder) SetPulse(ticks uint16) {
	r.pulses = append(r.pulses, ticks)
}

type steeringRecorder struct {
	angles []int8
}

func (r *steeringRecorder) SetSteeringAngle(deg int8) {
	r.angles = append(r.angles, deg)
}

type fakeIMU struct {
	sample device.InertialSample
	err    error
}

func (f *fakeIMU) ReadInertial() (device.InertialSample, error) {
	return f.sample, f.err
}

type fakeSpeed struct {
	speed   float32
	samples int
}

func (f *fakeSpeed) SampleSpeed() float32 {
	f.samples++
	return f.speed
}

type harness struct {
	t      *testing.T
	clk    *clock.Fake
	serial *transport.Serial
	out    protocol.StreamDecoder
	loop   *framework.Loop
	core   *Core
	esc    *pulseRecorder
	steer  *steeringRecorder
	imu    *fakeIMU
	speed  *fakeSpeed
}

func newHarness(t *testing.T) *harness {
	h := &harness{
		t:     t,
		clk:   clock.NewFake(1000),
		esc:   &pulseRecorder{},
		steer: &steeringRecorder{},
		imu:   &fakeIMU{sample: device.InertialSample{Accel: [3]float32{1, 2, 9810}}},
		speed: &fakeSpeed{},
	}
	h.serial = transport.NewSerial(transport.TransmitFunc(func(p []byte) error {
		h.out.Write(p)
		h.serial.TxComplete(len(p))
		return nil
	}))
	h.serial.Guard = transport.NopGuard{}
	core, err := NewCore(DefaultProfile(), h.clk, h.serial, Hardware{
		ESC:      h.esc,
		Steering: h.steer,
		Speed:    h.speed,
		Inertial: h.imu,
	})
	require.NoError(t, err)
	h.core = core
	h.loop = framework.NewLoop(h.clk).Add(core)
	return h
}

func (h *harness) send(frames ...protocol.Frame) {
	for _, f := range frames {
		h.serial.Receive(f[:])
	}
}

func (h *harness) step(d time.Duration) {
	h.clk.Advance(d)
	h.loop.RunOnce(context.Background())
}

func (h *harness) run(total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		h.step(step)
	}
}

func (h *harness) messages() (tel []protocol.Telemetry, frames []protocol.Frame) {
	for {
		m, ok := h.out.Next()
		if !ok {
			return
		}
		if m.Telemetry != nil {
			tel = append(tel, *m.Telemetry)
		} else {
			frames = append(frames, *m.Frame)
		}
	}
}

func TestStartup(t *testing.T) {
	h := newHarness(t)
	h.step(0)
	assert.Equal(t, []uint16{4800}, h.esc.pulses)
	assert.Equal(t, []int8{0}, h.steer.angles)
	assert.Equal(t, clock.Micros(1000), h.core.LastCommand())
	tel, frames := h.messages()
	assert.Empty(t, tel, "no task fires in the first iteration")
	assert.Empty(t, frames)
	assert.Zero(t, h.speed.samples)
}

func TestMotorCommand(t *testing.T) {
	h := newHarness(t)
	h.step(0)
	h.send(protocol.NewWriteFrame(protocol.RegMotor, 500))
	h.step(time.Millisecond)
	assert.Equal(t, motor.ForwardHold, h.core.Motor.State())
	assert.EqualValues(t, 75, h.core.Motor.AppliedDuty())
	assert.EqualValues(t, 5600, h.esc.pulses[len(h.esc.pulses)-1])
	assert.EqualValues(t, 1, h.core.Status().Stats.Commands)
	assert.EqualValues(t, 500, h.core.Status().Registers.Motor)
}

func TestSteeringCommand(t *testing.T) {
	h := newHarness(t)
	h.step(0)
	h.send(protocol.NewWriteFrame(protocol.RegServo, -15))
	h.step(10 * time.Microsecond)
	assert.Equal(t, []int8{0, -15}, h.steer.angles)
}

func TestOneCommandPerIteration(t *testing.T) {
	h := newHarness(t)
	h.step(0)
	h.send(
		protocol.NewWriteFrame(protocol.RegMotor, 300),
		protocol.NewWriteFrame(protocol.RegServo, 9),
	)
	h.step(10 * time.Microsecond)
	// last write wins the notification, the motor shadow is still updated
	assert.Equal(t, []int8{0, 9}, h.steer.angles)
	assert.EqualValues(t, 0, h.core.Motor.Target().Velocity)
	assert.EqualValues(t, 300, h.core.Protocol.Registers.Motor)
}

func TestFailsafe(t *testing.T) {
	h := newHarness(t)
	h.step(0)
	h.send(protocol.NewWriteFrame(protocol.RegMotor, 400))
	h.step(time.Millisecond)
	last := h.core.LastCommand()
	require.Equal(t, h.clk.Micros(), last)

	h.run(500*time.Millisecond, time.Millisecond)
	require.Equal(t, last.Add(500*time.Millisecond), h.clk.Micros())
	assert.False(t, h.core.Failsafe())
	assert.EqualValues(t, 400, h.core.Motor.Target().Velocity)

	h.step(time.Microsecond)
	assert.True(t, h.core.Failsafe())
	assert.EqualValues(t, 0, h.core.Motor.Target().Velocity)

	h.core.Motor.SetTargetVelocity(300)
	h.step(time.Millisecond)
	assert.EqualValues(t, 0, h.core.Motor.Target().Velocity)
	assert.Equal(t, motor.Neutral, h.core.Motor.State())
	assert.EqualValues(t, 1, h.core.Status().Stats.FailsafeTrips)

	h.send(protocol.NewWriteFrame(protocol.RegMotor, 250))
	h.step(time.Millisecond)
	assert.False(t, h.core.Failsafe())
	assert.EqualValues(t, 250, h.core.Motor.Target().Velocity)
}

func TestFailsafeWithoutCommands(t *testing.T) {
	h := newHarness(t)
	h.step(0)
	h.run(500*time.Millisecond, 10*time.Millisecond)
	assert.False(t, h.core.Failsafe())
	h.step(time.Millisecond)
	assert.True(t, h.core.Failsafe())
	h.core.Motor.SetTargetVelocity(200)
	h.step(time.Millisecond)
	assert.Equal(t, motor.Neutral, h.core.Motor.State())
}

func TestFailsafeInterruptsReverseSequence(t *testing.T) {
	h := newHarness(t)
	h.step(0)
	h.send(protocol.NewWriteFrame(protocol.RegMotor, 300))
	h.step(time.Millisecond)
	h.send(protocol.NewWriteFrame(protocol.RegMotor, -300))
	h.step(time.Millisecond)
	require.Equal(t, motor.ForwardBrakeTap, h.core.Motor.State())
	h.run(600*time.Millisecond, time.Millisecond)
	assert.True(t, h.core.Failsafe())
	assert.Equal(t, motor.Neutral, h.core.Motor.State())
	assert.EqualValues(t, 50, h.core.Motor.AppliedDuty())
}

func TestFailsafeLatchesAcrossClockWrap(t *testing.T) {
	h := newHarness(t)
	h.step(0)
	h.step(time.Second)
	require.True(t, h.core.Failsafe())
	// run the 32-bit clock around to just past the last command time
	h.clk.Advance(time.Duration(1<<32-1000000+10) * time.Microsecond)
	require.Equal(t, h.core.LastCommand()+10, h.clk.Micros())
	h.core.Motor.SetTargetVelocity(500)
	h.loop.RunOnce(context.Background())
	assert.True(t, h.core.Failsafe())
	assert.EqualValues(t, 0, h.core.Motor.Target().Velocity)
}

func TestTelemetry(t *testing.T) {
	h := newHarness(t)
	h.imu.sample.Gyro = [3]float32{0, 0, 0.5}
	h.speed.speed = 1.25
	h.step(0)
	h.run(100*time.Millisecond, time.Millisecond)
	tel, _ := h.messages()
	require.Len(t, tel, 10)
	last := tel[len(tel)-1]
	assert.Equal(t, h.clk.Millis(), last.Timestamp)
	assert.Equal(t, h.imu.sample.Accel, last.Accel)
	assert.Equal(t, h.imu.sample.Gyro, last.Gyro)
	assert.EqualValues(t, 1.25, last.Speed)
	assert.Zero(t, tel[0].Speed, "speed is sampled every 100ms")
	assert.Equal(t, 1, h.speed.samples)
	assert.EqualValues(t, 10, h.core.Status().Stats.Telemetry)
}

func TestTelemetrySpeedSign(t *testing.T) {
	h := newHarness(t)
	h.speed.speed = 0.8
	h.step(0)
	h.send(protocol.NewWriteFrame(protocol.RegMotor, -200))
	h.run(100*time.Millisecond, time.Millisecond)
	tel, _ := h.messages()
	require.NotEmpty(t, tel)
	assert.EqualValues(t, -0.8, tel[len(tel)-1].Speed)
}

func TestTelemetrySkippedOnIMUError(t *testing.T) {
	h := newHarness(t)
	h.imu.err = errors.New("bus error")
	h.step(0)
	h.run(50*time.Millisecond, time.Millisecond)
	tel, _ := h.messages()
	assert.Empty(t, tel)
	assert.EqualValues(t, 5, h.core.Status().Stats.TelemetrySkipped)

	h.imu.err = nil
	h.run(10*time.Millisecond, time.Millisecond)
	tel, _ = h.messages()
	assert.Len(t, tel, 1)
}

func TestReadBurstThroughCore(t *testing.T) {
	h := newHarness(t)
	h.imu.err = device.ErrNoSample
	h.step(0)
	h.send(
		protocol.NewWriteFrame(protocol.RegServo, 12),
		protocol.NewWriteFrame(protocol.RegMotor, -200),
		protocol.NewReadFrame(protocol.RegServo, 3, 0),
	)
	h.step(time.Millisecond)
	_, frames := h.messages()
	assert.Equal(t, []protocol.Frame{
		protocol.NewWriteFrame(protocol.RegServo, 12),
		protocol.NewWriteFrame(protocol.RegMotor, -200),
		protocol.NewWriteFrame(protocol.RegReserved, 0),
	}, frames)
}

func TestNewCoreRejectsBadProfile(t *testing.T) {
	p := DefaultProfile()
	p.Tasks.Telemetry = 0
	_, err := NewCore(p, clock.NewFake(0), &transport.Serial{}, Hardware{ESC: &pulseRecorder{}})
	assert.Error(t, err)
}
