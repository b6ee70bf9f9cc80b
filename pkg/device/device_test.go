package device

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/drive.go/pkg/clock"
)

type pulseRecorder struct {
	pulses []uint16
}

func (r *pulseRecorder) SetPulse(ticks uint16) {
	r.pulses = append(r.pulses, ticks)
}

func newTestServo(t *testing.T) (*Servo, *pulseRecorder) {
	rec := &pulseRecorder{}
	s, err := NewServo(DefaultServoConfig(), rec)
	require.NoError(t, err)
	return s, rec
}

func TestServoAngle(t *testing.T) {
	tests := []struct {
		angle int8
		pulse uint16
	}{
		{0, 4960},
		{7, 5280},
		{20, 5856},
		{-20, 4032},
		{-30, 4032},
		{127, 5856},
		{-128, 4032},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.angle), func(t *testing.T) {
			s, rec := newTestServo(t)
			s.SetSteeringAngle(test.angle)
			assert.Equal(t, []uint16{test.pulse}, rec.pulses)
			assert.Equal(t, test.pulse, s.Pulse())
		})
	}
}

func TestServoStartCenters(t *testing.T) {
	s, rec := newTestServo(t)
	s.Start()
	assert.Equal(t, []uint16{4960}, rec.pulses)
}

func TestServoPercent(t *testing.T) {
	s, _ := newTestServo(t)
	s.SetPercent(0)
	assert.EqualValues(t, 3360, s.Pulse())
	s.SetPercent(50)
	assert.EqualValues(t, 4960, s.Pulse())
	s.SetPercent(100)
	assert.EqualValues(t, 6400, s.Pulse())
	s.SetPercent(255)
	assert.EqualValues(t, 6400, s.Pulse())
}

func TestServoAbsolute(t *testing.T) {
	tests := []struct {
		value uint16
		pulse uint16
	}{
		{0, 4045},
		{20000, 4158},
		{32768, 4960},
		{65535, 5874},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.value), func(t *testing.T) {
			s, _ := newTestServo(t)
			s.SetAbsolute(test.value)
			assert.Equal(t, test.pulse, s.Pulse())
		})
	}
}

func TestServoConfigErrors(t *testing.T) {
	cfg := DefaultServoConfig()
	cfg.MaxPulse = cfg.MinPulse
	_, err := NewServo(cfg, &pulseRecorder{})
	assert.Error(t, err)

	cfg = DefaultServoConfig()
	cfg.Limit = 40
	_, err = NewServo(cfg, &pulseRecorder{})
	assert.Error(t, err)
}

type testCounter struct {
	value uint16
}

func (c *testCounter) Count() uint16 {
	return c.value
}

func TestSpeedometer(t *testing.T) {
	clk := clock.NewFake(0)
	cnt := &testCounter{value: 100}
	s := NewSpeedometer(DefaultSpeedometerConfig(), cnt, clk)
	assert.Zero(t, s.SampleSpeed(), "no time elapsed")

	clk.Advance(time.Second)
	cnt.value += 52
	assert.InDelta(t, 10*0.068*3.14159, s.SampleSpeed(), 1e-4)

	cnt.value += 26
	assert.InDelta(t, 10*0.068*3.14159, s.SampleSpeed(), 1e-4, "same millisecond keeps the last value")

	clk.Advance(500 * time.Millisecond)
	assert.InDelta(t, 10*0.068*3.14159, s.SampleSpeed(), 1e-4)
	assert.InDelta(t, 10*0.068*3.14159, s.Speed(), 1e-4)

	clk.Advance(100 * time.Millisecond)
	assert.Zero(t, s.SampleSpeed())
}

func TestSpeedometerCounterWrap(t *testing.T) {
	clk := clock.NewFake(0)
	cnt := &testCounter{value: 65530}
	s := NewSpeedometer(DefaultSpeedometerConfig(), cnt, clk)
	clk.Advance(100 * time.Millisecond)
	cnt.value = 10
	perimeter := DefaultSpeedometerConfig().Perimeter()
	assert.InDelta(t, 16/5.2*perimeter/0.1, s.SampleSpeed(), 1e-3)
}

func TestNoInertial(t *testing.T) {
	_, err := NoInertial{}.ReadInertial()
	assert.ErrorIs(t, err, ErrNoSample)
	var imu Inertial = InertialFunc(func() (InertialSample, error) {
		return InertialSample{Gyro: [3]float32{0, 0, 1}}, nil
	})
	sample, err := imu.ReadInertial()
	require.NoError(t, err)
	assert.EqualValues(t, 1, sample.Gyro[2])
}
