package joystick

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/drive.go/pkg/joystick/device"
	"github.com/robotalks/drive.go/pkg/vehicle"
)

type recordingDriver struct {
	lock  sync.Mutex
	calls []string
}

func (d *recordingDriver) record(s string) error {
	d.lock.Lock()
	d.calls = append(d.calls, s)
	d.lock.Unlock()
	return nil
}

func (d *recordingDriver) SetMotor(v int16) error { return d.record(fmt.Sprintf("motor %d", v)) }
func (d *recordingDriver) SetSteering(v int8) error { return d.record(fmt.Sprintf("steer %d", v)) }
func (d *recordingDriver) EmergencyStop() error { return d.record("stop") }

func (d *recordingDriver) Calls() []string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]string(nil), d.calls...)
}

// scriptedDevice replays events then reports EOF.
type scriptedDevice struct {
	events []device.Event
	closed bool
}

func (d *scriptedDevice) Close() error { d.closed = true; return nil }
func (d *scriptedDevice) Index() int { return 0 }
func (d *scriptedDevice) Name() string { return "scripted" }
func (d *scriptedDevice) AxisCount() int { return 2 }
func (d *scriptedDevice) ButtonCount() int { return 1 }

func (d *scriptedDevice) ReadEvent() (device.Event, error) {
	if len(d.events) == 0 {
		return nil, io.EOF
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return ev, nil
}

func TestMappingVelocity(t *testing.T) {
	m := DefaultMapping()
	testCases := []struct {
		axis   int
		expect int16
	}{
		{0, 0},
		{-1999, 0},
		{1999, 0},
		{-32767, 1000},
		{-32768, 1000},
		{-16384, 500},
		{32767, -500},
		{16384, -250},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprint(tc.axis), func(t *testing.T) {
			assert.Equal(t, tc.expect, m.Velocity(tc.axis))
		})
	}
}

func TestMappingSteering(t *testing.T) {
	m := DefaultMapping()
	assert.EqualValues(t, 0, m.Steering(1000))
	assert.EqualValues(t, 20, m.Steering(32767))
	assert.EqualValues(t, -20, m.Steering(-32768))
	assert.EqualValues(t, 10, m.Steering(16384))
}

func TestTeleop(t *testing.T) {
	d := &recordingDriver{}
	tp := NewTeleop(d, DefaultMapping())
	events := []device.Event{
		device.Axis(1, -16384),
		device.Axis(1, -16384),
		device.Axis(0, 32767),
		device.Axis(5, 100),
		device.Button(3, true),
		device.Button(0, true),
		device.Axis(1, -32767),
		device.Axis(1, 0),
		device.Axis(1, 32767),
		device.Button(0, false),
	}
	for _, ev := range events {
		require.NoError(t, tp.HandleEvent(ev))
	}
	assert.Equal(t, []string{
		"motor 500",
		"steer 20",
		"stop",
		"motor -500",
	}, d.Calls())
}

func TestDecodeEvent(t *testing.T) {
	testCases := []struct {
		name   string
		raw    []byte
		axis   bool
		button bool
		init   bool
		index  int
		value  int
	}{
		{name: "axis", raw: []byte{1, 2, 3, 4, 0x00, 0x80, 0x02, 1}, axis: true, index: 1, value: -32768},
		{name: "init button", raw: []byte{0, 0, 0, 0, 1, 0, 0x81, 4}, button: true, init: true, index: 4, value: 1},
		{name: "other", raw: []byte{0, 0, 0, 0, 0, 0, 0x04, 2}, index: 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := device.DecodeEvent(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.init, ev.IsInit())
			assert.Equal(t, tc.index, ev.Index())
			a, isAxis := ev.(device.AxisEvent)
			b, isButton := ev.(device.ButtonEvent)
			require.Equal(t, tc.axis, isAxis)
			require.Equal(t, tc.button, isButton)
			if isAxis {
				assert.Equal(t, tc.value, a.Value())
			}
			if isButton {
				assert.Equal(t, tc.value != 0, b.Pressed())
			}
		})
	}
	_, err := device.DecodeEvent([]byte{1, 2, 3})
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestControllerStopsOnDeviceLoss(t *testing.T) {
	d := &recordingDriver{}
	conf := NewConfig()
	p := vehicle.DefaultProfile()
	ctl := conf.NewController(d, p)
	dev := &scriptedDevice{events: []device.Event{
		device.Axis(1, -32767),
		device.Axis(0, -32767),
	}}
	opened := 0
	ctl.Open = func() (device.Device, error) {
		opened++
		if opened > 1 {
			return nil, nil
		}
		return dev, nil
	}
	RetryInterval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctl.Run(ctx) }()
	require.Eventually(t, func() bool { return len(d.Calls()) == 3 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []string{"motor 1000", "steer -20", "stop"}, d.Calls())
	assert.True(t, dev.closed)
}
