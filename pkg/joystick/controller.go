package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/joystick/device"
)

// RetryInterval is the wait between device detection attempts.
var RetryInterval = time.Second

// Controller keeps a joystick open and feeds its events to a Teleop.
// Losing the device stops the vehicle.
type Controller struct {
	Teleop      *Teleop
	DeviceIndex int
	Verbose     bool
	// Open overrides device detection, mainly for tests.
	Open func() (device.Device, error)
}

// NewController creates a Controller.
func NewController(t *Teleop) *Controller {
	return &Controller{
		Teleop:      t,
		DeviceIndex: defaultConfig.DeviceIndex,
		Verbose:     defaultConfig.Verbose,
	}
}

func (c *Controller) open() (device.Device, error) {
	if c.Open != nil {
		return c.Open()
	}
	if c.DeviceIndex >= 0 {
		return device.Open(c.DeviceIndex)
	}
	return device.DetectAndOpen(0)
}

// Run implements Runnable.
func (c *Controller) Run(ctx context.Context) error {
	retry := time.After(0)
	var eventCh <-chan device.Event
	var dev device.Device
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
			retry = nil
			js, err := c.open()
			switch {
			case err != nil:
				glog.Warningf("open joystick: %v", err)
			case js == nil:
				glog.V(2).Info("no joystick detected")
			default:
				glog.Infof("joystick %d %q opened, %d axes, %d buttons",
					js.Index(), js.Name(), js.AxisCount(), js.ButtonCount())
				dev = js
				eventCh = c.poll(ctx, js)
				continue
			}
			retry = time.After(RetryInterval)
		case ev, ok := <-eventCh:
			if !ok {
				glog.Warning("joystick lost, stopping")
				if err := c.Teleop.Stop(); err != nil {
					glog.Warningf("stop: %v", err)
				}
				dev.Close()
				dev, eventCh = nil, nil
				retry = time.After(RetryInterval)
				continue
			}
			if c.Verbose {
				logEvent(ev)
			}
			if err := c.Teleop.HandleEvent(ev); err != nil {
				glog.Warningf("teleop: %v", err)
			}
		}
	}
}

func (c *Controller) poll(ctx context.Context, dev device.Device) <-chan device.Event {
	ch := make(chan device.Event, 1)
	go func() {
		defer close(ch)
		for {
			ev, err := dev.ReadEvent()
			if err != nil {
				glog.V(2).Infof("joystick read: %v", err)
				return
			}
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func logEvent(ev device.Event) {
	var prefix string
	if ev.IsInit() {
		prefix = "[INIT] "
	}
	switch e := ev.(type) {
	case device.AxisEvent:
		glog.Infof("%saxis %d: %d", prefix, e.Index(), e.Value())
	case device.ButtonEvent:
		glog.Infof("%sbutton %d: %v", prefix, e.Index(), e.Pressed())
	}
}
