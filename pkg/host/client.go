package host

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/framework"
	"github.com/robotalks/drive.go/pkg/protocol"
)

// DefaultHeartbeatPeriod keeps the device failsafe from tripping.
const DefaultHeartbeatPeriod = 100 * time.Millisecond

// Result is the result of a register read.
type Result struct {
	Err    error
	Values []int16
}

// Read is a pending register read waiting for its reply frames.
type Read struct {
	addr     byte
	count    int
	values   []int16
	resultCh chan Result
	next     *Read
}

// ResultChan returns the chan to retrieve the result.
func (r *Read) ResultChan() <-chan Result {
	return r.resultCh
}

func (r *Read) expected() byte {
	return (r.addr + byte(len(r.values))) & protocol.AddrMask
}

// Stats counts client traffic.
type Stats struct {
	FramesSent   uint64
	FramesRecv   uint64
	Telemetry    uint64
	SkippedBytes int
}

// Client is the host side of the command link.
type Client struct {
	Conn            io.ReadWriter
	Telemetry       TelemetryHandler
	Frames          FrameHandler
	HeartbeatPeriod time.Duration

	writeLock sync.Mutex
	decoder   protocol.StreamDecoder

	lock      sync.Mutex
	motor     int16
	steering  int16
	heartbeat bool
	latest    *protocol.Telemetry
	stats     Stats
	readsHead *Read
	readsTail *Read
}

// NewClient creates a Client over conn.
func NewClient(conn io.ReadWriter) *Client {
	return &Client{Conn: conn, HeartbeatPeriod: DefaultHeartbeatPeriod}
}

// Send writes one frame to the device.
func (c *Client) Send(f protocol.Frame) error {
	if c.Conn == nil {
		return ErrNotConnected
	}
	c.writeLock.Lock()
	defer c.writeLock.Unlock()
	if _, err := c.Conn.Write(f[:]); err != nil {
		return err
	}
	c.lock.Lock()
	c.stats.FramesSent++
	c.lock.Unlock()
	glog.V(2).Infof("tx %s % X", f, f[:])
	return nil
}

// WriteRegister writes v to addr.
func (c *Client) WriteRegister(addr byte, v int16) error {
	switch addr & protocol.AddrMask {
	case protocol.RegMotor:
		return c.SetMotor(v)
	case protocol.RegServo:
		return c.SetSteering(int8(v))
	}
	return c.Send(protocol.NewWriteFrame(addr, v))
}

// SetMotor commands a velocity in mm/s and turns the heartbeat on.
func (c *Client) SetMotor(mmps int16) error {
	c.lock.Lock()
	c.motor, c.heartbeat = mmps, true
	c.lock.Unlock()
	return c.Send(protocol.NewWriteFrame(protocol.RegMotor, mmps))
}

// SetSteering commands a steering angle in degrees and turns the
// heartbeat on.
func (c *Client) SetSteering(deg int8) error {
	c.lock.Lock()
	c.steering, c.heartbeat = int16(deg), true
	c.lock.Unlock()
	return c.Send(protocol.NewWriteFrame(protocol.RegServo, int16(deg)))
}

// EmergencyStop zeroes motor and steering. The heartbeat stays on so the
// device keeps receiving the stop command.
func (c *Client) EmergencyStop() error {
	c.lock.Lock()
	c.motor, c.steering, c.heartbeat = 0, 0, true
	c.lock.Unlock()
	if err := c.Send(protocol.NewWriteFrame(protocol.RegMotor, 0)); err != nil {
		return err
	}
	return c.Send(protocol.NewWriteFrame(protocol.RegServo, 0))
}

// Commanded returns the last motor and steering values sent.
func (c *Client) Commanded() (motor int16, steering int8) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.motor, int8(c.steering)
}

// EnableHeartbeat turns periodic re-sending on or off.
func (c *Client) EnableHeartbeat(on bool) {
	c.lock.Lock()
	c.heartbeat = on
	c.lock.Unlock()
}

// HeartbeatEnabled reports whether the heartbeat is on.
func (c *Client) HeartbeatEnabled() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.heartbeat
}

// Beat re-sends the last motor and steering commands if the heartbeat is
// on.
func (c *Client) Beat() error {
	c.lock.Lock()
	on, motor, steering := c.heartbeat, c.motor, c.steering
	c.lock.Unlock()
	if !on {
		return nil
	}
	if err := c.Send(protocol.NewWriteFrame(protocol.RegMotor, motor)); err != nil {
		return err
	}
	return c.Send(protocol.NewWriteFrame(protocol.RegServo, steering))
}

// Heartbeat returns a Runnable calling Beat every HeartbeatPeriod.
func (c *Client) Heartbeat() framework.Runnable {
	return framework.RunFunc(func(ctx context.Context) error {
		period := c.HeartbeatPeriod
		if period <= 0 {
			period = DefaultHeartbeatPeriod
		}
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := c.Beat(); err != nil {
					return err
				}
			}
		}
	})
}

// ReadAsync sends a read burst and returns the pending Read.
func (c *Client) ReadAsync(addr byte, count byte) *Read {
	r := &Read{
		addr:     addr & protocol.AddrMask,
		count:    int(count),
		resultCh: make(chan Result, 1),
	}
	if count == 0 {
		r.resultCh <- Result{}
		return r
	}
	c.lock.Lock()
	if c.readsHead == nil {
		c.readsHead = r
	} else {
		c.readsTail.next = r
	}
	c.readsTail = r
	c.lock.Unlock()
	if err := c.Send(protocol.NewReadFrame(addr, count, 0)); err != nil {
		c.cancelRead(r)
		r.resultCh <- Result{Err: err}
	}
	return r
}

// ReadRegisters reads count registers from addr. Reply frames are matched
// to pending reads in the order the reads were sent.
func (c *Client) ReadRegisters(ctx context.Context, addr byte, count byte) ([]int16, error) {
	r := c.ReadAsync(addr, count)
	select {
	case res := <-r.resultCh:
		return res.Values, res.Err
	case <-ctx.Done():
		c.cancelRead(r)
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

func (c *Client) cancelRead(r *Read) {
	c.lock.Lock()
	defer c.lock.Unlock()
	var prev *Read
	for curr := c.readsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != r {
			continue
		}
		if prev == nil {
			c.readsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if c.readsTail == curr {
			c.readsTail = prev
		}
		curr.next = nil
		return
	}
}

// Latest returns the most recent telemetry, nil before the first one.
func (c *Client) Latest() *protocol.Telemetry {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.latest
}

// Stats returns traffic counters.
func (c *Client) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.stats
}

// Feed decodes p and dispatches the messages. Run calls it with every
// chunk read from Conn.
func (c *Client) Feed(p []byte) {
	c.decoder.Write(p)
	for {
		msg, ok := c.decoder.Next()
		if !ok {
			break
		}
		switch {
		case msg.Telemetry != nil:
			c.handleTelemetry(msg.Telemetry)
		case msg.Frame != nil:
			c.handleFrame(*msg.Frame)
		}
	}
	c.lock.Lock()
	if skipped := c.decoder.Skipped(); skipped != c.stats.SkippedBytes {
		glog.Warningf("decoder resync, %d bytes skipped", skipped-c.stats.SkippedBytes)
		c.stats.SkippedBytes = skipped
	}
	c.lock.Unlock()
}

func (c *Client) handleTelemetry(t *protocol.Telemetry) {
	c.lock.Lock()
	c.latest = t
	c.stats.Telemetry++
	c.lock.Unlock()
	if c.Telemetry != nil {
		c.Telemetry.HandleTelemetry(t)
	}
}

func (c *Client) handleFrame(f protocol.Frame) {
	glog.V(2).Infof("rx %s", f)
	c.lock.Lock()
	c.stats.FramesRecv++
	var done, failed []*Read
	consumed := false
	for r := c.readsHead; r != nil && !consumed; r = c.readsHead {
		if f.Header().Addr() != r.expected() {
			// The device answers in order, a mismatch means r lost frames.
			c.readsHead = r.next
			r.next = nil
			failed = append(failed, r)
			continue
		}
		r.values = append(r.values, f.Value())
		consumed = true
		if len(r.values) == r.count {
			c.readsHead = r.next
			r.next = nil
			done = append(done, r)
		}
	}
	if c.readsHead == nil {
		c.readsTail = nil
	}
	c.lock.Unlock()

	for _, r := range failed {
		r.resultCh <- Result{Err: ErrNoReply}
	}
	for _, r := range done {
		r.resultCh <- Result{Values: r.values}
	}
	if !consumed && c.Frames != nil {
		c.Frames.HandleFrame(f)
	}
}

// Run reads Conn and dispatches decoded messages until the link fails or
// ctx is done.
func (c *Client) Run(ctx context.Context) error {
	if c.Conn == nil {
		return ErrNotConnected
	}
	pump := func() error {
		buf := make([]byte, 256)
		for {
			n, err := c.Conn.Read(buf)
			if n > 0 {
				c.Feed(buf[:n])
			}
			if err != nil {
				return err
			}
		}
	}
	if closer, ok := c.Conn.(io.Closer); ok {
		return framework.RunWithContextCloser(ctx, closer, pump)
	}
	return framework.RunWithContextCancel(ctx, nil, pump)
}
