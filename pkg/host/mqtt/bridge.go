package mqtt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/drive.go/pkg/protocol"
)

// Command topics below <id>/cmd/.
const (
	CmdMotor = "motor"
	CmdSteer = "steer"
	CmdStop  = "stop"
)

// Commander drives the vehicle, implemented by host.Client.
type Commander interface {
	SetMotor(mmps int16) error
	SetSteering(deg int8) error
	EmergencyStop() error
}

// Bridge publishes telemetry to <prefix><id>/telemetry and applies
// commands received on <prefix><id>/cmd/{motor,steer,stop}.
type Bridge struct {
	Queue     *Queue
	ID        string
	Codec     Codec
	Commander Commander

	published uint64
	failed    uint64
	sub       *Subscription
}

// NewBridge creates a Bridge.
func NewBridge(q *Queue, id string, codec Codec, cmd Commander) *Bridge {
	return &Bridge{Queue: q, ID: id, Codec: codec, Commander: cmd}
}

// TelemetryTopic is the topic telemetry is published to, without prefix.
func (b *Bridge) TelemetryTopic() string {
	return b.ID + "/telemetry"
}

// CommandTopic returns the topic of a command, without prefix.
func (b *Bridge) CommandTopic(cmd string) string {
	return b.ID + "/cmd/" + cmd
}

// Published returns the number of telemetry messages published.
func (b *Bridge) Published() uint64 {
	return atomic.LoadUint64(&b.published)
}

// HandleTelemetry implements host.TelemetryHandler.
func (b *Bridge) HandleTelemetry(t *protocol.Telemetry) {
	data, err := b.Codec.Encode(t)
	if err != nil {
		if atomic.AddUint64(&b.failed, 1) == 1 {
			glog.Warningf("telemetry encode: %v", err)
		}
		return
	}
	b.Queue.Pub(b.TelemetryTopic(), data)
	atomic.AddUint64(&b.published, 1)
}

// Subscribe registers the command handlers.
func (b *Bridge) Subscribe() *Subscription {
	b.sub = b.Queue.Sub(b.CommandTopic("+"), b.handleCommand)
	return b.sub
}

func (b *Bridge) handleCommand(topic string, payload []byte) {
	if err := b.Apply(topic[strings.LastIndex(topic, "/")+1:], payload); err != nil {
		glog.Warningf("command %s: %v", topic, err)
	}
}

// Apply executes one command. Values are decimal text.
func (b *Bridge) Apply(cmd string, payload []byte) error {
	text := strings.TrimSpace(string(payload))
	switch cmd {
	case CmdMotor:
		v, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return fmt.Errorf("invalid velocity %q: %v", text, err)
		}
		return b.Commander.SetMotor(int16(v))
	case CmdSteer:
		v, err := strconv.ParseInt(text, 10, 8)
		if err != nil {
			return fmt.Errorf("invalid angle %q: %v", text, err)
		}
		return b.Commander.SetSteering(int8(v))
	case CmdStop:
		return b.Commander.EmergencyStop()
	}
	return fmt.Errorf("unknown command %q", cmd)
}

// Run connects the queue and serves commands until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if token := b.Queue.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect error: %v", token.Error())
	}
	sub := b.Subscribe()
	glog.Infof("bridge %s: publishing %s as %s", b.ID, b.Queue.TopicPrefix+b.TelemetryTopic(), b.Codec.Name())
	<-ctx.Done()
	sub.Close()
	b.Queue.Close()
	return ctx.Err()
}
