package host

import (
	"github.com/robotalks/drive.go/pkg/protocol"
)

// TelemetryHandler receives decoded telemetry frames.
type TelemetryHandler interface {
	HandleTelemetry(*protocol.Telemetry)
}

// TelemetryHandlerFunc is the func form of TelemetryHandler.
type TelemetryHandlerFunc func(*protocol.Telemetry)

// HandleTelemetry implements TelemetryHandler.
func (f TelemetryHandlerFunc) HandleTelemetry(t *protocol.Telemetry) {
	f(t)
}

// FrameHandler receives register frames from the device which are not
// consumed by a pending read.
type FrameHandler interface {
	HandleFrame(protocol.Frame)
}

// FrameHandlerFunc is the func form of FrameHandler.
type FrameHandlerFunc func(protocol.Frame)

// HandleFrame implements FrameHandler.
func (f FrameHandlerFunc) HandleFrame(frame protocol.Frame) {
	f(frame)
}
