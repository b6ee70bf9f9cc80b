package protocol

import (
	"encoding/binary"
	"math"
)

// Telemetry frame layout.
const (
	SyncByte0           byte = 0xAA
	SyncByte1           byte = 0x55
	TelemetryType       byte = 0x01
	TelemetryPayloadLen      = 32
	TelemetryFrameLen        = 4 + TelemetryPayloadLen + 1
)

// Telemetry is one inertial and speed sample.
type Telemetry struct {
	// Timestamp is milliseconds since boot.
	Timestamp uint32     `json:"timestamp" yaml:"timestamp" cbor:"timestamp"`
	Accel     [3]float32 `json:"accel" yaml:"accel" cbor:"accel"`
	Gyro      [3]float32 `json:"gyro" yaml:"gyro" cbor:"gyro"`
	// Speed is in m/s, negative while reversing.
	Speed float32 `json:"speed" yaml:"speed" cbor:"speed"`
}

// AppendBinary appends the encoded frame to b.
func (t *Telemetry) AppendBinary(b []byte) []byte {
	start := len(b)
	b = append(b, SyncByte0, SyncByte1, TelemetryType, TelemetryPayloadLen)
	b = binary.LittleEndian.AppendUint32(b, t.Timestamp)
	for _, v := range t.Accel {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	for _, v := range t.Gyro {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(v))
	}
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(t.Speed))
	return append(b, CRC8(b[start:]))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Telemetry) MarshalBinary() ([]byte, error) {
	return t.AppendBinary(make([]byte, 0, TelemetryFrameLen)), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (t *Telemetry) UnmarshalBinary(b []byte) error {
	if len(b) < TelemetryFrameLen {
		return ErrShortFrame
	}
	b = b[:TelemetryFrameLen]
	if b[0] != SyncByte0 || b[1] != SyncByte1 {
		return ErrBadSync
	}
	if b[2] != TelemetryType {
		return &FrameError{Field: "type", Value: b[2]}
	}
	if b[3] != TelemetryPayloadLen {
		return &FrameError{Field: "length", Value: b[3]}
	}
	if CRC8(b[:TelemetryFrameLen-1]) != b[TelemetryFrameLen-1] {
		return ErrBadCRC
	}
	p := b[4:]
	f32 := func() float32 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(p))
		p = p[4:]
		return v
	}
	t.Timestamp = binary.LittleEndian.Uint32(p)
	p = p[4:]
	for i := range t.Accel {
		t.Accel[i] = f32()
	}
	for i := range t.Gyro {
		t.Gyro[i] = f32()
	}
	t.Speed = f32()
	return nil
}
