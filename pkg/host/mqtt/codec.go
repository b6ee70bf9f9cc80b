package mqtt

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/drive.go/pkg/protocol"
)

// Codec encodes telemetry for publishing.
type Codec interface {
	Name() string
	Encode(*protocol.Telemetry) ([]byte, error)
	Decode([]byte) (*protocol.Telemetry, error)
}

// Codecs are the available telemetry encodings by name.
var Codecs = map[string]Codec{
	"json":  jsonCodec{},
	"proto": protoCodec{},
	"cbor":  cborCodec{},
}

// CodecNames returns the sorted codec names.
func CodecNames() []string {
	names := make([]string, 0, len(Codecs))
	for name := range Codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CodecByName looks up a codec.
func CodecByName(name string) (Codec, error) {
	if c, ok := Codecs[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown codec %q, available: %v", name, CodecNames())
}

func numbers(vals ...float32) *structpb.Value {
	list := &structpb.ListValue{}
	for _, v := range vals {
		list.Values = append(list.Values, &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: float64(v)}})
	}
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: list}}
}

func number(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

// TelemetryStruct converts telemetry into a protobuf Struct.
func TelemetryStruct(t *protocol.Telemetry) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"timestamp": number(float64(t.Timestamp)),
		"accel":     numbers(t.Accel[:]...),
		"gyro":      numbers(t.Gyro[:]...),
		"speed":     number(float64(t.Speed)),
	}}
}

// TelemetryFromStruct is the reverse of TelemetryStruct.
func TelemetryFromStruct(s *structpb.Struct) (*protocol.Telemetry, error) {
	t := &protocol.Telemetry{}
	num := func(name string) (float64, error) {
		v, ok := s.GetFields()[name]
		if !ok {
			return 0, fmt.Errorf("missing field %q", name)
		}
		return v.GetNumberValue(), nil
	}
	vec := func(name string, out []float32) error {
		v, ok := s.GetFields()[name]
		if !ok {
			return fmt.Errorf("missing field %q", name)
		}
		vals := v.GetListValue().GetValues()
		if len(vals) != len(out) {
			return fmt.Errorf("field %q has %d values", name, len(vals))
		}
		for i, val := range vals {
			out[i] = float32(val.GetNumberValue())
		}
		return nil
	}
	ts, err := num("timestamp")
	if err != nil {
		return nil, err
	}
	t.Timestamp = uint32(ts)
	speed, err := num("speed")
	if err != nil {
		return nil, err
	}
	t.Speed = float32(speed)
	if err := vec("accel", t.Accel[:]); err != nil {
		return nil, err
	}
	if err := vec("gyro", t.Gyro[:]); err != nil {
		return nil, err
	}
	return t, nil
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Encode(t *protocol.Telemetry) ([]byte, error) {
	var buf bytes.Buffer
	if err := (&jsonpb.Marshaler{}).Marshal(&buf, TelemetryStruct(t)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (jsonCodec) Decode(data []byte) (*protocol.Telemetry, error) {
	var s structpb.Struct
	if err := jsonpb.Unmarshal(bytes.NewReader(data), &s); err != nil {
		return nil, err
	}
	return TelemetryFromStruct(&s)
}

type protoCodec struct{}

func (protoCodec) Name() string { return "proto" }

func (protoCodec) Encode(t *protocol.Telemetry) ([]byte, error) {
	return proto.Marshal(TelemetryStruct(t))
}

func (protoCodec) Decode(data []byte) (*protocol.Telemetry, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return TelemetryFromStruct(&s)
}

type cborCodec struct{}

func (cborCodec) Name() string { return "cbor" }

func (cborCodec) Encode(t *protocol.Telemetry) ([]byte, error) {
	return cbor.Marshal(t)
}

func (cborCodec) Decode(data []byte) (*protocol.Telemetry, error) {
	t := &protocol.Telemetry{}
	if err := cbor.Unmarshal(data, t); err != nil {
		return nil, err
	}
	return t, nil
}
