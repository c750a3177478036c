package grpc

import (
	"encoding/json"
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// CodecName is the content subtype clients select with
// grpc.CallContentSubtype to talk to CrewRiskService.
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec carries the service's plain Go messages as JSON. Generated proto
// messages, such as the health service's, use their canonical JSON mapping so
// a client can stay on one content subtype.
type jsonCodec struct{}

var protoUnmarshal = protojson.UnmarshalOptions{DiscardUnknown: true}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if m, ok := v.(proto.Message); ok {
		data, err = protojson.Marshal(m)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("json codec: marshal %T: %w", v, err)
	}
	return data, nil
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	var err error
	if m, ok := v.(proto.Message); ok {
		err = protoUnmarshal.Unmarshal(data, m)
	} else {
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return fmt.Errorf("json codec: unmarshal %T: %w", v, err)
	}
	return nil
}

func (jsonCodec) Name() string { return CodecName }
