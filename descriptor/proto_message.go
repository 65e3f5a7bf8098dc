package descriptor

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ProtoMessage adapts a google.golang.org/protobuf message into the
// Message contract used throughout this module, so method descriptors can
// be built directly from generated protobuf types.
type ProtoMessage struct {
	proto.Message
}

// Marshal serializes the wrapped message using the standard protobuf wire
// format.
func (m ProtoMessage) Marshal() ([]byte, error) {
	return proto.Marshal(m.Message)
}

// Unmarshal populates the wrapped message from protobuf wire bytes.
func (m ProtoMessage) Unmarshal(b []byte) error {
	return proto.Unmarshal(b, m.Message)
}

// MarshalJSON serializes the wrapped message using the canonical protobuf
// JSON mapping.
func (m ProtoMessage) MarshalJSON() ([]byte, error) {
	return protojson.Marshal(m.Message)
}

// UnmarshalJSON populates the wrapped message from its canonical protobuf
// JSON mapping. Unrecognized fields are rejected.
func (m ProtoMessage) UnmarshalJSON(b []byte) error {
	return protojson.Unmarshal(b, m.Message)
}

var _ Message = ProtoMessage{}
