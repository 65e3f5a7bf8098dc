package descriptor

import (
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestProtoMessageBinaryRoundTrip(t *testing.T) {
	src := ProtoMessage{Message: wrapperspb.String("hello")}
	b, err := src.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	dst := ProtoMessage{Message: &wrapperspb.StringValue{}}
	if err := dst.Unmarshal(b); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	got := dst.Message.(*wrapperspb.StringValue).GetValue()
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestProtoMessageJSONRoundTrip(t *testing.T) {
	src := ProtoMessage{Message: wrapperspb.String("hello")}
	b, err := src.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON error: %v", err)
	}
	dst := ProtoMessage{Message: &wrapperspb.StringValue{}}
	if err := dst.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON error: %v", err)
	}
	got := dst.Message.(*wrapperspb.StringValue).GetValue()
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}
