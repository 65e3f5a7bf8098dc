// Package grpcwebtesting is a small fixture service used to exercise the
// server and client packages against real protobuf messages instead of
// hand-rolled test doubles. Its one message type carries just enough
// structure (a payload string plus an optional failure code and message)
// to drive every case the transport pipeline needs to handle.
package grpcwebtesting

import (
	"fmt"
	"io"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fullstorydev/grpcweb/descriptor"
	"github.com/fullstorydev/grpcweb/server"
)

// NewMessage builds an empty fixture message. It satisfies
// descriptor.NewMessageFunc.
func NewMessage() descriptor.Message {
	return descriptor.ProtoMessage{Message: &structpb.Struct{Fields: map[string]*structpb.Value{}}}
}

// Message is a convenience view over the fixture message's fields.
type Message struct {
	Payload string
	Code    int32
	Reason  string
}

// Build renders m as a descriptor.Message ready to send or return from a
// handler.
func (m Message) Build() descriptor.Message {
	st, _ := structpb.NewStruct(map[string]interface{}{
		"payload": m.Payload,
		"code":    float64(m.Code),
		"reason":  m.Reason,
	})
	return descriptor.ProtoMessage{Message: st}
}

// Parse extracts a Message view out of a descriptor.Message produced by
// NewMessage or Build.
func Parse(msg descriptor.Message) (Message, error) {
	pm, ok := msg.(descriptor.ProtoMessage)
	if !ok {
		return Message{}, fmt.Errorf("grpcwebtesting: %T is not a descriptor.ProtoMessage", msg)
	}
	st, ok := pm.Message.(*structpb.Struct)
	if !ok {
		return Message{}, fmt.Errorf("grpcwebtesting: %T is not a *structpb.Struct", pm.Message)
	}
	fields := st.GetFields()
	return Message{
		Payload: fields["payload"].GetStringValue(),
		Code:    int32(fields["code"].GetNumberValue()),
		Reason:  fields["reason"].GetStringValue(),
	}, nil
}

// NewService builds the fixture service descriptor: a unary Echo method and
// a server-streaming Expand method, both driven by the request's code field
// to trigger success or a specific failure status.
func NewService() *descriptor.Service {
	return &descriptor.Service{
		Name: "grpcwebtesting.Fixture",
		Methods: []descriptor.Method{
			{
				Name:      "Echo",
				NewInput:  NewMessage,
				NewOutput: NewMessage,
				Handler:   echoHandler,
			},
			{
				Name:            "Expand",
				NewInput:        NewMessage,
				NewOutput:       NewMessage,
				ServerStreaming: true,
				Handler:         expandHandler,
			},
		},
	}
}

func echoHandler(req descriptor.Message, call *server.Call) (interface{}, error) {
	in, err := Parse(req)
	if err != nil {
		return nil, err
	}
	if in.Code != 0 {
		return nil, server.NewStatus(codes.Code(in.Code), in.Reason, nil)
	}
	return Message{Payload: in.Payload}.Build(), nil
}

func expandHandler(req descriptor.Message) (interface{}, error) {
	in, err := Parse(req)
	if err != nil {
		return nil, err
	}
	words := strings.Fields(in.Payload)
	return &wordIterator{words: words, code: in.Code, reason: in.Reason}, nil
}

// wordIterator emits one message per word of the request payload, then
// fails with the request's code/reason if one was given, or completes
// normally otherwise.
type wordIterator struct {
	words  []string
	code   int32
	reason string
	pos    int
}

func (it *wordIterator) Next() (descriptor.Message, error) {
	if it.pos >= len(it.words) {
		if it.code != 0 {
			return nil, server.NewStatus(codes.Code(it.code), it.reason, nil)
		}
		return nil, io.EOF
	}
	word := it.words[it.pos]
	it.pos++
	return Message{Payload: word}.Build(), nil
}

var _ server.MessageIterator = (*wordIterator)(nil)
