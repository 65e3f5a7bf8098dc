package server

import (
	"encoding/json"
	"io"

	"github.com/fullstorydev/grpcweb/descriptor"
)

// echoMessage is a minimal descriptor.Message used only to exercise the
// processors without depending on real protobuf types.
type echoMessage struct {
	Value string `json:"value"`
}

func (m *echoMessage) Marshal() ([]byte, error) {
	return []byte(m.Value), nil
}

func (m *echoMessage) Unmarshal(b []byte) error {
	m.Value = string(b)
	return nil
}

func (m *echoMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(*m)
}

func (m *echoMessage) UnmarshalJSON(b []byte) error {
	type alias echoMessage
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*m = echoMessage(a)
	return nil
}

var _ descriptor.Message = (*echoMessage)(nil)

func newEcho() descriptor.Message { return &echoMessage{} }

// sliceIterator adapts a fixed slice of messages into a MessageIterator
// that completes normally once exhausted.
type sliceIterator struct {
	items []descriptor.Message
	pos   int
}

func (it *sliceIterator) Next() (descriptor.Message, error) {
	if it.pos >= len(it.items) {
		return nil, io.EOF
	}
	m := it.items[it.pos]
	it.pos++
	return m, nil
}

// failAfterIterator yields the given messages then fails with err instead
// of completing normally, modeling a mid-stream failure.
type failAfterIterator struct {
	items []descriptor.Message
	err   error
	pos   int
}

func (it *failAfterIterator) Next() (descriptor.Message, error) {
	if it.pos >= len(it.items) {
		return nil, it.err
	}
	m := it.items[it.pos]
	it.pos++
	return m, nil
}

// statusErrHandler builds a unary-shaped handler that always fails with
// the given Status.
func statusErrHandler(st *Status) func(descriptor.Message) (interface{}, error) {
	return func(descriptor.Message) (interface{}, error) {
		return nil, st
	}
}

// plainError is used to exercise the "any other failure" branch, where a
// handler's error is not a *Status.
type plainError struct{ msg string }

func (e *plainError) Error() string { return e.msg }
