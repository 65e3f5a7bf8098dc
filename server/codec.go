package server

import (
	"fmt"

	"github.com/fullstorydev/grpcweb/descriptor"
	"github.com/fullstorydev/grpcweb/frame"
	"github.com/fullstorydev/grpcweb/negotiate"
)

// ParseError reports a malformed inbound frame, base64 blob, or
// proto/JSON payload. The transport maps it to HTTP 422.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("server: parse error: %s", e.Reason)
}

// decodeInput deframes body, locates its single payload frame, and
// unmarshals it into a fresh instance of the method's input type.
func decodeInput(body []byte, method *descriptor.Method, mode negotiate.Mode) (descriptor.Message, error) {
	frames, err := frame.Unpack(body)
	if err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}
	var payload []byte
	found := false
	for _, f := range frames {
		if !f.Tag.IsTrailer() {
			payload = f.Body
			found = true
			break
		}
	}
	if !found {
		return nil, &ParseError{Reason: "request body has no payload frame"}
	}
	msg := method.NewInput()
	if negotiate.IsJSON(mode) {
		if err := msg.UnmarshalJSON(payload); err != nil {
			return nil, &ParseError{Reason: err.Error()}
		}
	} else if err := msg.Unmarshal(payload); err != nil {
		return nil, &ParseError{Reason: err.Error()}
	}
	return msg, nil
}

// serializeOutput marshals msg per mode into a payload frame body.
func serializeOutput(msg descriptor.Message, mode negotiate.Mode) ([]byte, error) {
	if negotiate.IsJSON(mode) {
		return msg.MarshalJSON()
	}
	return msg.Marshal()
}

// asOutputMessage type-asserts a handler's returned value into the
// descriptor.Message it must be for a unary or per-item streaming result.
func asOutputMessage(v interface{}) (descriptor.Message, error) {
	msg, ok := v.(descriptor.Message)
	if !ok {
		return nil, fmt.Errorf("server: handler returned %T, want descriptor.Message", v)
	}
	return msg, nil
}
