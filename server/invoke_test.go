package server

import (
	"errors"
	"testing"

	"github.com/fullstorydev/grpcweb/descriptor"
)

func TestInvokeRequestOnlyHandler(t *testing.T) {
	req := &echoMessage{Value: "hi"}
	handler := func(m descriptor.Message) (interface{}, error) {
		return &echoMessage{Value: m.(*echoMessage).Value + "!"}, nil
	}
	out, err := invoke(handler, req, &Call{})
	if err != nil {
		t.Fatalf("invoke error: %v", err)
	}
	if got := out.(*echoMessage).Value; got != "hi!" {
		t.Errorf("got %q, want hi!", got)
	}
}

func TestInvokeWithCallHandler(t *testing.T) {
	req := &echoMessage{Value: "hi"}
	call := &Call{Method: "Get"}
	var seen *Call
	handler := func(m descriptor.Message, c *Call) (interface{}, error) {
		seen = c
		return m, nil
	}
	if _, err := invoke(handler, req, call); err != nil {
		t.Fatalf("invoke error: %v", err)
	}
	if seen != call {
		t.Errorf("handler did not receive the Call passed to invoke")
	}
}

func TestInvokePropagatesHandlerError(t *testing.T) {
	wantErr := errors.New("boom")
	handler := func(descriptor.Message) (interface{}, error) {
		return nil, wantErr
	}
	_, err := invoke(handler, &echoMessage{}, &Call{})
	if err != wantErr {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
}

func TestInvokeUnsupportedSignature(t *testing.T) {
	handler := func(int) string { return "" }
	_, err := invoke(handler, &echoMessage{}, &Call{})
	if err == nil {
		t.Fatal("expected error for unsupported handler signature")
	}
}

func TestInvokeNonFunctionHandler(t *testing.T) {
	_, err := invoke("not a function", &echoMessage{}, &Call{})
	if err == nil {
		t.Fatal("expected error for non-function handler")
	}
}
