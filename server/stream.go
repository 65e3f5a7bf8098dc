package server

import (
	"fmt"
	"io"

	"github.com/fullstorydev/grpcweb/descriptor"
	"github.com/fullstorydev/grpcweb/frame"
	"github.com/fullstorydev/grpcweb/negotiate"
	"google.golang.org/grpc/codes"
)

// MessageIterator is the lazy, single-consumer sequence of response
// messages a server-streaming handler returns. Next yields the next
// message, or io.EOF to signal that the sequence completed normally.
// Any other non-nil error terminates the sequence with a failure that is
// reported in the trailer frame, never as a Go error surfaced elsewhere.
type MessageIterator interface {
	Next() (descriptor.Message, error)
}

// FrameSource drains a MessageIterator into the wire frame sequence: one
// payload frame per message, in order, followed by exactly one trailer
// frame. It guarantees the trailer is produced on every terminal path,
// including an iterator that is empty on its first call and one that
// fails on its first call.
//
// mode governs how each payload message is serialized. It reflects the
// negotiated response content type (the Accept header, when specified),
// not necessarily the request's own Content-Type.
//
// observer and fullMethod are used only to report an unexpected
// (non-*Status) failure out of the underlying iterator, per section 7; both
// may be left at their zero value only when the source is never expected to
// fail with anything but io.EOF or a *Status.
type FrameSource struct {
	iter        MessageIterator
	mode        negotiate.Mode
	observer    ErrorObserver
	fullMethod  string
	trailerSent bool
}

// Next returns the next frame to deliver. ok is false once the sequence
// is exhausted; the caller must stop requesting frames at that point.
// Every call after the one that returned the trailer frame returns ok ==
// false without touching the underlying iterator.
func (fs *FrameSource) Next() (f frame.Frame, ok bool) {
	if fs.trailerSent {
		return frame.Frame{}, false
	}

	msg, err := fs.iter.Next()
	if err == io.EOF {
		fs.trailerSent = true
		return frame.Frame{Tag: frame.TagTrailer, Body: frame.EncodeTrailer(codes.OK, "OK", nil)}, true
	}
	if err != nil {
		fs.trailerSent = true
		observeUnexpected(fs.observer, err, fs.fullMethod)
		code, message, md := asTrailer(err)
		return frame.Frame{Tag: frame.TagTrailer, Body: frame.EncodeTrailer(code, message, md)}, true
	}

	payload, err := serializeOutput(msg, fs.mode)
	if err != nil {
		fs.trailerSent = true
		code, message, md := asTrailer(err)
		return frame.Frame{Tag: frame.TagTrailer, Body: frame.EncodeTrailer(code, message, md)}, true
	}
	return frame.Frame{Tag: frame.TagPayload, Body: payload}, true
}

// ProcessStream drives the streaming path up to the point of producing a
// FrameSource: deframe and deserialize the request body, invoke the
// resolved handler, and obtain its MessageIterator. requestMode and
// responseMode split the same way as in ProcessUnary: requestMode governs
// decoding the request body, responseMode governs how the FrameSource
// serializes each response payload. A non-nil error return is a
// *ParseError from decoding the request, which the transport maps to HTTP
// 422. Any failure to invoke the handler or to obtain a well-formed
// iterator from it is instead folded into the FrameSource's first (and
// only) frame, an error trailer, matching the unary processor's handling
// of handler failures; observer and fullMethod travel with the resulting
// FrameSource so that an unexpected failure discovered on the first (or a
// later) call to Next is still reported, exactly as ProcessUnary reports
// one discovered immediately.
func ProcessStream(method *descriptor.Method, requestMode, responseMode negotiate.Mode, body []byte, call *Call, observer ErrorObserver, fullMethod string) (*FrameSource, error) {
	input, err := decodeInput(body, method, requestMode)
	if err != nil {
		return nil, err
	}

	handler := descriptor.ResolveHandler(method)
	result, callErr := invoke(handler, input, call)
	if callErr != nil {
		return &FrameSource{iter: failingIterator{err: callErr}, mode: responseMode, observer: observer, fullMethod: fullMethod}, nil
	}

	iter, ok := result.(MessageIterator)
	if !ok {
		badResult := fmt.Errorf("server: handler returned %T, want server.MessageIterator", result)
		return &FrameSource{iter: failingIterator{err: badResult}, mode: responseMode, observer: observer, fullMethod: fullMethod}, nil
	}
	return &FrameSource{iter: iter, mode: responseMode, observer: observer, fullMethod: fullMethod}, nil
}

// failingIterator is a MessageIterator that immediately fails, used to
// route a handler-invocation failure through the same trailer-encoding
// path as a mid-stream failure.
type failingIterator struct {
	err error
}

func (f failingIterator) Next() (descriptor.Message, error) {
	return nil, f.err
}
