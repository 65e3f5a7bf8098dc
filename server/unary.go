package server

import (
	"github.com/fullstorydev/grpcweb/descriptor"
	"github.com/fullstorydev/grpcweb/frame"
	"github.com/fullstorydev/grpcweb/negotiate"
	"google.golang.org/grpc/codes"
)

// ProcessUnary drives the unary path: deframe and deserialize the request
// body, invoke the resolved handler, and serialize the result into a
// framed response body of exactly two frames on success (payload, then
// trailer) or one frame on handler failure (trailer only).
//
// requestMode governs how the request body is deserialized (it reflects
// the request's Content-Type); responseMode governs how the response
// payload is serialized (it reflects the negotiated Accept, which may
// name a different content type than Content-Type).
//
// The returned []byte is the response body, already framed but not yet
// text-transformed; the caller (the transport) applies C2 using
// responseMode and writes it to the wire. A non-nil error return is a
// *ParseError from decoding, which the transport maps to HTTP 422; it is
// distinct from a handler failure, which is folded into the trailer frame
// and never surfaces as a Go error here. observer and fullMethod are used
// only to report an unexpected (non-*Status) handler failure, per section
// 7; a handler that returns a *Status is exercising ordinary, deliberate
// control flow and is never reported to observer.
func ProcessUnary(method *descriptor.Method, requestMode, responseMode negotiate.Mode, body []byte, call *Call, observer ErrorObserver, fullMethod string) ([]byte, error) {
	input, err := decodeInput(body, method, requestMode)
	if err != nil {
		return nil, err
	}

	handler := descriptor.ResolveHandler(method)
	result, callErr := invoke(handler, input, call)

	if callErr != nil {
		observeUnexpected(observer, callErr, fullMethod)
		code, msg, md := asTrailer(callErr)
		return frame.Pack(frame.Frame{Tag: frame.TagTrailer, Body: frame.EncodeTrailer(code, msg, md)}), nil
	}

	output, err := asOutputMessage(result)
	if err != nil {
		code, msg, md := asTrailer(err)
		return frame.Pack(frame.Frame{Tag: frame.TagTrailer, Body: frame.EncodeTrailer(code, msg, md)}), nil
	}

	payload, err := serializeOutput(output, responseMode)
	if err != nil {
		code, msg, md := asTrailer(err)
		return frame.Pack(frame.Frame{Tag: frame.TagTrailer, Body: frame.EncodeTrailer(code, msg, md)}), nil
	}

	frames := []frame.Frame{
		{Tag: frame.TagPayload, Body: payload},
		{Tag: frame.TagTrailer, Body: frame.EncodeTrailer(codes.OK, "OK", nil)},
	}
	return frame.PackAll(frames), nil
}
