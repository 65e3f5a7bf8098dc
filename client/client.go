// Package client implements the client-side half of the gRPC-Web
// pipeline: framing a request, issuing it over HTTP/1.1, and driving the
// response back through deframing and status classification to produce
// either a single message or a buffered sequence of messages.
package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"

	"github.com/fullstorydev/grpcweb/descriptor"
	"github.com/fullstorydev/grpcweb/frame"
	"github.com/fullstorydev/grpcweb/negotiate"
)

// Status is the error type returned when a call completes with a
// non-OK gRPC status, whether reported by an HTTP status code or parsed
// out of a trailer frame.
type Status struct {
	Code     codes.Code
	Message  string
	Metadata metadata.MD
}

func (s *Status) Error() string {
	return fmt.Sprintf("rpc error: code = %s desc = %s", s.Code, s.Message)
}

// Channel is a gRPC-Web client bound to one endpoint. The zero value is
// not usable; construct with NewChannel.
type Channel struct {
	BaseURL   *url.URL
	Transport http.RoundTripper
	Mode      negotiate.Mode
}

// NewChannel builds a Channel that POSTs requests to baseURL using proto
// binary framing and http.DefaultTransport.
func NewChannel(baseURL *url.URL) *Channel {
	return &Channel{BaseURL: baseURL, Transport: http.DefaultTransport, Mode: negotiate.ModeProtoBinary}
}

// Call invokes a unary method, returning the deserialized response
// message or a *Status/transport error on failure.
func (ch *Channel) Call(method *descriptor.Method, methodPath string, req descriptor.Message, md metadata.MD) (descriptor.Message, error) {
	respBody, err := ch.roundTrip(methodPath, req, md, ch.Mode)
	if err != nil {
		return nil, err
	}

	frames, err := ch.deframe(respBody)
	if err != nil {
		return nil, err
	}

	var payload []byte
	havePayload := false
	for _, f := range frames {
		if f.Tag.IsTrailer() {
			code, msg, trailerMD := frame.ParseTrailer(f.Body)
			if code != codes.OK {
				return nil, &Status{Code: code, Message: msg, Metadata: trailerMD}
			}
			continue
		}
		payload = f.Body
		havePayload = true
	}
	if !havePayload {
		return nil, &Status{Code: codes.Internal, Message: "response had no payload frame and no error trailer"}
	}

	out := method.NewOutput()
	if err := unmarshalPayload(out, payload, ch.Mode); err != nil {
		return nil, err
	}
	return out, nil
}

// CallServerStream invokes a server-streaming method. Per the current
// buffered design, the entire response is read and deframed before this
// call returns; a trailer-frame error surfaces here, not from a later
// iteration step.
func (ch *Channel) CallServerStream(method *descriptor.Method, methodPath string, req descriptor.Message, md metadata.MD) ([]descriptor.Message, error) {
	respBody, err := ch.roundTrip(methodPath, req, md, ch.Mode)
	if err != nil {
		return nil, err
	}

	frames, err := ch.deframe(respBody)
	if err != nil {
		return nil, err
	}

	var messages []descriptor.Message
	for _, f := range frames {
		if f.Tag.IsTrailer() {
			code, msg, trailerMD := frame.ParseTrailer(f.Body)
			if code != codes.OK {
				return nil, &Status{Code: code, Message: msg, Metadata: trailerMD}
			}
			continue
		}
		out := method.NewOutput()
		if err := unmarshalPayload(out, f.Body, ch.Mode); err != nil {
			return nil, err
		}
		messages = append(messages, out)
	}
	return messages, nil
}

func unmarshalPayload(msg descriptor.Message, payload []byte, mode negotiate.Mode) error {
	if negotiate.IsJSON(mode) {
		return msg.UnmarshalJSON(payload)
	}
	return msg.Unmarshal(payload)
}

// roundTrip builds a framed request body, POSTs it, and classifies the
// HTTP response, returning the raw (still framed, still text-transformed
// if applicable) response body on a 2xx status.
func (ch *Channel) roundTrip(methodPath string, req descriptor.Message, md metadata.MD, mode negotiate.Mode) ([]byte, error) {
	payload, err := marshalPayload(req, mode)
	if err != nil {
		return nil, err
	}
	body := frame.PackAll([]frame.Frame{{Tag: frame.TagPayload, Body: payload}})
	if negotiate.IsTextMode(mode) {
		body = frame.EncodeUnary(body)
	}

	reqURL := *ch.BaseURL
	reqURL.Path = joinPath(reqURL.Path, methodPath)
	httpReq, err := http.NewRequest(http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	contentType := negotiate.ContentTypeForMode(mode)
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", contentType)
	applyMetadata(httpReq.Header, md)

	resp, err := ch.Transport.RoundTrip(httpReq)
	if err != nil {
		return nil, &Status{Code: codes.Unavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Status{Code: classifyHTTPStatus(resp.StatusCode), Message: resp.Status}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Status{Code: codes.Unavailable, Message: err.Error()}
	}
	return respBody, nil
}

func (ch *Channel) deframe(body []byte) ([]frame.Frame, error) {
	if negotiate.IsTextMode(ch.Mode) {
		decoded, err := frame.DecodeInbound(body)
		if err != nil {
			return nil, err
		}
		body = decoded
	}
	return frame.Unpack(body)
}

func marshalPayload(msg descriptor.Message, mode negotiate.Mode) ([]byte, error) {
	if negotiate.IsJSON(mode) {
		return msg.MarshalJSON()
	}
	return msg.Marshal()
}

// classifyHTTPStatus maps a non-2xx HTTP status to a gRPC code per the
// client's own, deliberately coarser table (distinct from a server's
// code-to-status mapping, since here the server that produced the status
// is not this module's own transport and cannot be assumed to follow it).
func classifyHTTPStatus(status int) codes.Code {
	switch status {
	case http.StatusBadRequest:
		return codes.Internal
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.Unimplemented
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return codes.Unavailable
	default:
		return codes.Unknown
	}
}

// applyMetadata adds one request header line per metadata value, in
// sorted key order. Keys go through http.Header.Add, which canonicalizes
// them; underscores are not turned back into dashes and values of "_bin"
// keys are sent as given, not base64-encoded.
func applyMetadata(h http.Header, md metadata.MD) {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range md[k] {
			h.Add(k, v)
		}
	}
}

func joinPath(base, method string) string {
	if len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if len(method) > 0 && method[0] == '/' {
		return base + method
	}
	return base + "/" + method
}
