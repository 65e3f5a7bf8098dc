// Package negotiate implements gRPC-Web content-type negotiation: which
// request content types are accepted, and which content type a response
// should be sent with.
package negotiate

import (
	"errors"
	"strings"
)

// Mode identifies one of the four recognized (encoding, wire-mode) pairs.
type Mode int

const (
	ModeProtoBinary Mode = iota
	ModeProtoText
	ModeJSONBinary
	ModeJSONText
)

// ErrUnsupportedMediaType is returned by Negotiate when the request
// Content-Type is not a recognized gRPC-Web content type, or when its
// Accept header is specified and is not one either.
var ErrUnsupportedMediaType = errors.New("negotiate: unsupported media type")

const (
	ctProto     = "application/grpc-web+proto"
	ctProtoText = "application/grpc-web-text+proto"
	ctJSON      = "application/grpc-web+json"
	ctJSONText  = "application/grpc-web-text+json"
)

var modeByContentType = map[string]Mode{
	ctProto:     ModeProtoBinary,
	ctProtoText: ModeProtoText,
	ctJSON:      ModeJSONBinary,
	ctJSONText:  ModeJSONText,
}

var contentTypeByMode = map[Mode]string{
	ModeProtoBinary: ctProto,
	ModeProtoText:   ctProtoText,
	ModeJSONBinary:  ctJSON,
	ModeJSONText:    ctJSONText,
}

// normalize strips any trailing parameters (e.g. "; charset=utf-8") and
// lower-cases the media type for comparison.
func normalize(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// isUnspecifiedAccept reports whether accept should be treated as "no
// preference": absent, empty, "*/*", or "application/*".
func isUnspecifiedAccept(accept string) bool {
	switch normalize(accept) {
	case "", "*/*", "application/*":
		return true
	default:
		return false
	}
}

// Negotiate classifies an inbound request's Content-Type and Accept
// headers. Content-Type must be one of the four recognized gRPC-Web
// content types; Accept, if specified, must also be one of them (it does
// not need to match Content-Type). ErrUnsupportedMediaType is returned
// otherwise.
func Negotiate(contentType, accept string) (Mode, error) {
	mode, ok := modeByContentType[normalize(contentType)]
	if !ok {
		return 0, ErrUnsupportedMediaType
	}
	if !isUnspecifiedAccept(accept) {
		if _, ok := modeByContentType[normalize(accept)]; !ok {
			return 0, ErrUnsupportedMediaType
		}
	}
	return mode, nil
}

// ContentTypeForMode returns the canonical content type string for mode.
func ContentTypeForMode(mode Mode) string {
	return contentTypeByMode[mode]
}

// ResponseContentType selects the content type used for the response: the
// request's Accept header if it specifies one, otherwise an echo of the
// request's Content-Type.
func ResponseContentType(contentType, accept string) string {
	if isUnspecifiedAccept(accept) {
		return contentType
	}
	return accept
}

// ResponseMode selects the Mode that governs the response body's wire
// encoding: the mode named by the request's Accept header if it specifies
// one, otherwise requestMode. This may differ from requestMode (Accept is
// permitted to name any recognized content type independent of
// Content-Type), so callers must not reuse requestMode to encode a
// response after calling this; the caller is expected to have already
// validated accept via Negotiate.
func ResponseMode(requestMode Mode, accept string) Mode {
	if isUnspecifiedAccept(accept) {
		return requestMode
	}
	return modeByContentType[normalize(accept)]
}

// IsTextMode reports whether mode uses the base64 text-mode transform.
func IsTextMode(mode Mode) bool {
	return mode == ModeProtoText || mode == ModeJSONText
}

// IsJSON reports whether mode serializes messages as JSON rather than
// protobuf binary.
func IsJSON(mode Mode) bool {
	return mode == ModeJSONBinary || mode == ModeJSONText
}
