package frame

import (
	"encoding/base64"
	"strings"
)

// textModeMarker is the media-type substring that selects the base64
// text-mode transform, per the gRPC-Web content-type set
// (application/grpc-web-text+proto, application/grpc-web-text+json).
const textModeMarker = "grpc-web-text"

// IsTextMode reports whether contentType selects the base64 text-mode
// transform.
func IsTextMode(contentType string) bool {
	return strings.Contains(contentType, textModeMarker)
}

// DecodeInbound base64-decodes an inbound request body that arrived as a
// single blob in text mode. Binary mode is a pass-through and never
// reaches this function.
func DecodeInbound(body []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
	n, err := base64.StdEncoding.Decode(out, body)
	if err != nil {
		return nil, &MalformedFrame{Reason: "invalid base64: " + err.Error()}
	}
	return out[:n], nil
}

// EncodeUnary base64-encodes an entire framed unary response body as one
// blob.
func EncodeUnary(body []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(body)))
	base64.StdEncoding.Encode(out, body)
	return out
}

// EncodeChunk base64-encodes a single packed frame for delivery as one
// HTTP chunk in streaming text mode. Each frame is encoded independently,
// so the chunk boundary is the frame boundary.
func EncodeChunk(packedFrame []byte) []byte {
	return EncodeUnary(packedFrame)
}
