package server

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
)

// Status is a status-carrying handler failure: a gRPC status code and
// message plus arbitrary trailer metadata to surface alongside it. It is
// the error type handlers return when they want to control exactly what
// the client sees, as opposed to an ordinary error, which is reported as
// codes.Unknown.
type Status struct {
	Code     codes.Code
	Message  string
	Metadata metadata.MD
}

// NewStatus builds a Status. md may be nil.
func NewStatus(code codes.Code, message string, md metadata.MD) *Status {
	return &Status{Code: code, Message: message, Metadata: md}
}

// Errorf builds a Status with a formatted message and no metadata.
func Errorf(code codes.Code, format string, args ...interface{}) *Status {
	return &Status{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (s *Status) Error() string {
	return fmt.Sprintf("rpc error: code = %s desc = %s", s.Code, s.Message)
}

// FromError reports whether err is a *Status, returning it if so.
func FromError(err error) (*Status, bool) {
	st, ok := err.(*Status)
	return st, ok
}

// asTrailer reduces any handler-returned error to the (code, message,
// metadata) triple that goes into a trailer frame: a *Status is used
// verbatim; anything else becomes codes.Unknown with a message that names
// the failing error's concrete type, per the "any other failure" branch of
// the unary and streaming processor contracts.
func asTrailer(err error) (codes.Code, string, metadata.MD) {
	if err == nil {
		return codes.OK, "OK", nil
	}
	if st, ok := FromError(err); ok {
		return st.Code, st.Message, st.Metadata
	}
	return codes.Unknown, fmt.Sprintf("%T: %s", err, err.Error()), nil
}

// observeUnexpected notifies observer of a handler failure that is not a
// *Status, per section 7's "handler unexpected failure" case: a *Status is
// a handler's deliberate, well-formed response and is never reported to the
// observer, but anything else resolves to codes.Unknown in the trailer and
// is also surfaced to the process-wide observer.
func observeUnexpected(observer ErrorObserver, err error, fullMethod string) {
	if _, ok := FromError(err); !ok {
		observer.ObserveError(err, fullMethod)
	}
}
