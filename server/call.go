package server

import "google.golang.org/grpc/metadata"

// Call carries the read-only, per-invocation context a two-argument
// handler receives alongside its request message. Callers must not
// mutate the metadata it exposes.
type Call struct {
	// Method is the descriptor key of the method being invoked.
	Method string
	// Metadata is the inbound request metadata, normalized and decoded
	// per the transport's metadata mapping.
	Metadata metadata.MD
}
