package observability

import (
	"bufio"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Middleware wraps an http.Handler, typically a *server.Transport, to start
// one span per request, named after the request path (a server.Transport's
// path is the fully-qualified gRPC method). Grounded on
// Query-farm-vgi-rpc-go's vgirpc/otel dispatch hook, which starts and ends
// a span around each RPC dispatch the same way; adapted here from a
// dispatch-hook seam to an http.Handler wrapper, since server.Transport
// exposes no hook of its own.
type Middleware struct {
	next   http.Handler
	tracer trace.Tracer
}

// NewMiddleware wraps next so every request runs inside a span drawn from
// tracer. If tracer is nil, the global TracerProvider's default tracer is
// used, resolved once at construction time.
func NewMiddleware(next http.Handler, tracer trace.Tracer) *Middleware {
	if tracer == nil {
		tracer = otel.Tracer(instrumentationName)
	}
	return &Middleware{next: next, tracer: tracer}
}

func (m *Middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	spanName := strings.TrimPrefix(r.URL.Path, "/")
	ctx, span := m.tracer.Start(r.Context(), spanName,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(attribute.String("rpc.system", "grpc_web")),
	)
	defer span.End()

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	m.next.ServeHTTP(rec, r.WithContext(ctx))

	if rec.status >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(rec.status))
	} else {
		span.SetStatus(codes.Ok, "")
	}
}

// statusRecorder captures the status code passed to WriteHeader, since
// http.ResponseWriter has no way to read it back afterward. A streamed
// response that is hijacked (server.Transport's preferred delivery path)
// bypasses WriteHeader entirely, so its span status is left at the
// recorder's initial 200 (success); only the flushed fallback path and
// unary responses are reflected accurately.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack forwards to the wrapped ResponseWriter's Hijacker, so wrapping a
// *server.Transport in Middleware does not disable its hijacked streaming
// delivery path.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hj.Hijack()
}

// Flush forwards to the wrapped ResponseWriter's Flusher, for the same
// reason as Hijack.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

var (
	_ http.Handler        = (*Middleware)(nil)
	_ http.Hijacker       = (*statusRecorder)(nil)
	_ http.Flusher        = (*statusRecorder)(nil)
	_ http.ResponseWriter = (*statusRecorder)(nil)
)
