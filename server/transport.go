package server

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fullstorydev/grpcweb/descriptor"
	"github.com/fullstorydev/grpcweb/frame"
	"github.com/fullstorydev/grpcweb/negotiate"
	"go.uber.org/multierr"
	"golang.org/x/net/http/httpguts"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
)

// ErrorObserver is notified of handler and transport failures, in
// addition to whatever the failure itself causes to happen to the
// response. It is a process-wide callback and must tolerate concurrent
// calls from different in-flight requests.
type ErrorObserver interface {
	ObserveError(err error, fullMethod string)
}

type noopObserver struct{}

func (noopObserver) ObserveError(error, string) {}

// CallRecorder is notified of every completed RPC's resolved status and
// latency, regardless of outcome. Implementations must tolerate concurrent
// calls from different in-flight requests.
type CallRecorder interface {
	RecordCall(ctx context.Context, fullMethod, status string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordCall(context.Context, string, string, time.Duration) {}

// Transport binds one or more services to the net/http server surface.
// It implements http.Handler.
type Transport struct {
	mux      http.ServeMux
	basePath string
	observer ErrorObserver
	recorder CallRecorder
}

// ServerOption configures a Transport at construction time.
type ServerOption interface {
	apply(*Transport)
}

type serverOptFunc func(*Transport)

func (f serverOptFunc) apply(t *Transport) { f(t) }

// WithBasePath configures the Transport to mount services under the
// given base path. The default is "/".
func WithBasePath(basePath string) ServerOption {
	return serverOptFunc(func(t *Transport) {
		t.basePath = basePath
	})
}

// WithErrorObserver installs an ErrorObserver, invoked for handler
// failures that are not a *Status and for unexpected transport failures.
// If not supplied, errors are silently discarded.
func WithErrorObserver(observer ErrorObserver) ServerOption {
	return serverOptFunc(func(t *Transport) {
		t.observer = observer
	})
}

// WithCallRecorder installs a CallRecorder, invoked once per completed
// RPC with its resolved status and latency. If not supplied, calls are
// not recorded.
func WithCallRecorder(recorder CallRecorder) ServerOption {
	return serverOptFunc(func(t *Transport) {
		t.recorder = recorder
	})
}

// NewTransport builds a Transport ready to have services registered with
// RegisterService.
func NewTransport(opts ...ServerOption) *Transport {
	t := &Transport{basePath: "/", observer: noopObserver{}, recorder: noopRecorder{}}
	for _, o := range opts {
		o.apply(t)
	}
	return t
}

// RegisterService mounts svc's methods under "<basePath>/<svc.Name>/".
// The trailing path segment of a request under that prefix is resolved
// against svc's method descriptors tolerating PascalCase/snake_case
// drift, so a single registration serves every naming variant of a
// method's URL.
func (t *Transport) RegisterService(svc *descriptor.Service) {
	pattern := strings.TrimRight(t.basePath, "/") + "/" + svc.Name + "/"
	t.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		methodName := strings.TrimPrefix(r.URL.Path, pattern)
		t.serve(w, r, svc, methodName)
	})
}

// ServeHTTP implements http.Handler.
func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.mux.ServeHTTP(w, r)
}

func (t *Transport) serve(w http.ResponseWriter, r *http.Request, svc *descriptor.Service, methodName string) {
	fullMethod := "/" + svc.Name + "/" + methodName

	if r.Method != http.MethodPost {
		w.Header().Set("X-Cascade", "pass")
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	requestContentType := r.Header.Get("Content-Type")
	accept := r.Header.Get("Accept")
	requestMode, err := negotiate.Negotiate(requestContentType, accept)
	if err != nil {
		http.Error(w, "unsupported media type", http.StatusUnsupportedMediaType)
		return
	}
	responseContentType := negotiate.ResponseContentType(requestContentType, accept)
	responseMode := negotiate.ResponseMode(requestMode, accept)

	method, streaming := descriptor.ResolveKind(svc, methodName)
	if method == nil {
		w.Header().Set("X-Cascade", "pass")
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusInternalServerError)
		return
	}
	if negotiate.IsTextMode(requestMode) {
		body, err = frame.DecodeInbound(body)
		if err != nil {
			http.Error(w, "malformed request body", http.StatusUnprocessableEntity)
			return
		}
	}

	call := &Call{Method: method.Name, Metadata: extractMetadata(r.Header)}

	if streaming {
		t.serveStream(w, r, method, requestMode, responseMode, responseContentType, body, call, fullMethod)
		return
	}
	t.serveUnary(w, method, requestMode, responseMode, responseContentType, body, call, fullMethod)
}

func (t *Transport) serveUnary(w http.ResponseWriter, method *descriptor.Method, requestMode, responseMode negotiate.Mode, responseContentType string, body []byte, call *Call, fullMethod string) {
	start := time.Now()
	respBody, err := ProcessUnary(method, requestMode, responseMode, body, call, t.observer, fullMethod)
	if err != nil {
		code, _, _ := asTrailer(err)
		t.recorder.RecordCall(context.Background(), fullMethod, code.String(), time.Since(start))
		t.observeAndFail(w, err, fullMethod)
		return
	}
	t.recorder.RecordCall(context.Background(), fullMethod, unaryStatus(respBody), time.Since(start))
	if negotiate.IsTextMode(responseMode) {
		respBody = frame.EncodeUnary(respBody)
	}
	w.Header().Set("Content-Type", responseContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(respBody)
}

// unaryStatus extracts the resolved gRPC status code out of a fully-framed
// unary response body's trailer frame (always its last frame), for
// reporting to the CallRecorder the same way the streaming path's
// trailerStatus does.
func unaryStatus(respBody []byte) string {
	frames, err := frame.Unpack(respBody)
	if err != nil || len(frames) == 0 {
		return codes.Unknown.String()
	}
	return trailerStatus(frames[len(frames)-1])
}

func (t *Transport) serveStream(w http.ResponseWriter, r *http.Request, method *descriptor.Method, requestMode, responseMode negotiate.Mode, responseContentType string, body []byte, call *Call, fullMethod string) {
	start := time.Now()
	source, err := ProcessStream(method, requestMode, responseMode, body, call, t.observer, fullMethod)
	if err != nil {
		code, _, _ := asTrailer(err)
		t.recorder.RecordCall(context.Background(), fullMethod, code.String(), time.Since(start))
		t.observeAndFail(w, err, fullMethod)
		return
	}

	connectionHeader := connectionHeaderFor(r.Header)

	var finalStatus string
	if hj, ok := w.(http.Hijacker); ok {
		finalStatus = t.serveStreamHijacked(hj, responseMode, responseContentType, connectionHeader, source, fullMethod)
	} else {
		finalStatus = t.serveStreamFlushed(w, responseMode, responseContentType, connectionHeader, source)
	}
	t.recorder.RecordCall(context.Background(), fullMethod, finalStatus, time.Since(start))
}

// connectionHeaderFor decides the outbound Connection header value for a
// streamed response: honoring an explicit "Connection: close" from the
// client (validated as a real HTTP/1.1 connection token, not just a
// case-sensitive substring match) rather than always forcing keep-alive.
func connectionHeaderFor(reqHeader http.Header) string {
	if httpguts.HeaderValuesContainsToken(reqHeader["Connection"], "close") {
		return "close"
	}
	return "keep-alive"
}

// observeAndFail maps a *ParseError to 422 and any other unexpected
// failure to 500, notifying the installed ErrorObserver in both cases.
func (t *Transport) observeAndFail(w http.ResponseWriter, err error, fullMethod string) {
	t.observer.ObserveError(err, fullMethod)
	if _, ok := err.(*ParseError); ok {
		http.Error(w, "malformed request payload", http.StatusUnprocessableEntity)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// chunkBody renders one wire frame for delivery as one HTTP chunk: packed
// and, in text mode, independently base64-encoded.
func chunkBody(f frame.Frame, mode negotiate.Mode) []byte {
	packed := frame.Pack(f)
	if negotiate.IsTextMode(mode) {
		return frame.EncodeChunk(packed)
	}
	return packed
}

// trailerStatus extracts the resolved gRPC status code name out of a
// trailer frame's body, for reporting to the CallRecorder.
func trailerStatus(f frame.Frame) string {
	code, _, _ := frame.ParseTrailer(f.Body)
	return code.String()
}

func (t *Transport) serveStreamFlushed(w http.ResponseWriter, mode negotiate.Mode, responseContentType, connectionHeader string, source *FrameSource) string {
	header := w.Header()
	header.Set("Content-Type", responseContentType)
	header.Set("Transfer-Encoding", "chunked")
	header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	header.Set("Connection", connectionHeader)
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	for {
		f, ok := source.Next()
		if !ok {
			return codes.Unknown.String()
		}
		if _, err := w.Write(chunkBody(f, mode)); err != nil {
			// connection is gone; stop iterating and release resources.
			return codes.Unavailable.String()
		}
		if canFlush {
			flusher.Flush()
		}
		if f.Tag.IsTrailer() {
			return trailerStatus(f)
		}
	}
}

func (t *Transport) serveStreamHijacked(hj http.Hijacker, mode negotiate.Mode, responseContentType, connectionHeader string, source *FrameSource, fullMethod string) string {
	conn, buf, err := hj.Hijack()
	if err != nil {
		t.observer.ObserveError(fmt.Errorf("server: hijack failed: %w", err), fullMethod)
		return codes.Internal.String()
	}
	defer conn.Close()

	bw := buf.Writer
	fmt.Fprintf(bw, "HTTP/1.1 200 OK\r\n")
	fmt.Fprintf(bw, "Content-Type: %s\r\n", responseContentType)
	fmt.Fprintf(bw, "Transfer-Encoding: chunked\r\n")
	fmt.Fprintf(bw, "Cache-Control: no-cache, no-store, must-revalidate\r\n")
	fmt.Fprintf(bw, "Connection: %s\r\n", connectionHeader)
	fmt.Fprintf(bw, "X-Accel-Buffering: no\r\n")
	fmt.Fprintf(bw, "\r\n")
	if bw.Flush() != nil {
		return codes.Unavailable.String()
	}

	var writeErr error
	var status string
	for {
		f, ok := source.Next()
		if !ok {
			status = codes.Unknown.String()
			break
		}
		if err := writeChunk(bw, chunkBody(f, mode)); err != nil {
			// The connection failed mid-stream; the HTTP status is
			// already committed to 200, so there is nothing left to
			// report to the client. The close error, if any, is
			// aggregated with the write error and handed to the
			// observer rather than discarded outright.
			writeErr = err
			break
		}
		if f.Tag.IsTrailer() {
			status = trailerStatus(f)
			break
		}
	}
	if writeErr != nil {
		closeErr := conn.Close()
		if aggregate := multierr.Combine(writeErr, closeErr); aggregate != nil {
			t.observer.ObserveError(fmt.Errorf("server: mid-stream write failed: %w", aggregate), fullMethod)
		}
		return codes.Unavailable.String()
	}
	fmt.Fprint(bw, "0\r\n\r\n")
	bw.Flush()
	return status
}

// writeChunk writes one HTTP chunked-transfer-encoding chunk: the
// hex-encoded length, CRLF, the chunk bytes, then CRLF.
func writeChunk(w *bufio.Writer, data []byte) error {
	if _, err := fmt.Fprintf(w, "%x\r\n", len(data)); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if _, err := w.Write([]byte("\r\n")); err != nil {
		return err
	}
	return w.Flush()
}

// excludedMetadataHeaders are headers net/http (or this transport's own
// content negotiation) already interprets; they are never surfaced as
// inbound RPC metadata.
var excludedMetadataHeaders = map[string]struct{}{
	"accept":         {},
	"content-type":   {},
	"content-length": {},
}

// extractMetadata converts inbound HTTP headers to RPC metadata:
// lower-cased, dashes turned to underscores, and any key ending in "_bin"
// base64-decoded. Headers net/http or content negotiation already own
// are excluded.
func extractMetadata(header http.Header) metadata.MD {
	md := metadata.MD{}
	for key, values := range header {
		lower := strings.ToLower(key)
		if _, excluded := excludedMetadataHeaders[lower]; excluded {
			continue
		}
		normalized := strings.ReplaceAll(lower, "-", "_")
		for _, v := range values {
			if strings.HasSuffix(normalized, "_bin") {
				decoded, err := decodeBinValue(v)
				if err != nil {
					continue
				}
				v = decoded
			}
			md.Append(normalized, v)
		}
	}
	return md
}

func decodeBinValue(v string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
