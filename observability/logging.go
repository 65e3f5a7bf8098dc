// Package observability wires structured logging, error reporting, and
// RPC metrics/tracing into the transport adapter, without either package
// depending on a concrete implementation of either concern.
package observability

import (
	"go.uber.org/zap"

	"github.com/fullstorydev/grpcweb/server"
)

// ZapErrorObserver reports handler and transport failures to a zap
// logger. It satisfies server.ErrorObserver.
type ZapErrorObserver struct {
	Log *zap.Logger
}

// NewZapErrorObserver builds a ZapErrorObserver. If log is nil, a no-op
// logger is used.
func NewZapErrorObserver(log *zap.Logger) *ZapErrorObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &ZapErrorObserver{Log: log.Named("grpcweb")}
}

// ObserveError logs err at error level with the full method name that
// failed.
func (o *ZapErrorObserver) ObserveError(err error, fullMethod string) {
	o.Log.Error("rpc failed", zap.String("method", fullMethod), zap.Error(err))
}

var _ server.ErrorObserver = (*ZapErrorObserver)(nil)
