package observability

import (
	"github.com/fullstorydev/grpcweb/server"
)

// chainObserver fans an observed error out to every observer in the
// chain, in order, mirroring the teacher's interceptor-chaining shape
// generalized from RPC interception to error reporting.
type chainObserver struct {
	observers []server.ErrorObserver
}

// Chain combines multiple ErrorObservers into one that notifies each of
// them, in the order given, for every observed error.
func Chain(observers ...server.ErrorObserver) server.ErrorObserver {
	return &chainObserver{observers: observers}
}

func (c *chainObserver) ObserveError(err error, fullMethod string) {
	for _, o := range c.observers {
		o.ObserveError(err, fullMethod)
	}
}

var _ server.ErrorObserver = (*chainObserver)(nil)
