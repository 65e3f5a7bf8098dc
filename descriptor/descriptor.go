// Package descriptor holds the per-method metadata a request processor
// needs to run an RPC without knowing anything about the concrete service:
// how to build and marshal its input and output messages, whether its
// output is a single message or a stream, and how to invoke the handler
// that implements it.
package descriptor

import (
	"reflect"
	"sync"
)

// Message is the minimal contract a request or response payload type must
// satisfy: proto and JSON marshaling in both directions, plus a way to
// obtain a fresh zero-value instance to unmarshal into.
type Message interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
	MarshalJSON() ([]byte, error)
	UnmarshalJSON([]byte) error
}

// NewMessageFunc returns a fresh, zero-value instance of a method's input
// or output type.
type NewMessageFunc func() Message

// HandlerFactory marks a registered handler value as a constructor to be
// invoked fresh for every call, rather than a shared instance to be reused
// across calls. Registering a service with HandlerFactory values selects
// instance-per-call dispatch, per the recommended strategy for eliminating
// shared mutable handler state.
type HandlerFactory func() interface{}

// Method is the descriptor for a single RPC method.
type Method struct {
	// Name is the descriptor key: the method name as it appears in the
	// service's protocol definition, PascalCase by convention.
	Name string
	// NewInput and NewOutput build zero-value instances of the method's
	// request and response message types.
	NewInput  NewMessageFunc
	NewOutput NewMessageFunc
	// ServerStreaming is true iff the method's output is a lazy sequence
	// of messages rather than a single message.
	ServerStreaming bool
	// Handler is either a HandlerFactory (called once per invocation to
	// obtain the bound handler) or the bound handler function itself,
	// shared across invocations. The bound handler's signature is one of:
	//   func(Message) (interface{}, error)
	//   func(Message, *Call) (interface{}, error)
	// For a streaming method, the interface{} the handler returns must be
	// a MessageIterator (see the server package); for a unary method it
	// must be the response Message.
	Handler interface{}
}

// Service is a named collection of method descriptors.
type Service struct {
	Name    string
	Methods []Method
}

// FindMethod returns the descriptor for the named method, tolerating
// PascalCase/snake_case drift between the URL segment and the descriptor
// key: it tries the name verbatim, then its snake_case form, then its
// PascalCase form. It returns nil if none of those forms match any
// registered method.
func (s *Service) FindMethod(name string) *Method {
	candidates := []string{name, PascalToSnake(name), SnakeToPascal(name)}
	for _, candidate := range candidates {
		for i := range s.Methods {
			if s.Methods[i].Name == candidate {
				return &s.Methods[i]
			}
		}
	}
	return nil
}

// ResolveHandler returns the bound handler function for m, constructing a
// fresh instance first if m.Handler is a HandlerFactory.
func ResolveHandler(m *Method) interface{} {
	if factory, ok := m.Handler.(HandlerFactory); ok {
		return factory()
	}
	return m.Handler
}

// Arity is the number of parameters a resolved handler function declares:
// one (request only) or two (request plus call context).
type Arity int

const (
	ArityRequestOnly Arity = 1
	ArityWithCall    Arity = 2
)

// arityCache memoizes the declared arity of a handler function's runtime
// type, since reflect.TypeOf(handler).NumIn() is invariant for a given
// concrete type and resolution happens on every call, concurrently, across
// requests.
var arityCache sync.Map // reflect.Type -> Arity

// HandlerArity returns the declared arity of handler, inspecting its
// reflect.Type once and caching the result by concrete type.
func HandlerArity(handler interface{}) Arity {
	t := reflect.TypeOf(handler)
	if a, ok := arityCache.Load(t); ok {
		return a.(Arity)
	}
	var a Arity
	switch t.NumIn() {
	case 1:
		a = ArityRequestOnly
	case 2:
		a = ArityWithCall
	default:
		a = ArityRequestOnly
	}
	arityCache.Store(t, a)
	return a
}
