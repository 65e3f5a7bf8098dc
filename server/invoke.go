package server

import (
	"fmt"
	"reflect"

	"github.com/fullstorydev/grpcweb/descriptor"
)

// invoke calls handler with req, and call if handler declares it, per the
// two handler signatures a Method.Handler may resolve to. The arity is
// resolved once per handler type via descriptor.HandlerArity (cached, so
// the reflect.TypeOf inspection is not repeated on every call), then the
// call itself is dispatched with reflect.Value.Call.
func invoke(handler interface{}, req descriptor.Message, call *Call) (interface{}, error) {
	v := reflect.ValueOf(handler)
	if v.Kind() != reflect.Func || v.Type().NumOut() != 2 {
		return nil, fmt.Errorf("server: handler has unsupported signature %T", handler)
	}

	var args []reflect.Value
	switch descriptor.HandlerArity(handler) {
	case descriptor.ArityRequestOnly:
		if v.Type().NumIn() != 1 {
			return nil, fmt.Errorf("server: handler has unsupported signature %T", handler)
		}
		args = []reflect.Value{reflect.ValueOf(req)}
	case descriptor.ArityWithCall:
		if v.Type().NumIn() != 2 {
			return nil, fmt.Errorf("server: handler has unsupported signature %T", handler)
		}
		args = []reflect.Value{reflect.ValueOf(req), reflect.ValueOf(call)}
	default:
		return nil, fmt.Errorf("server: handler has unsupported signature %T", handler)
	}

	results := v.Call(args)
	var err error
	if e := results[1].Interface(); e != nil {
		err = e.(error)
	}
	return results[0].Interface(), err
}
