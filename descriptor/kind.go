package descriptor

// ResolveKind reports whether the named method on svc is server-streaming.
// If the method cannot be located, or resolution panics for any reason
// (a defensive guard against a malformed descriptor table), it falls back
// to reporting the method as unary rather than failing the request.
func ResolveKind(svc *Service, methodName string) (method *Method, serverStreaming bool) {
	defer func() {
		if recover() != nil {
			method, serverStreaming = nil, false
		}
	}()
	m := svc.FindMethod(methodName)
	if m == nil {
		return nil, false
	}
	return m, m.ServerStreaming
}
