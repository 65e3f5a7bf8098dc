package descriptor

import "testing"

func TestResolveKindUnaryAndStreaming(t *testing.T) {
	svc := &Service{Methods: []Method{
		{Name: "Get", ServerStreaming: false},
		{Name: "Watch", ServerStreaming: true},
	}}

	if m, streaming := ResolveKind(svc, "Get"); m == nil || streaming {
		t.Errorf("Get: method=%v streaming=%v, want non-nil/false", m, streaming)
	}
	if m, streaming := ResolveKind(svc, "Watch"); m == nil || !streaming {
		t.Errorf("Watch: method=%v streaming=%v, want non-nil/true", m, streaming)
	}
}

func TestResolveKindUnknownMethodFallsBackToUnary(t *testing.T) {
	svc := &Service{}
	m, streaming := ResolveKind(svc, "Missing")
	if m != nil || streaming {
		t.Errorf("method=%v streaming=%v, want nil/false", m, streaming)
	}
}

func TestResolveKindNilServiceFallsBackToUnary(t *testing.T) {
	m, streaming := ResolveKind(nil, "Anything")
	if m != nil || streaming {
		t.Errorf("method=%v streaming=%v, want nil/false", m, streaming)
	}
}
