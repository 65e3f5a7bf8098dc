package observability

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapErrorObserverLogsErrorLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	obs := NewZapErrorObserver(log)
	obs.ObserveError(errors.New("boom"), "/test.Echo/Get")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.ErrorLevel {
		t.Errorf("level = %v, want error", entry.Level)
	}
	if entry.LoggerName != "grpcweb" {
		t.Errorf("logger name = %q, want grpcweb", entry.LoggerName)
	}
	fields := entry.ContextMap()
	if fields["method"] != "/test.Echo/Get" {
		t.Errorf("method field = %v, want /test.Echo/Get", fields["method"])
	}
	if fields["error"] != "boom" {
		t.Errorf("error field = %v, want boom", fields["error"])
	}
}

func TestNewZapErrorObserverNilLoggerIsNoop(t *testing.T) {
	obs := NewZapErrorObserver(nil)
	obs.ObserveError(errors.New("boom"), "/test.Echo/Get")
}
