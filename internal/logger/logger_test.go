package logger

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestZapLoggerWritesObjectField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))

	log.ErrorObj("request rejected", "sammi_http_status", map[string]any{"status_code": 500})
	log.DebugObj("request completed", "sammi_response", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	obj, ok := fields["sammi_http_status"].(map[string]any)
	if !ok || obj["status_code"] != 500 {
		t.Fatalf("unexpected field: %#v", fields)
	}
}

func TestDefaultBeforeInitIsNop(t *testing.T) {
	prev := S
	S = nil
	defer func() { S = prev }()

	if _, ok := Default().(NopLogger); !ok {
		t.Fatalf("expected NopLogger before Init")
	}
	InfoObj("ignored", "k", 1)
}

func TestDefaultReportsCallerSite(t *testing.T) {
	prev := S
	defer func() { S = prev }()

	core, logs := observer.New(zapcore.InfoLevel)
	S = zap.New(core, zap.AddCaller()).Sugar()

	Default().InfoObj("runner starting", "config", nil)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if file := filepath.Base(entries[0].Caller.File); file != "logger_test.go" {
		t.Fatalf("caller = %s, want logger_test.go", entries[0].Caller.String())
	}
}
