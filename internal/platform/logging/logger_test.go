package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerWritesFieldsAndMirrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	var mirrored []string
	SetMirror(func(_ context.Context, level Level, msg string, args ...any) {
		mirrored = append(mirrored, level.String()+":"+msg)
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger.DebugContext(context.Background(), "below level", "k", "v")
	logger.WarnContext(context.Background(), "flag rejected", "team_id", int64(7), "error", errors.New("mismatch"))
	logger.Info("odd args", "dangling")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["team_id"] != int64(7) {
		t.Fatalf("unexpected team_id field: %v", fields["team_id"])
	}
	if fields["error"] != "mismatch" {
		t.Fatalf("unexpected error field: %v", fields["error"])
	}
	if _, ok := entries[1].ContextMap()["dangling"]; !ok {
		t.Fatalf("expected dangling key to be kept")
	}

	if len(mirrored) != 2 || mirrored[0] != "warn:flag rejected" {
		t.Fatalf("unexpected mirrored records: %v", mirrored)
	}
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("does not panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected non-nil logger from nil receiver")
	}
}
