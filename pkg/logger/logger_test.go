package logger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil")
	}

	ctx := context.Background()
	logger.Info(ctx, "test message", String("k", "v"))
	logger.Warn(ctx, "test warning", Int("count", 3), Duration("took", 0))
	logger.Error(ctx, "test error", Error(errors.New("boom")))
}

func TestLoggerNamed(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("test")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	ctx := context.Background()
	namedLogger.Info(ctx, "test message")
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, c := range cases {
		if err := SetLevelString(c.in); err != nil {
			t.Fatalf("SetLevelString(%q): %v", c.in, err)
		}
		if got := levelVar.Level(); got != c.want {
			t.Errorf("SetLevelString(%q) set level %v, want %v", c.in, got, c.want)
		}
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFieldConstructors(t *testing.T) {
	f := String("k", "v")
	if f.Key != "k" || f.Value != "v" {
		t.Errorf("String field = %+v", f)
	}
	if f := Int64("n", 7); f.Value != int64(7) {
		t.Errorf("Int64 field = %+v", f)
	}
	if f := Float64("x", 1.5); f.Value != 1.5 {
		t.Errorf("Float64 field = %+v", f)
	}
	if f := Any("v", []int{1}); f.Key != "v" {
		t.Errorf("Any field = %+v", f)
	}
	if f := Error(errors.New("boom")); f.Key != "error" {
		t.Errorf("Error field key = %q", f.Key)
	}
}
