package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("%q: expected %v, got %v", in, want, got)
		}
	}
}

func TestComponentIsAttachedOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(&buf, nil)}).WithComponent(ComponentStore)
	l.InfoContext(context.Background(), "hello")
	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=store") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("expected fallback logger")
	}
	want := Discard()
	ctx := context.WithValue(context.Background(), LoggerContextKey, want)
	if FromContext(ctx) != want {
		t.Fatalf("expected logger from context")
	}
}
