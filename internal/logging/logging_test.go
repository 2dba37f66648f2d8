package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	if FromContext(context.Background()) != nil {
		t.Fatal("expected no logger in an empty context")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected the attached logger back")
	}
	if ContextWithLogger(ctx, nil) != ctx {
		t.Fatal("expected a nil logger to leave the context unchanged")
	}
}

func TestOr(t *testing.T) {
	t.Parallel()

	custom := slog.New(slog.NewTextHandler(io.Discard, nil))
	if Or(custom) != custom {
		t.Fatal("expected custom logger to be returned")
	}
	if Or(nil) != slog.Default() {
		t.Fatal("expected default logger when none provided")
	}
}

func TestComponentPrefersContextLogger(t *testing.T) {
	t.Parallel()

	var fromCtx, fallback bytes.Buffer
	ctx := ContextWithLogger(context.Background(), slog.New(slog.NewTextHandler(&fromCtx, nil)).With("request_id", 7))

	Component(ctx, slog.New(slog.NewTextHandler(&fallback, nil)), "service", "ReservationService", "MoveReservation", "room_id", "room_harbor").
		Info("reservation moved")

	if fallback.Len() != 0 {
		t.Fatalf("expected fallback logger unused, got %q", fallback.String())
	}
	out := fromCtx.String()
	for _, want := range []string{"request_id=7", "service=ReservationService", "operation=MoveReservation", "room_id=room_harbor"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
}

func TestComponentWithoutOperation(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Component(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)), "handler", "DirectoryHandler", "").Info("listed")
	if strings.Contains(buf.String(), "operation=") {
		t.Fatalf("expected no operation attribute, got %q", buf.String())
	}
}
