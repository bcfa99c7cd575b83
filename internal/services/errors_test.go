package services_test

import (
	"errors"
	"strings"
	"testing"

	"captioner/internal/queue"
	"captioner/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"encode", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReview bool
	}{
		{"input data", services.Wrap(services.ErrInputData, "transcript", "load", "empty", nil), true},
		{"resource", services.Wrap(services.ErrResource, "fonts", "load", "missing", nil), true},
		{"configuration", services.Wrap(services.ErrConfiguration, "style", "merge", "bad", nil), true},
		{"external tool", services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "exit 1", nil), false},
		{"transient", services.Wrap(services.ErrTransient, "encode", "copy", "io", errors.New("io")), false},
		{"nil", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, review := services.FailureStatus(tc.err)
			if status != queue.StatusFailed {
				t.Fatalf("expected failed status, got %s", status)
			}
			if review != tc.wantReview {
				t.Fatalf("review = %v, want %v", review, tc.wantReview)
			}
		})
	}
}
