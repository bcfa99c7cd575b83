package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"captioner/internal/api"
	"captioner/internal/deps"
	"captioner/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Captionerd", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Captionerd:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Captionerd", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Command: "ffmpeg", Available: false, Detail: `binary "ffmpeg" not found`},
		{Name: "FFprobe", Command: "ffprobe", Available: true},
		{Name: "WhisperX (uvx)", Command: "uvx", Optional: true},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[ERROR] 1/3 available") {
		t.Fatalf("expected summary line first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], `[ERROR] binary "ffmpeg" not found`) {
		t.Fatalf("expected error detail in second line, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] Ready (command: ffprobe)") {
		t.Fatalf("expected ready detail in third line, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "[WARN] optional, not installed") {
		t.Fatalf("expected optional warning in fourth line, got %q", lines[3])
	}
	if lines[4] != statusIndent+"Missing dependencies: FFmpeg" {
		t.Fatalf("unexpected missing summary %q", lines[4])
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "Work directory", Passed: true, Detail: "/tmp/work"},
		{Name: "Work directory space", Passed: false, Detail: "512 MiB free"},
	}, false)
	if !strings.Contains(lines[0], "[OK] /tmp/work") || !strings.Contains(lines[1], "[ERROR] 512 MiB free") {
		t.Fatalf("unexpected preflight lines %q", lines)
	}
}

func TestDaemonLines(t *testing.T) {
	down := daemonLines(api.DaemonStatus{}, fmt.Errorf("%w: refused", errDaemonUnavailable), false)
	if len(down) != 1 || !strings.Contains(down[0], "[WARN] Not running") {
		t.Fatalf("unexpected unreachable lines %q", down)
	}

	broken := daemonLines(api.DaemonStatus{}, errors.New("daemon /api/status: unauthorized (401)"), false)
	if !strings.Contains(broken[0], "[ERROR] daemon /api/status: unauthorized") {
		t.Fatalf("unexpected error line %q", broken[0])
	}

	up := daemonLines(api.DaemonStatus{
		Running: true,
		PID:     42,
		Workflow: api.WorkflowStatus{
			ActiveJob: "job-1",
			LastError: "ffmpeg exited 1",
		},
	}, nil, false)
	joined := strings.Join(up, "\n")
	for _, want := range []string{"Running (pid 42)", "[INFO] job-1", "[WARN] ffmpeg exited 1"} {
		requireContains(t, joined, want)
	}
}

func TestQueueLines(t *testing.T) {
	if lines := queueLines(nil, false); !strings.Contains(lines[0], "Queue is empty") {
		t.Fatalf("expected empty queue line, got %q", lines)
	}
	lines := queueLines(map[string]int{"queued": 2, "failed": 1}, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if !strings.Contains(lines[0], "Queued:") || !strings.Contains(lines[1], "[WARN] 1") {
		t.Fatalf("unexpected queue lines %q", lines)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}

func TestDialAddress(t *testing.T) {
	cases := map[string]string{
		"0.0.0.0:8000":   "127.0.0.1:8000",
		":9000":          "127.0.0.1:9000",
		"10.0.0.5:8000":  "10.0.0.5:8000",
		"not-an-address": "not-an-address",
	}
	for in, want := range cases {
		if got := dialAddress(in); got != want {
			t.Errorf("dialAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		0:               "0 B",
		1023:            "1023 B",
		1536:            "1.5 KiB",
		5 * 1024 * 1024: "5.0 MiB",
		3 << 30:         "3.0 GiB",
	}
	for in, want := range cases {
		if got := humanBytes(in); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
