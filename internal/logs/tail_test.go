package logs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"captioner/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestTailLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.log")
	writeLog(t, path, "a\nb\nc\n")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("tail returned error: %v", err)
	}
	if len(result.Lines) != 2 || result.Lines[0] != "b" || result.Lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", result.Lines)
	}
	if result.Offset != 6 {
		t.Fatalf("expected offset 6, got %d", result.Offset)
	}
}

func TestTailSkipsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.log")
	writeLog(t, path, "one\ntw")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 0})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "one" || result.Offset != 4 {
		t.Fatalf("unexpected result %+v", result)
	}

	appendLog(t, path, "o\r\n")
	result, err = logs.Tail(context.Background(), path, logs.TailOptions{Offset: result.Offset})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "two" {
		t.Fatalf("expected completed line, got %+v", result)
	}
}

func TestTailMissingFileAndTruncation(t *testing.T) {
	dir := t.TempDir()
	result, err := logs.Tail(context.Background(), filepath.Join(dir, "absent.log"), logs.TailOptions{Offset: -1, Limit: 10})
	if err != nil || len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("missing file: %+v %v", result, err)
	}

	path := filepath.Join(dir, "job.log")
	writeLog(t, path, "fresh\n")
	result, err = logs.Tail(context.Background(), path, logs.TailOptions{Offset: 500})
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "fresh" {
		t.Fatalf("expected restart after truncation, got %+v", result)
	}
}

func TestTailFollowWaits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.log")
	writeLog(t, path, "start\n")

	go func() {
		time.Sleep(300 * time.Millisecond)
		if f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			_, _ = f.WriteString("next\n")
			_ = f.Close()
		}
	}()

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 6, Follow: true, Wait: 5 * time.Second})
	if err != nil {
		t.Fatalf("tail follow: %v", err)
	}
	if len(result.Lines) != 1 || result.Lines[0] != "next" || result.Offset != 11 {
		t.Fatalf("unexpected follow result %+v", result)
	}
}

func TestTailFollowHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.log")
	writeLog(t, path, "idle\n")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	result, err := logs.Tail(ctx, path, logs.TailOptions{Offset: 5, Follow: true, Wait: time.Minute})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if result.Offset != 5 || len(result.Lines) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}
