package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"captioner/internal/logging"
)

func mkdirAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if age > 0 {
		ts := time.Now().Add(-age)
		if err := os.Chtimes(path, ts, ts); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}
}

func TestSweepInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := Sweep(context.Background(), dir, nil, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q, got %+v", dir, result)
		}
	}
}

func TestSweepKeepsActiveAndRecentDirectories(t *testing.T) {
	root := t.TempDir()
	mkdirAged(t, filepath.Join(root, "job-active"), 48*time.Hour)
	mkdirAged(t, filepath.Join(root, "job-gone"), 48*time.Hour)
	mkdirAged(t, filepath.Join(root, "job-fresh"), 0)
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	keep := map[string]struct{}{"job-active": {}}
	result := Sweep(context.Background(), root, keep, time.Hour, logging.NewNop())
	if len(result.Errors) != 0 {
		t.Fatalf("unexpected errors %+v", result.Errors)
	}
	if len(result.Removed) != 1 || result.Removed[0] != filepath.Join(root, "job-gone") {
		t.Fatalf("expected only job-gone removed, got %v", result.Removed)
	}
	for _, name := range []string{"job-active", "job-fresh", "notes.txt"} {
		if _, err := os.Stat(filepath.Join(root, name)); err != nil {
			t.Errorf("expected %s to survive: %v", name, err)
		}
	}

	result = Sweep(context.Background(), root, keep, 0, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != filepath.Join(root, "job-fresh") {
		t.Fatalf("expected zero age to remove job-fresh, got %v", result.Removed)
	}
}

func TestUsage(t *testing.T) {
	root := t.TempDir()
	if dirs, size, err := Usage(filepath.Join(root, "missing")); err != nil || dirs != 0 || size != 0 {
		t.Fatalf("missing dir: %d %d %v", dirs, size, err)
	}

	mkdirAged(t, filepath.Join(root, "a", "nested"), 0)
	mkdirAged(t, filepath.Join(root, "b"), 0)
	if err := os.WriteFile(filepath.Join(root, "a", "nested", "frame.raw"), make([]byte, 300), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "b", "audio.wav"), make([]byte, 200), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "top.txt"), make([]byte, 1000), 0o644); err != nil {
		t.Fatal(err)
	}

	dirs, size, err := Usage(root)
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if dirs != 2 || size != 500 {
		t.Fatalf("expected 2 dirs / 500 bytes, got %d / %d", dirs, size)
	}
}
