package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"captioner/internal/config"
	"captioner/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob enqueues a job for a placeholder video inside the config's input directory.
func NewJob(t testing.TB, store *queue.Store, cfg *config.Config, id string) *queue.Job {
	t.Helper()

	video := filepath.Join(cfg.Paths.InputDir, id+".mp4")
	WriteFile(t, video, 16)
	job, err := store.Create(context.Background(), queue.NewJob{ID: id, VideoPath: video, OriginalName: id + ".mp4"})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
