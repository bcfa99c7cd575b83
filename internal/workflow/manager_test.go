package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/queue"
	"captioner/internal/testsupport"
	"captioner/internal/workflow"
)

func waitTerminal(t *testing.T, events <-chan jobs.Event) jobs.Event {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case evt := <-events:
			if evt.Terminal() {
				return evt
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestManagerCompletesQueuedJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	registry := jobs.NewRegistry(store, logging.NewNop())
	runner := workflow.NewRunner(cfg, logging.NewNop(),
		stubProbe(probeResult(320, 180, "2.0", true)),
		(&frameIO{}).option(),
	)
	manager := workflow.NewManager(cfg, registry, runner, logging.NewNop())
	notifier := &fakeNotifier{}
	manager.SetNotifier(notifier)

	transcriptPath := filepath.Join(t.TempDir(), "words.json")
	testsupport.WriteTranscript(t, transcriptPath, sampleWords())

	ctx := context.Background()
	job, err := registry.Create(ctx, jobs.Request{VideoPath: "/videos/in.mp4", TranscriptPath: transcriptPath})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	events, cancel := registry.Subscribe(job.ID, 256)
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer manager.Stop()
	if err := manager.Start(ctx); err == nil {
		t.Fatal("expected second Start to fail")
	}

	evt := waitTerminal(t, events)
	if evt.Type != jobs.EventCompleted {
		t.Fatalf("expected completion, got %+v", evt)
	}

	stored, err := registry.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != queue.StatusCompleted || stored.OutputPath == "" || stored.ProgressPercent != 100 {
		t.Fatalf("unexpected job %+v", stored)
	}
	if stored.JobLogPath == "" {
		t.Fatal("expected job log path")
	}
	if _, err := os.Stat(stored.JobLogPath); err != nil {
		t.Fatalf("job log missing: %v", err)
	}

	manager.Stop()
	if completed, failed := notifier.counts(); completed != 1 || failed != 0 {
		t.Fatalf("expected one completion notice, got %d/%d", completed, failed)
	}
}

func TestManagerFailsJobWithBadTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	registry := jobs.NewRegistry(store, logging.NewNop())
	runner := workflow.NewRunner(cfg, logging.NewNop(),
		stubProbe(probeResult(320, 180, "2.0", true)),
		(&frameIO{}).option(),
	)
	manager := workflow.NewManager(cfg, registry, runner, logging.NewNop())
	notifier := &fakeNotifier{}
	manager.SetNotifier(notifier)

	transcriptPath := filepath.Join(t.TempDir(), "empty.json")
	testsupport.WriteTranscript(t, transcriptPath, []testsupport.TranscriptWord{})

	ctx := context.Background()
	job, err := registry.Create(ctx, jobs.Request{VideoPath: "/videos/in.mp4", TranscriptPath: transcriptPath})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	events, cancel := registry.Subscribe(job.ID, 256)
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	evt := waitTerminal(t, events)
	manager.Stop()

	if evt.Type != jobs.EventFailed || evt.Error == "" {
		t.Fatalf("expected failure event, got %+v", evt)
	}
	stored, err := registry.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Status != queue.StatusFailed || !stored.NeedsReview {
		t.Fatalf("unexpected job %+v", stored)
	}
	summary := manager.Status(ctx)
	if summary.Running || summary.LastError == "" || summary.QueueStats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected status %+v", summary)
	}
	if completed, failed := notifier.counts(); completed != 0 || failed != 1 {
		t.Fatalf("expected one failure notice, got %d/%d", completed, failed)
	}
}
