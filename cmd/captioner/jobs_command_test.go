package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captioner/internal/api"
	"captioner/internal/queue"
	"captioner/internal/testsupport"
)

func TestJobsAddListShow(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "clips", "My Talk.mp4")
	testsupport.WriteFile(t, video, 1024)

	out, _, err := runCLI(t, []string{"jobs", "add", video, "--mode", "word"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs add: %v", err)
	}
	requireContains(t, out, "Queued job ")
	id := strings.TrimSpace(strings.TrimPrefix(out, "Queued job "))

	out, _, err = runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, shortID(id))
	requireContains(t, out, "My Talk.mp4")
	requireContains(t, out, "queued")

	out, _, err = runCLI(t, []string{"jobs", "show", id[:8], "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	var view api.Job
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode job: %v\n%s", err, out)
	}
	if view.ID != id || view.RenderMode != "word" || view.VideoPath != video {
		t.Fatalf("unexpected job view %+v", view)
	}

	out, _, err = runCLI(t, []string{"jobs", "list", "--status", "failed"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list failed: %v", err)
	}
	requireContains(t, out, "No jobs")

	if _, _, err := runCLI(t, []string{"jobs", "list", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestJobsAddRejectsBadInput(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "clip.mp4")
	testsupport.WriteFile(t, video, 128)

	cases := map[string][]string{
		"missing video": {"jobs", "add", filepath.Join(env.baseDir, "absent.mp4")},
		"bad mode":      {"jobs", "add", video, "--mode", "karaoke"},
		"missing style": {"jobs", "add", video, "--style", filepath.Join(env.baseDir, "none.yaml")},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, _, err := runCLI(t, args, env.configPath); err == nil {
				t.Fatalf("expected %v to fail", args)
			}
		})
	}
}

func TestJobsRetryRemoveClear(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	ctx := context.Background()

	failed := testsupport.NewJob(t, store, env.cfg, "job-failed-1")
	done := testsupport.NewJob(t, store, env.cfg, "job-done-1")
	for _, id := range []string{failed.ID, done.ID} {
		if _, err := store.ClaimNext(ctx); err != nil {
			t.Fatalf("claim %s: %v", id, err)
		}
	}
	if err := store.Fail(ctx, failed.ID, "encode failed", false); err != nil {
		t.Fatalf("fail: %v", err)
	}
	if err := store.Complete(ctx, done.ID, filepath.Join(env.cfg.Paths.OutputDir, "done.mp4")); err != nil {
		t.Fatalf("complete: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "retry", "job-failed"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs retry: %v", err)
	}
	requireContains(t, out, "Requeued 1 job(s)")
	job, err := store.GetByID(ctx, failed.ID)
	if err != nil || job == nil || job.Status != queue.StatusQueued {
		t.Fatalf("expected requeued job, got %+v (%v)", job, err)
	}

	if _, _, err := runCLI(t, []string{"jobs", "show", "job-"}, env.configPath); err == nil {
		t.Fatal("expected ambiguous prefix to fail")
	}

	doneDir := filepath.Join(env.cfg.Paths.WorkDir, done.ID)
	otherDir := filepath.Join(env.cfg.Paths.WorkDir, "overlays")
	for _, dir := range []string{doneDir, otherDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	out, _, err = runCLI(t, []string{"jobs", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 finished job(s)")
	requireContains(t, out, "Removed 1 work director(ies)")
	if _, err := os.Stat(doneDir); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err %v", doneDir, err)
	}
	if _, err := os.Stat(otherDir); err != nil {
		t.Fatalf("expected %s kept: %v", otherDir, err)
	}

	out, _, err = runCLI(t, []string{"jobs", "remove", failed.ID}, env.configPath)
	if err != nil {
		t.Fatalf("jobs remove: %v", err)
	}
	requireContains(t, out, "Removed job "+failed.ID)
	if job, _ := store.GetByID(ctx, failed.ID); job != nil {
		t.Fatalf("expected job removed, got %+v", job)
	}
}

func TestJobsWatchWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"jobs", "watch", "abc"}, env.configPath)
	if !errors.Is(err, errDaemonUnavailable) {
		t.Fatalf("expected daemon unavailable error, got %v", err)
	}
}
