package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"captioner/internal/api"
	"captioner/internal/logging"
	"captioner/internal/testsupport"
)

func TestBuildDaemonServesHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	hub := logging.NewStreamHub(16)

	d, err := buildDaemon(cfg, logging.NewNop(), hub)
	if err != nil {
		t.Fatalf("buildDaemon: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if d.LogStream() != hub {
		t.Fatal("expected daemon to expose the log hub")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + d.APIAddress() + "/api/health")
	if err != nil {
		t.Fatalf("health request: %v", err)
	}
	defer resp.Body.Close()
	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.ActiveJobs != 0 {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestBuildDaemonRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	first, err := buildDaemon(cfg, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("first buildDaemon: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first start: %v", err)
	}

	second, err := buildDaemon(cfg, logging.NewNop(), nil)
	if err != nil {
		t.Fatalf("second buildDaemon: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected second daemon to fail acquiring the lock")
	}
}

func TestRunFailsOnInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[render]\nmode = \"sideways\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), path); err == nil {
		t.Fatal("expected invalid render mode to fail")
	}
}
