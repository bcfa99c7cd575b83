package main

import (
	"testing"
)

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "[WARN] Not running")
	requireContains(t, out, "Queue is empty")
	requireContains(t, out, env.configPath)
	requireContains(t, out, "== Dependencies ==")
}

func TestStatusJSONRequiresDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"status", "--json"}, env.configPath); err == nil {
		t.Fatal("expected --json to fail without a daemon")
	}
}
