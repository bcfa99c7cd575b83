// Package daemon coordinates the long-running captioner process.
//
// It wires configuration, the job store, the jobs registry and the workflow
// manager into a single lifecycle with flock-based locking to prevent multiple
// instances, and serves the HTTP API used to upload videos, create jobs,
// follow their progress and download results.
//
// Keep orchestration here: rendering lives in workflow and caption while the
// daemon focuses on startup, shutdown and transport.
package daemon
