// Package api defines the wire-format types shared by the daemon HTTP server
// and the CLI client.
//
// Job is the transport form of a queue.Job; FromJob fills in defaults so
// clients never see an empty progress stage. WorkflowStatus and DaemonStatus
// summarize the daemon for `captioner status`. JSON keys are snake_case and
// timestamps are RFC3339 with milliseconds.
package api
