// Package logging assembles structured slog loggers and formatting helpers used
// across captioner.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so workflow code can tag log
// lines with job IDs, stages, and correlation IDs. The daemon additionally
// mirrors every record into a StreamHub so the HTTP API can serve recent log
// lines, and each job gets a tee into its own log file.
package logging
