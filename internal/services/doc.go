// Package services defines shared utilities consumed by the render workflow
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent job outcomes (failed, or failed and flagged for review
//     when the input or configuration is at fault).
//
// Adapters for external tools live in the subpackages (whisperx, drapto).
package services
