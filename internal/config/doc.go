// Package config loads, normalizes, and validates captioner configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN. The Config type centralizes every knob the daemon and CLI need:
// directories, caption style, render and encoder settings, transcription, and
// logging.
//
// Caption styles can additionally be overridden per job by a style document
// (JSON or YAML). ApplyStyleDocument merges such a document over a Style
// field by field; unknown keys are reported back to the caller and never fail
// the merge.
package config
