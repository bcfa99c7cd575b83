// Package notifications publishes job outcomes to ntfy.
//
// NewService returns a no-op notifier when no topic is configured, so the
// workflow manager can call it unconditionally.
package notifications
