// Package logs reads job log files for the CLI and the daemon API.
//
// Tail returns complete lines only, so a reader polling a file that is still
// being written never sees half a record, and the returned offset always
// points at the start of the next line.
package logs
