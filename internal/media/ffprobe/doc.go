// Package ffprobe runs ffprobe and decodes the streams and format sections of
// its JSON report.
//
// Inspect is the entry point. Result.Video condenses the report into the
// frame size, frame rate and duration the caption renderer needs.
package ffprobe
