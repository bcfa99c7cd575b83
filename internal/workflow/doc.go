// Package workflow turns a video plus word timestamps into a captioned video.
//
// Runner executes one render end to end: probe the source with ffprobe, load
// the transcript (or transcribe the audio with WhisperX), pick a font,
// schedule caption overlays, compose them onto every decoded frame, and
// encode the result with ffmpeg. When the encoder codec is "drapto" the
// ffmpeg output becomes an intermediate that Drapto re-encodes to AV1.
//
// Manager drives queued jobs through Runner for the daemon. It claims one job
// at a time from the jobs registry, writes a per-job log, forwards progress,
// and records the terminal state.
package workflow
