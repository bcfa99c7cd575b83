// Package main hosts the captioner CLI.
//
// Commands render captioned videos locally, dump rasterized caption groups
// as PNG files, run WhisperX transcription, and manage the job queue shared
// with captionerd. Rendering and queue logic live in the internal packages;
// this package only parses flags and formats output.
package main
