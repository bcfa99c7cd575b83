// Package whisperx produces word-level timestamps for a video with WhisperX.
//
// The audio track is extracted to a mono 16kHz WAV with ffmpeg, then
// transcribed through `uvx whisperx` with alignment enabled so every word
// carries start and end times. The resulting JSON is what
// internal/transcript loads.
//
// Configuration options (model, CUDA, VAD method, language) are passed via
// Config. Tests inject a command runner instead of executing tools.
package whisperx
