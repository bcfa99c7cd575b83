// Package compositor draws caption overlay clips onto video frames and
// streams the result through ffmpeg.
//
// Compose paints the clips active at one instant onto a frame. Render drives
// a FrameSource through Compose into a FrameSink, one frame at a time, and is
// the only place frames are produced so output order always matches the
// timeline. FFmpegSource and FFmpegSink are the ffmpeg-backed implementations
// used by the workflow; tests substitute in-memory fakes.
package compositor
