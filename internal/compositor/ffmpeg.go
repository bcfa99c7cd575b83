package compositor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"captioner/internal/services"
)

const stderrTail = 4096

// SourceOptions configures an ffmpeg decoder.
type SourceOptions struct {
	Binary string
	Path   string
	Width  int
	Height int
	// FPS resamples the stream when positive.
	FPS float64
}

// FFmpegSource decodes a video into RGBA frames through an ffmpeg pipe.
type FFmpegSource struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	reader *bufio.Reader
	stderr *tailBuffer
	bounds image.Rectangle

	eof       bool
	closeOnce sync.Once
	closeErr  error
}

// OpenSource starts decoding. Callers must Close the source on every path.
func OpenSource(ctx context.Context, opts SourceOptions) (*FFmpegSource, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, services.Wrap(services.ErrResource, "compositor", "open source", fmt.Sprintf("invalid frame size %dx%d", opts.Width, opts.Height), nil)
	}
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary, decoderArgs(opts)...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrResource, "compositor", "open source", opts.Path, err)
	}
	stderr := newTailBuffer(stderrTail)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrResource, "compositor", "start decoder", opts.Path, err)
	}
	return &FFmpegSource{
		cmd:    cmd,
		stdout: stdout,
		reader: bufio.NewReaderSize(stdout, 1<<20),
		stderr: stderr,
		bounds: image.Rect(0, 0, opts.Width, opts.Height),
	}, nil
}

func decoderArgs(opts SourceOptions) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", opts.Path,
		"-map", "0:v:0",
		"-an", "-sn", "-dn",
	}
	if opts.FPS > 0 {
		args = append(args, "-vf", "fps="+formatRate(opts.FPS))
	}
	return append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
}

// Bounds reports the frame size.
func (s *FFmpegSource) Bounds() image.Rectangle {
	return s.bounds
}

// ReadFrame fills dst with the next frame.
func (s *FFmpegSource) ReadFrame(dst *image.RGBA) error {
	if !dst.Bounds().Eq(s.bounds) || dst.Stride != 4*s.bounds.Dx() {
		return fmt.Errorf("decode frame: destination %v does not match source %v", dst.Bounds(), s.bounds)
	}
	_, err := io.ReadFull(s.reader, dst.Pix)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		s.eof = true
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
		return services.Wrap(services.ErrExternalTool, "compositor", "decode frame", "truncated frame: "+strings.TrimSpace(s.stderr.String()), err)
	default:
		return services.Wrap(services.ErrExternalTool, "compositor", "decode frame", "", err)
	}
}

// Close stops the decoder and releases the pipe. Stopping before the end of
// the stream is not an error.
func (s *FFmpegSource) Close() error {
	s.closeOnce.Do(func() {
		_ = s.stdout.Close()
		err := s.cmd.Wait()
		if err != nil && s.eof {
			s.closeErr = services.Wrap(services.ErrExternalTool, "compositor", "decoder exit", strings.TrimSpace(s.stderr.String()), err)
		}
	})
	return s.closeErr
}

// SinkOptions configures an ffmpeg encoder.
type SinkOptions struct {
	Binary string
	Output string
	Width  int
	Height int
	FPS    float64
	// AudioSource is muxed into the output when set. Missing audio streams
	// are tolerated.
	AudioSource string
	Codec       string
	Bitrate     string
	Preset      string
	Threads     int
	AudioCodec  string
}

// FFmpegSink encodes RGBA frames through an ffmpeg pipe.
type FFmpegSink struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	writer *bufio.Writer
	stderr *tailBuffer
	bounds image.Rectangle
	frames int

	closeOnce sync.Once
	closeErr  error
}

// OpenSink starts an encoder writing to opts.Output.
func OpenSink(ctx context.Context, opts SinkOptions) (*FFmpegSink, error) {
	if opts.Width <= 0 || opts.Height <= 0 || opts.FPS <= 0 {
		return nil, services.Wrap(services.ErrValidation, "compositor", "open sink", fmt.Sprintf("invalid output %dx%d@%v", opts.Width, opts.Height, opts.FPS), nil)
	}
	if strings.TrimSpace(opts.Output) == "" {
		return nil, services.Wrap(services.ErrValidation, "compositor", "open sink", "output path required", nil)
	}
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary, encoderArgs(opts)...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "compositor", "open sink", opts.Output, err)
	}
	stderr := newTailBuffer(stderrTail)
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "compositor", "start encoder", opts.Output, err)
	}
	return &FFmpegSink{
		cmd:    cmd,
		stdin:  stdin,
		writer: bufio.NewWriterSize(stdin, 1<<20),
		stderr: stderr,
		bounds: image.Rect(0, 0, opts.Width, opts.Height),
	}, nil
}

func encoderArgs(opts SinkOptions) []string {
	codec := opts.Codec
	if codec == "" {
		codec = "libx264"
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", formatRate(opts.FPS),
		"-i", "-",
	}
	if opts.AudioSource != "" {
		args = append(args, "-i", opts.AudioSource)
	}
	args = append(args, "-map", "0:v:0")
	if opts.AudioSource != "" {
		args = append(args, "-map", "1:a:0?")
	}
	args = append(args, "-c:v", codec)
	if opts.Preset != "" {
		args = append(args, "-preset", opts.Preset)
	}
	if opts.Bitrate != "" {
		args = append(args, "-b:v", opts.Bitrate)
	}
	if opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(opts.Threads))
	}
	args = append(args, "-pix_fmt", "yuv420p")
	if opts.AudioSource != "" {
		audioCodec := opts.AudioCodec
		if audioCodec == "" {
			audioCodec = "aac"
		}
		args = append(args, "-c:a", audioCodec)
	}
	return append(args, "-movflags", "+faststart", opts.Output)
}

// WriteFrame queues one frame for encoding.
func (s *FFmpegSink) WriteFrame(frame *image.RGBA) error {
	if frame.Bounds().Dx() != s.bounds.Dx() || frame.Bounds().Dy() != s.bounds.Dy() || frame.Stride != 4*s.bounds.Dx() {
		return fmt.Errorf("encode frame: frame %v does not match output %v", frame.Bounds(), s.bounds)
	}
	if _, err := s.writer.Write(frame.Pix); err != nil {
		return services.Wrap(services.ErrExternalTool, "compositor", "encode frame", strings.TrimSpace(s.stderr.String()), err)
	}
	s.frames++
	return nil
}

// Frames reports how many frames were written.
func (s *FFmpegSink) Frames() int {
	return s.frames
}

// Close flushes pending frames and waits for the encoder to finish the file.
func (s *FFmpegSink) Close() error {
	s.closeOnce.Do(func() {
		flushErr := s.writer.Flush()
		closeErr := s.stdin.Close()
		waitErr := s.cmd.Wait()
		if err := errors.Join(flushErr, closeErr, waitErr); err != nil {
			s.closeErr = services.Wrap(services.ErrExternalTool, "compositor", "encoder exit", strings.TrimSpace(s.stderr.String()), err)
		}
	})
	return s.closeErr
}

func formatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}
