package workflow_test

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"captioner/internal/compositor"
	"captioner/internal/media/ffprobe"
	"captioner/internal/services/drapto"
	"captioner/internal/testsupport"
	"captioner/internal/workflow"
)

func probeResult(width, height int, duration string, audio bool) ffprobe.Result {
	streams := []ffprobe.Stream{{
		CodecType:    "video",
		Width:        width,
		Height:       height,
		AvgFrameRate: "10/1",
	}}
	if audio {
		streams = append(streams, ffprobe.Stream{CodecType: "audio"})
	}
	return ffprobe.Result{Streams: streams, Format: ffprobe.Format{Duration: duration}}
}

func stubProbe(result ffprobe.Result) workflow.RunnerOption {
	return workflow.WithProbe(func(context.Context, string, string) (ffprobe.Result, error) {
		return result, nil
	})
}

type fakeSource struct {
	bounds image.Rectangle
	frames int
	read   int
	closed bool
}

func (s *fakeSource) Bounds() image.Rectangle { return s.bounds }

func (s *fakeSource) ReadFrame(dst *image.RGBA) error {
	if s.read >= s.frames {
		return io.EOF
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 255
	}
	s.read++
	return nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeSink struct {
	opts    compositor.SinkOptions
	frames  int
	touched int
	closed  bool
}

func (s *fakeSink) WriteFrame(frame *image.RGBA) error {
	s.frames++
	for i := 0; i < len(frame.Pix); i += 4 {
		if frame.Pix[i] != 0 {
			s.touched++
			break
		}
	}
	return nil
}

// Close leaves a placeholder at the output path like the ffmpeg sink would.
func (s *fakeSink) Close() error {
	s.closed = true
	if s.opts.Output == "" {
		return nil
	}
	return os.WriteFile(s.opts.Output, []byte("mp4"), 0o644)
}

// frameIO hands out fake decoders and encoders and remembers them.
type frameIO struct {
	mu      sync.Mutex
	sources []*fakeSource
	sinks   []*fakeSink
}

func (f *frameIO) option() workflow.RunnerOption {
	return workflow.WithFrameIO(
		func(_ context.Context, opts compositor.SourceOptions) (workflow.FrameSource, error) {
			src := &fakeSource{
				bounds: image.Rect(0, 0, opts.Width, opts.Height),
				frames: 20,
			}
			f.mu.Lock()
			f.sources = append(f.sources, src)
			f.mu.Unlock()
			return src, nil
		},
		func(_ context.Context, opts compositor.SinkOptions) (workflow.FrameSink, error) {
			sink := &fakeSink{opts: opts}
			f.mu.Lock()
			f.sinks = append(f.sinks, sink)
			f.mu.Unlock()
			return sink, nil
		},
	)
}

type fakeTranscriber struct {
	calls int
	words []testsupport.TranscriptWord
	t     testing.TB
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, workDir string) (string, error) {
	f.calls++
	path := filepath.Join(workDir, "audio.json")
	testsupport.WriteTranscript(f.t, path, f.words)
	return path, nil
}

type fakeDrapto struct {
	inputs []string
}

func (f *fakeDrapto) Encode(_ context.Context, input, outputDir string, opts drapto.EncodeOptions) (string, error) {
	f.inputs = append(f.inputs, input)
	if opts.Progress != nil {
		opts.Progress(drapto.ProgressUpdate{Type: drapto.EventTypeEncodingProgress, Percent: 50, Message: "halfway"})
	}
	return drapto.OutputPath(input, outputDir), nil
}

func sampleWords() []testsupport.TranscriptWord {
	return []testsupport.TranscriptWord{
		{Word: "hello", Start: 0.1, End: 0.4},
		{Word: "there", Start: 0.5, End: 0.8},
		{Word: "general", Start: 0.9, End: 1.3},
		{Word: "kenobi", Start: 1.4, End: 1.9},
	}
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []string
	failed    []string
}

func (n *fakeNotifier) JobCompleted(_ context.Context, name, _ string, _ time.Duration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, name)
	return nil
}

func (n *fakeNotifier) JobFailed(_ context.Context, name string, _ error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, name)
	return nil
}

func (n *fakeNotifier) Test(context.Context) error { return nil }

func (n *fakeNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.completed), len(n.failed)
}
