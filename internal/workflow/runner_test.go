package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captioner/internal/config"
	"captioner/internal/logging"
	"captioner/internal/services"
	"captioner/internal/testsupport"
	"captioner/internal/workflow"
)

type progressRecord struct {
	stage   string
	percent float64
}

func TestRunnerRendersFromTranscript(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	io := &frameIO{}
	transcriber := &fakeTranscriber{t: t}
	runner := workflow.NewRunner(cfg, logging.NewNop(),
		stubProbe(probeResult(320, 180, "2.0", true)),
		workflow.WithTranscriber(transcriber),
		io.option(),
	)

	transcriptPath := filepath.Join(t.TempDir(), "words.json")
	testsupport.WriteTranscript(t, transcriptPath, sampleWords())

	var records []progressRecord
	result, err := runner.Run(context.Background(), workflow.Request{
		JobID:          "job-1",
		VideoPath:      "/videos/in.mp4",
		TranscriptPath: transcriptPath,
	}, nil, func(stage string, percent float64, _ string) {
		records = append(records, progressRecord{stage, percent})
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if transcriber.calls != 0 {
		t.Fatalf("expected no transcription, got %d calls", transcriber.calls)
	}
	if filepath.Dir(result.OutputPath) != cfg.Paths.OutputDir || filepath.Ext(result.OutputPath) != ".mp4" {
		t.Fatalf("unexpected output path %q", result.OutputPath)
	}
	if _, err := os.Stat(result.OutputPath); err != nil {
		t.Fatalf("expected output moved into place: %v", err)
	}
	if result.Frames != 20 || result.Clips != 4 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.Video.Width != 320 || result.Video.Height != 180 || result.Video.Duration != 2 {
		t.Fatalf("unexpected video %+v", result.Video)
	}

	if len(io.sinks) != 1 || len(io.sources) != 1 {
		t.Fatalf("expected one source and sink, got %d/%d", len(io.sources), len(io.sinks))
	}
	sink := io.sinks[0]
	if !sink.closed || !io.sources[0].closed {
		t.Fatal("expected source and sink to be closed")
	}
	if sink.opts.AudioSource != "/videos/in.mp4" || sink.opts.Codec != config.CodecX264 || sink.opts.FPS != 10 {
		t.Fatalf("unexpected sink options %+v", sink.opts)
	}
	if !strings.HasPrefix(sink.opts.Output, cfg.Paths.WorkDir) {
		t.Fatalf("expected encode inside work dir, got %s", sink.opts.Output)
	}
	if sink.touched == 0 {
		t.Fatal("expected captions drawn on some frames")
	}

	var last float64
	for _, rec := range records {
		if rec.percent < last {
			t.Fatalf("progress went backwards: %+v", records)
		}
		last = rec.percent
	}
	if final := records[len(records)-1]; final.stage != workflow.StageCompleted || final.percent != 100 {
		t.Fatalf("unexpected final progress %+v", final)
	}
}

func TestRunnerTranscribesWhenTranscriptMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	io := &frameIO{}
	transcriber := &fakeTranscriber{t: t, words: sampleWords()}
	runner := workflow.NewRunner(cfg, logging.NewNop(),
		stubProbe(probeResult(320, 180, "2.0", false)),
		workflow.WithTranscriber(transcriber),
		io.option(),
	)

	output := filepath.Join(t.TempDir(), "named.mp4")
	result, err := runner.Run(context.Background(), workflow.Request{
		JobID:      "job-2",
		VideoPath:  "/videos/in.mp4",
		OutputPath: output,
		RenderMode: config.RenderModeWord,
	}, nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if transcriber.calls != 1 {
		t.Fatalf("expected one transcription, got %d", transcriber.calls)
	}
	if result.OutputPath != output {
		t.Fatalf("expected %s, got %s", output, result.OutputPath)
	}
	if !strings.HasPrefix(result.TranscriptPath, filepath.Join(cfg.Paths.WorkDir, "job-2")) {
		t.Fatalf("transcript written outside job work dir: %s", result.TranscriptPath)
	}
	if io.sinks[0].opts.AudioSource != "" {
		t.Fatal("expected no audio mapping for silent source")
	}
}

func TestRunnerUsesStyleOutputPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	transcriptPath := filepath.Join(t.TempDir(), "words.json")
	testsupport.WriteTranscript(t, transcriptPath, sampleWords())
	styled := filepath.Join(t.TempDir(), "styled", "out.mp4")
	styleJSON := fmt.Sprintf(`{"output_path": %q}`, styled)

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{name: "style path", want: styled},
		{name: "request wins", output: filepath.Join(t.TempDir(), "request.mp4")},
	}
	for i, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			io := &frameIO{}
			runner := workflow.NewRunner(cfg, logging.NewNop(),
				stubProbe(probeResult(320, 180, "2.0", true)),
				io.option(),
			)
			result, err := runner.Run(context.Background(), workflow.Request{
				JobID:          fmt.Sprintf("job-style-%d", i),
				VideoPath:      "/videos/in.mp4",
				TranscriptPath: transcriptPath,
				StyleJSON:      styleJSON,
				OutputPath:     tc.output,
			}, nil, nil)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			want := tc.want
			if want == "" {
				want = tc.output
			}
			if result.OutputPath != want {
				t.Fatalf("output = %s, want %s", result.OutputPath, want)
			}
			if _, err := os.Stat(want); err != nil {
				t.Fatalf("expected output at %s: %v", want, err)
			}
		})
	}
}

func TestRunnerDraptoPass(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Encoder.Codec = config.CodecDrapto
	io := &frameIO{}
	client := &fakeDrapto{}
	runner := workflow.NewRunner(cfg, logging.NewNop(),
		stubProbe(probeResult(320, 180, "2.0", true)),
		workflow.WithDrapto(client),
		io.option(),
	)
	transcriptPath := filepath.Join(t.TempDir(), "words.json")
	testsupport.WriteTranscript(t, transcriptPath, sampleWords())

	output := filepath.Join(cfg.Paths.OutputDir, "final.mp4")
	result, err := runner.Run(context.Background(), workflow.Request{
		JobID:          "job-3",
		VideoPath:      "/videos/in.mp4",
		TranscriptPath: transcriptPath,
		OutputPath:     output,
	}, nil, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if io.sinks[0].opts.Codec != config.CodecX264 {
		t.Fatalf("intermediate should use libx264, got %s", io.sinks[0].opts.Codec)
	}
	want := filepath.Join(cfg.Paths.WorkDir, "job-3", "final.mp4")
	if len(client.inputs) != 1 || client.inputs[0] != want {
		t.Fatalf("unexpected drapto inputs %v", client.inputs)
	}
	if result.OutputPath != filepath.Join(cfg.Paths.OutputDir, "final.mkv") {
		t.Fatalf("unexpected output %s", result.OutputPath)
	}
}

func TestRunnerClassifiesFailures(t *testing.T) {
	transcriptDir := t.TempDir()
	good := filepath.Join(transcriptDir, "good.json")
	testsupport.WriteTranscript(t, good, sampleWords())
	backwards := filepath.Join(transcriptDir, "backwards.json")
	testsupport.WriteTranscript(t, backwards, []testsupport.TranscriptWord{
		{Word: "late", Start: 1.0, End: 1.2},
		{Word: "early", Start: 0.2, End: 0.4},
	})

	cases := []struct {
		name   string
		probe  string
		style  string
		words  string
		marker error
	}{
		{"no duration", "", "", good, services.ErrResource},
		{"bad style", "2.0", `{"font_size": "huge"}`, good, services.ErrValidation},
		{"backwards words", "2.0", "", backwards, services.ErrInputData},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testsupport.NewConfig(t)
			runner := workflow.NewRunner(cfg, logging.NewNop(),
				stubProbe(probeResult(320, 180, tc.probe, true)),
				(&frameIO{}).option(),
			)
			_, err := runner.Run(context.Background(), workflow.Request{
				JobID:          "job",
				VideoPath:      "/videos/in.mp4",
				TranscriptPath: tc.words,
				StyleJSON:      tc.style,
			}, nil, nil)
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
		})
	}
}

func TestRunnerRequiresVideo(t *testing.T) {
	runner := workflow.NewRunner(testsupport.NewConfig(t), logging.NewNop())
	if _, err := runner.Run(context.Background(), workflow.Request{}, nil, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
