package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"captioner/internal/services"
)

type recordedCall struct {
	name string
	args []string
}

func fakeRunner(t *testing.T, calls *[]recordedCall, writeJSON bool) func(context.Context, string, ...string) error {
	t.Helper()
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, recordedCall{name: name, args: args})
		if name != UVXCommand || !writeJSON {
			return nil
		}
		idx := slices.Index(args, "--output_dir")
		if idx < 0 {
			t.Fatalf("missing --output_dir in %v", args)
		}
		return os.WriteFile(filepath.Join(args[idx+1], "audio.json"), []byte(`{"segments":[]}`), 0o644)
	}
}

func TestTranscribeRunsExtractThenWhisperX(t *testing.T) {
	var calls []recordedCall
	svc := NewService(Config{Model: "small", Language: "EN"}, "/usr/bin/ffmpeg")
	svc.WithCommandRunner(fakeRunner(t, &calls, true))

	workDir := filepath.Join(t.TempDir(), "job")
	path, err := svc.Transcribe(context.Background(), "/videos/in.mp4", workDir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if path != filepath.Join(workDir, "audio.json") {
		t.Fatalf("unexpected transcript path %q", path)
	}
	if len(calls) != 2 || calls[0].name != "/usr/bin/ffmpeg" || calls[1].name != UVXCommand {
		t.Fatalf("unexpected calls %+v", calls)
	}
	ffmpegArgs := strings.Join(calls[0].args, " ")
	if !strings.Contains(ffmpegArgs, "-i /videos/in.mp4") || !strings.HasSuffix(ffmpegArgs, filepath.Join(workDir, "audio.wav")) {
		t.Fatalf("unexpected ffmpeg args %q", ffmpegArgs)
	}
	uvxArgs := strings.Join(calls[1].args, " ")
	for _, want := range []string{"--model small", "--output_format json", "--language en", "--device cpu", "--vad_method silero"} {
		if !strings.Contains(uvxArgs, want) {
			t.Fatalf("uvx args %q missing %q", uvxArgs, want)
		}
	}
}

func TestTranscribeRequiresOutput(t *testing.T) {
	var calls []recordedCall
	svc := NewService(Config{}, "")
	svc.WithCommandRunner(fakeRunner(t, &calls, false))

	_, err := svc.Transcribe(context.Background(), "/videos/in.mp4", t.TempDir())
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranscribeWrapsToolFailure(t *testing.T) {
	svc := NewService(Config{}, "")
	svc.WithCommandRunner(func(context.Context, string, ...string) error { return errors.New("exit 1") })
	if _, err := svc.Transcribe(context.Background(), "/videos/in.mp4", t.TempDir()); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if _, err := svc.Transcribe(context.Background(), "", t.TempDir()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildArgsCUDAAndPyannote(t *testing.T) {
	svc := NewService(Config{CUDAEnabled: true, VADMethod: VADMethodPyannote, HFToken: "hf_abc"}, "")
	args := strings.Join(svc.buildArgs("a.wav", "/out"), " ")
	for _, want := range []string{"--index-url " + CUDAIndexURL, "--device cuda", "--hf_token hf_abc", "--model " + DefaultModel} {
		if !strings.Contains(args, want) {
			t.Fatalf("args %q missing %q", args, want)
		}
	}
	if strings.Contains(args, "--compute_type") {
		t.Fatalf("cuda args should not force compute type: %q", args)
	}
}
