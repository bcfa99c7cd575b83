package drapto

import (
	"context"
	"errors"
	"testing"

	draptolib "github.com/five82/drapto"

	"captioner/internal/services"
)

func TestOutputPath(t *testing.T) {
	if got := OutputPath("/work/job/captioned.mp4", " /out "); got != "/out/captioned.mkv" {
		t.Fatalf("OutputPath = %q", got)
	}
}

func TestLibraryEncodeValidatesArguments(t *testing.T) {
	lib := NewLibrary()
	if _, err := lib.Encode(context.Background(), "", "/out", EncodeOptions{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := lib.Encode(context.Background(), "/in.mp4", " ", EncodeOptions{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReporterForwardsProgress(t *testing.T) {
	var updates []ProgressUpdate
	rep := newReporter(func(u ProgressUpdate) { updates = append(updates, u) })

	rep.StageProgress(draptolib.StageProgress{Percent: 12, Stage: "analysis", Message: "crop detection"})
	rep.EncodingProgress(draptolib.ProgressSnapshot{Percent: 55, CurrentFrame: 550, TotalFrames: 1000})
	rep.Warning("low disk")
	rep.Error(draptolib.ReporterError{Title: "encode", Message: "failed", Suggestion: "retry"})

	if len(updates) != 4 {
		t.Fatalf("expected 4 updates, got %d", len(updates))
	}
	if updates[0].Type != EventTypeStageProgress || updates[0].Percent != 12 || updates[0].Stage != "analysis" {
		t.Fatalf("unexpected stage update %+v", updates[0])
	}
	if updates[1].Type != EventTypeEncodingProgress || updates[1].Percent != 55 {
		t.Fatalf("unexpected encoding update %+v", updates[1])
	}
	if updates[3].Message != "encode: failed (retry)" {
		t.Fatalf("unexpected error message %q", updates[3].Message)
	}
}

func TestReporterWithoutCallback(t *testing.T) {
	rep := newReporter(nil)
	rep.OperationComplete("done")
}
