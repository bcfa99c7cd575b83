package drapto

import (
	"fmt"
	"strings"

	draptolib "github.com/five82/drapto"
)

// reporter forwards Drapto callbacks as ProgressUpdates.
type reporter struct {
	callback func(ProgressUpdate)
}

func newReporter(callback func(ProgressUpdate)) *reporter {
	return &reporter{callback: callback}
}

func (r *reporter) emit(update ProgressUpdate) {
	if r.callback != nil {
		r.callback(update)
	}
}

func (r *reporter) Hardware(s draptolib.HardwareSummary) {
	r.emit(ProgressUpdate{Type: EventTypeHardware, Message: "host " + s.Hostname})
}

func (r *reporter) Initialization(s draptolib.InitializationSummary) {
	r.emit(ProgressUpdate{
		Type:    EventTypeInitialization,
		Message: fmt.Sprintf("%v -> %v (%v, %v)", s.InputFile, s.OutputFile, s.Resolution, s.Duration),
	})
}

func (r *reporter) StageProgress(s draptolib.StageProgress) {
	r.emit(ProgressUpdate{
		Type:    EventTypeStageProgress,
		Percent: float64(s.Percent),
		Stage:   s.Stage,
		Message: s.Message,
	})
}

func (r *reporter) CropResult(s draptolib.CropSummary) {
	r.emit(ProgressUpdate{Type: EventTypeCropResult, Message: s.Message})
}

func (r *reporter) EncodingConfig(s draptolib.EncodingConfigSummary) {
	r.emit(ProgressUpdate{
		Type:    EventTypeEncodingConfig,
		Message: fmt.Sprintf("%v preset %v quality %v", s.Encoder, s.Preset, s.Quality),
	})
}

func (r *reporter) EncodingStarted(totalFrames uint64) {
	r.emit(ProgressUpdate{Type: EventTypeEncodingStarted, Stage: "encoding", Message: fmt.Sprintf("%d frames", totalFrames)})
}

func (r *reporter) EncodingProgress(s draptolib.ProgressSnapshot) {
	r.emit(ProgressUpdate{
		Type:    EventTypeEncodingProgress,
		Percent: float64(s.Percent),
		Stage:   "encoding",
		Message: fmt.Sprintf("frame %v/%v at %.1f fps", s.CurrentFrame, s.TotalFrames, float64(s.FPS)),
	})
}

func (r *reporter) ValidationComplete(s draptolib.ValidationSummary) {
	var failed []string
	for _, step := range s.Steps {
		if !step.Passed {
			failed = append(failed, step.Name)
		}
	}
	message := "validation passed"
	if !s.Passed {
		message = "validation failed: " + strings.Join(failed, ", ")
	}
	r.emit(ProgressUpdate{Type: EventTypeValidation, Message: message})
}

func (r *reporter) EncodingComplete(s draptolib.EncodingOutcome) {
	r.emit(ProgressUpdate{
		Type:    EventTypeEncodingComplete,
		Percent: 100,
		Message: fmt.Sprintf("%v (%v -> %v bytes)", s.OutputFile, s.OriginalSize, s.EncodedSize),
	})
}

func (r *reporter) Warning(message string) {
	r.emit(ProgressUpdate{Type: EventTypeWarning, Message: message})
}

func (r *reporter) Error(e draptolib.ReporterError) {
	message := strings.TrimSpace(e.Title + ": " + e.Message)
	if e.Suggestion != "" {
		message += " (" + e.Suggestion + ")"
	}
	r.emit(ProgressUpdate{Type: EventTypeError, Message: message})
}

func (r *reporter) OperationComplete(message string) {
	r.emit(ProgressUpdate{Type: EventTypeOperationComplete, Message: message})
}

func (r *reporter) BatchStarted(s draptolib.BatchStartInfo) {
	r.emit(ProgressUpdate{Type: EventTypeBatch, Message: fmt.Sprintf("batch of %v files", s.TotalFiles)})
}

func (r *reporter) FileProgress(s draptolib.FileProgressContext) {
	r.emit(ProgressUpdate{Type: EventTypeBatch, Message: fmt.Sprintf("file %v of %v", s.CurrentFile, s.TotalFiles)})
}

func (r *reporter) BatchComplete(s draptolib.BatchSummary) {
	r.emit(ProgressUpdate{Type: EventTypeBatch, Message: fmt.Sprintf("%v of %v files encoded", s.SuccessfulCount, s.TotalFiles)})
}

var _ draptolib.Reporter = (*reporter)(nil)
