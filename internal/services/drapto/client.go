package drapto

import (
	"context"
	"path/filepath"
	"strings"
)

// EventType classifies a ProgressUpdate.
type EventType string

const (
	EventTypeHardware          EventType = "hardware"
	EventTypeInitialization    EventType = "initialization"
	EventTypeStageProgress     EventType = "stage_progress"
	EventTypeCropResult        EventType = "crop_result"
	EventTypeEncodingConfig    EventType = "encoding_config"
	EventTypeEncodingStarted   EventType = "encoding_started"
	EventTypeEncodingProgress  EventType = "encoding_progress"
	EventTypeValidation        EventType = "validation"
	EventTypeEncodingComplete  EventType = "encoding_complete"
	EventTypeWarning           EventType = "warning"
	EventTypeError             EventType = "error"
	EventTypeOperationComplete EventType = "operation_complete"
	EventTypeBatch             EventType = "batch"
)

// ProgressUpdate is one Drapto event. Percent is set for progress events;
// Message carries a human readable summary for every type.
type ProgressUpdate struct {
	Type    EventType
	Percent float64
	Stage   string
	Message string
}

// EncodeOptions configures a single encode.
type EncodeOptions struct {
	Progress func(ProgressUpdate)
}

// Client encodes a file into outputDir and returns the produced path.
type Client interface {
	Encode(ctx context.Context, inputPath, outputDir string, opts EncodeOptions) (string, error)
}

// OutputPath is where Drapto writes the encode of inputPath.
func OutputPath(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(strings.TrimSpace(outputDir), stem+".mkv")
}
