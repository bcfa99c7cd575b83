package drapto

import (
	"context"
	"strings"

	draptolib "github.com/five82/drapto"

	"captioner/internal/services"
)

// Library implements Client using the Drapto Go library directly.
type Library struct{}

// NewLibrary constructs a Library client.
func NewLibrary() *Library {
	return &Library{}
}

// Encode encodes inputPath into outputDir.
func (l *Library) Encode(ctx context.Context, inputPath, outputDir string, opts EncodeOptions) (string, error) {
	if strings.TrimSpace(inputPath) == "" {
		return "", services.Wrap(services.ErrValidation, "drapto", "encode", "input path required", nil)
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", services.Wrap(services.ErrValidation, "drapto", "encode", "output directory required", nil)
	}

	encoder, err := draptolib.New(draptolib.WithResponsive())
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "drapto", "init", "", err)
	}

	var rep draptolib.Reporter
	if opts.Progress != nil {
		rep = newReporter(opts.Progress)
	}
	if _, err := encoder.EncodeWithReporter(ctx, inputPath, outputDir, rep); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "drapto", "encode", inputPath, err)
	}
	return OutputPath(inputPath, outputDir), nil
}

var _ Client = (*Library)(nil)
