package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/config"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/workflow"
)

type renderFlags struct {
	transcript string
	style      string
	output     string
	mode       string
	workDir    string
	keepWork   bool
	asJSON     bool
}

type renderSummary struct {
	OutputPath     string  `json:"output_path"`
	TranscriptPath string  `json:"transcript_path"`
	Font           string  `json:"font"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Duration       float64 `json:"duration"`
	Overlays       int     `json:"overlays"`
	Frames         int     `json:"frames"`
}

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <video>",
		Short: "Render a captioned copy of a video",
		Long: "Render burns animated captions into a video. Words come from --transcript " +
			"(WhisperX JSON) or, when omitted, from a WhisperX run on the video's audio.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := buildRenderRequest(args[0], flags)
			if err != nil {
				return err
			}
			if req.WorkDir == "" && !flags.keepWork {
				req.WorkDir = filepath.Join(cfg.Paths.WorkDir, req.JobID)
				defer os.RemoveAll(req.WorkDir)
			}

			logger := ctx.logger()
			runner := workflow.NewRunner(cfg, logger)
			progress := newProgressPrinter(cmd.ErrOrStderr())
			result, err := runner.Run(cmd.Context(), req, logger, progress.update)
			progress.finish()
			if err != nil {
				return err
			}

			if flags.asJSON {
				return writeJSON(cmd, renderSummary{
					OutputPath:     result.OutputPath,
					TranscriptPath: result.TranscriptPath,
					Font:           result.Font,
					Width:          result.Video.Width,
					Height:         result.Video.Height,
					Duration:       result.Video.Duration,
					Overlays:       result.Clips,
					Frames:         result.Frames,
				})
			}
			rows := [][]string{
				{"Output", result.OutputPath},
				{"Transcript", result.TranscriptPath},
				{"Font", result.Font},
				{"Video", fmt.Sprintf("%dx%d, %.2fs", result.Video.Width, result.Video.Height, result.Video.Duration)},
				{"Overlays", fmt.Sprintf("%d", result.Clips)},
				{"Frames", fmt.Sprintf("%d", result.Frames)},
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.transcript, "transcript", "t", "", "WhisperX JSON transcript (transcribes when omitted)")
	cmd.Flags().StringVarP(&flags.style, "style", "s", "", "Style document (JSON or YAML) overriding [style]")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output video path (random name under paths.output_dir when omitted)")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "Render mode: grouped or word")
	cmd.Flags().StringVar(&flags.workDir, "work-dir", "", "Directory for intermediates")
	cmd.Flags().BoolVar(&flags.keepWork, "keep-work", false, "Keep intermediates after rendering")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the render result as JSON")
	return cmd
}

func buildRenderRequest(video string, flags renderFlags) (workflow.Request, error) {
	videoPath, err := config.ExpandPath(strings.TrimSpace(video))
	if err != nil {
		return workflow.Request{}, err
	}
	req := workflow.Request{
		JobID:      jobs.NewID(),
		VideoPath:  videoPath,
		RenderMode: strings.TrimSpace(flags.mode),
	}
	switch req.RenderMode {
	case "", config.RenderModeGrouped, config.RenderModeWord:
	default:
		return workflow.Request{}, fmt.Errorf("unknown render mode %q (expected %s or %s)", req.RenderMode, config.RenderModeGrouped, config.RenderModeWord)
	}

	for _, p := range []struct {
		value string
		dst   *string
	}{
		{flags.transcript, &req.TranscriptPath},
		{flags.output, &req.OutputPath},
		{flags.workDir, &req.WorkDir},
	} {
		if strings.TrimSpace(p.value) == "" {
			continue
		}
		expanded, err := config.ExpandPath(strings.TrimSpace(p.value))
		if err != nil {
			return workflow.Request{}, err
		}
		*p.dst = expanded
	}

	if strings.TrimSpace(flags.style) != "" {
		data, err := os.ReadFile(flags.style)
		if err != nil {
			return workflow.Request{}, fmt.Errorf("read style document: %w", err)
		}
		req.StyleJSON = string(data)
	}
	return req, nil
}

// progressPrinter writes one line per stage change and per 5% of progress.
type progressPrinter struct {
	out     io.Writer
	sampler *logging.ProgressSampler
	wrote   bool
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out, sampler: logging.NewProgressSampler(5)}
}

func (p *progressPrinter) update(stage string, percent float64, message string) {
	if !p.sampler.ShouldLog(percent, stage) {
		return
	}
	fmt.Fprintf(p.out, "[%3.0f%%] %-12s %s\n", percent, stage, message)
	p.wrote = true
}

func (p *progressPrinter) finish() {
	if p.wrote {
		fmt.Fprintln(p.out)
	}
}
