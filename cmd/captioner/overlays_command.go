package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"

	"captioner/internal/caption"
	"captioner/internal/config"
	"captioner/internal/fonts"
	"captioner/internal/transcript"
)

type overlayFlags struct {
	width    int
	height   int
	duration float64
	outDir   string
	style    string
	mode     string
	asJSON   bool
}

type overlayFile struct {
	Index    int     `json:"index"`
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Path     string  `json:"path"`
}

func newOverlaysCommand(ctx *commandContext) *cobra.Command {
	flags := overlayFlags{width: 1920, height: 1080}

	cmd := &cobra.Command{
		Use:   "overlays <transcript>",
		Short: "Write each rasterized caption step as a PNG",
		Long: "Overlays schedules captions for a transcript against a virtual frame and " +
			"writes one transparent PNG per step, without decoding or encoding video.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger()

			words, err := transcript.Load(args[0], logger)
			if err != nil {
				return err
			}
			if len(words) == 0 {
				return fmt.Errorf("transcript %s has no words", args[0])
			}

			styleCfg := cfg.Style
			if strings.TrimSpace(flags.style) != "" {
				var unknown []string
				styleCfg, unknown, err = config.LoadStyleDocument(cfg.Style, flags.style)
				if err != nil {
					return err
				}
				for _, key := range unknown {
					fmt.Fprintf(cmd.ErrOrStderr(), "Ignoring unknown style key %q\n", key)
				}
			}
			style, err := caption.StyleFromConfig(styleCfg)
			if err != nil {
				return err
			}
			font, err := fonts.SelectAndLoad(styleCfg.FontPath, cfg.Render.FontSeed)
			if err != nil {
				return err
			}

			video := caption.Video{Width: flags.width, Height: flags.height, Duration: flags.duration}
			if video.Duration <= 0 {
				video.Duration = words[len(words)-1].End
			}
			opts := caption.OptionsFromConfig(cfg)
			if flags.mode != "" {
				opts.Mode = flags.mode
			}
			scheduler, err := caption.NewScheduler(style, font, video, opts, logger)
			if err != nil {
				return err
			}
			clips, err := scheduler.Run(cmd.Context(), words)
			if err != nil {
				return err
			}

			outDir := flags.outDir
			if outDir == "" {
				outDir = filepath.Join(cfg.Paths.WorkDir, "overlays")
			}
			files, err := writeOverlays(outDir, clips)
			if err != nil {
				return err
			}

			if flags.asJSON {
				return writeJSON(cmd, files)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Start", "Duration", "Position", "Text", "File"},
				overlayRows(files),
				[]columnAlignment{alignRight, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
			))
			fmt.Fprintf(cmd.OutOrStdout(), "%d overlays written to %s using %s\n", len(files), outDir, font.Name())
			return nil
		},
	}

	cmd.Flags().IntVar(&flags.width, "width", flags.width, "Frame width in pixels")
	cmd.Flags().IntVar(&flags.height, "height", flags.height, "Frame height in pixels")
	cmd.Flags().Float64Var(&flags.duration, "duration", 0, "Video duration in seconds (defaults to the last word's end)")
	cmd.Flags().StringVarP(&flags.outDir, "out", "o", "", "Directory for PNG files (defaults to paths.work_dir/overlays)")
	cmd.Flags().StringVarP(&flags.style, "style", "s", "", "Style document (JSON or YAML) overriding [style]")
	cmd.Flags().StringVarP(&flags.mode, "mode", "m", "", "Render mode: grouped or word")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "Print the overlay manifest as JSON")
	return cmd
}

func writeOverlays(dir string, clips []caption.OverlayClip) ([]overlayFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create overlay directory: %w", err)
	}
	files := make([]overlayFile, 0, len(clips))
	for _, clip := range clips {
		path := filepath.Join(dir, fmt.Sprintf("overlay_%04d.png", clip.Index))
		if err := gg.SavePNG(path, clip.Canvas); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		files = append(files, overlayFile{
			Index:    clip.Index,
			Text:     clip.Text,
			Start:    clip.Start,
			Duration: clip.Duration,
			X:        clip.Position.X,
			Y:        clip.Position.Y,
			Path:     path,
		})
	}
	return files, nil
}

func overlayRows(files []overlayFile) [][]string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			fmt.Sprintf("%d", f.Index),
			fmt.Sprintf("%.3f", f.Start),
			fmt.Sprintf("%.3f", f.Duration),
			fmt.Sprintf("%d,%d", f.X, f.Y),
			f.Text,
			filepath.Base(f.Path),
		})
	}
	return rows
}
