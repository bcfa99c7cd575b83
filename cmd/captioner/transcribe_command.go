package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"captioner/internal/config"
	"captioner/internal/language"
	"captioner/internal/services/whisperx"
	"captioner/internal/textutil"
	"captioner/internal/transcript"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var model string
	var lang string

	cmd := &cobra.Command{
		Use:   "transcribe <video>",
		Short: "Produce a word-timed WhisperX transcript for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			video, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(lang) != "" {
				code, ok := language.Normalize(lang)
				if !ok {
					return fmt.Errorf("unrecognized language %q", lang)
				}
				lang = code
			} else {
				lang = cfg.Transcription.Language
			}
			if strings.TrimSpace(outPath) == "" {
				outPath = strings.TrimSuffix(video, filepath.Ext(video)) + ".json"
			}
			workDir := filepath.Join(cfg.Paths.WorkDir, "transcribe-"+textutil.RandomName(8))
			defer os.RemoveAll(workDir)

			settings := whisperx.Config{
				Model:       cfg.Transcription.WhisperXModel,
				CUDAEnabled: cfg.Transcription.CUDAEnabled,
				VADMethod:   cfg.Transcription.VADMethod,
				HFToken:     cfg.Transcription.HFToken,
				Language:    lang,
			}
			if strings.TrimSpace(model) != "" {
				settings.Model = model
			}
			service := whisperx.NewService(settings, cfg.Encoder.FFmpegBinary)

			fmt.Fprintf(cmd.ErrOrStderr(), "Transcribing %s with %s (language: %s, cuda: %s)\n",
				filepath.Base(video), service.Model(), language.Name(lang), yesNo(service.CUDAEnabled()))
			raw, err := service.Transcribe(cmd.Context(), video, workDir)
			if err != nil {
				return err
			}
			words, err := transcript.Load(raw, ctx.logger())
			if err != nil {
				return err
			}
			if err := transcript.Write(outPath, words); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d words)\n", outPath, len(words))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Transcript path (defaults to the video path with a .json extension)")
	cmd.Flags().StringVar(&lang, "language", "", "Spoken language overriding transcription.language (code or English name)")
	cmd.Flags().StringVar(&model, "model", "", "WhisperX model overriding transcription.whisperx_model")
	return cmd
}
