package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"captioner/internal/caption"
	"captioner/internal/compositor"
	"captioner/internal/config"
	"captioner/internal/fileutil"
	"captioner/internal/fonts"
	"captioner/internal/logging"
	"captioner/internal/media/ffprobe"
	"captioner/internal/services"
	"captioner/internal/services/drapto"
	"captioner/internal/services/whisperx"
	"captioner/internal/staging"
	"captioner/internal/textutil"
	"captioner/internal/transcript"
)

// Progress stage labels.
const (
	StageProbing      = "Probing"
	StageTranscribing = "Transcribing"
	StageScheduling   = "Scheduling"
	StageEncoding     = "Encoding"
	StageFinalizing   = "Finalizing"
	StageCompleted    = "Completed"
)

// Fixed progress milestones; encoding fills the span between scheduled and
// encoded.
const (
	percentProbed     = 5
	percentTranscript = 20
	percentScheduled  = 40
	percentEncoded    = 95
	percentDone       = 100
)

// Request describes one render.
type Request struct {
	JobID     string
	VideoPath string
	// TranscriptPath points at WhisperX-style JSON. Empty triggers
	// transcription.
	TranscriptPath string
	// StyleJSON overlays the configured style for this render only.
	StyleJSON string
	// RenderMode overrides render.mode when set.
	RenderMode string
	// OutputPath is generated under paths.output_dir when empty.
	OutputPath string
	// WorkDir holds intermediates. Defaults to paths.work_dir/<job id>.
	WorkDir string
}

// Result summarizes a finished render.
type Result struct {
	OutputPath     string
	TranscriptPath string
	Font           string
	Clips          int
	Frames         int
	Video          caption.Video
}

// ProgressFunc receives stage, percent (0-100) and a short message.
type ProgressFunc func(stage string, percent float64, message string)

// FrameSource is a decoder that must be closed.
type FrameSource interface {
	compositor.FrameSource
	Close() error
}

// FrameSink is an encoder whose Close finalizes the output file.
type FrameSink interface {
	compositor.FrameSink
	Close() error
}

// Transcriber produces a transcript JSON file for a video.
type Transcriber interface {
	Transcribe(ctx context.Context, videoPath, workDir string) (string, error)
}

type (
	probeFunc      func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	openSourceFunc func(ctx context.Context, opts compositor.SourceOptions) (FrameSource, error)
	openSinkFunc   func(ctx context.Context, opts compositor.SinkOptions) (FrameSink, error)
)

// Runner executes renders. It is safe for sequential reuse.
type Runner struct {
	cfg         *config.Config
	logger      *slog.Logger
	probe       probeFunc
	transcriber Transcriber
	drapto      drapto.Client
	openSource  openSourceFunc
	openSink    openSinkFunc
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithProbe replaces the ffprobe invocation.
func WithProbe(probe func(ctx context.Context, binary, path string) (ffprobe.Result, error)) RunnerOption {
	return func(r *Runner) { r.probe = probe }
}

// WithTranscriber replaces the WhisperX service.
func WithTranscriber(t Transcriber) RunnerOption {
	return func(r *Runner) { r.transcriber = t }
}

// WithDrapto replaces the Drapto client used for the AV1 pass.
func WithDrapto(client drapto.Client) RunnerOption {
	return func(r *Runner) { r.drapto = client }
}

// WithFrameIO replaces the ffmpeg decoder and encoder pipes.
func WithFrameIO(
	source func(ctx context.Context, opts compositor.SourceOptions) (FrameSource, error),
	sink func(ctx context.Context, opts compositor.SinkOptions) (FrameSink, error),
) RunnerOption {
	return func(r *Runner) {
		r.openSource = source
		r.openSink = sink
	}
}

// NewRunner builds a Runner backed by ffprobe, ffmpeg, WhisperX and Drapto.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "workflow"),
		probe:  ffprobe.Inspect,
		transcriber: whisperx.NewService(whisperx.Config{
			Model:       cfg.Transcription.WhisperXModel,
			CUDAEnabled: cfg.Transcription.CUDAEnabled,
			VADMethod:   cfg.Transcription.VADMethod,
			HFToken:     cfg.Transcription.HFToken,
			Language:    cfg.Transcription.Language,
		}, cfg.Encoder.FFmpegBinary),
		drapto: drapto.NewLibrary(),
		openSource: func(ctx context.Context, opts compositor.SourceOptions) (FrameSource, error) {
			return compositor.OpenSource(ctx, opts)
		},
		openSink: func(ctx context.Context, opts compositor.SinkOptions) (FrameSink, error) {
			return compositor.OpenSink(ctx, opts)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run renders req. The logger carries job context for every message.
func (r *Runner) Run(ctx context.Context, req Request, logger *slog.Logger, progress ProgressFunc) (Result, error) {
	if logger == nil {
		logger = r.logger
	}
	if progress == nil {
		progress = func(string, float64, string) {}
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "workflow", "run", "video path required", nil)
	}
	workDir, err := r.workDir(req)
	if err != nil {
		return Result{}, err
	}

	progress(StageProbing, 0, filepath.Base(req.VideoPath))
	info, err := r.probeVideo(ctx, req.VideoPath)
	if err != nil {
		return Result{}, err
	}
	video := caption.Video{Width: info.Width, Height: info.Height, Duration: info.Duration}
	logger.Info("video probed",
		logging.Int("width", info.Width),
		logging.Int("height", info.Height),
		logging.Float64("fps", info.FPS),
		logging.Float64("duration_seconds", info.Duration),
		logging.Bool("has_audio", info.HasAudio),
		logging.String(logging.FieldEventType, "video_probed"),
	)
	progress(StageProbing, percentProbed, fmt.Sprintf("%dx%d %.1fs", info.Width, info.Height, info.Duration))

	styleCfg, err := r.resolveStyle(req, logger)
	if err != nil {
		return Result{}, err
	}
	style, err := caption.StyleFromConfig(styleCfg)
	if err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "workflow", "style", "", err)
	}

	transcriptPath := req.TranscriptPath
	if strings.TrimSpace(transcriptPath) == "" {
		progress(StageTranscribing, percentProbed, "running whisperx")
		transcriptPath, err = r.transcriber.Transcribe(ctx, req.VideoPath, workDir)
		if err != nil {
			return Result{}, err
		}
	}
	words, err := transcript.Load(transcriptPath, logger)
	if err != nil {
		return Result{}, err
	}
	progress(StageTranscribing, percentTranscript, fmt.Sprintf("%d words", len(words)))

	font, err := fonts.SelectAndLoad(styleCfg.FontPath, r.cfg.Render.FontSeed)
	if err != nil {
		return Result{}, err
	}
	logger.Info("font selected",
		logging.String("font", font.Name()),
		logging.String(logging.FieldEventType, "font_selected"),
	)

	opts := caption.OptionsFromConfig(r.cfg)
	if mode := strings.TrimSpace(req.RenderMode); mode != "" {
		opts.Mode = mode
	}
	scheduler, err := caption.NewScheduler(style, font, video, opts, logger)
	if err != nil {
		return Result{}, err
	}
	progress(StageScheduling, percentTranscript, "rasterizing captions")
	clips, err := scheduler.Run(ctx, words)
	if err != nil {
		return Result{}, err
	}
	progress(StageScheduling, percentScheduled, fmt.Sprintf("%d overlays", len(clips)))

	finalPath := strings.TrimSpace(req.OutputPath)
	if styled := strings.TrimSpace(styleCfg.OutputPath); finalPath == "" && styled != "" {
		expanded, err := config.ExpandPath(styled)
		if err != nil {
			return Result{}, services.Wrap(services.ErrConfiguration, "workflow", "output", styled, err)
		}
		finalPath = expanded
	}
	if finalPath == "" {
		finalPath = textutil.OutputPath(r.cfg.Paths.OutputDir, ".mp4")
	}
	useDrapto := strings.EqualFold(r.cfg.Encoder.Codec, config.CodecDrapto)
	stem := strings.TrimSuffix(filepath.Base(finalPath), filepath.Ext(finalPath))
	encodePath := filepath.Join(workDir, stem+".mp4")
	if !useDrapto {
		encodePath = filepath.Join(workDir, stem+filepath.Ext(finalPath))
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "workflow", "output", filepath.Dir(finalPath), err)
	}

	fps := r.cfg.OutputFPS(info.FPS)
	frames, err := r.compose(ctx, req.VideoPath, encodePath, info, fps, clips, logger, progress)
	if err != nil {
		return Result{}, err
	}

	if useDrapto {
		progress(StageFinalizing, percentEncoded, "drapto av1 encode")
		finalPath, err = r.drapto.Encode(ctx, encodePath, filepath.Dir(finalPath), drapto.EncodeOptions{
			Progress: func(update drapto.ProgressUpdate) {
				if update.Type == drapto.EventTypeEncodingProgress {
					progress(StageFinalizing, percentEncoded+update.Percent*(percentDone-percentEncoded-1)/100, update.Message)
				}
			},
		})
		if err != nil {
			return Result{}, err
		}
	} else if err := fileutil.MoveFile(encodePath, finalPath); err != nil {
		return Result{}, services.Wrap(services.ErrResource, "workflow", "move output", finalPath, err)
	}

	logger.Info("render complete",
		logging.String("output", finalPath),
		logging.Int("frames", frames),
		logging.Int("overlays", len(clips)),
		logging.String(logging.FieldEventType, "render_complete"),
	)
	progress(StageCompleted, percentDone, filepath.Base(finalPath))
	return Result{
		OutputPath:     finalPath,
		TranscriptPath: transcriptPath,
		Font:           font.Name(),
		Clips:          len(clips),
		Frames:         frames,
		Video:          video,
	}, nil
}

func (r *Runner) workDir(req Request) (string, error) {
	dir := strings.TrimSpace(req.WorkDir)
	if dir == "" {
		id := req.JobID
		if strings.TrimSpace(id) == "" {
			id = textutil.RandomName(12)
		}
		dir = staging.JobDir(r.cfg.Paths.WorkDir, id)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "workflow", "work dir", dir, err)
	}
	return dir, nil
}

func (r *Runner) probeVideo(ctx context.Context, path string) (ffprobe.VideoInfo, error) {
	result, err := r.probe(ctx, r.cfg.Encoder.FFprobeBinary, path)
	if err != nil {
		return ffprobe.VideoInfo{}, err
	}
	info, err := result.Video()
	if err != nil {
		return ffprobe.VideoInfo{}, services.Wrap(services.ErrResource, "workflow", "probe", path, err)
	}
	return info, nil
}

func (r *Runner) resolveStyle(req Request, logger *slog.Logger) (config.Style, error) {
	if strings.TrimSpace(req.StyleJSON) == "" {
		return r.cfg.Style, nil
	}
	style, unknown, err := config.ApplyStyleDocument(r.cfg.Style, []byte(req.StyleJSON))
	if err != nil {
		return config.Style{}, services.Wrap(services.ErrValidation, "workflow", "style document", "", err)
	}
	if len(unknown) > 0 {
		logging.WarnWithContext(logger, "style document has unknown keys", "style_unknown_keys",
			logging.String("keys", strings.Join(unknown, ",")),
			logging.String(logging.FieldImpact, "keys ignored"),
		)
	}
	return style, nil
}

func (r *Runner) compose(
	ctx context.Context,
	input, output string,
	info ffprobe.VideoInfo,
	fps float64,
	clips []caption.OverlayClip,
	logger *slog.Logger,
	progress ProgressFunc,
) (int, error) {
	src, err := r.openSource(ctx, compositor.SourceOptions{
		Binary: r.cfg.Encoder.FFmpegBinary,
		Path:   input,
		Width:  info.Width,
		Height: info.Height,
		FPS:    fps,
	})
	if err != nil {
		return 0, err
	}
	defer src.Close()

	codec := r.cfg.Encoder.Codec
	if strings.EqualFold(codec, config.CodecDrapto) {
		codec = config.CodecX264
	}
	audio := ""
	if info.HasAudio {
		audio = input
	}
	sink, err := r.openSink(ctx, compositor.SinkOptions{
		Binary:      r.cfg.Encoder.FFmpegBinary,
		Output:      output,
		Width:       info.Width,
		Height:      info.Height,
		FPS:         fps,
		AudioSource: audio,
		Codec:       codec,
		Bitrate:     r.cfg.Encoder.Bitrate,
		Preset:      r.cfg.Encoder.Preset,
		Threads:     r.cfg.EncoderThreads(),
		AudioCodec:  r.cfg.Encoder.AudioCodec,
	})
	if err != nil {
		return 0, err
	}

	total := int(math.Ceil(info.Duration * fps))
	sampler := logging.NewProgressSampler(1)
	frames, renderErr := compositor.Render(ctx, src, sink, clips, fps, func(frame int, t float64) {
		if total <= 0 {
			return
		}
		fraction := math.Min(1, float64(frame)/float64(total))
		percent := percentScheduled + fraction*(percentEncoded-percentScheduled)
		if sampler.ShouldLog(percent, StageEncoding) {
			progress(StageEncoding, percent, fmt.Sprintf("frame %d/%d", frame, total))
		}
	})
	closeErr := sink.Close()
	if renderErr != nil {
		return frames, renderErr
	}
	if closeErr != nil {
		return frames, closeErr
	}
	logger.Debug("frames encoded",
		logging.Int("frames", frames),
		logging.String("output", output),
		logging.String(logging.FieldEventType, "frames_encoded"),
	)
	progress(StageEncoding, percentEncoded, fmt.Sprintf("%d frames", frames))
	return frames, nil
}
