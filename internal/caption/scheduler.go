package caption

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/sync/errgroup"

	"captioner/internal/config"
	"captioner/internal/logging"
	"captioner/internal/services"
)

// State is the lifecycle stage of a Scheduler.
type State int

const (
	StateIdle State = iota
	StateScheduling
	StateDone
)

func (s State) String() string {
	switch s {
	case StateScheduling:
		return "scheduling"
	case StateDone:
		return "done"
	default:
		return "idle"
	}
}

// FaceSource creates font faces at a pixel size. *fonts.Font implements it.
type FaceSource interface {
	NewFace(size float64) font.Face
}

// Options tunes a scheduling session.
type Options struct {
	// Mode is config.RenderModeGrouped or config.RenderModeWord.
	Mode string
	// Workers bounds concurrent rasterization. Zero uses runtime.NumCPU.
	Workers int
	// MinWordDuration drops shorter steps in word mode.
	MinWordDuration float64
	// VerticalMargin is the fraction of frame height kept clear above top
	// captions and below bottom captions.
	VerticalMargin float64
}

// OptionsFromConfig derives scheduler options from render settings.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Mode:            cfg.Render.Mode,
		Workers:         cfg.RenderWorkers(),
		MinWordDuration: cfg.Render.MinWordDuration,
		VerticalMargin:  cfg.Render.VerticalMarginRatio,
	}
}

// Scheduler produces the overlay clips of one render session.
type Scheduler struct {
	style  Style
	faces  FaceSource
	video  Video
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// NewScheduler prepares a session for video using style and faces drawn from
// source.
func NewScheduler(style Style, source FaceSource, video Video, opts Options, logger *slog.Logger) (*Scheduler, error) {
	if source == nil {
		return nil, services.Wrap(services.ErrResource, "caption", "scheduler", "font not loaded", nil)
	}
	if video.Width <= 0 || video.Height <= 0 {
		return nil, services.Wrap(services.ErrInputData, "caption", "scheduler", fmt.Sprintf("invalid video size %dx%d", video.Width, video.Height), nil)
	}
	if opts.Mode == "" {
		opts.Mode = config.RenderModeGrouped
	}
	if opts.Mode == config.RenderModeWord {
		style.GroupSize = 1
		style.Highlight = false
	}
	if style.GroupSize < 1 {
		style.GroupSize = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Scheduler{
		style:  style,
		faces:  source,
		video:  video,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "caption"),
	}, nil
}

// State reports where the session is in its lifecycle.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Step is one planned word step.
type Step struct {
	Timing     ResolvedTiming
	GroupStart int
	GroupEnd   int
	// Highlight is the position of the spoken word inside its group, or -1.
	Highlight int
}

// Plan resolves the timing of every word and returns the steps that produce
// a clip. Planning stops at the first word starting beyond the video.
func (s *Scheduler) Plan(words []WordTimestamp) ([]Step, error) {
	if err := ValidateTimestamps(words); err != nil {
		return nil, err
	}
	resolver := NewTimingResolver(words, s.video.Duration)
	steps := make([]Step, 0, len(words))
	for i := 0; i < resolver.Len(); i++ {
		timing, err := resolver.Resolve(i)
		if errors.Is(err, ErrBeyondVideo) {
			s.logger.Debug("caption schedule reached end of video",
				logging.Int("word_index", i),
				logging.Float64("word_start", timing.Start),
				logging.Float64("video_duration", s.video.Duration),
			)
			break
		}
		if err != nil {
			return nil, err
		}
		if timing.Duration <= 0 {
			continue
		}
		if s.opts.Mode == config.RenderModeWord && timing.Duration < s.opts.MinWordDuration {
			continue
		}
		start, end := GroupBounds(i, s.style.GroupSize, len(words))
		highlight := -1
		if s.style.Highlight {
			highlight = i - start
		}
		steps = append(steps, Step{Timing: timing, GroupStart: start, GroupEnd: end, Highlight: highlight})
	}
	return steps, nil
}

type renderKey struct {
	group     int
	highlight int
}

type renderJob struct {
	key    renderKey
	layout Layout
}

// Run schedules words and returns one clip per emitted step, in timeline
// order. A session runs once; later calls fail.
func (s *Scheduler) Run(ctx context.Context, words []WordTimestamp) ([]OverlayClip, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return nil, services.Wrap(services.ErrValidation, "caption", "schedule", fmt.Sprintf("scheduler is %s", state), nil)
	}
	s.state = StateScheduling
	s.mu.Unlock()
	defer s.setState(StateDone)

	steps, err := s.Plan(words)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		s.logger.Info("no caption steps to render", logging.Int("words", len(words)))
		return nil, nil
	}

	jobs, jobIndex := s.layoutSteps(words, steps)
	canvases, err := s.rasterize(ctx, jobs)
	if err != nil {
		return nil, err
	}

	animation := s.style.Animation()
	clips := make([]OverlayClip, len(steps))
	for i, step := range steps {
		canvas := canvases[jobIndex[i]]
		clips[i] = OverlayClip{
			Index:     step.Timing.Index,
			Text:      NormalizeWord(words[step.Timing.Index].Text),
			Canvas:    canvas,
			Start:     step.Timing.Start,
			Duration:  step.Timing.Duration,
			Position:  s.position(canvas.Bounds()),
			Animation: animation,
		}
	}
	s.logger.Info("caption clips scheduled",
		logging.Int("words", len(words)),
		logging.Int("clips", len(clips)),
		logging.Int("canvases", len(canvases)),
		logging.String("mode", s.opts.Mode),
	)
	return clips, nil
}

// layoutSteps computes one unhighlighted layout per group and derives a
// render job for each distinct (group, highlight) pair. jobIndex maps each
// step to its job.
func (s *Scheduler) layoutSteps(words []WordTimestamp, steps []Step) ([]renderJob, []int) {
	face := s.faces.NewFace(s.style.FontSize)
	defer face.Close()
	metrics := NewFaceMetrics(face)
	opts := s.style.layoutOptions(s.video.Width)

	groups := make(map[int]Layout)
	seen := make(map[renderKey]int)
	var jobs []renderJob
	jobIndex := make([]int, len(steps))
	for i, step := range steps {
		base, ok := groups[step.GroupStart]
		if !ok {
			styled := make([]StyledWord, 0, step.GroupEnd-step.GroupStart)
			for _, w := range words[step.GroupStart:step.GroupEnd] {
				styled = append(styled, StyledWord{Text: NormalizeWord(w.Text), Role: RoleNormal})
			}
			base = LayoutWords(styled, opts, metrics)
			groups[step.GroupStart] = base
			if len(base.Overflow) > 0 {
				logging.WarnWithContext(s.logger, "caption word wider than caption area", "layout_overflow",
					logging.Int("group_start", step.GroupStart),
					logging.String("words", strings.Join(base.Overflow, " ")),
					logging.Float64("max_width", opts.MaxWidth),
					logging.String(logging.FieldErrorHint, "reduce font_size or raise caption_width_ratio"),
					logging.String(logging.FieldImpact, "caption overflows its area and may be clipped"),
				)
			}
		}
		key := renderKey{group: step.GroupStart, highlight: step.Highlight}
		idx, ok := seen[key]
		if !ok {
			idx = len(jobs)
			seen[key] = idx
			jobs = append(jobs, renderJob{key: key, layout: base.WithHighlight(step.Highlight)})
		}
		jobIndex[i] = idx
	}
	return jobs, jobIndex
}

// rasterize paints every job on a bounded pool. Faces are handed out from a
// pool with one face per worker because faces are not safe for concurrent use.
func (s *Scheduler) rasterize(ctx context.Context, jobs []renderJob) ([]*image.RGBA, error) {
	workers := min(s.opts.Workers, len(jobs))
	faces := make(chan font.Face, workers)
	for range workers {
		faces <- s.faces.NewFace(s.style.FontSize)
	}
	defer func() {
		close(faces)
		for face := range faces {
			_ = face.Close()
		}
	}()

	canvases := make([]*image.RGBA, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			face := <-faces
			defer func() { faces <- face }()
			canvases[i] = NewRasterizer(s.style, face).Render(job.layout)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return canvases, nil
}

// position places a canvas on the frame: centered horizontally, and
// vertically centered or held a margin away from the top or bottom edge.
func (s *Scheduler) position(canvas image.Rectangle) image.Point {
	return Place(s.video, canvas.Dx(), canvas.Dy(), s.style.VerticalAlign, s.opts.VerticalMargin)
}

// Place returns the top-left corner of a width x height canvas on video.
func Place(video Video, width, height int, verticalAlign string, margin float64) image.Point {
	x := (video.Width - width) / 2
	margin = float64(video.Height) * margin
	var y int
	switch verticalAlign {
	case config.AlignTop:
		y = int(margin)
	case config.AlignBottom:
		y = video.Height - height - int(margin)
	default:
		y = (video.Height - height) / 2
	}
	return image.Point{X: x, Y: y}
}
