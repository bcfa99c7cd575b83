package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"captioner/internal/logging"
	"captioner/internal/queue"
	"captioner/internal/services"
)

// ErrUnknownJob is returned for identifiers the registry has never seen.
var ErrUnknownJob = errors.New("unknown job")

// Request describes a job to create.
type Request struct {
	// ID is generated when empty.
	ID             string
	VideoPath      string
	OriginalName   string
	TranscriptPath string
	StyleJSON      string
	RenderMode     string
	OutputPath     string
}

// Registry coordinates job state transitions.
type Registry struct {
	store  *queue.Store
	hub    *hub
	logger *slog.Logger
}

// NewRegistry builds a registry persisting to store.
func NewRegistry(store *queue.Store, logger *slog.Logger) *Registry {
	return &Registry{
		store:  store,
		hub:    newHub(0),
		logger: logging.NewComponentLogger(logger, "jobs"),
	}
}

// NewID returns a fresh job identifier.
func NewID() string {
	return uuid.NewString()
}

// Create persists a queued job.
func (r *Registry) Create(ctx context.Context, req Request) (*queue.Job, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = NewID()
	}
	job, err := r.store.Create(ctx, queue.NewJob{
		ID:             id,
		VideoPath:      req.VideoPath,
		OriginalName:   req.OriginalName,
		TranscriptPath: req.TranscriptPath,
		StyleJSON:      req.StyleJSON,
		RenderMode:     req.RenderMode,
		OutputPath:     req.OutputPath,
	})
	if err != nil {
		if errors.Is(err, queue.ErrJobExists) {
			return nil, services.Wrap(services.ErrValidation, "jobs", "create", id, err)
		}
		return nil, err
	}
	r.logger.Info("job created",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("video", job.VideoPath),
		logging.String(logging.FieldEventType, "job_created"),
	)
	r.hub.publish(Event{JobID: job.ID, Type: EventCreated, Status: job.Status, Stage: job.ProgressStage})
	return job, nil
}

// Claim moves the oldest queued job to processing. It returns nil, nil when
// nothing is queued.
func (r *Registry) Claim(ctx context.Context) (*queue.Job, error) {
	job, err := r.store.ClaimNext(ctx)
	if err != nil || job == nil {
		return nil, err
	}
	r.hub.publish(Event{JobID: job.ID, Type: EventStarted, Status: job.Status, Stage: job.ProgressStage})
	return job, nil
}

// Advance records progress of a processing job.
func (r *Registry) Advance(ctx context.Context, id, stage string, percent float64, message string) error {
	if err := r.store.UpdateProgress(ctx, id, stage, percent, message); err != nil {
		return err
	}
	r.hub.publish(Event{
		JobID:   id,
		Type:    EventProgress,
		Status:  queue.StatusProcessing,
		Stage:   stage,
		Percent: percent,
		Message: message,
	})
	return nil
}

// Complete marks a job finished with its output.
func (r *Registry) Complete(ctx context.Context, id, outputPath string) error {
	if err := r.store.Complete(ctx, id, outputPath); err != nil {
		return err
	}
	r.logger.Info("job completed",
		logging.String(logging.FieldJobID, id),
		logging.String("output", outputPath),
		logging.String(logging.FieldEventType, "job_completed"),
	)
	r.hub.publish(Event{
		JobID:      id,
		Type:       EventCompleted,
		Status:     queue.StatusCompleted,
		Stage:      "Completed",
		Percent:    100,
		OutputPath: outputPath,
	})
	return nil
}

// Fail marks a job failed. Input and configuration errors are flagged for
// review since retrying cannot fix them.
func (r *Registry) Fail(ctx context.Context, id string, cause error) error {
	status, needsReview := services.FailureStatus(cause)
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	if err := r.store.Fail(ctx, id, message, needsReview); err != nil {
		return err
	}
	logging.ErrorWithContext(r.logger, "job failed", "job_failed",
		logging.String(logging.FieldJobID, id),
		logging.Bool("needs_review", needsReview),
		logging.Error(cause),
	)
	r.hub.publish(Event{
		JobID:  id,
		Type:   EventFailed,
		Status: status,
		Stage:  "Failed",
		Error:  message,
	})
	return nil
}

// Get returns a job by id.
func (r *Registry) Get(ctx context.Context, id string) (*queue.Job, error) {
	job, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, id)
	}
	return job, nil
}

// List returns jobs filtered by status.
func (r *Registry) List(ctx context.Context, statuses ...queue.Status) ([]*queue.Job, error) {
	return r.store.List(ctx, statuses...)
}

// Subscribe returns a channel of events for jobID, or for every job when
// jobID is empty. The cancel function must be called to release it.
func (r *Registry) Subscribe(jobID string, buffer int) (<-chan Event, func()) {
	return r.hub.subscribe(jobID, buffer)
}

// Subscribers reports the number of active channel subscribers.
func (r *Registry) Subscribers() int {
	return r.hub.subscriberCount()
}

// Events returns retained events for jobID after sequence since, plus the
// latest sequence. With wait set it subscribes and blocks until an event
// arrives or ctx ends, so waiting callers count as subscribers.
func (r *Registry) Events(ctx context.Context, jobID string, since uint64, wait bool) ([]Event, uint64, error) {
	if !wait {
		events, next := r.hub.fetch(jobID, since)
		return events, next, nil
	}
	notify, cancel := r.Subscribe(jobID, 1)
	defer cancel()
	for {
		events, next := r.hub.fetch(jobID, since)
		if len(events) > 0 {
			return events, next, nil
		}
		select {
		case <-ctx.Done():
			return nil, next, ctx.Err()
		case <-notify:
		}
	}
}

// AttachLog records where a job's log file lives.
func (r *Registry) AttachLog(ctx context.Context, id, path string) error {
	return r.store.SetJobLog(ctx, id, path)
}

// Recover returns jobs left processing by an earlier daemon to the queue.
func (r *Registry) Recover(ctx context.Context) (int64, error) {
	count, err := r.store.ResetStuckProcessing(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		r.logger.Info("requeued interrupted jobs",
			logging.Int64("count", count),
			logging.String(logging.FieldEventType, "jobs_recovered"),
		)
	}
	return count, nil
}

// Stats counts jobs per status.
func (r *Registry) Stats(ctx context.Context) (map[queue.Status]int, error) {
	return r.store.Stats(ctx)
}
