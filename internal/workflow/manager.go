package workflow

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"captioner/internal/config"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/notifications"
	"captioner/internal/queue"
	"captioner/internal/services"
	"captioner/internal/staging"
)

// Manager processes queued jobs one at a time.
type Manager struct {
	cfg          *config.Config
	registry     *jobs.Registry
	runner       *Runner
	notifier     notifications.Service
	logger       *slog.Logger
	pollInterval time.Duration
	retryDelay   time.Duration

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
	active  string
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, registry *jobs.Registry, runner *Runner, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		registry:     registry,
		runner:       runner,
		notifier:     notifications.NewService(cfg),
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		retryDelay:   time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
	}
}

// SetNotifier replaces the job outcome notifier. Call before Start.
func (m *Manager) SetNotifier(n notifications.Service) {
	if n != nil {
		m.notifier = n
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.loop(runCtx)
	return nil
}

// Stop terminates background processing and waits for the active job to
// observe cancellation.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	ActiveJob  string
	LastError  string
	LastJob    *queue.Job
	QueueStats map[queue.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, ActiveJob: m.active}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastJob != nil {
		copy := *m.lastJob
		summary.LastJob = &copy
	}
	m.mu.RUnlock()

	stats, err := m.registry.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	return summary
}

// ActiveJobs reports how many jobs are rendering right now.
func (m *Manager) ActiveJobs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == "" {
		return 0
	}
	return 1
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := m.registry.Claim(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			m.logger.Error("failed to claim next job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			m.wait(ctx, m.retryDelay)
			continue
		}
		if job == nil {
			m.wait(ctx, m.pollInterval)
			continue
		}
		m.process(ctx, job)
	}
}

func (m *Manager) wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		d = time.Second
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (m *Manager) process(ctx context.Context, job *queue.Job) {
	m.setActive(job.ID)
	defer m.setActive("")

	ctx = services.WithJobID(ctx, job.ID)
	logger, closeLog := m.jobLogger(ctx, job)
	defer closeLog()

	started := time.Now()
	logger.Info("job started",
		logging.String("video", job.VideoPath),
		logging.String(logging.FieldEventType, "job_started"),
	)
	result, err := m.runner.Run(ctx, Request{
		JobID:          job.ID,
		VideoPath:      job.VideoPath,
		TranscriptPath: job.TranscriptPath,
		StyleJSON:      job.StyleJSON,
		RenderMode:     job.RenderMode,
		OutputPath:     job.OutputPath,
	}, logger, func(stage string, percent float64, message string) {
		stageCtx := services.WithStage(ctx, stage)
		if advErr := m.registry.Advance(stageCtx, job.ID, stage, percent, message); advErr != nil {
			logging.WarnWithContext(logger, "progress update failed", "progress_persist_failed",
				logging.Error(advErr),
				logging.String(logging.FieldImpact, "job progress may lag in the API"),
			)
		}
	})

	// Use a detached context so terminal state lands even during shutdown.
	persistCtx := context.WithoutCancel(ctx)
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			logger.Info("job interrupted by shutdown",
				logging.String(logging.FieldEventType, "job_interrupted"),
			)
			return
		}
		m.setLastError(err)
		if failErr := m.registry.Fail(persistCtx, job.ID, err); failErr != nil {
			logger.Error("failed to persist job failure", logging.Error(failErr))
		}
		m.setLastJob(persistCtx, job.ID)
		m.notify(logger, m.notifier.JobFailed(persistCtx, jobName(job), err))
		return
	}
	if err := m.registry.Complete(persistCtx, job.ID, result.OutputPath); err != nil {
		m.setLastError(err)
		logger.Error("failed to persist job completion", logging.Error(err))
	}
	m.setLastJob(persistCtx, job.ID)
	m.notify(logger, m.notifier.JobCompleted(persistCtx, jobName(job), result.OutputPath, time.Since(started)))
}

func (m *Manager) notify(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldImpact, "job outcome was not announced"),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
	)
}

func jobName(job *queue.Job) string {
	if job.OriginalName != "" {
		return job.OriginalName
	}
	return job.VideoPath
}

// jobLogger returns a logger that also writes to work_dir/<job>/job.log and a
// function releasing the file.
func (m *Manager) jobLogger(ctx context.Context, job *queue.Job) (*slog.Logger, func()) {
	base := logging.WithContext(ctx, m.logger)
	path := filepath.Join(staging.JobDir(m.cfg.Paths.WorkDir, job.ID), "job.log")
	logger, closer, err := logging.NewJobLogger(base, path, m.cfg.Logging.Format)
	if err != nil {
		logging.WarnWithContext(base, "job log unavailable", "job_log_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job messages only reach the daemon log"),
		)
		return base, func() {}
	}
	if err := m.registry.AttachLog(ctx, job.ID, path); err != nil {
		logger.Warn("failed to record job log path", logging.Error(err))
	}
	return logger, func() { _ = closer.Close() }
}

func (m *Manager) setActive(id string) {
	m.mu.Lock()
	m.active = id
	m.mu.Unlock()
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(ctx context.Context, id string) {
	job, err := m.registry.Get(ctx, id)
	if err != nil {
		return
	}
	m.mu.Lock()
	m.lastJob = job
	m.mu.Unlock()
}
