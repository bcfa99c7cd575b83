package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"captioner/internal/config"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/preflight"
	"captioner/internal/queue"
	"captioner/internal/staging"
	"captioner/internal/workflow"
)

// staleWorkDirAge is how old a work directory without a job record must be
// before the startup sweep removes it.
const staleWorkDirAge = 6 * time.Hour

// Daemon coordinates background rendering and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	registry *jobs.Registry
	workflow *workflow.Manager
	logHub   *logging.StreamHub
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	Preflight    []preflight.Result
}

// New constructs a daemon with initialized dependencies. hub may be nil when
// log streaming is not wanted.
func New(cfg *config.Config, store *queue.Store, registry *jobs.Registry, wf *workflow.Manager, logger *slog.Logger, hub *logging.StreamHub) (*Daemon, error) {
	if cfg == nil || store == nil || registry == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, registry, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := filepath.Join(cfg.Paths.LogDir, "captionerd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		registry: registry,
		workflow: wf,
		logHub:   hub,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, requeues interrupted jobs, and launches the
// workflow manager and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another captioner daemon instance is already running")
	}

	if _, err := d.registry.Recover(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("recover jobs: %w", err)
	}
	d.sweepWorkDirs(ctx)
	for _, result := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "jobs depending on this check will fail"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.workflow.Stop()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("captioner daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.APIAddress()),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// sweepWorkDirs removes scratch directories left by jobs that no longer
// exist.
func (d *Daemon) sweepWorkDirs(ctx context.Context) {
	all, err := d.registry.List(ctx)
	if err != nil {
		d.logger.Warn("skipping work directory sweep", logging.Error(err))
		return
	}
	result := staging.Sweep(ctx, d.cfg.Paths.WorkDir, staging.KeepJobs(all), staleWorkDirAge, d.logger)
	if len(result.Removed) > 0 {
		d.logger.Info("swept work directories", logging.Int("removed", len(result.Removed)))
	}
}

// Stop halts processing, fails the interrupted job, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if count, err := d.store.FailProcessing(context.Background(), queue.DaemonStopReason); err != nil {
		d.logger.Warn("failed to mark interrupted jobs", logging.Error(err))
	} else if count > 0 {
		d.logger.Info("marked interrupted jobs failed", logging.Int64("count", count))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("captioner daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// APIAddress returns the bound API address, or "" before Start.
func (d *Daemon) APIAddress() string {
	return d.api.address()
}

// LogStream exposes the live log hub.
func (d *Daemon) LogStream() *logging.StreamHub {
	return d.logHub
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
		Preflight:    preflight.RunAll(ctx, d.cfg),
	}
}
