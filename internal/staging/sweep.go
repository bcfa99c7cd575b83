package staging

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"captioner/internal/logging"
)

// SweepResult lists what a sweep removed and what it failed to remove.
type SweepResult struct {
	Removed []string
	Errors  []SweepError
}

// SweepError pairs a directory with the error that kept it on disk.
type SweepError struct {
	Path string
	Err  error
}

// Sweep removes subdirectories of workDir whose name is not in keep and whose
// modification time is older than minAge. A zero minAge removes every
// unkept directory. Plain files are left alone.
func Sweep(ctx context.Context, workDir string, keep map[string]struct{}, minAge time.Duration, logger *slog.Logger) SweepResult {
	var result SweepResult
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, SweepError{Path: workDir, Err: err})
		}
		return result
	}

	cutoff := time.Now().Add(-minAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.IsDir() {
			continue
		}
		if _, ok := keep[entry.Name()]; ok {
			continue
		}
		path := filepath.Join(workDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, SweepError{Path: path, Err: err})
			continue
		}
		if minAge > 0 && info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, SweepError{Path: path, Err: err})
			logging.WarnWithContext(logger, "failed to remove work directory", "workdir_sweep_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check paths.work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
		logger.Info("removed work directory",
			logging.String("path", path),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "workdir_sweep"),
		)
	}
	return result
}

// Usage reports the number of subdirectories of workDir and the total bytes
// of the regular files below them. A missing workDir reports zero.
func Usage(workDir string) (dirs int, bytes int64, err error) {
	entries, err := os.ReadDir(strings.TrimSpace(workDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dirs++
		_ = filepath.WalkDir(filepath.Join(workDir, entry.Name()), func(_ string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil || d.IsDir() {
				return nil
			}
			if info, err := d.Info(); err == nil {
				bytes += info.Size()
			}
			return nil
		})
	}
	return dirs, bytes, nil
}
