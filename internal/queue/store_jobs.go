package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrJobExists is returned when Create receives an ID already in the store.
var ErrJobExists = errors.New("job already exists")

// Create inserts a queued job.
func (s *Store) Create(ctx context.Context, req NewJob) (*Job, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, errors.New("create job: id is required")
	}
	if strings.TrimSpace(req.VideoPath) == "" {
		return nil, errors.New("create job: video path is required")
	}
	existing, err := s.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrJobExists, req.ID)
	}

	timestamp := nowString()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            id, status, video_path, original_name, transcript_path, style_json,
            render_mode, output_path, progress_stage, progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID,
		StatusQueued,
		req.VideoPath,
		nullableString(req.OriginalName),
		nullableString(req.TranscriptPath),
		nullableString(req.StyleJSON),
		nullableString(req.RenderMode),
		nullableString(req.OutputPath),
		"Queued",
		0.0,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.GetByID(ctx, req.ID)
}

// GetByID fetches a job by identifier. A missing job returns nil, nil.
func (s *Store) GetByID(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// List returns jobs filtered by status (or all jobs when none is provided),
// oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	var args []any
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		args = statusArgs(statuses)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ClaimNext moves the oldest queued job to processing and returns it. It
// returns nil, nil when the queue is empty. The select and update run as one
// statement so concurrent callers never claim the same job.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	ctx = ensureContext(ctx)
	var claimed *Job
	err := retryOnBusy(ctx, func() error {
		timestamp := nowString()
		row := s.db.QueryRowContext(ctx,
			`UPDATE jobs SET status = ?, progress_stage = 'Starting', progress_percent = 0,
                progress_message = NULL, started_at = ?, updated_at = ?
             WHERE id = (SELECT id FROM jobs WHERE status = ? ORDER BY created_at, id LIMIT 1)
             RETURNING `+jobColumns,
			StatusProcessing, timestamp, timestamp, StatusQueued,
		)
		job, err := scanJob(row)
		if errors.Is(err, sql.ErrNoRows) {
			claimed = nil
			return nil
		}
		if err != nil {
			return err
		}
		claimed = job
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim next job: %w", err)
	}
	return claimed, nil
}

// UpdateProgress records the current stage, percent, and message of a job.
func (s *Store) UpdateProgress(ctx context.Context, id, stage string, percent float64, message string) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs SET progress_stage = ?, progress_percent = ?, progress_message = ?, updated_at = ? WHERE id = ?`,
		nullableString(stage), percent, nullableString(message), nowString(), id,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// SetJobLog records where the per-job log file lives.
func (s *Store) SetJobLog(ctx context.Context, id, path string) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs SET job_log_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(path), nowString(), id,
	); err != nil {
		return fmt.Errorf("set job log: %w", err)
	}
	return nil
}

// Complete marks a job completed with its output path.
func (s *Store) Complete(ctx context.Context, id, outputPath string) error {
	timestamp := nowString()
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, output_path = ?, progress_stage = ?, progress_percent = 100,
            progress_message = NULL, error_message = NULL, updated_at = ?, finished_at = ?
         WHERE id = ?`,
		StatusCompleted, nullableString(outputPath), "Completed", timestamp, timestamp, id,
	); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// Fail marks a job failed. needsReview flags failures that retrying the same
// inputs cannot fix.
func (s *Store) Fail(ctx context.Context, id, message string, needsReview bool) error {
	timestamp := nowString()
	if _, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, needs_review = ?, progress_stage = ?,
            progress_message = ?, updated_at = ?, finished_at = ?
         WHERE id = ?`,
		StatusFailed, nullableString(message), boolToInt(needsReview), "Failed",
		nullableString(message), timestamp, timestamp, id,
	); err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearFinished removes completed and failed jobs.
func (s *Store) ClearFinished(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE status IN (?, ?)`, StatusCompleted, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear finished: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of jobs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}
