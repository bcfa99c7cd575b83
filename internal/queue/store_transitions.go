package queue

import (
	"context"
	"fmt"
)

// ResetStuckProcessing returns jobs left in processing by a previous daemon
// run to the queue.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, progress_stage = 'Reset from stuck processing',
            progress_percent = 0, progress_message = NULL, started_at = NULL, updated_at = ?
         WHERE status = ?`,
		StatusQueued, nowString(), StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// FailProcessing fails every job still in processing with reason.
func (s *Store) FailProcessing(ctx context.Context, reason string) (int64, error) {
	timestamp := nowString()
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, progress_stage = 'Failed',
            progress_message = ?, updated_at = ?, finished_at = ?
         WHERE status = ?`,
		StatusFailed, reason, reason, timestamp, timestamp, StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("fail processing jobs: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed moves failed jobs back to queued. With no ids every failed job
// is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...string) (int64, error) {
	query := `UPDATE jobs SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
            progress_message = NULL, error_message = NULL, needs_review = 0,
            started_at = NULL, finished_at = NULL, updated_at = ?
         WHERE status = ?`
	args := []any{StatusQueued, nowString(), StatusFailed}
	if len(ids) > 0 {
		query += ` AND id IN (` + makePlaceholders(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed jobs: %w", err)
	}
	return res.RowsAffected()
}
