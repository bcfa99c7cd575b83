package queue

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, status, video_path, original_name, transcript_path, style_json, render_mode, output_path, job_log_path, error_message, needs_review, progress_stage, progress_percent, progress_message, created_at, updated_at, started_at, finished_at"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              string
		statusStr       string
		videoPath       string
		originalName    sql.NullString
		transcriptPath  sql.NullString
		styleJSON       sql.NullString
		renderMode      sql.NullString
		outputPath      sql.NullString
		jobLogPath      sql.NullString
		errorMessage    sql.NullString
		needsReview     sql.NullInt64
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		startedRaw      sql.NullString
		finishedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&videoPath,
		&originalName,
		&transcriptPath,
		&styleJSON,
		&renderMode,
		&outputPath,
		&jobLogPath,
		&errorMessage,
		&needsReview,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		Status:          Status(statusStr),
		VideoPath:       videoPath,
		OriginalName:    originalName.String,
		TranscriptPath:  transcriptPath.String,
		StyleJSON:       styleJSON.String,
		RenderMode:      renderMode.String,
		OutputPath:      outputPath.String,
		JobLogPath:      jobLogPath.String,
		ErrorMessage:    errorMessage.String,
		NeedsReview:     needsReview.Valid && needsReview.Int64 != 0,
		ProgressStage:   progressStage.String,
		ProgressPercent: progressPercent.Float64,
		ProgressMessage: progressMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if started, err := parseTimeString(startedRaw.String); err == nil {
		job.StartedAt = &started
	}
	if finished, err := parseTimeString(finishedRaw.String); err == nil {
		job.FinishedAt = &finished
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func statusArgs(statuses []Status) []any {
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}
	return args
}
