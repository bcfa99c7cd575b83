package api

import "captioner/internal/jobs"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Job describes a render job in a transport-friendly format.
type Job struct {
	ID             string      `json:"id"`
	Status         string      `json:"status"`
	VideoPath      string      `json:"video_path"`
	OriginalName   string      `json:"original_name,omitempty"`
	TranscriptPath string      `json:"transcript_path,omitempty"`
	RenderMode     string      `json:"render_mode,omitempty"`
	OutputPath     string      `json:"output_path,omitempty"`
	OutputURL      string      `json:"output_url,omitempty"`
	JobLogPath     string      `json:"job_log_path,omitempty"`
	Progress       JobProgress `json:"progress"`
	ErrorMessage   string      `json:"error_message,omitempty"`
	NeedsReview    bool        `json:"needs_review"`
	CreatedAt      string      `json:"created_at,omitempty"`
	UpdatedAt      string      `json:"updated_at,omitempty"`
	StartedAt      string      `json:"started_at,omitempty"`
	FinishedAt     string      `json:"finished_at,omitempty"`
}

// JobProgress captures stage progress information for a job.
type JobProgress struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// UploadResponse describes a stored upload.
type UploadResponse struct {
	FileID       string `json:"file_id"`
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	URL          string `json:"url"`
}

// CreateJobRequest starts a render of an uploaded file. Style is a style
// document applied on top of the configured style.
type CreateJobRequest struct {
	FileID         string         `json:"file_id"`
	TranscriptPath string         `json:"transcript_path,omitempty"`
	RenderMode     string         `json:"render_mode,omitempty"`
	Style          map[string]any `json:"style,omitempty"`
}

// CreateJobResponse returns the new job id.
type CreateJobResponse struct {
	JobID string `json:"job_id"`
}

// EventsResponse is one long-poll page of job events.
type EventsResponse struct {
	Events []jobs.Event `json:"events"`
	Next   uint64       `json:"next"`
}

// JobLogResponse is a page of a job's log file. Offset resumes the next read.
type JobLogResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status      string `json:"status"`
	ActiveJobs  int    `json:"active_jobs"`
	Subscribers int    `json:"subscribers"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running    bool           `json:"running"`
	ActiveJob  string         `json:"active_job,omitempty"`
	QueueStats map[string]int `json:"queue_stats"`
	LastError  string         `json:"last_error,omitempty"`
	LastJob    *Job           `json:"last_job,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queue_db_path"`
	LockFilePath string             `json:"lock_file_path"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

// LogStreamResponse is one page of daemon log events.
type LogStreamResponse struct {
	Events []LogEvent `json:"events"`
	Next   uint64     `json:"next"`
}

// LogEvent is a daemon log line.
type LogEvent struct {
	Sequence  uint64            `json:"seq"`
	Timestamp string            `json:"ts"`
	Level     string            `json:"level"`
	Message   string            `json:"msg"`
	Component string            `json:"component,omitempty"`
	JobID     string            `json:"job_id,omitempty"`
	Stage     string            `json:"stage,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}
