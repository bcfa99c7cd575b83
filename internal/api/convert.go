package api

import (
	"path/filepath"
	"slices"
	"strings"
	"time"

	"captioner/internal/logging"
	"captioner/internal/queue"
	"captioner/internal/workflow"
)

// FromJob converts a queue record to its API representation. Outputs under
// outputDir get a download URL.
func FromJob(job *queue.Job, outputDir string) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:             job.ID,
		Status:         string(job.Status),
		VideoPath:      job.VideoPath,
		OriginalName:   job.OriginalName,
		TranscriptPath: job.TranscriptPath,
		RenderMode:     job.RenderMode,
		OutputPath:     job.OutputPath,
		JobLogPath:     job.JobLogPath,
		Progress: JobProgress{
			Stage:   job.ProgressStage,
			Percent: job.ProgressPercent,
			Message: job.ProgressMessage,
		},
		ErrorMessage: job.ErrorMessage,
		NeedsReview:  job.NeedsReview,
		CreatedAt:    formatTime(job.CreatedAt),
		UpdatedAt:    formatTime(job.UpdatedAt),
	}
	if dto.Progress.Stage == "" {
		dto.Progress.Stage = defaultStage(job.Status)
	}
	if job.StartedAt != nil {
		dto.StartedAt = formatTime(*job.StartedAt)
	}
	if job.FinishedAt != nil {
		dto.FinishedAt = formatTime(*job.FinishedAt)
	}
	if job.Status == queue.StatusCompleted {
		dto.OutputURL = OutputURL(job.OutputPath, outputDir)
	}
	return dto
}

// FromJobs converts queue records in order.
func FromJobs(jobs []*queue.Job, outputDir string) []Job {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]Job, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		out = append(out, FromJob(job, outputDir))
	}
	return out
}

// OutputURL returns the /output/ path serving outputPath, or "" when the file
// lives outside outputDir.
func OutputURL(outputPath, outputDir string) string {
	if outputPath == "" || outputDir == "" {
		return ""
	}
	rel, err := filepath.Rel(outputDir, outputPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || strings.Contains(rel, string(filepath.Separator)) {
		return ""
	}
	return "/output/" + rel
}

// MergeQueueStats reports every status, including ones with no jobs.
func MergeQueueStats(stats map[queue.Status]int) map[string]int {
	out := make(map[string]int, len(queue.AllStatuses()))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = stats[status]
	}
	return out
}

// FromStatusSummary converts the workflow manager summary.
func FromStatusSummary(summary workflow.StatusSummary, outputDir string) WorkflowStatus {
	status := WorkflowStatus{
		Running:    summary.Running,
		ActiveJob:  summary.ActiveJob,
		QueueStats: MergeQueueStats(summary.QueueStats),
		LastError:  summary.LastError,
	}
	if summary.LastJob != nil {
		job := FromJob(summary.LastJob, outputDir)
		status.LastJob = &job
	}
	return status
}

// FromLogEvents converts hub events to their wire form.
func FromLogEvents(events []logging.LogEvent) []LogEvent {
	if len(events) == 0 {
		return nil
	}
	out := make([]LogEvent, 0, len(events))
	for _, evt := range events {
		out = append(out, LogEvent{
			Sequence:  evt.Sequence,
			Timestamp: formatTime(evt.Timestamp),
			Level:     evt.Level,
			Message:   evt.Message,
			Component: evt.Component,
			JobID:     evt.JobID,
			Stage:     evt.Stage,
			Fields:    evt.Fields,
		})
	}
	return out
}

// SortJobsNewestFirst orders jobs by CreatedAt descending, breaking ties by ID.
func SortJobsNewestFirst(jobs []Job) []Job {
	sorted := slices.Clone(jobs)
	slices.SortStableFunc(sorted, func(a, b Job) int {
		ta, tb := ParseTime(a.CreatedAt), ParseTime(b.CreatedAt)
		if c := tb.Compare(ta); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return sorted
}

// ParseTime parses an API timestamp, returning the zero time for bad input.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func defaultStage(status queue.Status) string {
	switch status {
	case queue.StatusQueued:
		return "Queued"
	case queue.StatusProcessing:
		return "Starting"
	case queue.StatusCompleted:
		return "Completed"
	case queue.StatusFailed:
		return "Failed"
	default:
		return ""
	}
}
