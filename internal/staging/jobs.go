package staging

import (
	"path/filepath"

	"captioner/internal/queue"
	"captioner/internal/textutil"
)

// JobDir returns the scratch directory of a job.
func JobDir(workDir, jobID string) string {
	return filepath.Join(workDir, textutil.SanitizeToken(jobID))
}

// KeepJobs returns the directory names that belong to jobs.
func KeepJobs(jobs []*queue.Job) map[string]struct{} {
	keep := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job != nil {
			keep[filepath.Base(JobDir("", job.ID))] = struct{}{}
		}
	}
	return keep
}
