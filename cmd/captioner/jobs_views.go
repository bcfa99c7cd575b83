package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"captioner/internal/api"
	"captioner/internal/jobs"
)

const shortIDLength = 8

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func buildJobListRows(views []api.Job) [][]string {
	rows := make([][]string, 0, len(views))
	for _, job := range views {
		video := job.OriginalName
		if video == "" {
			video = filepath.Base(job.VideoPath)
		}
		rows = append(rows, []string{
			shortID(job.ID),
			jobStatusLabel(job),
			job.Progress.Stage,
			fmt.Sprintf("%.0f%%", job.Progress.Percent),
			video,
			formatDisplayTime(job.CreatedAt),
		})
	}
	return rows
}

func buildJobDetailRows(job api.Job) [][]string {
	rows := [][]string{
		{"ID", job.ID},
		{"Status", jobStatusLabel(job)},
		{"Stage", job.Progress.Stage},
		{"Progress", fmt.Sprintf("%.1f%%", job.Progress.Percent)},
	}
	optional := []struct {
		label string
		value string
	}{
		{"Message", job.Progress.Message},
		{"Video", job.VideoPath},
		{"Original name", job.OriginalName},
		{"Transcript", job.TranscriptPath},
		{"Render mode", job.RenderMode},
		{"Output", job.OutputPath},
		{"Output URL", job.OutputURL},
		{"Job log", job.JobLogPath},
		{"Error", job.ErrorMessage},
		{"Created", formatDisplayTime(job.CreatedAt)},
		{"Started", formatDisplayTime(job.StartedAt)},
		{"Finished", formatDisplayTime(job.FinishedAt)},
	}
	for _, field := range optional {
		if strings.TrimSpace(field.value) != "" {
			rows = append(rows, []string{field.label, field.value})
		}
	}
	return rows
}

func jobStatusLabel(job api.Job) string {
	if job.NeedsReview {
		return job.Status + " (review)"
	}
	return job.Status
}

func formatDisplayTime(value string) string {
	parsed := api.ParseTime(value)
	if parsed.IsZero() {
		return value
	}
	return parsed.Local().Format(time.DateTime)
}

func formatJobEvent(event jobs.Event) string {
	line := fmt.Sprintf("%s %-9s %-12s %5.1f%%", event.Timestamp.Local().Format(time.TimeOnly), event.Type, event.Stage, event.Percent)
	switch {
	case event.Error != "":
		line += " " + event.Error
	case event.OutputPath != "":
		line += " " + event.OutputPath
	case event.Message != "":
		line += " " + event.Message
	}
	return line
}
