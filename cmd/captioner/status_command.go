package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"captioner/internal/api"
	"captioner/internal/config"
	"captioner/internal/language"
	"captioner/internal/preflight"
	"captioner/internal/queue"
	"captioner/internal/staging"
)

const statusTimeout = 2 * time.Second

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, queue and dependency status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			reqCtx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
			defer cancel()
			var daemonStatus api.DaemonStatus
			daemonErr := newDaemonClient(cfg, statusTimeout).get(reqCtx, "/api/status", nil, &daemonStatus)

			if asJSON {
				if daemonErr != nil {
					return daemonErr
				}
				return writeJSON(cmd, daemonStatus)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := renderSectionHeader("Daemon", colorize)
			lines = append(lines, daemonLines(daemonStatus, daemonErr, colorize)...)

			stats := daemonStatus.Workflow.QueueStats
			if daemonErr != nil {
				stats, err = localQueueStats(cmd.Context(), ctx)
				if err != nil {
					lines = append(lines, renderStatusLine("Queue", statusError, err.Error(), colorize))
				}
			}
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Queue", colorize)...)
			lines = append(lines, queueLines(stats, colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			lines = append(lines, configLines(cfg, ctx.configPath, colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Preflight", colorize)...)
			lines = append(lines, preflightLines(preflight.RunAll(cmd.Context(), cfg), colorize)...)

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(preflight.CheckSystemDeps(cfg), colorize)...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the daemon status document as JSON")
	return cmd
}

func daemonLines(status api.DaemonStatus, err error, colorize bool) []string {
	if err != nil {
		kind := statusError
		message := err.Error()
		if errors.Is(err, errDaemonUnavailable) {
			kind = statusWarn
			message = "Not running"
		}
		return []string{renderStatusLine("Captionerd", kind, message, colorize)}
	}

	lines := []string{renderStatusLine("Captionerd", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize)}
	workflow := status.Workflow
	if workflow.ActiveJob != "" {
		lines = append(lines, renderStatusLine("Active job", statusInfo, workflow.ActiveJob, colorize))
	} else {
		lines = append(lines, renderStatusLine("Active job", statusInfo, "Idle", colorize))
	}
	if workflow.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusWarn, workflow.LastError, colorize))
	}
	for _, dep := range status.Dependencies {
		if !dep.Available {
			lines = append(lines, renderStatusLine(dep.Name, statusError, dep.Detail, colorize))
		}
	}
	return lines
}

func queueLines(stats map[string]int, colorize bool) []string {
	total := 0
	for _, count := range stats {
		total += count
	}
	if total == 0 {
		return []string{renderStatusLine("Jobs", statusInfo, "Queue is empty", colorize)}
	}
	lines := make([]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count := stats[string(status)]
		if count == 0 {
			continue
		}
		kind := statusInfo
		if status == queue.StatusFailed {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(strings.ToUpper(string(status[:1]))+string(status[1:]), kind, fmt.Sprintf("%d", count), colorize))
	}
	return lines
}

func configLines(cfg *config.Config, path string, colorize bool) []string {
	lines := []string{renderStatusLine("Config file", statusInfo, detailOr(path, "defaults"), colorize)}
	lines = append(lines, renderStatusLine("API bind", statusInfo, cfg.Paths.APIBind, colorize))
	lines = append(lines, renderStatusLine("API token", statusInfo, yesNo(cfg.Paths.APIToken != ""), colorize))
	lines = append(lines, renderStatusLine("Render mode", statusInfo, cfg.Render.Mode, colorize))
	lines = append(lines, renderStatusLine("Encoder", statusInfo, fmt.Sprintf("%s @ %s", cfg.Encoder.Codec, cfg.Encoder.Bitrate), colorize))
	lines = append(lines, renderStatusLine("Language", statusInfo, language.Name(cfg.Transcription.Language), colorize))
	lines = append(lines, renderStatusLine("Notifications", statusInfo, detailOr(cfg.Notifications.NtfyTopic, "disabled"), colorize))
	if dirs, size, err := staging.Usage(cfg.Paths.WorkDir); err != nil {
		lines = append(lines, renderStatusLine("Work directories", statusWarn, err.Error(), colorize))
	} else {
		lines = append(lines, renderStatusLine("Work directories", statusInfo, fmt.Sprintf("%d using %s", dirs, humanBytes(size)), colorize))
	}
	return lines
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func localQueueStats(ctx context.Context, cc *commandContext) (map[string]int, error) {
	out := make(map[string]int)
	err := cc.withStore(func(store *queue.Store) error {
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		for status, count := range stats {
			out[string(status)] = count
		}
		return nil
	})
	return out, err
}
