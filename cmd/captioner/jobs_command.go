package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"captioner/internal/api"
	"captioner/internal/config"
	"captioner/internal/jobs"
	"captioner/internal/queue"
	"captioner/internal/staging"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"queue"},
		Short:   "Inspect and manage render jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsAddCommand(ctx))
	jobsCmd.AddCommand(newJobsRetryCommand(ctx))
	jobsCmd.AddCommand(newJobsRemoveCommand(ctx))
	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	jobsCmd.AddCommand(newJobsWatchCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := make([]queue.Status, 0, len(statuses))
			for _, raw := range statuses {
				status, ok := queue.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				filter = append(filter, status)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				list, err := store.List(cmd.Context(), filter...)
				if err != nil {
					return err
				}
				views := api.SortJobsNewestFirst(api.FromJobs(list, cfg.Paths.OutputDir))
				if asJSON {
					return writeJSON(cmd, api.JobListResponse{Jobs: views})
				}
				if len(views) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Status", "Stage", "Progress", "Video", "Created"},
					buildJobListRows(views),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				job, err := resolveJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				view := api.FromJob(job, cfg.Paths.OutputDir)
				if asJSON {
					return writeJSON(cmd, view)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, buildJobDetailRows(view), nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the job as JSON")
	return cmd
}

func newJobsAddCommand(ctx *commandContext) *cobra.Command {
	var transcriptPath string
	var stylePath string
	var outputPath string
	var mode string

	cmd := &cobra.Command{
		Use:   "add <video>",
		Short: "Queue a video for captionerd to render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := buildRenderRequest(args[0], renderFlags{
				transcript: transcriptPath,
				style:      stylePath,
				output:     outputPath,
				mode:       mode,
			})
			if err != nil {
				return err
			}
			if _, err := os.Stat(req.VideoPath); err != nil {
				return fmt.Errorf("video: %w", err)
			}
			if req.StyleJSON != "" {
				if _, _, err := config.ApplyStyleDocument(cfg.Style, []byte(req.StyleJSON)); err != nil {
					return err
				}
			}

			return ctx.withStore(func(store *queue.Store) error {
				registry := jobs.NewRegistry(store, ctx.logger())
				job, err := registry.Create(cmd.Context(), jobs.Request{
					ID:             req.JobID,
					VideoPath:      req.VideoPath,
					OriginalName:   filepath.Base(req.VideoPath),
					TranscriptPath: req.TranscriptPath,
					StyleJSON:      req.StyleJSON,
					RenderMode:     req.RenderMode,
					OutputPath:     req.OutputPath,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued job %s\n", job.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&transcriptPath, "transcript", "t", "", "WhisperX JSON transcript (transcribes when omitted)")
	cmd.Flags().StringVarP(&stylePath, "style", "s", "", "Style document (JSON or YAML) overriding [style]")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output video path")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Render mode: grouped or word")
	return cmd
}

func newJobsRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Requeue failed jobs (all failed jobs when no id is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				ids := make([]string, 0, len(args))
				for _, arg := range args {
					job, err := resolveJob(cmd, store, arg)
					if err != nil {
						return err
					}
					ids = append(ids, job.ID)
				}
				retried, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d job(s)\n", retried)
				return nil
			})
		},
	}
}

func newJobsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a job record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				job, err := resolveJob(cmd, store, args[0])
				if err != nil {
					return err
				}
				if job.Status == queue.StatusProcessing {
					return fmt.Errorf("job %s is processing; stop captionerd first", job.ID)
				}
				if _, err := store.Remove(cmd.Context(), job.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", job.ID)
				return nil
			})
		},
	}
}

func newJobsClearCommand(ctx *commandContext) *cobra.Command {
	var keepWork bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete completed and failed jobs and their work directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				finished, err := store.List(cmd.Context(), queue.StatusCompleted, queue.StatusFailed)
				if err != nil {
					return err
				}
				removed, err := store.ClearFinished(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d finished job(s)\n", removed)
				if keepWork {
					return nil
				}

				// Only directories of the cleared jobs are candidates.
				cleared := staging.KeepJobs(finished)
				keep := make(map[string]struct{})
				entries, err := os.ReadDir(cfg.Paths.WorkDir)
				if err != nil && !os.IsNotExist(err) {
					return err
				}
				for _, entry := range entries {
					if _, ok := cleared[entry.Name()]; !ok {
						keep[entry.Name()] = struct{}{}
					}
				}
				result := staging.Sweep(cmd.Context(), cfg.Paths.WorkDir, keep, 0, ctx.logger())
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d work director(ies)\n", len(result.Removed))
				if len(result.Errors) > 0 {
					return fmt.Errorf("remove %s: %w", result.Errors[0].Path, result.Errors[0].Err)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&keepWork, "keep-work", false, "Keep work directories of cleared jobs")
	return cmd
}

func newJobsWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <id>",
		Short: "Follow a job's progress events through captionerd",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := newDaemonClient(cfg, time.Minute)
			out := cmd.OutOrStdout()
			var since uint64
			for {
				query := url.Values{"since": {strconv.FormatUint(since, 10)}, "follow": {"1"}}
				var page api.EventsResponse
				if err := client.get(cmd.Context(), "/api/jobs/"+url.PathEscape(args[0])+"/events", query, &page); err != nil {
					return err
				}
				for _, event := range page.Events {
					fmt.Fprintln(out, formatJobEvent(event))
					if event.Terminal() {
						if event.Type == jobs.EventFailed {
							return fmt.Errorf("job %s failed: %s", event.JobID, detailOr(event.Error, "unknown error"))
						}
						return nil
					}
				}
				since = page.Next
			}
		},
	}
}

// resolveJob accepts a full id or a unique prefix of at least four characters.
func resolveJob(cmd *cobra.Command, store *queue.Store, ref string) (*queue.Job, error) {
	ref = strings.TrimSpace(ref)
	job, err := store.GetByID(cmd.Context(), ref)
	if err != nil {
		return nil, err
	}
	if job != nil {
		return job, nil
	}
	if len(ref) < 4 {
		return nil, fmt.Errorf("job %q not found", ref)
	}
	all, err := store.List(cmd.Context())
	if err != nil {
		return nil, err
	}
	var match *queue.Job
	for _, candidate := range all {
		if !strings.HasPrefix(candidate.ID, ref) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("job prefix %q is ambiguous", ref)
		}
		match = candidate
	}
	if match == nil {
		return nil, fmt.Errorf("job %q not found", ref)
	}
	return match, nil
}
