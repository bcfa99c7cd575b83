package main

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"captioner/internal/api"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var jobID string
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent captionerd log records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := newDaemonClient(cfg, time.Minute)
			out := cmd.OutOrStdout()

			var since uint64
			for {
				query := url.Values{
					"since": {strconv.FormatUint(since, 10)},
					"limit": {strconv.Itoa(limit)},
				}
				if jobID != "" {
					query.Set("job", jobID)
				}
				if follow {
					query.Set("follow", "1")
				}
				var page api.LogStreamResponse
				if err := client.get(cmd.Context(), "/api/logs", query, &page); err != nil {
					return err
				}
				for _, event := range page.Events {
					printLogEvent(out, event)
				}
				if !follow {
					return nil
				}
				since = page.Next
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().StringVar(&jobID, "job", "", "Only show records for this job id")
	cmd.Flags().IntVarP(&limit, "lines", "n", 200, "Maximum records per request")
	return cmd
}

func printLogEvent(out io.Writer, event api.LogEvent) {
	ts := event.Timestamp
	if parsed := api.ParseTime(ts); !parsed.IsZero() {
		ts = parsed.Local().Format(time.TimeOnly)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s", ts, strings.ToUpper(event.Level))
	if event.Component != "" {
		fmt.Fprintf(&b, " [%s]", event.Component)
	}
	if event.JobID != "" {
		fmt.Fprintf(&b, " job=%s", shortID(event.JobID))
	}
	b.WriteString(" " + event.Message)

	keys := make([]string, 0, len(event.Fields))
	for key := range event.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%s", key, event.Fields[key])
	}
	fmt.Fprintln(out, b.String())
}
