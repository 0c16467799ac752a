package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type StatsOptions struct {
	GlobalOptions
}

func DefaultStatsOptions() *StatsOptions {
	return &StatsOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdStats() *cobra.Command {
	o := DefaultStatsOptions()
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Display scheduler statistics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *StatsOptions) Run(ctx context.Context, args []string) error {
	var stats struct {
		TotalJobs         int64   `json:"total_jobs"`
		Completed         int64   `json:"completed_jobs"`
		Failed            int64   `json:"failed_jobs"`
		Cancelled         int64   `json:"cancelled_jobs"`
		Processing        int     `json:"processing_jobs"`
		Queued            int     `json:"queued_jobs"`
		AvgProcessingSecs float64 `json:"avg_processing_time_seconds"`
		JobsPerMinute     float64 `json:"jobs_per_minute"`
		UptimeSeconds     float64 `json:"uptime_seconds"`
	}
	if err := o.Client().GetStats(ctx, &stats); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Total jobs\t%d\n", stats.TotalJobs)
	fmt.Fprintf(w, "Completed\t%d\n", stats.Completed)
	fmt.Fprintf(w, "Failed\t%d\n", stats.Failed)
	fmt.Fprintf(w, "Cancelled\t%d\n", stats.Cancelled)
	fmt.Fprintf(w, "Processing\t%d\n", stats.Processing)
	fmt.Fprintf(w, "Queued\t%d\n", stats.Queued)
	fmt.Fprintf(w, "Avg processing time\t%.2fs\n", stats.AvgProcessingSecs)
	fmt.Fprintf(w, "Jobs per minute\t%.2f\n", stats.JobsPerMinute)
	fmt.Fprintf(w, "Uptime\t%s\n", (time.Duration(stats.UptimeSeconds) * time.Second).String())
	return w.Flush()
}
