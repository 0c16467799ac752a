package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const jsonFormat = "json"

type jobView struct {
	ID           string  `json:"id"`
	JobType      string  `json:"job_type"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	Progress     float64 `json:"progress"`
	CreatedAt    string  `json:"created_at"`
	CompletedAt  string  `json:"completed_at,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	RetryCount   int     `json:"retry_count"`
}

type GetOptions struct {
	GlobalOptions

	Output string
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get [JOB_ID]",
		Short: "Display one job or all jobs.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json).")
}

func (o *GetOptions) Validate(args []string) error {
	if o.Output != "" && o.Output != jsonFormat {
		return fmt.Errorf("unknown output format %q", o.Output)
	}
	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	client := o.Client()

	var views []jobView
	if len(args) == 1 {
		var view jobView
		if err := client.GetJob(ctx, args[0], &view); err != nil {
			return err
		}
		views = append(views, view)
	} else {
		var reply struct {
			Jobs []jobView `json:"jobs"`
		}
		if err := client.ListJobs(ctx, &reply); err != nil {
			return err
		}
		views = reply.Jobs
	}

	if o.Output == jsonFormat {
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tPRIORITY\tPROGRESS\tRETRIES\tERROR")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f%%\t%d\t%s\n",
			v.ID, v.JobType, v.Status, v.Priority, v.Progress*100, v.RetryCount, v.ErrorMessage)
	}
	return w.Flush()
}
