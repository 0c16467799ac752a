package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type SubmitOptions struct {
	GlobalOptions

	Priority     string
	InputData    string
	OutputConfig string
}

func DefaultSubmitOptions() *SubmitOptions {
	return &SubmitOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Priority:      "normal",
		InputData:     "{}",
		OutputConfig:  "{}",
	}
}

func NewCmdSubmit() *cobra.Command {
	o := DefaultSubmitOptions()
	cmd := &cobra.Command{
		Use:   "submit JOB_TYPE",
		Short: "Submit a rendering job.",
		Args:  cobra.ExactArgs(1),
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

func (o *SubmitOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Priority, "priority", "p", o.Priority, "Job priority: low, normal, high or urgent.")
	fs.StringVarP(&o.InputData, "input", "i", o.InputData, "Job input payload as a JSON object.")
	fs.StringVarP(&o.OutputConfig, "output-config", "c", o.OutputConfig, "Desired output configuration as a JSON object.")
}

func (o *SubmitOptions) Validate(args []string) error {
	var payload map[string]any
	if err := json.Unmarshal([]byte(o.InputData), &payload); err != nil {
		return fmt.Errorf("--input must be a JSON object: %w", err)
	}
	if err := json.Unmarshal([]byte(o.OutputConfig), &payload); err != nil {
		return fmt.Errorf("--output-config must be a JSON object: %w", err)
	}
	return nil
}

func (o *SubmitOptions) Run(ctx context.Context, args []string) error {
	var input, output map[string]any
	_ = json.Unmarshal([]byte(o.InputData), &input)
	_ = json.Unmarshal([]byte(o.OutputConfig), &output)

	id, err := o.Client().SubmitJob(ctx, map[string]any{
		"job_type":      args[0],
		"input_data":    input,
		"output_config": output,
		"priority":      o.Priority,
	})
	if err != nil {
		return err
	}

	fmt.Println(id)
	return nil
}
