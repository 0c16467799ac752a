package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ilyi1116/auto-video-generation-fold6-sub001/internal/cli"
)

func main() {
	command := NewRenderCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRenderCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "renderctl [flags] [options]",
		Short: "renderctl controls the render scheduler service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdSubmit())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdCancel())
	cmd.AddCommand(cli.NewCmdStats())

	return cmd
}
