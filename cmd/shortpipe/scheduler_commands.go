package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shortpipe/internal/ipc"
)

func newSchedulerCommand(ctx *commandContext) *cobra.Command {
	schedulerCmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Control the publish scheduler",
	}

	pauseCmd := &cobra.Command{
		Use:   "pause",
		Short: "Suspend publish dispatch",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SchedulerPause()
				if err != nil {
					return err
				}
				if resp.Paused {
					fmt.Fprintln(stdout, "Scheduler paused; publish-ready items will wait")
				} else {
					fmt.Fprintln(stdout, "Scheduler is running")
				}
				return nil
			})
		},
	}

	resumeCmd := &cobra.Command{
		Use:   "resume",
		Short: "Resume publish dispatch",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.SchedulerResume()
				if err != nil {
					return err
				}
				if resp.Paused {
					fmt.Fprintln(stdout, "Scheduler is still paused")
				} else {
					fmt.Fprintln(stdout, "Scheduler resumed")
				}
				return nil
			})
		},
	}

	schedulerCmd.AddCommand(pauseCmd, resumeCmd)
	return schedulerCmd
}
