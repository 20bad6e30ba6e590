package main

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"shortpipe/internal/api"
	"shortpipe/internal/ipc"
)

func newReviewCommands(ctx *commandContext) []*cobra.Command {
	var approveBy string
	approveCmd := &cobra.Command{
		Use:   "approve <id> [id...]",
		Short: "Approve pending-review clips for rendering",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Approve(ids, decidedByOrCurrentUser(approveBy))
				if err != nil {
					return err
				}
				return printReviewResults(cmd, "approved", resp.Results)
			})
		},
	}
	approveCmd.Flags().StringVar(&approveBy, "by", "", "reviewer identity (defaults to the current user)")

	var rejectBy, rejectReason string
	rejectCmd := &cobra.Command{
		Use:   "reject <id> [id...]",
		Short: "Reject pending-review clips",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reject(ids, decidedByOrCurrentUser(rejectBy), rejectReason)
				if err != nil {
					return err
				}
				return printReviewResults(cmd, "rejected", resp.Results)
			})
		},
	}
	rejectCmd.Flags().StringVar(&rejectBy, "by", "", "reviewer identity (defaults to the current user)")
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "reason recorded with the rejection")

	return []*cobra.Command{approveCmd, rejectCmd}
}

func decidedByOrCurrentUser(flag string) string {
	if flag != "" {
		return flag
	}
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "operator"
}

func printReviewResults(cmd *cobra.Command, verb string, results []api.ReviewResult) error {
	stdout := cmd.OutOrStdout()
	failures := 0
	for _, result := range results {
		if result.Error != "" {
			failures++
			fmt.Fprintf(stdout, "Item %d: %s\n", result.ID, result.Error)
			continue
		}
		fmt.Fprintf(stdout, "Item %d %s\n", result.ID, verb)
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d item(s) could not be %s", failures, len(results), verb)
	}
	return nil
}
