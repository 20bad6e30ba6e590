package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shortpipe/internal/api"
	"shortpipe/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and maintain the processing queue",
	}

	queueCmd.AddCommand(
		newQueueListCommand(ctx),
		newQueueShowCommand(ctx),
		newQueueStatsCommand(ctx),
		newQueueHealthCommand(ctx),
		newQueueRetryCommand(ctx),
		newQueueResetCommand(ctx),
		newQueueClearCommand(ctx),
		newQueueRemoveCommand(ctx),
	)
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(statuses)
				if err != nil {
					return err
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						strconv.FormatInt(item.ID, 10),
						truncate(item.Title, 48),
						item.Status,
						scoreColumn(item),
						item.Disposition,
						item.ErrorMessage,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Title", "Status", "Score", "Disposition", "Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "filter by status (repeatable)")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one queue item with its publish history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueDescribe(id)
				if err != nil {
					return err
				}
				printQueueItem(cmd, resp.Item)
				if len(resp.History) == 0 {
					return nil
				}

				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, "Publish history:")
				rows := make([][]string, 0, len(resp.History))
				for _, event := range resp.History {
					outcome := "failed"
					if event.Success {
						outcome = "published"
					}
					rows = append(rows, []string{event.AttemptedAt, outcome, event.PlatformID, event.Detail})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Attempted", "Outcome", "Platform", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newQueueStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show per-status queue counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueStats()
				if err != nil {
					return err
				}
				rows := buildQueueStatusRows(resp.Counts)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show aggregate queue diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueHealth()
				if err != nil {
					return err
				}
				h := resp.Health
				rows := [][]string{
					{"Total", strconv.Itoa(h.Total)},
					{"Waiting", strconv.Itoa(h.Waiting)},
					{"Processing", strconv.Itoa(h.Processing)},
					{"Pending review", strconv.Itoa(h.PendingReview)},
					{"Publish ready", strconv.Itoa(h.PublishReady)},
					{"Published", strconv.Itoa(h.Published)},
					{"Rejected", strconv.Itoa(h.Rejected)},
					{"Failed", strconv.Itoa(h.Failed)},
				}
				fmt.Fprintln(stdout, renderTable([]string{"Metric", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Requeue all failed items from the beginning of the pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRetry()
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Requeued %d item(s)\n", resp.Updated)
				return nil
			})
		},
	}
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Fail items stuck in a processing status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueReset()
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Reset %d stuck item(s)\n", resp.Updated)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted, clearFailed, clearAll bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove completed, failed, or all queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			scope, err := clearScope(clearCompleted, clearFailed, clearAll)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueClear(scope)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Removed %d item(s)\n", resp.Removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "remove published and rejected items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "remove failed items")
	cmd.Flags().BoolVar(&clearAll, "all", false, "remove every queue item")
	return cmd
}

func clearScope(completed, failed, all bool) (string, error) {
	set := 0
	scope := ""
	if completed {
		set++
		scope = "completed"
	}
	if failed {
		set++
		scope = "failed"
	}
	if all {
		set++
		scope = "all"
	}
	if set != 1 {
		return "", fmt.Errorf("specify exactly one of --completed, --failed, or --all")
	}
	return scope, nil
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id> [id...]",
		Short: "Remove specific queue items by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			ids, err := parseIDArgs(args)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueRemove(ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Removed %d item(s)\n", resp.Removed)
				return nil
			})
		},
	}
}

func printQueueItem(cmd *cobra.Command, item api.QueueItem) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "Item #%d: %s\n", item.ID, item.Title)
	fmt.Fprintf(stdout, "  Status:      %s\n", item.Status)
	if item.Channel != "" {
		fmt.Fprintf(stdout, "  Channel:     %s\n", item.Channel)
	}
	if item.Score > 0 || item.Disposition != "" {
		fmt.Fprintf(stdout, "  Score:       %d\n", item.Score)
	}
	if item.Disposition != "" {
		fmt.Fprintf(stdout, "  Disposition: %s\n", item.Disposition)
	}
	if item.TemplateID != "" {
		fmt.Fprintf(stdout, "  Template:    %s\n", item.TemplateID)
	}
	if item.CandidateID != "" {
		fmt.Fprintf(stdout, "  Candidate:   %s\n", item.CandidateID)
	}
	if item.ArtifactPath != "" {
		fmt.Fprintf(stdout, "  Artifact:    %s\n", item.ArtifactPath)
	}
	if item.ReviewReason != "" {
		fmt.Fprintf(stdout, "  Review:      %s\n", item.ReviewReason)
	}
	if item.DecidedBy != "" {
		fmt.Fprintf(stdout, "  Decided by:  %s\n", item.DecidedBy)
	}
	if item.PlatformID != "" {
		fmt.Fprintf(stdout, "  Platform:    %s\n", item.PlatformID)
	}
	if item.ScheduledAt != "" {
		fmt.Fprintf(stdout, "  Scheduled:   %s\n", item.ScheduledAt)
	}
	if item.PublishAttempts > 0 {
		fmt.Fprintf(stdout, "  Publish attempts: %d\n", item.PublishAttempts)
	}
	if item.ErrorMessage != "" {
		fmt.Fprintf(stdout, "  Error:       %s\n", item.ErrorMessage)
	}
	fmt.Fprintf(stdout, "  Created:     %s\n", item.CreatedAt)
	fmt.Fprintf(stdout, "  Updated:     %s\n", item.UpdatedAt)
}

func parseIDArgs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			id, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid item id %q", field)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no item ids given")
	}
	return ids, nil
}

func scoreColumn(item api.QueueItem) string {
	if item.Score == 0 && item.Disposition == "" {
		return ""
	}
	return strconv.Itoa(item.Score)
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
