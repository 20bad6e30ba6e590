package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shortpipe/internal/daemonctl"
	"shortpipe/internal/ipc"
	"shortpipe/internal/queue"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the shortpipe daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.AlreadyRunning {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}
			if result.PID > 0 {
				fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
			} else {
				fmt.Fprintln(stdout, "Daemon started")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the shortpipe daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, pipeline, and scheduler status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				fmt.Fprintf(stdout, "Daemon:    running (pid %d)\n", status.PID)
				fmt.Fprintf(stdout, "Database:  %s\n", status.QueueDBPath)
				fmt.Fprintf(stdout, "Lock:      %s\n", status.LockPath)
				if status.LastError != "" {
					fmt.Fprintf(stdout, "Last error: %s\n", status.LastError)
				}

				fmt.Fprintln(stdout)
				fmt.Fprintln(stdout, "Stages:")
				for _, health := range status.StageHealth {
					state := "ready"
					if !health.Ready {
						state = "not ready"
						if health.Detail != "" {
							state = fmt.Sprintf("not ready (%s)", health.Detail)
						}
					}
					fmt.Fprintf(stdout, "  %-16s %s\n", health.Name, state)
				}

				fmt.Fprintln(stdout)
				sched := status.Scheduler
				state := "running"
				if !sched.Running {
					state = "stopped"
				} else if sched.Paused {
					state = "paused"
				}
				fmt.Fprintf(stdout, "Scheduler: %s (published last 24h: %d, publish ready: %d)\n",
					state, sched.PublishedLast24h, sched.PublishReady)

				fmt.Fprintln(stdout)
				rows := buildQueueStatusRows(status.QueueStats)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}

// buildQueueStatusRows orders status counts along the pipeline.
func buildQueueStatusRows(counts map[string]int) [][]string {
	type entry struct {
		status string
		count  int
	}
	entries := make([]entry, 0, len(counts))
	for status, count := range counts {
		entries = append(entries, entry{status: status, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, aok := queue.ParseStatus(entries[i].status)
		b, bok := queue.ParseStatus(entries[j].status)
		if aok && bok && queue.Rank(a) != queue.Rank(b) {
			return queue.Rank(a) < queue.Rank(b)
		}
		return entries[i].status < entries[j].status
	})

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.status, fmt.Sprintf("%d", e.count)})
	}
	return rows
}
