package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"shortpipe/internal/ipc"
)

func newChannelsCommand(ctx *commandContext) *cobra.Command {
	channelsCmd := &cobra.Command{
		Use:   "channels",
		Short: "Manage tracked channels",
	}

	channelsCmd.AddCommand(
		newChannelAddCommand(ctx),
		newChannelListCommand(ctx),
		newChannelEnableCommand(ctx, true),
		newChannelEnableCommand(ctx, false),
		newChannelImportCommand(ctx),
	)
	return channelsCmd
}

func newChannelAddCommand(ctx *commandContext) *cobra.Command {
	var name string
	var priorityTier, maxTracked int
	var disabled bool
	cmd := &cobra.Command{
		Use:   "add <channel-id>",
		Short: "Track a channel (or update its settings)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				_, err := client.ChannelAdd(ipc.ChannelAddRequest{
					ID:               args[0],
					Name:             name,
					PriorityTier:     priorityTier,
					MaxTrackedVideos: maxTracked,
					Enabled:          !disabled,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Channel %s tracked\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (defaults to the channel id)")
	cmd.Flags().IntVar(&priorityTier, "tier", 0, "priority tier (lower is more important)")
	cmd.Flags().IntVar(&maxTracked, "max-videos", 0, "cap on concurrently tracked videos (0 uses the default)")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "track the channel without enabling discovery")
	return cmd
}

func newChannelListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ChannelList()
				if err != nil {
					return err
				}
				if len(resp.Channels) == 0 {
					fmt.Fprintln(stdout, "No channels tracked")
					return nil
				}
				rows := make([][]string, 0, len(resp.Channels))
				for _, ch := range resp.Channels {
					rows = append(rows, []string{
						ch.ID,
						ch.Name,
						strconv.Itoa(ch.PriorityTier),
						fmt.Sprintf("%d/%d", ch.TrackedVideos, ch.MaxTrackedVideos),
						yesNo(ch.Enabled),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Name", "Tier", "Videos", "Enabled"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
}

func newChannelEnableCommand(ctx *commandContext, enable bool) *cobra.Command {
	use, short, verb := "enable <channel-id>", "Enable discovery for a channel", "enabled"
	if !enable {
		use, short, verb = "disable <channel-id>", "Disable discovery for a channel", "disabled"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.ChannelEnable(args[0], enable); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Channel %s %s\n", args[0], verb)
				return nil
			})
		},
	}
}

func newChannelImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <roster.yaml>",
		Short: "Import a YAML channel roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve roster path: %w", err)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ChannelImport(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Imported %d channel(s)\n", resp.Imported)
				return nil
			})
		},
	}
}
