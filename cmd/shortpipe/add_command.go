package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shortpipe/internal/ipc"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var channelID, title string
	var durationSeconds float64
	cmd := &cobra.Command{
		Use:   "add <source-url>",
		Short: "Queue a source video for clip extraction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.VideoAdd(ipc.VideoAddRequest{
					ChannelID:       channelID,
					Title:           title,
					SourceURL:       args[0],
					DurationSeconds: durationSeconds,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Queued item %d: %s (%s)\n", resp.Item.ID, resp.Item.Title, resp.Item.Status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&channelID, "channel", "", "tracked channel the video belongs to")
	cmd.Flags().StringVar(&title, "title", "", "video title (defaults to the source URL)")
	cmd.Flags().Float64Var(&durationSeconds, "duration", 0, "source duration in seconds, if known")
	return cmd
}
