package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shortpipe/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the shortpipe configuration file",
	}

	initCmd := &cobra.Command{
		Use:         "init [path]",
		Short:       "Write a commented sample configuration",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Sample configuration written to %s\n", path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			fmt.Fprintln(stdout, "Paths:")
			fmt.Fprintf(stdout, "  Data dir:       %s\n", cfg.Paths.DataDir)
			fmt.Fprintf(stdout, "  Log dir:        %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(stdout, "  Artifact dir:   %s\n", cfg.Paths.ArtifactDir)
			fmt.Fprintln(stdout, "Segmenter:")
			fmt.Fprintf(stdout, "  Clip duration:  %.0f-%.0fs\n", cfg.Segmenter.MinDuration, cfg.Segmenter.MaxDuration)
			fmt.Fprintln(stdout, "Scoring:")
			fmt.Fprintf(stdout, "  Auto-approve:   %d\n", cfg.Scoring.ApproveThreshold)
			fmt.Fprintf(stdout, "  Auto-reject:    %d\n", cfg.Scoring.RejectThreshold)
			fmt.Fprintln(stdout, "Publisher:")
			fmt.Fprintf(stdout, "  Platform:       %s\n", cfg.Publisher.PlatformID)
			fmt.Fprintf(stdout, "  Max per day:    %d\n", cfg.Publisher.MaxPublishesPerDay)
			fmt.Fprintf(stdout, "  Min interval:   %dm\n", cfg.Publisher.MinPublishInterval)
			if len(cfg.Publisher.Windows) > 0 {
				fmt.Fprintf(stdout, "  Windows:        %s\n", strings.Join(cfg.Publisher.Windows, ", "))
			} else {
				fmt.Fprintln(stdout, "  Windows:        always")
			}
			fmt.Fprintln(stdout, "Templates:")
			for _, tmpl := range cfg.Templates {
				fmt.Fprintf(stdout, "  %-16s %s (enabled: %s)\n", tmpl.ID, strings.Join(tmpl.ContentTypes, ","), yesNo(tmpl.Enabled))
			}
			fmt.Fprintln(stdout, "Logging:")
			fmt.Fprintf(stdout, "  Format:         %s\n", cfg.Logging.Format)
			fmt.Fprintf(stdout, "  Level:          %s\n", cfg.Logging.Level)
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:         "validate [path]",
		Short:       "Validate a configuration file",
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			_, resolved, exists, err := config.Load(path)
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintf(stdout, "No configuration file at %s; defaults are valid\n", resolved)
				return nil
			}
			fmt.Fprintf(stdout, "Configuration at %s is valid\n", resolved)
			return nil
		},
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}
