package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imgvault/internal/preflight"
	"imgvault/internal/services"
)

func newLabelerCommand(ctx *commandContext) *cobra.Command {
	labelerCmd := &cobra.Command{
		Use:   "labeler",
		Short: "AI labeler utilities",
	}

	labelerCmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the labeler endpoint and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if !cfg.LabelerReady() {
				fmt.Fprintln(out, renderStatusLine("AI labeler", statusWarn, "disabled or missing api_key", colorize))
				return nil
			}
			result := preflight.CheckLabeler(ctx.commandCtx(cmd, "labeler check"), cfg.GetLabeler())
			if !result.Passed {
				fmt.Fprintln(out, renderStatusLine(result.Name, statusError, result.Detail, colorize))
				return services.Wrap(services.ErrConfiguration, "cli", "labeler check", result.Detail, nil)
			}
			fmt.Fprintln(out, renderStatusLine(result.Name, statusOK, result.Detail, colorize))
			return nil
		},
	})

	labelerCmd.AddCommand(&cobra.Command{
		Use:   "label <image>",
		Short: "Label a single image without archiving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := ctx.newLabeler(cfg)
			if client == nil {
				return services.Wrap(services.ErrConfiguration, "cli", "label", "labeler disabled", nil)
			}
			label, err := client.Label(ctx.commandCtx(cmd, "label"), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), label)
			return nil
		},
	})

	return labelerCmd
}
