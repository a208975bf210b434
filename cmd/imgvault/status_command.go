package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"imgvault/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, the catalog and the AI labeler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opCtx := ctx.commandCtx(cmd, "status")
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			renderSectionHeader(out, "Paths", colorize)
			results := preflight.RunAll(opCtx, cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if !cfg.LabelerReady() {
				fmt.Fprintln(out, renderStatusLine("AI labeler", statusInfo, "disabled", colorize))
			}

			renderSectionHeader(out, "Catalog", colorize)
			store, err := ctx.openCatalog(opCtx)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Database", statusError, err.Error(), colorize))
				return err
			}
			health, err := store.CheckHealth(opCtx)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Database", statusError, err.Error(), colorize))
				return err
			}
			fmt.Fprintln(out, renderStatusLine("Database", statusOK, health.Path, colorize))
			fmt.Fprintln(out, renderStatusLine("Schema", statusInfo, health.SchemaVersion, colorize))
			fmt.Fprintln(out, renderStatusLine("Experiments", statusInfo, fmt.Sprintf("%d", health.Records), colorize))
			if len(health.MissingColumns) > 0 {
				fmt.Fprintln(out, renderStatusLine("Columns", statusWarn, "missing "+strings.Join(health.MissingColumns, ", "), colorize))
			}
			if !health.IntegrityOK {
				fmt.Fprintln(out, renderStatusLine("Integrity", statusError, "integrity check failed", colorize))
			}

			svc, err := ctx.service(opCtx)
			if err != nil {
				return err
			}
			orphaned, err := svc.Orphans(opCtx, 0)
			if err != nil {
				fmt.Fprintln(out, renderStatusLine("Orphans", statusError, err.Error(), colorize))
				return err
			}
			if len(orphaned) > 0 {
				fmt.Fprintln(out, renderStatusLine("Orphans", statusWarn, fmt.Sprintf("%d directories without a record (run prune)", len(orphaned)), colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine("Orphans", statusOK, "none", colorize))
			}
			return nil
		},
	}
}
