package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun bool
		minAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove archive directories that have no catalog record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx := ctx.commandCtx(cmd, "prune")
			svc, err := ctx.service(opCtx)
			if err != nil {
				return err
			}
			res, err := svc.Prune(opCtx, minAge, dryRun)
			out := cmd.OutOrStdout()
			if len(res.Orphans) == 0 && err == nil {
				fmt.Fprintln(out, "No orphaned archive directories")
				return nil
			}
			rows := make([][]string, 0, len(res.Orphans))
			for _, d := range res.Orphans {
				rows = append(rows, []string{d.Name, humanize.IBytes(uint64(d.Size)), humanize.Time(d.ModTime)})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Directory", "Size", "Modified"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
			}
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(out, "%d orphaned directories would be removed\n", len(res.Orphans))
				return nil
			}
			fmt.Fprintf(out, "Removed %d orphaned directories\n", len(res.Removed.Removed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List orphans without removing them")
	cmd.Flags().DurationVar(&minAge, "min-age", time.Hour, "Ignore directories modified more recently than this")
	return cmd
}
