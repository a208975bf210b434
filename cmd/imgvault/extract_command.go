package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "extract",
		Aliases: []string{"3"},
		Short:   "Restore an experiment's images and metadata",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx := ctx.commandCtx(cmd, "extract")
			svc, err := ctx.service(opCtx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if name == "" {
				records, err := svc.Query(opCtx)
				if err != nil {
					return err
				}
				renderRecords(out, records)
				if name, err = newPrompter(cmd).askRequired("Enter Experiment Name: "); err != nil {
					return err
				}
			}

			res, err := svc.Extract(opCtx, name)
			if err != nil {
				return err
			}
			for _, warning := range res.Unpack.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", warning)
			}
			fmt.Fprintf(out, "\nBP File Location: %s\n", res.Record.ArchivePath)
			var total uint64
			for _, path := range res.Unpack.Files {
				if info, err := os.Stat(path); err == nil {
					total += uint64(info.Size())
				}
				fmt.Fprintf(out, "  %s\n", path)
			}
			if res.Unpack.MetadataFound {
				fmt.Fprintf(out, "Metadata Content:\n%s\n", res.Unpack.Metadata)
			}
			fmt.Fprintf(out, "Output Directory: %s (%d files, %s)\n", res.OutputDir, len(res.Unpack.Files), humanize.IBytes(total))
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Experiment to extract")
	return cmd
}
