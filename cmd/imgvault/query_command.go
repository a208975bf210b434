package main

import (
	"github.com/spf13/cobra"
)

func newQueryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "query",
		Aliases: []string{"2"},
		Short:   "List every catalogued experiment",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx := ctx.commandCtx(cmd, "query")
			svc, err := ctx.service(opCtx)
			if err != nil {
				return err
			}
			records, err := svc.Query(opCtx)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeRecordsJSON(cmd.OutOrStdout(), records)
			}
			renderRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
