package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:     "delete",
		Aliases: []string{"4"},
		Short:   "Remove an experiment from the catalog and the archive root",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opCtx := ctx.commandCtx(cmd, "delete")
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
				if name, err = newPrompter(cmd).askRequired("Enter Experiment Name to Delete: "); err != nil {
					return err
				}
			}
			if err := svc.Delete(opCtx, name); err != nil {
				return err
			}
			fmt.Fprintf(out, "Experiment '%s' Deleted Successfully!\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Experiment to delete")
	return cmd
}
