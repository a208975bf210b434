package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"imgvault/internal/archive"
	"imgvault/internal/experiment"
	"imgvault/internal/metadata"
	"imgvault/internal/preflight"
	"imgvault/internal/services"
)

func newInsertCommand(ctx *commandContext) *cobra.Command {
	var (
		name         string
		author       string
		source       string
		choice       string
		metadataText string
	)

	cmd := &cobra.Command{
		Use:     "insert",
		Aliases: []string{"1"},
		Short:   "Pack an image directory into a new experiment",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opCtx := ctx.commandCtx(cmd, "insert")
			p := newPrompter(cmd)

			var decide archive.DecisionFunc
			if choice != "" {
				parsed, err := metadata.ParseChoice(choice)
				if err != nil {
					return err
				}
				if parsed != metadata.ChoiceCustom || metadataText != "" {
					decide = archive.Fixed(metadata.Decision{Choice: parsed, CustomText: metadataText})
				}
			}
			if decide == nil {
				decide = func(c context.Context) (metadata.Decision, error) {
					return p.decideMetadata(c, choice, metadataText)
				}
			}

			if check := preflight.CheckDirectoryAccess("Archive root", cfg.Paths.ArchiveRoot); !check.Passed {
				return services.Wrap(services.ErrStorageUnavailable, "cli", "insert", check.Detail, nil)
			}
			svc, err := ctx.service(opCtx)
			if err != nil {
				return err
			}

			if name, err = p.valueOrAsk(name, "Enter Experiment Name: "); err != nil {
				return err
			}
			if err := svc.CheckAvailable(opCtx, name); err != nil {
				return err
			}
			if author, err = p.valueOrAsk(author, "Enter Author Name: "); err != nil {
				return err
			}
			if source, err = p.valueOrAsk(source, "Enter Raw Image Directory Path: "); err != nil {
				return err
			}

			res, err := svc.Insert(opCtx, experiment.InsertRequest{
				Name:      name,
				Author:    author,
				SourceDir: source,
				Decide:    decide,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nStored %d image(s)\n", len(res.Pack.Images))
			if res.Pack.Metadata != "" {
				fmt.Fprintf(out, "Metadata Content:\n%s\n", res.Pack.Metadata)
			}
			fmt.Fprintf(out, "Archive Location: %s\n", res.Pack.ArchivePath)
			if info, err := os.Stat(res.Pack.ArchivePath); err == nil {
				fmt.Fprintf(out, "Archive Size: %s\n", humanize.IBytes(uint64(info.Size())))
			}
			fmt.Fprintf(out, "Experiment '%s' inserted successfully!\n", res.Record.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Experiment name (unique)")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Author name")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Directory containing the raw images")
	cmd.Flags().StringVarP(&choice, "metadata", "m", "", "Metadata when no sidecar exists: empty, ai or custom (1, 2, 3)")
	cmd.Flags().StringVar(&metadataText, "metadata-text", "", "Custom metadata line used with --metadata custom")
	return cmd
}
