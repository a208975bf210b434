package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"imgvault/internal/services"
)

func main() {
	os.Exit(execute(newRootCommand(), os.Stderr))
}

// execute runs the command tree and maps the outcome to an exit status.
// Unknown or missing commands print usage so the user sees the menu.
func execute(cmd *cobra.Command, stderr io.Writer) int {
	err := cmd.Execute()
	if err == nil {
		return services.ExitOK
	}
	if errors.Is(err, context.Canceled) {
		return services.ExitFailure
	}
	fmt.Fprintln(stderr, userMessage(err))
	if errors.Is(err, errNoCommand) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintln(stderr)
		fmt.Fprint(stderr, cmd.UsageString())
	}
	return services.ExitCode(err)
}

// userMessage prefixes the classic console messages for the common failures.
func userMessage(err error) string {
	switch {
	case errors.Is(err, services.ErrDuplicateExperiment):
		return "Experiment already exists in the database! (" + err.Error() + ")"
	case errors.Is(err, services.ErrNotFound):
		return "Experiment Does Not Exist! (" + err.Error() + ")"
	default:
		return err.Error()
	}
}
