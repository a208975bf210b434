package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"imgvault/internal/metadata"
	"imgvault/internal/services"
)

// prompter reads answers line by line from the command's stdin.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{
		in:  bufio.NewReader(cmd.InOrStdin()),
		out: cmd.OutOrStdout(),
		err: cmd.ErrOrStderr(),
	}
}

// ask prints label and returns the next line without its line ending.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("no answer for %q: input closed", strings.TrimSpace(label))
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// askRequired re-prompts until a non-blank answer is given.
func (p *prompter) askRequired(label string) (string, error) {
	for {
		answer, err := p.ask(label)
		if err != nil {
			return "", err
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			return answer, nil
		}
	}
}

// valueOrAsk returns flag when set, otherwise prompts for it.
func (p *prompter) valueOrAsk(flag, label string) (string, error) {
	if v := strings.TrimSpace(flag); v != "" {
		return v, nil
	}
	return p.askRequired(label)
}

const metadataMenu = `
Metadata File Not Found!
Select an option below:
1) Use empty metadata file
2) AI generate metadata based on images
3) Add custom metadata file content
`

// decideMetadata drives the metadata state machine from stdin. A non-empty
// preset skips the menu. Invalid choices are reported and the menu is shown
// again; custom text is prompted for unless customText is set.
func (p *prompter) decideMetadata(ctx context.Context, preset, customText string) (metadata.Decision, error) {
	m := metadata.NewMachine()
	if preset != "" {
		if err := m.Choose(preset); err != nil {
			return metadata.Decision{}, err
		}
	}
	for m.State() == metadata.StateStart {
		if err := ctx.Err(); err != nil {
			return metadata.Decision{}, err
		}
		fmt.Fprint(p.out, metadataMenu)
		answer, err := p.ask("Choice: ")
		if err != nil {
			return metadata.Decision{}, err
		}
		if err := m.Choose(answer); err != nil {
			if errors.Is(err, services.ErrInvalidMetadataChoice) {
				fmt.Fprintln(p.err, "Invalid choice. Please enter a valid choice.")
				continue
			}
			return metadata.Decision{}, err
		}
	}
	if m.NeedsText() {
		text := customText
		if text == "" {
			answer, err := p.ask("Enter custom metadata content: ")
			if err != nil {
				return metadata.Decision{}, err
			}
			text = answer
		}
		m.SetText(text)
	}
	return m.Decision()
}
