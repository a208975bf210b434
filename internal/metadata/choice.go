package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"imgvault/internal/services"
)

// Choice selects how missing metadata is produced.
type Choice int

const (
	ChoiceEmpty  Choice = 1
	ChoiceAI     Choice = 2
	ChoiceCustom Choice = 3
)

func (c Choice) String() string {
	switch c {
	case ChoiceEmpty:
		return "empty"
	case ChoiceAI:
		return "ai"
	case ChoiceCustom:
		return "custom"
	default:
		return "choice(" + strconv.Itoa(int(c)) + ")"
	}
}

// Valid reports whether c is one of the three known choices.
func (c Choice) Valid() bool {
	return c >= ChoiceEmpty && c <= ChoiceCustom
}

// ParseChoice accepts the menu number or the choice name.
func ParseChoice(input string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "empty":
		return ChoiceEmpty, nil
	case "2", "ai":
		return ChoiceAI, nil
	case "3", "custom":
		return ChoiceCustom, nil
	}
	return 0, services.Wrap(services.ErrInvalidMetadataChoice, "metadata", "parse choice",
		fmt.Sprintf("%q is not one of 1, 2, 3", strings.TrimSpace(input)), nil)
}

// Decision is a fully resolved answer to the metadata prompt.
type Decision struct {
	Choice Choice
	// CustomText is only consulted for ChoiceCustom.
	CustomText string
}

// Validate rejects decisions with an unknown choice.
func (d Decision) Validate() error {
	if !d.Choice.Valid() {
		return services.Wrap(services.ErrInvalidMetadataChoice, "metadata", "validate decision", d.Choice.String(), nil)
	}
	return nil
}

// firstLine trims custom text to its first line.
func firstLine(text string) string {
	if i := strings.IndexAny(text, "\r\n"); i >= 0 {
		return text[:i]
	}
	return text
}
