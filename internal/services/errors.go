package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPathNotFound             = errors.New("path not found")
	ErrImageDecodeFailed        = errors.New("image decode failed")
	ErrInvalidMetadataChoice    = errors.New("invalid metadata choice")
	ErrDuplicateExperiment      = errors.New("experiment already exists")
	ErrNotFound                 = errors.New("experiment not found")
	ErrMetadataAttributeMissing = errors.New("metadata attribute missing")
	ErrStorageUnavailable       = errors.New("storage unavailable")
	ErrValidation               = errors.New("validation error")
	ErrConfiguration            = errors.New("configuration error")
	ErrBusy                     = errors.New("another imgvault instance is running")
)

// Exit statuses returned by the CLI. Operation failures exit with
// ExitFailure; an unavailable catalog or archive store exits with
// ExitStorage so scripts can tell the two apart.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitStorage = 2
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrValidation
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps an error returned by a command to a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrStorageUnavailable):
		return ExitStorage
	default:
		return ExitFailure
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
