package services_test

import (
	"errors"
	"strings"
	"testing"

	"imgvault/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrImageDecodeFailed, "archive", "decode", "a.png", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrImageDecodeFailed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"archive", "decode", "a.png"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrNotFound, "catalog", "select path", "exp1", nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
	if got := services.Wrap(nil, "", "", "", nil); !errors.Is(got, services.ErrValidation) {
		t.Fatalf("expected validation fallback marker, got %v", got)
	}
}

func TestExitCodeMapping(t *testing.T) {
	if code := services.ExitCode(nil); code != services.ExitOK {
		t.Fatalf("expected ok exit, got %d", code)
	}
	storageErr := services.Wrap(services.ErrStorageUnavailable, "catalog", "open", "", errors.New("disk"))
	if code := services.ExitCode(storageErr); code != services.ExitStorage {
		t.Fatalf("expected storage exit, got %d", code)
	}
	dupErr := services.Wrap(services.ErrDuplicateExperiment, "catalog", "insert", "exp1", nil)
	if code := services.ExitCode(dupErr); code != services.ExitFailure {
		t.Fatalf("expected failure exit, got %d", code)
	}
}
