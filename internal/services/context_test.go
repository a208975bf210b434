package services_test

import (
	"context"
	"testing"

	"imgvault/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithExperiment(ctx, "exp1")
	ctx = services.WithOperation(ctx, "insert")
	ctx = services.WithRequestID(ctx, "req-123")

	if name, ok := services.ExperimentFromContext(ctx); !ok || name != "exp1" {
		t.Fatalf("unexpected experiment: %v %v", name, ok)
	}
	if op, ok := services.OperationFromContext(ctx); !ok || op != "insert" {
		t.Fatalf("unexpected operation: %v %v", op, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithExperiment(ctx, "")
	ctx = services.WithOperation(ctx, "")
	if _, ok := services.ExperimentFromContext(ctx); ok {
		t.Fatal("expected no experiment value")
	}
	if _, ok := services.OperationFromContext(ctx); ok {
		t.Fatal("expected no operation value")
	}
}
