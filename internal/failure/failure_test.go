package failure_test

import (
	"errors"
	"fmt"
	"testing"

	"boreline/internal/failure"
)

func TestKindOfUnwrapsClassifiedErrors(t *testing.T) {
	base := failure.NotFound("station", "7")
	wrapped := fmt.Errorf("start operation: %w", base)

	if got := failure.KindOf(wrapped); got != failure.KindNotFound {
		t.Fatalf("expected not_found, got %q", got)
	}
	if !failure.Is(wrapped, failure.KindNotFound) {
		t.Fatal("expected Is to match wrapped kind")
	}
	if got := wrapped.Error(); got != "start operation: station \"7\" not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestKindOfDefaults(t *testing.T) {
	if got := failure.KindOf(nil); got != "" {
		t.Fatalf("expected empty kind for nil, got %q", got)
	}
	if got := failure.KindOf(errors.New("disk on fire")); got != failure.KindInternal {
		t.Fatalf("expected internal, got %q", got)
	}
	if got := failure.KindOf(failure.Invalid("caliber", "required")); got != failure.KindValidation {
		t.Fatalf("expected validation, got %q", got)
	}
}
