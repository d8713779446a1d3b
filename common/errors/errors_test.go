package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeOf(t *testing.T) {
	if c := ExitCodeOf(nil); c != 0 {
		t.Fatalf("expected 0 for nil, got %d", c)
	}
	if NewError(nil, InvalidChainExitCode) != nil {
		t.Fatal("expected NewError(nil) to be nil")
	}

	base := errors.New("bad chain")
	err := fmt.Errorf("validating: %w", NewError(base, InvalidChainExitCode))
	if c := ExitCodeOf(err); c != InvalidChainExitCode {
		t.Fatalf("expected %d, got %d", InvalidChainExitCode, c)
	}
	if !errors.Is(err, base) {
		t.Fatal("expected the ExitCodeError to unwrap to its cause")
	}
	if c := ExitCodeOf(base); c != GenericFailureExitCode {
		t.Fatalf("expected %d, got %d", GenericFailureExitCode, c)
	}
}

func TestWithExitCode(t *testing.T) {
	if err := WithExitCode(nil, ResolveFailureExitCode); err != nil {
		t.Fatalf("expected a nil error, got %#v", err)
	}
	err := WithExitCode(errors.New("boom"), ResolveFailureExitCode)
	if c := ExitCodeOf(err); c != ResolveFailureExitCode {
		t.Fatalf("expected %d, got %d", ResolveFailureExitCode, c)
	}
}
