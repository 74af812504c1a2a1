package action

import (
	"context"
	"errors"
	"testing"
)

func TestRunCommandSuccess(t *testing.T) {
	if err := RunCommand(context.Background(), "true"); err != nil {
		t.Fatalf("RunCommand failed: %v", err)
	}
}

func TestRunCommandCapturesFailure(t *testing.T) {
	err := RunCommand(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("RunCommand succeeded, want error")
	}

	var actionErr *Error
	if !errors.As(err, &actionErr) {
		t.Fatalf("error is %T, want *Error", err)
	}
	if actionErr.Op != OpCommand {
		t.Errorf("op = %q, want %q", actionErr.Op, OpCommand)
	}
	if actionErr.ExitCode != 3 {
		t.Errorf("exit code = %d, want 3", actionErr.ExitCode)
	}
	if actionErr.Stderr != "boom" {
		t.Errorf("stderr = %q, want %q", actionErr.Stderr, "boom")
	}
	if actionErr.Command != "sh -c echo boom >&2; exit 3" {
		t.Errorf("command = %q", actionErr.Command)
	}
}

func TestRunCommandSpawnFailure(t *testing.T) {
	err := RunCommand(context.Background(), "/nonexistent/meld-test-binary")
	if err == nil {
		t.Fatal("RunCommand succeeded, want error")
	}

	var actionErr *Error
	if !errors.As(err, &actionErr) {
		t.Fatalf("error is %T, want *Error", err)
	}
	if actionErr.ExitCode != -1 {
		t.Errorf("exit code = %d, want -1", actionErr.ExitCode)
	}
}
