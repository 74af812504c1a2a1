package base

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/meldworks/meld-installer/pkg/action"
)

func TestCreateDirectoryExecuteAndRevert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")

	sa, err := PlanCreateDirectory(path, 0o750, false)
	if err != nil {
		t.Fatalf("PlanCreateDirectory failed: %v", err)
	}
	if err := sa.TryExecute(context.Background()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("directory missing: %v", err)
	}
	if info.Mode().Perm() != 0o750 {
		t.Errorf("mode = %o, want 750", info.Mode().Perm())
	}

	if err := sa.TryRevert(context.Background()); err != nil {
		t.Fatalf("revert failed: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("directory still exists after revert")
	}
}

func TestPlanCreateDirectoryExisting(t *testing.T) {
	path := t.TempDir()

	// okIfExists marks the action complete at planning time.
	sa, err := PlanCreateDirectory(path, 0o755, true)
	if err != nil {
		t.Fatalf("PlanCreateDirectory failed: %v", err)
	}
	if sa.State != action.StateCompleted {
		t.Errorf("state = %q, want %q", sa.State, action.StateCompleted)
	}

	// Without it a pre-existing path is a planning error.
	_, err = PlanCreateDirectory(path, 0o755, false)
	var actionErr *action.Error
	if !errors.As(err, &actionErr) || actionErr.Op != action.OpPathExists {
		t.Fatalf("err = %v, want path-exists action error", err)
	}
}

func TestPlanCreateDirectoryWrongType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := PlanCreateDirectory(path, 0o755, true)
	var actionErr *action.Error
	if !errors.As(err, &actionErr) || actionErr.Op != action.OpWrongType {
		t.Fatalf("err = %v, want wrong-type action error", err)
	}
}
