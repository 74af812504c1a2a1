package base

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/meldworks/meld-installer/pkg/action"
)

func TestPlanMoveDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}

	sa, err := PlanMoveDirectory(src, dest)
	if err != nil {
		t.Fatalf("PlanMoveDirectory failed: %v", err)
	}
	if sa.State != action.StateUncompleted {
		t.Errorf("state = %q, want %q", sa.State, action.StateUncompleted)
	}
}

func TestPlanMoveDirectoryMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := PlanMoveDirectory(filepath.Join(dir, "missing"), filepath.Join(dir, "dest"))
	if err == nil {
		t.Fatal("planning with missing source succeeded")
	}

	var actionErr *action.Error
	if !errors.As(err, &actionErr) {
		t.Fatalf("error is %T, want *action.Error", err)
	}
	if actionErr.Op != action.OpStat {
		t.Errorf("op = %q, want %q", actionErr.Op, action.OpStat)
	}
}

func TestPlanMoveDirectorySourceNotDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	if err := os.WriteFile(src, []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := PlanMoveDirectory(src, filepath.Join(dir, "dest"))
	var actionErr *action.Error
	if !errors.As(err, &actionErr) || actionErr.Op != action.OpWrongType {
		t.Fatalf("err = %v, want wrong-type action error", err)
	}
}

func TestPlanMoveDirectoryDestExists(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	for _, d := range []string{src, dest} {
		if err := os.Mkdir(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	_, err := PlanMoveDirectory(src, dest)
	var actionErr *action.Error
	if !errors.As(err, &actionErr) || actionErr.Op != action.OpPathExists {
		t.Fatalf("err = %v, want path-exists action error", err)
	}
}

func TestPlanMoveDirectoryAlreadyMoved(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "dest")
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}

	sa, err := PlanMoveDirectory(src, dest)
	if err != nil {
		t.Fatalf("PlanMoveDirectory failed: %v", err)
	}
	if sa.State != action.StateCompleted {
		t.Errorf("state = %q, want %q (move already happened)", sa.State, action.StateCompleted)
	}
}

func TestMoveDirectoryExecuteAndRevert(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dest := filepath.Join(dir, "nested", "dest")
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(src, "marker")
	if err := os.WriteFile(marker, []byte("payload"), 0o644); err != nil {
		t.Fatal(err)
	}

	sa, err := PlanMoveDirectory(src, dest)
	if err != nil {
		t.Fatal(err)
	}
	if err := sa.TryExecute(context.Background()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}

	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Error("source still exists after move")
	}
	data, err := os.ReadFile(filepath.Join(dest, "marker"))
	if err != nil || string(data) != "payload" {
		t.Errorf("content did not move: %v", err)
	}

	if err := sa.TryRevert(context.Background()); err != nil {
		t.Fatalf("revert failed: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("content did not move back: %v", err)
	}
}

func TestDeferredMoveDirectory(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "built-later")
	dest := filepath.Join(dir, "dest")

	// Planning succeeds even though the source does not exist yet.
	sa := DeferredMoveDirectory(src, dest)
	if sa.State != action.StateUncompleted {
		t.Fatalf("state = %q, want %q", sa.State, action.StateUncompleted)
	}

	// Executing before the source appears still fails.
	if err := sa.TryExecute(context.Background()); err == nil {
		t.Fatal("execute succeeded without a source")
	}

	sa.State = action.StateUncompleted
	if err := os.Mkdir(src, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := sa.TryExecute(context.Background()); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if info, err := os.Stat(dest); err != nil || !info.IsDir() {
		t.Errorf("destination missing after move: %v", err)
	}
}
