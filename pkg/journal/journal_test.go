package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/meldworks/meld-installer/pkg/action"
)

func TestJournalRoundTrip(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, filepath.Join(t.TempDir(), "state", "journal.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	planID := "7f9c24e8-test"
	if err := j.RecordTransition(ctx, planID, "create_directory", "Create directory `/meld`", action.StateCompleted, nil); err != nil {
		t.Fatalf("RecordTransition failed: %v", err)
	}
	if err := j.RecordTransition(ctx, planID, "move_directory", "Move directory `/meld`", action.StateProgress, errors.New("disk full")); err != nil {
		t.Fatalf("RecordTransition failed: %v", err)
	}
	// Transitions of other plans stay invisible.
	if err := j.RecordTransition(ctx, "other-plan", "create_file", "Create file `/x`", action.StateCompleted, nil); err != nil {
		t.Fatal(err)
	}

	entries, err := j.Entries(ctx, planID)
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	first := entries[0]
	if first.ActionTag != "create_directory" || first.State != action.StateCompleted {
		t.Errorf("first entry = %+v", first)
	}
	if first.Error != nil {
		t.Errorf("successful transition recorded error %q", *first.Error)
	}

	second := entries[1]
	if second.State != action.StateProgress {
		t.Errorf("second state = %q, want %q", second.State, action.StateProgress)
	}
	if second.Error == nil || *second.Error != "disk full" {
		t.Errorf("second error = %v, want disk full", second.Error)
	}
	if second.RecordedAt.IsZero() {
		t.Error("entry has no timestamp")
	}
	if age := time.Since(second.RecordedAt); age < 0 || age > time.Hour {
		t.Errorf("entry timestamp %v is not recent", second.RecordedAt)
	}
}

func TestJournalSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := j.RecordTransition(ctx, "plan-1", "create_file", "Create file `/a`", action.StateCompleted, nil); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	j, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer j.Close()

	entries, err := j.Entries(ctx, "plan-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("entries after reopen = %d, want 1", len(entries))
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), ""); err == nil {
		t.Fatal("Open accepted an empty path")
	}
}
