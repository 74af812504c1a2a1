package plan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/meldworks/meld-installer/pkg/action"
)

func TestReceiptSaveLoadRoundTrip(t *testing.T) {
	store := NewReceiptStore(filepath.Join(t.TempDir(), "etc", "receipt.json"))

	p := newFakePlan(&fakeAction{Name: "a"}, &fakeAction{Name: "b"})
	p.Actions[1].State = action.StateCompleted
	p.Settings = map[string]any{"store_dir": "/meld"}

	if err := store.Save(p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.ID != p.ID {
		t.Errorf("id = %q, want %q", loaded.ID, p.ID)
	}
	if loaded.Planner != "test" {
		t.Errorf("planner = %q, want %q", loaded.Planner, "test")
	}
	if len(loaded.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(loaded.Actions))
	}
	if loaded.Actions[1].State != action.StateCompleted {
		t.Errorf("state = %q, want %q", loaded.Actions[1].State, action.StateCompleted)
	}
	restored, ok := loaded.Actions[0].Action.(*fakeAction)
	if !ok || restored.Name != "a" {
		t.Errorf("restored action = %#v", loaded.Actions[0].Action)
	}
}

func TestReceiptSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewReceiptStore(filepath.Join(dir, "receipt.json"))
	p := newFakePlan(&fakeAction{Name: "a"})

	// Repeated saves atomically replace the previous document.
	for i := 0; i < 3; i++ {
		if err := store.Save(p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "receipt.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory contents = %v, want only receipt.json", names)
	}
}

func TestReceiptLoadRejectsVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipt.json")
	if err := os.WriteFile(path, []byte(`{"version":99,"id":"x","planner":"test","actions":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewReceiptStore(path).Load()
	if err == nil {
		t.Fatal("Load accepted a future schema version")
	}
	if !strings.Contains(err.Error(), "99") {
		t.Errorf("error does not name the version: %v", err)
	}
}

func TestReceiptExistsAndDelete(t *testing.T) {
	store := NewReceiptStore(filepath.Join(t.TempDir(), "receipt.json"))

	exists, err := store.Exists()
	if err != nil || exists {
		t.Fatalf("Exists = %v, %v; want false, nil", exists, err)
	}

	if err := store.Save(newFakePlan(&fakeAction{Name: "a"})); err != nil {
		t.Fatal(err)
	}
	if exists, _ := store.Exists(); !exists {
		t.Error("Exists = false after save")
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if exists, _ := store.Exists(); exists {
		t.Error("Exists = true after delete")
	}

	// Deleting an absent receipt is not an error.
	if err := store.Delete(); err != nil {
		t.Errorf("second Delete failed: %v", err)
	}
}
