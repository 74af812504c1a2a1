package settings

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "store_dir: /custom/meld\nbuild_user_count: 8\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.StoreDir != "/custom/meld" {
		t.Errorf("store dir = %q, want %q", s.StoreDir, "/custom/meld")
	}
	if s.BuildUserCount != 8 {
		t.Errorf("user count = %d, want 8", s.BuildUserCount)
	}
	// Untouched fields keep their defaults.
	if s.BuildGroupName != "meldbld" {
		t.Errorf("group name = %q, want %q", s.BuildGroupName, "meldbld")
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.StoreDir != Default().StoreDir {
		t.Errorf("store dir = %q, want default", s.StoreDir)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("build_user_count: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load accepted an out-of-range user count")
	}
	if !strings.Contains(err.Error(), "invalid settings") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadRejectsMissingRequired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("store_dir: \"\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load accepted an empty store dir")
	}
}

func TestMapFlattens(t *testing.T) {
	m, err := Default().Map()
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if m["store_dir"] != "/meld" {
		t.Errorf("store_dir = %v, want /meld", m["store_dir"])
	}
	if _, ok := m["build_group_id"]; !ok {
		t.Error("map missing build_group_id")
	}
}
