package planner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/meldworks/meld-installer/pkg/action"
)

func overrideOSRelease(t *testing.T, release string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "osrelease")
	if err := os.WriteFile(path, []byte(release), 0o644); err != nil {
		t.Fatal(err)
	}
	old := osReleasePath
	osReleasePath = path
	t.Cleanup(func() { osReleasePath = old })
}

func TestCheckNotWSL1(t *testing.T) {
	tests := []struct {
		name    string
		release string
		wantErr bool
	}{
		{"wsl1", "4.4.0-19041-Microsoft", true},
		{"wsl2", "5.15.90.1-microsoft-standard-WSL2", false},
		{"plain linux", "6.8.0-45-generic", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrideOSRelease(t, tt.release)

			err := CheckNotWSL1()
			if tt.wantErr {
				var wsl1 *WSL1Error
				if !errors.As(err, &wsl1) {
					t.Fatalf("err = %v, want *WSL1Error", err)
				}
				if guidance, ok := action.Expected(err); !ok || guidance == "" {
					t.Error("WSL1 error carries no operator guidance")
				}
			} else if err != nil {
				t.Fatalf("CheckNotWSL1 failed: %v", err)
			}
		})
	}
}

func TestCheckNotWSL1WithoutProcFile(t *testing.T) {
	old := osReleasePath
	osReleasePath = filepath.Join(t.TempDir(), "missing")
	t.Cleanup(func() { osReleasePath = old })

	if err := CheckNotWSL1(); err != nil {
		t.Fatalf("CheckNotWSL1 failed on host without procfs: %v", err)
	}
}

func TestCheckNotAlreadyInstalled(t *testing.T) {
	dir := t.TempDir()
	receipt := filepath.Join(dir, "receipt.json")
	store := filepath.Join(dir, "store")

	if err := CheckNotAlreadyInstalled(receipt, store); err != nil {
		t.Fatalf("check failed on clean host: %v", err)
	}

	if err := os.WriteFile(receipt, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := CheckNotAlreadyInstalled(receipt, store)
	var already *AlreadyInstalledError
	if !errors.As(err, &already) {
		t.Fatalf("err = %v, want *AlreadyInstalledError", err)
	}
	if already.Evidence != receipt {
		t.Errorf("evidence = %q, want %q", already.Evidence, receipt)
	}
	if guidance, ok := action.Expected(err); !ok || guidance == "" {
		t.Error("already-installed error carries no operator guidance")
	}
}

func TestSelinuxDetected(t *testing.T) {
	old := selinuxFSPath
	t.Cleanup(func() { selinuxFSPath = old })

	selinuxFSPath = t.TempDir()
	if !SelinuxDetected() {
		t.Error("SelinuxDetected = false with mounted fs path")
	}

	selinuxFSPath = filepath.Join(t.TempDir(), "missing")
	if SelinuxDetected() {
		t.Error("SelinuxDetected = true without fs path")
	}
}
