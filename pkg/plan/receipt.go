package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultReceiptPath is where the install receipt lives unless overridden.
// It is deliberately outside the store directory, which some planners move
// or mount over.
const DefaultReceiptPath = "/etc/meld-installer/receipt.json"

// ReceiptStore persists a plan to a single JSON document with atomic-replace
// semantics: every save writes a temporary file in the destination directory
// and renames it over the receipt, so a concurrent reader observes either
// the previous or the new document, never a torn mixture.
type ReceiptStore struct {
	path string
}

// NewReceiptStore creates a store writing to the given receipt path.
func NewReceiptStore(path string) *ReceiptStore {
	return &ReceiptStore{path: path}
}

// Path returns the receipt location.
func (s *ReceiptStore) Path() string {
	return s.path
}

// Exists reports whether a receipt is present.
func (s *ReceiptStore) Exists() (bool, error) {
	_, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat receipt %s: %w", s.path, err)
	}
	return true, nil
}

// Save atomically replaces the persisted receipt with the current plan
// state. The write is durable before the rename: the temporary file is
// synced so a crash between the two cannot surface a partial document.
func (s *ReceiptStore) Save(p *Plan) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan %s: %w", p.ID, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create receipt directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".receipt-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary receipt: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary receipt: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary receipt: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temporary receipt: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary receipt: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace receipt %s: %w", s.path, err)
	}
	return nil
}

// Load reads the persisted receipt and reconstructs an executable plan
// through the action registry.
func (s *ReceiptStore) Load() (*Plan, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read receipt %s: %w", s.path, err)
	}

	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse receipt %s: %w", s.path, err)
	}
	if p.Version != ReceiptVersion {
		return nil, fmt.Errorf("receipt %s has schema version %d, this build understands %d",
			s.path, p.Version, ReceiptVersion)
	}
	return &p, nil
}

// Delete removes the persisted receipt. It is called only after a full,
// successful revert, or on explicit operator acknowledgment.
func (s *ReceiptStore) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete receipt %s: %w", s.path, err)
	}
	return nil
}
