// Package settings holds the installer configuration shared by every
// planner: where the Meld store lives, how the build users and group are
// laid out, and which daemon units are managed. Settings load from an
// optional YAML file over compiled-in defaults and are validated before any
// planning happens.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings is the planner-independent installer configuration. The zero
// value is not usable; start from Default.
type Settings struct {
	// StoreDir is where the Meld store is installed.
	StoreDir string `json:"store_dir" yaml:"store_dir" validate:"required"`

	// ScratchDir is the temporary working directory used during install
	// and removed as the final step.
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir" validate:"required"`

	// BuildGroupName is the name of the build group the daemon acts as.
	BuildGroupName string `json:"build_group_name" yaml:"build_group_name" validate:"required"`

	// BuildGroupID is the GID of the build group.
	BuildGroupID uint32 `json:"build_group_id" yaml:"build_group_id" validate:"required"`

	// BuildUserCount is how many build users to provision. Zero provisions
	// only the group.
	BuildUserCount uint32 `json:"build_user_count" yaml:"build_user_count" validate:"lte=512"`

	// BuildUserPrefix is the user name prefix; users are named
	// prefix1..prefixN.
	BuildUserPrefix string `json:"build_user_prefix" yaml:"build_user_prefix" validate:"required"`

	// BuildUserIDBase is the UID of the first build user.
	BuildUserIDBase uint32 `json:"build_user_id_base" yaml:"build_user_id_base" validate:"required"`

	// DaemonService is the daemon's systemd service unit name.
	DaemonService string `json:"daemon_service" yaml:"daemon_service" validate:"required"`

	// DaemonSocket is the daemon's systemd socket unit name.
	DaemonSocket string `json:"daemon_socket" yaml:"daemon_socket" validate:"required"`
}

// Default returns the stock configuration.
func Default() *Settings {
	return &Settings{
		StoreDir:        "/meld",
		ScratchDir:      "/tmp/meld-installer",
		BuildGroupName:  "meldbld",
		BuildGroupID:    3000,
		BuildUserCount:  32,
		BuildUserPrefix: "meldbld",
		BuildUserIDBase: 30000,
		DaemonService:   "meld-daemon.service",
		DaemonSocket:    "meld-daemon.socket",
	}
}

// Load returns the defaults overlaid with the YAML file at path, validated.
// An empty path returns validated defaults.
func Load(path string) (*Settings, error) {
	s := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings for structural validity.
func (s *Settings) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Map returns the flat key/value snapshot persisted into plan receipts and
// used for settings diffing.
func (s *Settings) Map() (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to flatten settings: %w", err)
	}
	return m, nil
}
