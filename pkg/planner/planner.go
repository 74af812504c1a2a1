package planner

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/meldworks/meld-installer/pkg/action"
	"github.com/meldworks/meld-installer/pkg/settings"
)

// Planner assembles an install plan for one kind of target environment.
type Planner interface {
	// Tag returns the stable string identifying this planner kind. It is
	// recorded in the plan receipt so later invocations can reconstruct
	// the planner.
	Tag() string

	// Plan inspects the live system and produces the ordered action list.
	// It never mutates the system.
	Plan(ctx context.Context) ([]*action.StatefulAction, error)

	// Settings returns the planner's flat configuration snapshot for
	// display and receipts.
	Settings() (map[string]any, error)

	// ConfiguredSettings returns only the settings that differ from the
	// planner's defaults, for concise display.
	ConfiguredSettings() (map[string]any, error)

	// PlatformCheck fails fast if the host OS is incompatible.
	PlatformCheck(ctx context.Context) error

	// PreInstallCheck fails fast on environment preconditions such as
	// "not already installed".
	PreInstallCheck(ctx context.Context) error

	// PreUninstallCheck fails fast on environment preconditions for
	// removal.
	PreUninstallCheck(ctx context.Context) error
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func(*settings.Settings) Planner)
)

// Register makes a planner kind constructible by tag. Called from init
// functions of the concrete planners; panics on duplicates.
func Register(tag string, factory func(*settings.Settings) Planner) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if tag == "" {
		panic("planner: Register called with empty tag")
	}
	if _, exists := registry[tag]; exists {
		panic(fmt.Sprintf("planner: tag %q registered twice", tag))
	}
	registry[tag] = factory
}

// New constructs the planner registered under tag with the given settings.
func New(tag string, s *settings.Settings) (Planner, error) {
	registryMu.RLock()
	factory, ok := registry[tag]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown planner %q (available: %v)", tag, Tags())
	}
	return factory(s), nil
}

// Tags returns the sorted list of registered planner tags.
func Tags() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	tags := make([]string, 0, len(registry))
	for tag := range registry {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// diffSettings returns the entries of configured whose values differ from
// defaults, compared through their string rendering since the snapshots are
// flat JSON-compatible maps.
func diffSettings(configured, defaults map[string]any) map[string]any {
	diff := make(map[string]any)
	for key, value := range configured {
		if fmt.Sprint(defaults[key]) != fmt.Sprint(value) {
			diff[key] = value
		}
	}
	return diff
}
