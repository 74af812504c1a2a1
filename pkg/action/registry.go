package action

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// tagField is the JSON field carrying the action kind inside a persisted
// action record.
const tagField = "action_name"

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Action)
)

// Register makes an action kind decodable from persisted plans under the
// given tag. It is intended to be called from package init functions of the
// concrete action catalogs and panics on duplicate or empty tags, which are
// programming errors.
func Register(tag string, factory func() Action) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if tag == "" {
		panic("action: Register called with empty tag")
	}
	if factory == nil {
		panic(fmt.Sprintf("action: Register called with nil factory for %q", tag))
	}
	if _, exists := registry[tag]; exists {
		panic(fmt.Sprintf("action: tag %q registered twice", tag))
	}
	registry[tag] = factory
}

// Tags returns the sorted list of registered action tags.
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

// Encode serializes an action together with its tag so Decode can
// reconstruct it without prior knowledge of the concrete kind.
func Encode(a Action) (json.RawMessage, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action %q: %w", a.Tag(), err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("action %q does not encode to a JSON object: %w", a.Tag(), err)
	}

	tag, err := json.Marshal(a.Tag())
	if err != nil {
		return nil, err
	}
	fields[tagField] = tag

	return json.Marshal(fields)
}

// Decode reconstructs an action from its tagged serialized form using the
// factory registered for its tag.
func Decode(raw json.RawMessage) (Action, error) {
	var envelope struct {
		Tag string `json:"action_name"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("failed to read action tag: %w", err)
	}
	if envelope.Tag == "" {
		return nil, fmt.Errorf("persisted action is missing the %q field", tagField)
	}

	registryMu.RLock()
	factory, ok := registry[envelope.Tag]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown action tag %q", envelope.Tag)
	}

	a := factory()
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action %q: %w", envelope.Tag, err)
	}
	return a, nil
}
