package action

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// probe is a minimal action for exercising the state machine and the
// serialization envelope.
type probe struct {
	Label string `json:"label"`

	failExecute bool
	failRevert  bool
	executes    int
	reverts     int
}

func init() {
	Register("probe", func() Action { return new(probe) })
}

func (p *probe) Tag() string      { return "probe" }
func (p *probe) Synopsis() string { return "probe " + p.Label }
func (p *probe) ExecuteDescription() []Description {
	return []Description{{Headline: p.Synopsis()}}
}
func (p *probe) RevertDescription() []Description {
	return []Description{{Headline: "undo " + p.Synopsis()}}
}
func (p *probe) Execute(ctx context.Context) error {
	p.executes++
	if p.failExecute {
		return NewWriteError("/probe/"+p.Label, errors.New("disk full"))
	}
	return nil
}
func (p *probe) Revert(ctx context.Context) error {
	p.reverts++
	if p.failRevert {
		return errors.New("revert failed")
	}
	return nil
}

func TestTryExecuteTransitionsToCompleted(t *testing.T) {
	p := &probe{Label: "a"}
	sa := New(p)

	if sa.State != StateUncompleted {
		t.Fatalf("new action state = %q, want %q", sa.State, StateUncompleted)
	}
	if err := sa.TryExecute(context.Background()); err != nil {
		t.Fatalf("TryExecute failed: %v", err)
	}
	if sa.State != StateCompleted {
		t.Errorf("state after execute = %q, want %q", sa.State, StateCompleted)
	}
	if p.executes != 1 {
		t.Errorf("executes = %d, want 1", p.executes)
	}
}

func TestTryExecuteSkipsCompleted(t *testing.T) {
	p := &probe{Label: "a"}
	sa := NewCompleted(p)

	if err := sa.TryExecute(context.Background()); err != nil {
		t.Fatalf("TryExecute failed: %v", err)
	}
	if p.executes != 0 {
		t.Errorf("completed action executed %d times, want 0", p.executes)
	}
}

func TestTryExecuteFailureLeavesProgress(t *testing.T) {
	p := &probe{Label: "a", failExecute: true}
	sa := New(p)

	err := sa.TryExecute(context.Background())
	if err == nil {
		t.Fatal("TryExecute succeeded, want error")
	}
	if sa.State != StateProgress {
		t.Errorf("state after failure = %q, want %q", sa.State, StateProgress)
	}

	// The escaping error is stamped with the action tag.
	var actionErr *Error
	if !errors.As(err, &actionErr) {
		t.Fatalf("error is %T, want *Error", err)
	}
	if actionErr.Action != "probe" {
		t.Errorf("error action tag = %q, want %q", actionErr.Action, "probe")
	}
}

func TestTryRevertOnlyRunsFromCompleted(t *testing.T) {
	p := &probe{Label: "a"}
	sa := New(p)

	if err := sa.TryRevert(context.Background()); err != nil {
		t.Fatalf("TryRevert failed: %v", err)
	}
	if p.reverts != 0 {
		t.Errorf("uncompleted action reverted %d times, want 0", p.reverts)
	}

	sa.State = StateCompleted
	if err := sa.TryRevert(context.Background()); err != nil {
		t.Fatalf("TryRevert failed: %v", err)
	}
	if sa.State != StateUncompleted {
		t.Errorf("state after revert = %q, want %q", sa.State, StateUncompleted)
	}
	if p.reverts != 1 {
		t.Errorf("reverts = %d, want 1", p.reverts)
	}
}

func TestTryRevertFailureLeavesProgress(t *testing.T) {
	p := &probe{Label: "a", failRevert: true}
	sa := NewCompleted(p)

	if err := sa.TryRevert(context.Background()); err == nil {
		t.Fatal("TryRevert succeeded, want error")
	}
	if sa.State != StateProgress {
		t.Errorf("state after revert failure = %q, want %q", sa.State, StateProgress)
	}
}

func TestStatefulActionJSONRoundTrip(t *testing.T) {
	sa := NewCompleted(&probe{Label: "roundtrip"})

	data, err := json.Marshal(sa)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"action_name":"probe"`) {
		t.Errorf("serialized form missing tag field: %s", data)
	}

	var got StatefulAction
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.State != StateCompleted {
		t.Errorf("state = %q, want %q", got.State, StateCompleted)
	}
	restored, ok := got.Action.(*probe)
	if !ok {
		t.Fatalf("action is %T, want *probe", got.Action)
	}
	if restored.Label != "roundtrip" {
		t.Errorf("label = %q, want %q", restored.Label, "roundtrip")
	}
}

func TestUnmarshalRejectsInvalidState(t *testing.T) {
	data := []byte(`{"action":{"action_name":"probe","label":"x"},"state":"bogus"}`)
	var sa StatefulAction
	if err := json.Unmarshal(data, &sa); err == nil {
		t.Fatal("unmarshal accepted invalid state")
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"action_name":"no_such_action"}`))
	if err == nil {
		t.Fatal("Decode accepted unknown tag")
	}
	if !strings.Contains(err.Error(), "no_such_action") {
		t.Errorf("error does not name the tag: %v", err)
	}
}

func TestDecodeMissingTag(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"label":"x"}`))
	if err == nil {
		t.Fatal("Decode accepted record without tag")
	}
}

func TestExpected(t *testing.T) {
	if _, ok := Expected(errors.New("plain")); ok {
		t.Error("plain error reported as expected")
	}
	if _, ok := Expected(nil); ok {
		t.Error("nil error reported as expected")
	}
}
