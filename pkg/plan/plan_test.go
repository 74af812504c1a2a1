package plan

import (
	"testing"

	"github.com/meldworks/meld-installer/pkg/action"
)

func TestRevertDescriptionsReverseOrder(t *testing.T) {
	p := newFakePlan(&fakeAction{Name: "first"}, &fakeAction{Name: "second"})

	descriptions := p.RevertDescriptions()
	if len(descriptions) != 2 {
		t.Fatalf("descriptions = %d, want 2", len(descriptions))
	}
	if descriptions[0].Headline != "undo fake second" {
		t.Errorf("first revert headline = %q", descriptions[0].Headline)
	}
	if descriptions[1].Headline != "undo fake first" {
		t.Errorf("second revert headline = %q", descriptions[1].Headline)
	}
}

func TestStateCountsAndInProgress(t *testing.T) {
	p := newFakePlan(&fakeAction{Name: "a"}, &fakeAction{Name: "b"}, &fakeAction{Name: "c"})
	p.Actions[0].State = action.StateCompleted

	counts := p.StateCounts()
	if counts[action.StateCompleted] != 1 || counts[action.StateUncompleted] != 2 {
		t.Errorf("counts = %v", counts)
	}
	if p.InProgress() {
		t.Error("InProgress = true without a progress action")
	}

	p.Actions[1].State = action.StateProgress
	if !p.InProgress() {
		t.Error("InProgress = false with a progress action")
	}
}

func TestNewPlanDefaults(t *testing.T) {
	p := New("linux", map[string]any{"k": "v"}, nil)
	if p.Version != ReceiptVersion {
		t.Errorf("version = %d, want %d", p.Version, ReceiptVersion)
	}
	if p.ID == "" {
		t.Error("plan has no id")
	}
	if p.CreatedAt.IsZero() {
		t.Error("plan has no creation time")
	}
}
