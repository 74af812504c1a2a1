package base

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/meldworks/meld-installer/pkg/action"
)

// RemoveDirectoryTag identifies the remove_directory action kind.
const RemoveDirectoryTag = "remove_directory"

func init() {
	action.Register(RemoveDirectoryTag, func() action.Action { return new(RemoveDirectory) })
}

// RemoveDirectory deletes a directory and everything below it. It is meant
// for transient scratch space: the removed contents cannot be restored, so
// revert is deliberately a no-op.
type RemoveDirectory struct {
	Path string `json:"path"`
}

// PlanRemoveDirectory validates directory removal against the live system.
// A path that is already absent yields an action pre-marked completed; a
// path that exists but is not a directory is a planning error.
func PlanRemoveDirectory(path string) (*action.StatefulAction, error) {
	a := &RemoveDirectory{Path: path}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return action.NewCompleted(a), nil
	case err != nil:
		return nil, action.NewStatError(path, err)
	case !info.IsDir():
		return nil, action.NewWrongTypeError(path)
	}

	return action.New(a), nil
}

// Tag implements Action.
func (a *RemoveDirectory) Tag() string {
	return RemoveDirectoryTag
}

// Synopsis implements Action.
func (a *RemoveDirectory) Synopsis() string {
	return fmt.Sprintf("Remove directory `%s`", a.Path)
}

// ExecuteDescription implements Action.
func (a *RemoveDirectory) ExecuteDescription() []action.Description {
	return []action.Description{{Headline: a.Synopsis()}}
}

// RevertDescription implements Action.
func (a *RemoveDirectory) RevertDescription() []action.Description {
	return []action.Description{{
		Headline: fmt.Sprintf("Leave `%s` removed", a.Path),
		Reasons:  []string{"The removed contents were transient scratch space and cannot be restored"},
	}}
}

// Execute implements Action.
func (a *RemoveDirectory) Execute(ctx context.Context) error {
	info, err := os.Stat(a.Path)
	if errors.Is(err, fs.ErrNotExist) {
		// Already gone; nothing to do.
		return nil
	}
	if err != nil {
		return action.NewStatError(a.Path, err)
	}
	if !info.IsDir() {
		return action.NewWrongTypeError(a.Path)
	}

	if err := os.RemoveAll(a.Path); err != nil {
		return action.NewRemoveError(a.Path, err)
	}
	return nil
}

// Revert implements Action.
func (a *RemoveDirectory) Revert(ctx context.Context) error {
	return nil
}
