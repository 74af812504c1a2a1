package base

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/meldworks/meld-installer/pkg/action"
)

// CreateDirectoryTag identifies the create_directory action kind.
const CreateDirectoryTag = "create_directory"

func init() {
	action.Register(CreateDirectoryTag, func() action.Action { return new(CreateDirectory) })
}

// CreateDirectory creates a directory (and any missing parents) with the
// given mode. On revert it removes the directory and everything below it.
type CreateDirectory struct {
	Path string `json:"path"`
	Mode uint32 `json:"mode"`
}

// PlanCreateDirectory validates directory creation against the live system.
// If the path already exists as a directory and okIfExists is set, the
// desired end-state is already present and the returned action is pre-marked
// completed; reverting such a plan still removes the directory. A
// pre-existing path is otherwise a planning error.
func PlanCreateDirectory(path string, mode uint32, okIfExists bool) (*action.StatefulAction, error) {
	a := &CreateDirectory{Path: path, Mode: mode}

	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return nil, action.NewWrongTypeError(path)
	case err == nil && !okIfExists:
		return nil, action.NewPathExistsError(path)
	case err == nil:
		return action.NewCompleted(a), nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, action.NewStatError(path, err)
	}

	return action.New(a), nil
}

// DeferredCreateDirectory plans directory creation without inspecting the
// live system and never pre-marks the action completed. It is for paths
// whose precondition is only produced by earlier actions of the same plan,
// such as recreating a mountpoint after the directory has been moved away.
func DeferredCreateDirectory(path string, mode uint32) *action.StatefulAction {
	return action.New(&CreateDirectory{Path: path, Mode: mode})
}

// Tag implements Action.
func (a *CreateDirectory) Tag() string {
	return CreateDirectoryTag
}

// Synopsis implements Action.
func (a *CreateDirectory) Synopsis() string {
	return fmt.Sprintf("Create directory `%s`", a.Path)
}

// ExecuteDescription implements Action.
func (a *CreateDirectory) ExecuteDescription() []action.Description {
	return []action.Description{{Headline: a.Synopsis()}}
}

// RevertDescription implements Action.
func (a *CreateDirectory) RevertDescription() []action.Description {
	return []action.Description{{
		Headline: fmt.Sprintf("Remove directory `%s`", a.Path),
	}}
}

// Execute implements Action.
func (a *CreateDirectory) Execute(ctx context.Context) error {
	mode := os.FileMode(a.Mode)

	if info, err := os.Stat(a.Path); err == nil {
		if !info.IsDir() {
			return action.NewWrongTypeError(a.Path)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return action.NewStatError(a.Path, err)
	}

	if err := os.MkdirAll(a.Path, mode); err != nil {
		return action.NewCreateDirectoryError(a.Path, err)
	}
	// MkdirAll applies the umask, so fix up the leaf mode explicitly.
	if err := os.Chmod(a.Path, mode); err != nil {
		return action.NewCreateDirectoryError(a.Path, err)
	}
	return nil
}

// Revert implements Action.
func (a *CreateDirectory) Revert(ctx context.Context) error {
	if err := os.RemoveAll(a.Path); err != nil {
		return action.NewRemoveError(a.Path, err)
	}
	return nil
}
