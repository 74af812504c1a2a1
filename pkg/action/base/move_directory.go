package base

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meldworks/meld-installer/pkg/action"
)

// MoveDirectoryTag identifies the move_directory action kind.
const MoveDirectoryTag = "move_directory"

func init() {
	action.Register(MoveDirectoryTag, func() action.Action { return new(MoveDirectory) })
}

// MoveDirectory moves a directory from Src to Dest with a single atomic
// rename. The destination must not exist. On revert it moves the directory
// back to its original location.
type MoveDirectory struct {
	Src  string `json:"src"`
	Dest string `json:"dest"`
}

// PlanMoveDirectory validates a directory move against the live system.
// The source must exist and be a directory and the destination must be
// absent. When the destination already exists and the source is gone the
// move has evidently already happened, and the returned action is
// pre-marked completed.
func PlanMoveDirectory(src, dest string) (*action.StatefulAction, error) {
	a := &MoveDirectory{Src: src, Dest: dest}

	srcInfo, srcErr := os.Stat(src)
	destInfo, destErr := os.Stat(dest)

	// Already-done detection: destination present, source gone.
	if destErr == nil && errors.Is(srcErr, fs.ErrNotExist) {
		if !destInfo.IsDir() {
			return nil, action.NewWrongTypeError(dest)
		}
		return action.NewCompleted(a), nil
	}

	if srcErr != nil {
		return nil, action.NewStatError(src, srcErr)
	}
	if !srcInfo.IsDir() {
		return nil, action.NewWrongTypeError(src)
	}
	if destErr == nil {
		return nil, action.NewPathExistsError(dest)
	}
	if !errors.Is(destErr, fs.ErrNotExist) {
		return nil, action.NewStatError(dest, destErr)
	}

	return action.New(a), nil
}

// DeferredMoveDirectory plans a directory move without validating the live
// system. Planners use it when the source is produced by an earlier action
// of the same plan and therefore cannot exist at planning time; Execute
// still re-validates everything before moving.
func DeferredMoveDirectory(src, dest string) *action.StatefulAction {
	return action.New(&MoveDirectory{Src: src, Dest: dest})
}

// Tag implements Action.
func (a *MoveDirectory) Tag() string {
	return MoveDirectoryTag
}

// Synopsis implements Action.
func (a *MoveDirectory) Synopsis() string {
	return fmt.Sprintf("Move directory `%s` to `%s`", a.Src, a.Dest)
}

// ExecuteDescription implements Action.
func (a *MoveDirectory) ExecuteDescription() []action.Description {
	return []action.Description{{Headline: a.Synopsis()}}
}

// RevertDescription implements Action.
func (a *MoveDirectory) RevertDescription() []action.Description {
	return []action.Description{{
		Headline: fmt.Sprintf("Move directory `%s` back to `%s`", a.Dest, a.Src),
	}}
}

// Execute implements Action.
func (a *MoveDirectory) Execute(ctx context.Context) error {
	return moveDirectory(a.Src, a.Dest)
}

// Revert implements Action.
func (a *MoveDirectory) Revert(ctx context.Context) error {
	return moveDirectory(a.Dest, a.Src)
}

// moveDirectory re-validates and performs the move in either direction.
// Preconditions are checked again here because the plan may have been
// persisted and resumed long after planning.
func moveDirectory(src, dest string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return action.NewStatError(src, err)
	}
	if !srcInfo.IsDir() {
		return action.NewWrongTypeError(src)
	}
	if _, err := os.Stat(dest); err == nil {
		return action.NewPathExistsError(dest)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return action.NewStatError(dest, err)
	}

	if parent := filepath.Dir(dest); parent != "" {
		if _, err := os.Stat(parent); errors.Is(err, fs.ErrNotExist) {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return action.NewCreateDirectoryError(parent, err)
			}
		} else if err != nil {
			return action.NewStatError(parent, err)
		}
	}

	if err := os.Rename(src, dest); err != nil {
		return action.NewRenameError(src, dest, err)
	}
	return nil
}
