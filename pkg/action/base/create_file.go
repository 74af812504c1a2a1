package base

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meldworks/meld-installer/pkg/action"
)

// CreateFileTag identifies the create_file action kind.
const CreateFileTag = "create_file"

func init() {
	action.Register(CreateFileTag, func() action.Action { return new(CreateFile) })
}

// CreateFile writes a file with the given content and mode, creating any
// missing parent directories. On revert it removes the file.
type CreateFile struct {
	Path    string `json:"path"`
	Mode    uint32 `json:"mode"`
	Content string `json:"content"`
	Force   bool   `json:"force,omitempty"`
}

// PlanCreateFile validates file creation against the live system. A file
// that already exists with exactly the desired content yields an action
// pre-marked completed. A file with different content is a planning error
// unless force is set, in which case execute overwrites it.
func PlanCreateFile(path string, mode uint32, content string, force bool) (*action.StatefulAction, error) {
	a := &CreateFile{Path: path, Mode: mode, Content: content, Force: force}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return action.New(a), nil
	case err != nil:
		return nil, action.NewStatError(path, err)
	case info.IsDir():
		return nil, action.NewWrongTypeError(path)
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		return nil, action.NewStatError(path, err)
	}
	if bytes.Equal(existing, []byte(content)) {
		return action.NewCompleted(a), nil
	}
	if !force {
		return nil, action.NewPathExistsError(path)
	}
	return action.New(a), nil
}

// Tag implements Action.
func (a *CreateFile) Tag() string {
	return CreateFileTag
}

// Synopsis implements Action.
func (a *CreateFile) Synopsis() string {
	return fmt.Sprintf("Create file `%s`", a.Path)
}

// ExecuteDescription implements Action.
func (a *CreateFile) ExecuteDescription() []action.Description {
	return []action.Description{{Headline: a.Synopsis()}}
}

// RevertDescription implements Action.
func (a *CreateFile) RevertDescription() []action.Description {
	return []action.Description{{
		Headline: fmt.Sprintf("Remove file `%s`", a.Path),
	}}
}

// Execute implements Action.
func (a *CreateFile) Execute(ctx context.Context) error {
	if info, err := os.Stat(a.Path); err == nil {
		if info.IsDir() {
			return action.NewWrongTypeError(a.Path)
		}
		if !a.Force {
			return action.NewPathExistsError(a.Path)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return action.NewStatError(a.Path, err)
	}

	if parent := filepath.Dir(a.Path); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return action.NewCreateDirectoryError(parent, err)
		}
	}

	if err := os.WriteFile(a.Path, []byte(a.Content), os.FileMode(a.Mode)); err != nil {
		return action.NewWriteError(a.Path, err)
	}
	return nil
}

// Revert implements Action.
func (a *CreateFile) Revert(ctx context.Context) error {
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return action.NewRemoveError(a.Path, err)
	}
	return nil
}
