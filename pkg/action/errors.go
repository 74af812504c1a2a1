package action

import (
	"errors"
	"fmt"
)

// Op classifies the OS interaction that produced an action error.
type Op string

const (
	// OpStat is a failure to read metadata for a path.
	OpStat Op = "stat"

	// OpPathExists is a precondition violation: a path that must not exist
	// already does.
	OpPathExists Op = "path-exists"

	// OpWrongType is a precondition violation: a path exists but is not of
	// the expected type, such as a file where a directory is required.
	OpWrongType Op = "wrong-type"

	// OpWrite is a failure to write a file.
	OpWrite Op = "write"

	// OpRemove is a failure to remove a file or directory.
	OpRemove Op = "remove"

	// OpRename is a failure to rename or move a path.
	OpRename Op = "rename"

	// OpCreateDirectory is a failure to create a directory.
	OpCreateDirectory Op = "create-directory"

	// OpCommand is an external command that failed to spawn or exited
	// nonzero.
	OpCommand Op = "command"
)

// Error is the error produced by action planning, execution, and reversion.
// It carries the operands of the failed OS interaction so failures are
// diagnosable without re-deriving context from logs.
type Error struct {
	// Action is the tag of the action that produced the error. It is filled
	// in by StatefulAction when the error escapes an action method.
	Action string

	// Op classifies the failed interaction.
	Op Op

	// Path is the primary operand path.
	Path string

	// Dest is the target path for rename operations.
	Dest string

	// Command is the exact command line for OpCommand errors.
	Command string

	// ExitCode is the command exit status, or -1 if the command did not run.
	ExitCode int

	// Stderr is the captured standard error output of the failed command.
	Stderr string

	// Err is the underlying OS error, if any.
	Err error
}

func (e *Error) Error() string {
	var msg string
	switch e.Op {
	case OpStat:
		msg = fmt.Sprintf("failed to get metadata for `%s`", e.Path)
	case OpPathExists:
		msg = fmt.Sprintf("`%s` already exists", e.Path)
	case OpWrongType:
		msg = fmt.Sprintf("`%s` is not of the expected type", e.Path)
	case OpWrite:
		msg = fmt.Sprintf("failed to write `%s`", e.Path)
	case OpRemove:
		msg = fmt.Sprintf("failed to remove `%s`", e.Path)
	case OpRename:
		msg = fmt.Sprintf("failed to rename `%s` to `%s`", e.Path, e.Dest)
	case OpCreateDirectory:
		msg = fmt.Sprintf("failed to create directory `%s`", e.Path)
	case OpCommand:
		if e.ExitCode >= 0 {
			msg = fmt.Sprintf("command `%s` exited with status %d", e.Command, e.ExitCode)
		} else {
			msg = fmt.Sprintf("command `%s` failed to run", e.Command)
		}
		if e.Stderr != "" {
			msg += fmt.Sprintf(", stderr: %s", e.Stderr)
		}
	default:
		msg = "action failed"
	}

	if e.Action != "" {
		msg = fmt.Sprintf("action %q: %s", e.Action, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying OS error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewStatError reports a metadata read failure for path.
func NewStatError(path string, err error) *Error {
	return &Error{Op: OpStat, Path: path, Err: err}
}

// NewPathExistsError reports that path exists where it must not.
func NewPathExistsError(path string) *Error {
	return &Error{Op: OpPathExists, Path: path}
}

// NewWrongTypeError reports that path exists but is not of the expected type.
func NewWrongTypeError(path string) *Error {
	return &Error{Op: OpWrongType, Path: path}
}

// NewWriteError reports a file write failure.
func NewWriteError(path string, err error) *Error {
	return &Error{Op: OpWrite, Path: path, Err: err}
}

// NewRemoveError reports a removal failure.
func NewRemoveError(path string, err error) *Error {
	return &Error{Op: OpRemove, Path: path, Err: err}
}

// NewRenameError reports a rename failure from path to dest.
func NewRenameError(path, dest string, err error) *Error {
	return &Error{Op: OpRename, Path: path, Dest: dest, Err: err}
}

// NewCreateDirectoryError reports a directory creation failure.
func NewCreateDirectoryError(path string, err error) *Error {
	return &Error{Op: OpCreateDirectory, Path: path, Err: err}
}

// ExpectedError is a capability an error type may implement to mark itself
// as an anticipated condition the operator can act on (such as "already
// installed" or "unsupported host OS"), as opposed to an internal failure.
// Guidance returns the operator-facing message.
type ExpectedError interface {
	error
	Guidance() string
}

// Expected returns the operator guidance for err if any error in its chain
// implements ExpectedError.
func Expected(err error) (string, bool) {
	var expected ExpectedError
	if errors.As(err, &expected) {
		return expected.Guidance(), true
	}
	return "", false
}
