package action

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// RunCommand runs an external command with stderr captured. A spawn failure
// or nonzero exit is returned as an OpCommand error carrying the exact
// command line, exit status, and captured stderr. The context cancels the
// command by killing it; there is no softer cancellation contract.
func RunCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &Error{
			Op:       OpCommand,
			Command:  strings.Join(append([]string{name}, args...), " "),
			ExitCode: exitCode,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
	}
	return nil
}
