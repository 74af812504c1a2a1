package linux

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/meldworks/meld-installer/pkg/action"
)

// ProvisionSelinuxTag identifies the provision_selinux action kind.
const ProvisionSelinuxTag = "provision_selinux"

func init() {
	action.Register(ProvisionSelinuxTag, func() action.Action { return new(ProvisionSelinux) })
}

// ProvisionSelinux installs a compiled SELinux policy package. The policy
// module name is derived from the policy file name, so `.../meld.pp`
// installs and later removes the `meld` module. Installing the policy even
// on hosts where SELinux is currently disabled avoids breakage if it is
// enabled later.
type ProvisionSelinux struct {
	PolicyPath string `json:"policy_path"`

	// Policy is the compiled policy package content, base64-encoded in the
	// persisted form since it is binary.
	Policy []byte `json:"policy"`
}

// PlanProvisionSelinux validates policy installation against the live
// system. A policy file already present with the desired content yields an
// action pre-marked completed.
func PlanProvisionSelinux(policyPath string, policy []byte) (*action.StatefulAction, error) {
	a := &ProvisionSelinux{PolicyPath: policyPath, Policy: policy}

	existing, err := os.ReadFile(policyPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return action.New(a), nil
	case err != nil:
		return nil, action.NewStatError(policyPath, err)
	case bytes.Equal(existing, policy):
		return action.NewCompleted(a), nil
	}

	// A stale policy from an earlier version gets overwritten on execute.
	return action.New(a), nil
}

// Tag implements Action.
func (a *ProvisionSelinux) Tag() string {
	return ProvisionSelinuxTag
}

// Synopsis implements Action.
func (a *ProvisionSelinux) Synopsis() string {
	return fmt.Sprintf("Install SELinux policy `%s`", a.PolicyPath)
}

// ExecuteDescription implements Action.
func (a *ProvisionSelinux) ExecuteDescription() []action.Description {
	return []action.Description{{
		Headline: a.Synopsis(),
		Reasons:  []string{"Hosts with SELinux enforcing deny the daemon access to the store without a policy module"},
	}}
}

// RevertDescription implements Action.
func (a *ProvisionSelinux) RevertDescription() []action.Description {
	return []action.Description{{
		Headline: fmt.Sprintf("Remove the `%s` SELinux module and `%s`", a.moduleName(), a.PolicyPath),
	}}
}

// Execute implements Action.
func (a *ProvisionSelinux) Execute(ctx context.Context) error {
	if parent := filepath.Dir(a.PolicyPath); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return action.NewCreateDirectoryError(parent, err)
		}
	}
	if err := os.WriteFile(a.PolicyPath, a.Policy, 0o644); err != nil {
		return action.NewWriteError(a.PolicyPath, err)
	}

	return action.RunCommand(ctx, "semodule", "--install", a.PolicyPath)
}

// Revert implements Action.
func (a *ProvisionSelinux) Revert(ctx context.Context) error {
	if err := action.RunCommand(ctx, "semodule", "--remove", a.moduleName()); err != nil {
		return err
	}
	if err := os.Remove(a.PolicyPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return action.NewRemoveError(a.PolicyPath, err)
	}
	return nil
}

func (a *ProvisionSelinux) moduleName() string {
	return strings.TrimSuffix(filepath.Base(a.PolicyPath), ".pp")
}
