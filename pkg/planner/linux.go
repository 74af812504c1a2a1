package planner

import (
	"context"
	"fmt"

	"github.com/meldworks/meld-installer/pkg/action"
	"github.com/meldworks/meld-installer/pkg/action/base"
	"github.com/meldworks/meld-installer/pkg/action/linux"
	"github.com/meldworks/meld-installer/pkg/plan"
	"github.com/meldworks/meld-installer/pkg/settings"
)

// LinuxTag identifies the stock Linux planner.
const LinuxTag = "linux"

func init() {
	Register(LinuxTag, func(s *settings.Settings) Planner {
		return &Linux{settings: s}
	})
}

// Linux plans a standard installation on a mutable Linux host: the store
// directory lives directly on the root filesystem and the daemon is managed
// through systemd.
type Linux struct {
	settings *settings.Settings
}

// Tag implements Planner.
func (p *Linux) Tag() string {
	return LinuxTag
}

// Plan implements Planner. The order matters: later actions depend on the
// store directory and the build users existing, and on failure the executor
// reverts in the opposite order.
func (p *Linux) Plan(ctx context.Context) ([]*action.StatefulAction, error) {
	s := p.settings
	var actions []*action.StatefulAction

	storeDir, err := base.PlanCreateDirectory(s.StoreDir, 0o755, true)
	if err != nil {
		return nil, fmt.Errorf("failed to plan store directory: %w", err)
	}
	actions = append(actions, storeDir)

	users, err := linux.PlanCreateUsersAndGroups(
		s.BuildGroupName, s.BuildGroupID, s.BuildUserCount, s.BuildUserPrefix, s.BuildUserIDBase)
	if err != nil {
		return nil, fmt.Errorf("failed to plan build users: %w", err)
	}
	actions = append(actions, users)

	service, err := base.PlanCreateFile(
		systemdUnitPath(s.DaemonService), 0o644, daemonServiceUnit(s), false)
	if err != nil {
		return nil, fmt.Errorf("failed to plan daemon service unit: %w", err)
	}
	actions = append(actions, service)

	socket, err := base.PlanCreateFile(
		systemdUnitPath(s.DaemonSocket), 0o644, daemonSocketUnit(s), false)
	if err != nil {
		return nil, fmt.Errorf("failed to plan daemon socket unit: %w", err)
	}
	actions = append(actions, socket)

	if SelinuxDetected() {
		selinux, err := linux.PlanProvisionSelinux(linux.DefaultSelinuxPolicyPath, linux.SelinuxPolicy)
		if err != nil {
			return nil, fmt.Errorf("failed to plan SELinux policy: %w", err)
		}
		actions = append(actions, selinux)
	}

	enable, err := linux.PlanEnableSystemdUnit(s.DaemonSocket)
	if err != nil {
		return nil, fmt.Errorf("failed to plan socket activation: %w", err)
	}
	actions = append(actions, enable)

	return actions, nil
}

// Settings implements Planner.
func (p *Linux) Settings() (map[string]any, error) {
	return p.settings.Map()
}

// ConfiguredSettings implements Planner.
func (p *Linux) ConfiguredSettings() (map[string]any, error) {
	configured, err := p.settings.Map()
	if err != nil {
		return nil, err
	}
	defaults, err := settings.Default().Map()
	if err != nil {
		return nil, err
	}
	return diffSettings(configured, defaults), nil
}

// PlatformCheck implements Planner.
func (p *Linux) PlatformCheck(ctx context.Context) error {
	return CheckHostIsLinux(LinuxTag)
}

// PreInstallCheck implements Planner.
func (p *Linux) PreInstallCheck(ctx context.Context) error {
	if err := CheckNotWSL1(); err != nil {
		return err
	}
	return CheckNotAlreadyInstalled(plan.DefaultReceiptPath, p.settings.StoreDir)
}

// PreUninstallCheck implements Planner.
func (p *Linux) PreUninstallCheck(ctx context.Context) error {
	return CheckNotWSL1()
}

func systemdUnitPath(unit string) string {
	return "/etc/systemd/system/" + unit
}

func daemonServiceUnit(s *settings.Settings) string {
	return fmt.Sprintf(`[Unit]
Description=Meld Daemon
Documentation=https://meldworks.dev/docs/daemon
RequiresMountsFor=%s

[Service]
ExecStart=%s/bin/meld-daemon --group %s
KillMode=process
LimitNOFILE=1048576
TasksMax=1048576

[Install]
WantedBy=multi-user.target
`, s.StoreDir, s.StoreDir, s.BuildGroupName)
}

func daemonSocketUnit(s *settings.Settings) string {
	return fmt.Sprintf(`[Unit]
Description=Meld Daemon Socket
Documentation=https://meldworks.dev/docs/daemon
RequiresMountsFor=%s

[Socket]
ListenStream=/run/meld-daemon.socket

[Install]
WantedBy=sockets.target
`, s.StoreDir)
}
