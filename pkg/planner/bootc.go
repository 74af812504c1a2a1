package planner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/meldworks/meld-installer/pkg/action"
	"github.com/meldworks/meld-installer/pkg/action/base"
	"github.com/meldworks/meld-installer/pkg/action/linux"
	"github.com/meldworks/meld-installer/pkg/plan"
	"github.com/meldworks/meld-installer/pkg/settings"
)

// BootcTag identifies the planner for image-based (bootc/ostree) hosts.
const BootcTag = "bootc"

// ReadonlyImagePath is where the populated store is parked inside the
// immutable image. At boot an overlay mount composes it with a writable
// upper layer at the store directory.
const ReadonlyImagePath = "/usr/lib/meld-install"

// overlayDir holds the writable overlay state that survives image updates.
const overlayDir = "/var/lib/meld-overlay"

// tmpfilesPath recreates the transient mountpoint and overlay directories
// on every boot, since /var may be reprovisioned on image-based hosts.
const tmpfilesPath = "/usr/lib/tmpfiles.d/meld.conf"

func init() {
	Register(BootcTag, func(s *settings.Settings) Planner {
		return &Bootc{settings: s}
	})
}

// Bootc plans an installation on an image-based Linux host where the root
// filesystem is immutable at runtime. The store is populated into the image
// under ReadonlyImagePath and exposed at the store directory through an
// overlay mount with a persistent writable layer under /var.
type Bootc struct {
	settings *settings.Settings
}

// Tag implements Planner.
func (p *Bootc) Tag() string {
	return BootcTag
}

// Plan implements Planner. The store directory is populated first, then
// moved into the image as the overlay lowerdir, and finally recreated empty
// as the mountpoint. The move is planned deferred because the store
// directory does not exist until the earlier actions have run.
func (p *Bootc) Plan(ctx context.Context) ([]*action.StatefulAction, error) {
	s := p.settings
	upperDir := filepath.Join(overlayDir, "upper")
	workDir := filepath.Join(overlayDir, "work")
	mountUnit := mountUnitName(s.StoreDir)
	var actions []*action.StatefulAction

	tmpfiles, err := base.PlanCreateFile(tmpfilesPath, 0o644, bootTmpfilesConf(s, upperDir, workDir), false)
	if err != nil {
		return nil, fmt.Errorf("failed to plan tmpfiles configuration: %w", err)
	}
	actions = append(actions, tmpfiles)

	// A pre-existing store directory fails the plan: it would be pre-marked
	// completed while the later move into the image still runs, relocating
	// someone else's store.
	storeDir, err := base.PlanCreateDirectory(s.StoreDir, 0o755, false)
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

	for _, dir := range []string{upperDir, workDir} {
		overlay, err := base.PlanCreateDirectory(dir, 0o755, true)
		if err != nil {
			return nil, fmt.Errorf("failed to plan overlay directory: %w", err)
		}
		actions = append(actions, overlay)
	}

	mount, err := base.PlanCreateFile(
		systemdUnitPath(mountUnit), 0o644, overlayMountUnit(s, upperDir, workDir), false)
	if err != nil {
		return nil, fmt.Errorf("failed to plan overlay mount unit: %w", err)
	}
	actions = append(actions, mount)

	resolve, err := base.PlanCreateFile(
		systemdUnitPath(resolveUnitName), 0o644, resolveUnit(s, mountUnit), false)
	if err != nil {
		return nil, fmt.Errorf("failed to plan unit resolution service: %w", err)
	}
	actions = append(actions, resolve)

	// Always provisioned on image-based hosts: the image may be deployed to
	// machines that enforce SELinux even when this build host does not.
	selinux, err := linux.PlanProvisionSelinux(linux.DefaultSelinuxPolicyPath, linux.SelinuxPolicy)
	if err != nil {
		return nil, fmt.Errorf("failed to plan SELinux policy: %w", err)
	}
	actions = append(actions, selinux)

	for _, unit := range []string{mountUnit, resolveUnitName, s.DaemonSocket} {
		enable, err := linux.PlanEnableSystemdUnit(unit)
		if err != nil {
			return nil, fmt.Errorf("failed to plan enablement of %s: %w", unit, err)
		}
		actions = append(actions, enable)
	}

	actions = append(actions, base.DeferredMoveDirectory(s.StoreDir, ReadonlyImagePath))

	// The mountpoint recreation runs after the move has emptied the store
	// path, so it is planned deferred and must always execute.
	actions = append(actions, base.DeferredCreateDirectory(s.StoreDir, 0o755))

	scratch, err := base.PlanRemoveDirectory(s.ScratchDir)
	if err != nil {
		return nil, fmt.Errorf("failed to plan scratch cleanup: %w", err)
	}
	actions = append(actions, scratch)

	return actions, nil
}

// Settings implements Planner.
func (p *Bootc) Settings() (map[string]any, error) {
	return p.settings.Map()
}

// ConfiguredSettings implements Planner.
func (p *Bootc) ConfiguredSettings() (map[string]any, error) {
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
func (p *Bootc) PlatformCheck(ctx context.Context) error {
	return CheckHostIsLinux(BootcTag)
}

// PreInstallCheck implements Planner.
func (p *Bootc) PreInstallCheck(ctx context.Context) error {
	if err := CheckNotWSL1(); err != nil {
		return err
	}
	return CheckNotAlreadyInstalled(plan.DefaultReceiptPath, ReadonlyImagePath)
}

// PreUninstallCheck implements Planner.
func (p *Bootc) PreUninstallCheck(ctx context.Context) error {
	return CheckNotWSL1()
}

// resolveUnitName forces systemd to re-resolve symlinked unit files after
// the overlay mount is up, since units enabled inside the image point at
// paths that only exist once the store is mounted.
const resolveUnitName = "meld-ensure-symlinked-units-resolve.service"

// mountUnitName derives the systemd mount unit name from the mountpoint
// path, e.g. /meld becomes meld.mount.
func mountUnitName(mountpoint string) string {
	escaped := strings.ReplaceAll(strings.Trim(mountpoint, "/"), "/", "-")
	return escaped + ".mount"
}

func bootTmpfilesConf(s *settings.Settings, upperDir, workDir string) string {
	return fmt.Sprintf(`d %s 0755 root root - -
d %s 0755 root root - -
d %s 0755 root root - -
d %s 0755 root root - -
`, s.StoreDir, overlayDir, upperDir, workDir)
}

func overlayMountUnit(s *settings.Settings, upperDir, workDir string) string {
	return fmt.Sprintf(`[Unit]
Description=Meld store overlay
DefaultDependencies=no
After=local-fs.target

[Mount]
What=overlay
Where=%s
Type=overlay
Options=lowerdir=%s,upperdir=%s,workdir=%s

[Install]
WantedBy=multi-user.target
`, s.StoreDir, ReadonlyImagePath, upperDir, workDir)
}

func resolveUnit(s *settings.Settings, mountUnit string) string {
	return fmt.Sprintf(`[Unit]
Description=Ensure Meld units with symlinked sources resolve after the store is mounted
After=systemd-tmpfiles-setup.service
Before=%s

[Service]
Type=oneshot
RemainAfterExit=yes
ExecStart=systemctl daemon-reload
ExecStart=systemctl restart %s

[Install]
WantedBy=sysinit.target
`, s.DaemonSocket, mountUnit)
}
