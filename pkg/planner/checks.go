package planner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"
)

// osReleasePath exposes the kernel release string used for WSL detection.
// Overridable in tests.
var osReleasePath = "/proc/sys/kernel/osrelease"

// selinuxFSPath marks an SELinux-capable host when present.
var selinuxFSPath = "/sys/fs/selinux"

// CheckHostIsLinux fails with an expected error when the host OS is not
// Linux.
func CheckHostIsLinux(plannerTag string) error {
	if runtime.GOOS != "linux" {
		return &IncompatibleOSError{Planner: plannerTag, OS: runtime.GOOS}
	}
	return nil
}

// CheckNotAlreadyInstalled fails with an expected error when a previous
// installation left a receipt or a populated store directory behind.
func CheckNotAlreadyInstalled(receiptPath, storeDir string) error {
	for _, evidence := range []string{receiptPath, storeDir} {
		if evidence == "" {
			continue
		}
		if _, err := os.Stat(evidence); err == nil {
			return &AlreadyInstalledError{Evidence: evidence}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to check for existing installation at %s: %w", evidence, err)
		}
	}
	return nil
}

// CheckNotWSL1 fails with an expected error on WSL1 hosts. WSL1 kernels
// report "Microsoft" in the release string where WSL2 reports
// "microsoft-standard".
func CheckNotWSL1() error {
	release, err := os.ReadFile(osReleasePath)
	if err != nil {
		// Not a Linux proc filesystem; nothing to detect.
		return nil
	}
	if strings.Contains(string(release), "Microsoft") && !strings.Contains(string(release), "microsoft-standard") {
		return &WSL1Error{}
	}
	return nil
}

// SelinuxDetected reports whether the host has SELinux support mounted.
func SelinuxDetected() bool {
	info, err := os.Stat(selinuxFSPath)
	return err == nil && info.IsDir()
}
