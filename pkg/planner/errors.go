package planner

import "fmt"

// AlreadyInstalledError reports that a previous installation is present.
// It is an expected error: the operator decides whether to uninstall first.
type AlreadyInstalledError struct {
	// Evidence is the path that proves the installation (receipt or store).
	Evidence string
}

func (e *AlreadyInstalledError) Error() string {
	return fmt.Sprintf("Meld appears to already be installed (%s exists)", e.Evidence)
}

// Guidance implements the expected-error capability.
func (e *AlreadyInstalledError) Guidance() string {
	return "Meld is already installed on this host. Run `meld-installer uninstall` first if you want to reinstall."
}

// IncompatibleOSError reports that the selected planner cannot run on this
// host operating system.
type IncompatibleOSError struct {
	Planner string
	OS      string
}

func (e *IncompatibleOSError) Error() string {
	return fmt.Sprintf("planner %q does not support host OS %q", e.Planner, e.OS)
}

// Guidance implements the expected-error capability.
func (e *IncompatibleOSError) Guidance() string {
	return fmt.Sprintf("The %q planner only runs on Linux; this host reports %q. Pick a planner matching your platform.", e.Planner, e.OS)
}

// WSL1Error reports that the host is Windows Subsystem for Linux version 1,
// which lacks the system facilities the installer depends on.
type WSL1Error struct{}

func (e *WSL1Error) Error() string {
	return "host is WSL1, which is not supported"
}

// Guidance implements the expected-error capability.
func (e *WSL1Error) Guidance() string {
	return "This host runs WSL1, which does not support the system facilities Meld needs. Upgrade the distribution to WSL2 and retry."
}
