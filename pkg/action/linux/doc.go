// Package linux contains the Linux-specific action catalog: declarative
// user and group provisioning through systemd-sysusers, systemd unit
// enablement, and SELinux policy installation. These actions shell out to
// the respective system tools and treat any nonzero exit as fatal, with the
// command line and captured stderr preserved on the error.
package linux
