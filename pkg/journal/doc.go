// Package journal persists action state transitions to a local SQLite
// database. The journal is a diagnostic side channel for post-mortem
// inspection of installs and uninstalls; the plan receipt remains the sole
// source of truth, and journal write failures never affect execution.
package journal
