// Package planner decides which actions an installation needs and in what
// order for a given target environment. Each planner registers under a
// stable tag, inspects the host, and assembles an ordered action list the
// plan executor then runs without reordering: dependency correctness
// between actions is entirely the planner's responsibility.
//
// Planners also own the fail-fast environment checks (host OS
// compatibility, "not already installed", "not WSL1") whose failures are
// expected errors carrying operator guidance rather than internal faults.
package planner
