// Package telemetry provides the observability plumbing for meld-installer:
// structured logging built on zerolog and distributed tracing built on
// OpenTelemetry.
//
// Logging wraps zerolog with field helpers for the identifiers that matter
// here (plan ID, planner tag, action tag) and supports console output for
// interactive runs and JSON for machine consumption. Tracing produces one
// span per plan pass and one per action transition; exporters are stdout
// for debugging and OTLP/gRPC for shipping to a collector, selected by
// configuration. Both are safe to leave disabled — the installer behaves
// the same with telemetry off.
package telemetry
