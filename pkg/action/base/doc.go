// Package base contains the platform-independent action catalog: directory
// and file manipulation primitives shared by every planner. Each action
// registers its tag with the action registry from an init function, so
// importing this package (usually blank-imported by planners and the CLI)
// makes its kinds decodable from persisted plans.
package base
