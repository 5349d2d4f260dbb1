// Package version carries build metadata stamped via ldflags.
package version

var (
	// Version is the current application version.
	// It should be populated by the build system (ldflags); the fallback
	// tracks the latest tagged release.
	Version = "v0.3.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)
