// Package version holds the build metadata stamped into copyshield binaries
// via -ldflags at release time. A source build reports "dev".
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders the build metadata in the one-line form used by the CLI
// and the startup log.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
