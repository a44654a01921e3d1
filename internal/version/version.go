package version

import "fmt"

// Build metadata, overridden via ldflags by the release pipeline. Local
// builds keep the "dev" defaults.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Short returns only the semantic version string.
func Short() string {
	return Version
}

// Full renders the version with its build provenance, suitable for CLI
// output and startup logs.
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime)
}
