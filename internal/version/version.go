// Package version carries build metadata, set with -ldflags at link time:
//
//	-X github.com/banshee-data/groundplane/internal/version.Version=v0.3.0
package version

import "fmt"

var (
	// Version is the release version of the groundplane command
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build metadata for -version output.
func String() string {
	return fmt.Sprintf("groundplane %s (%s, built %s)", Version, GitSHA, BuildTime)
}
