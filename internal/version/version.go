// Package version carries build identification, injected at link time.
package version

var (
	// Version is the current application version.
	Version = "dev"
	// GitSHA is the git commit SHA.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String formats the build identification for startup logs.
func String() string {
	return Version + " (" + GitSHA + ", built " + BuildTime + ")"
}
