package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String formats the build information for logs and the health endpoint.
func String() string {
	return fmt.Sprintf("grismview %s (%s, built %s)", Version, GitSHA, BuildTime)
}

// UserAgent is sent by outbound HTTP requests.
func UserAgent() string {
	return "grismview/" + Version
}
