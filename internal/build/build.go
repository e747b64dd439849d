// Package build holds version information injected at link time.
package build

import "fmt"

// Set via -ldflags "-X github.com/friture/friture-cli/internal/build.Version=..."
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// UserAgent is sent with every API request.
func UserAgent() string {
	return "friture-cli/" + Version
}

func String() string {
	return fmt.Sprintf("friture-cli %s (commit=%s, date=%s)", Version, Commit, Date)
}
