// Package version exposes build information injected through ldflags.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String renders the multi-line block printed by "bartune version".
func String() string {
	return fmt.Sprintf("bartune %s\ncommit: %s\nbuilt: %s\ngo: %s %s/%s",
		Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// UserAgent identifies bartune in outgoing HTTP requests.
func UserAgent() string {
	return "bartune/" + Version
}
