// Package version reports the build identity of the ara binary.
package version

import (
	"fmt"
	"runtime"
)

// Set at build time via -ldflags "-X github.com/example/ara/internal/version.Commit=..."
var (
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the long version shown by `ara --version`.
func String() string {
	return fmt.Sprintf("ara dev (commit: %s, built: %s, %s)", Short(), BuildTime, runtime.Version())
}

// Short returns the abbreviated commit, used as the mailer tag of notifications.
func Short() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
