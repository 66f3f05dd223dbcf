package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"             // ex: v0.1.0
	Commit    = "none"            // ex: abcd123
	BuildDate = "unknown"         // ex: 2025-08-11T18:42:00Z, set with -ldflags
	GoVersion = runtime.Version() // go version
)

// String is the one-line build description logged at startup.
func String() string {
	return fmt.Sprintf("jobwatch %s (commit=%s, built=%s, go=%s)", Version, Commit, BuildDate, GoVersion)
}
