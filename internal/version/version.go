package version

import "runtime"

var (
	Version   = "dev"  // ex: v0.3.0
	Commit    = "none" // ex: abcd123
	BuildDate = "unknown"
	GoVersion = runtime.Version()
)
