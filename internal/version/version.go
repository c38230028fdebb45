// Package version carries the build metadata stamped into the kiezconnect
// binary via -ldflags and reported by the startup log and the root banner.
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
