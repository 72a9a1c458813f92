// Package buildinfo carries the release identity stamped into the binary.
package buildinfo

var (
	// Version is the semantic release version, overridden at build time.
	Version = "0.1.0"
	// Commit is the short VCS revision, overridden at build time.
	Commit = "unknown"
)

// UserAgent returns the HTTP User-Agent string shared by every outbound
// request the daemon makes.
func UserAgent() string {
	return "hopper/" + Version
}
