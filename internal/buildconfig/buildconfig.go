// Package buildconfig carries the gateway's build identity. Both binaries
// report it on /metrics so an operator can tell which build is serving a
// given school domain.
package buildconfig

// Overridden at build time:
//
//	go build -ldflags "-X .../internal/buildconfig.version=v1.2.0 -X .../internal/buildconfig.commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = "unknown"
)

// Version returns the release tag baked into the binary, or "dev" for
// local builds.
func Version() string {
	return version
}

// Commit returns the git commit the binary was built from.
func Commit() string {
	return commit
}

// VersionInfo returns the build identity in the shape the metrics endpoint
// embeds under its "build" key.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}
