// Package version carries the build version, overridable at link time:
//
//	go build -ldflags "-X layoutrefine/internal/version.Version=v1.2.3" ./cmd/layoutrefine
package version

// Version is the release string printed by --version.
var Version = "dev"
