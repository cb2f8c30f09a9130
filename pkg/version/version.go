// pkg/version/version.go
// Package version provides version metadata for the application.
package version

import "runtime"

// These variables are typically injected at build time using -ldflags.
var (
	// Version holds the current version of portscout.
	Version = "dev"
	// Commit holds the current version commit of portscout.
	Commit = "none"
	// BuildDate holds the build date of portscout.
	BuildDate = "unknown"
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Os        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get returns the populated version Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Os:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
