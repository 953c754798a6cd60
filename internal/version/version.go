// Package version holds the build information of ngrev.
package version

import (
	"fmt"
	"runtime"
)

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X ngrev/internal/version.Version=0.3.0 -X ngrev/internal/version.Commit=abc123"
var (
	// Version is the semantic version of ngrev
	Version = "0.3.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// Info returns the version, with the short commit when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// BuildInfo is the version block of JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// String returns the multi-line form printed by the version command.
func (b BuildInfo) String() string {
	return fmt.Sprintf("ngrev version %s\nCommit: %s\nBuilt: %s\nGo: %s %s",
		b.Version, b.Commit, b.BuildDate, b.GoVersion, b.Platform)
}

// Current returns the build information of the running binary.
func Current() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
