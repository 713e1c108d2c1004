// Package version exposes the binary's build identity.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Overridden at release time via
// -ldflags "-X github.com/semindex/semindex/pkg/version.Version=v1.2.3"
// (and likewise for Commit and Date).
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info is the build identity in one reportable value.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func (i Info) String() string {
	return fmt.Sprintf("semindex %s (commit %s, built %s, %s, %s)",
		i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}

// Get assembles the build identity. Commit and date fall back to the
// module's VCS stamp when ldflags did not set them, so plain `go build`
// binaries still report where they came from.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.Date == "" {
					info.Date = s.Value
				}
			}
		}
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return info
}
