// Package version reports the build of the concierge binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set via ldflags at build time:
//
//	go build -ldflags "-X github.com/soyeahso/concierge/internal/version.Version=1.0.0
//	  -X github.com/soyeahso/concierge/internal/version.Commit=abc123
//	  -X github.com/soyeahso/concierge/internal/version.Date=2026-01-01"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// Get returns the build info. Without ldflags the commit and date fall
// back to the VCS stamp embedded by the go tool, when present.
func Get() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromVCS(&info, bi.Settings)
	}
	return info
}

func fillFromVCS(info *BuildInfo, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" && s.Value != "" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" && s.Value != "" {
				info.Date = s.Value
			}
		}
	}
}

// ShortCommit returns the commit abbreviated to seven characters.
func (b BuildInfo) ShortCommit() string {
	return short(b.Commit)
}

// Info returns a formatted version string.
func Info() string {
	b := Get()
	return fmt.Sprintf("concierge %s (commit: %s, built: %s, %s, %s)",
		b.Version, b.ShortCommit(), b.Date, b.GoVersion, b.Platform)
}

func short(s string) string {
	if len(s) > 7 {
		return s[:7]
	}
	return s
}
