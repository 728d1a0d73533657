// Package version reports the build identity of the codemetrics binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Build identity, set with -ldflags "-X".
//
//nolint:gochecknoglobals // Overridden by the linker.
var (
	Version = "dev"
	Commit  = "<unknown>"
	Date    = ""
)

// Info is the structured build identity.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
	Module    string `json:"module,omitempty" yaml:"module,omitempty"`
}

// Get returns the build identity. A commit missing from ldflags is taken
// from the VCS stamp of the build info.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	build, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}

	info.Module = build.Main.Path

	for _, setting := range build.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "<unknown>" {
				info.Commit = setting.Value
			}
		case "vcs.time":
			if Date == "" {
				info.Date = setting.Value
			}
		}
	}

	return info
}

// String renders the identity on one line.
func (i Info) String() string {
	return fmt.Sprintf("codemetrics %s (commit %s, %s, %s)", i.Version, i.Commit, i.GoVersion, i.Platform)
}
