// Package version carries build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

// Populated via -ldflags at build time; the zero values identify a
// source build.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info is the build metadata served by the version endpoint.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build metadata of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String renders a single-line version summary for CLI output.
func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %s, %s)", i.Version, i.GitCommit, i.BuildDate, i.Platform)
}
