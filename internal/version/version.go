// Package version holds build information set with -ldflags, e.g.
//
//	-X github.com/uiplayground/ngx-e2e/internal/version.Version=v0.3.0
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

// Info is the build information printed by `ngx-e2e version`.
type Info struct {
	Version   string `yaml:"version"`
	GitCommit string `yaml:"git_commit"`
	BuildDate string `yaml:"build_date"`
	GoVersion string `yaml:"go_version"`
}

func GetInfo() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// String formats as "v0.3.0 (commit: abc1234, built: 2026-10-19)".
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate)
}
