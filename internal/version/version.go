// Package version holds build metadata for the sitecrawl binary, set with
// ldflags:
//
//	go build -ldflags "-X github.com/jmylchreest/sitecrawl/internal/version.Version=1.2.0"
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// Set at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	Dirty     = "false"
	BuildDate = "unknown"
)

// Info is the structured build metadata.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Dirty     bool   `json:"dirty" yaml:"dirty"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build metadata of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Dirty:     Dirty == "true",
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns the version, marked when built from a dirty tree.
func (i Info) String() string {
	if i.Dirty {
		return i.Version + "-dirty"
	}
	return i.Version
}

func (i Info) TableHeader() []string {
	return []string{"Version", "Commit", "Built", "Go", "Platform"}
}

func (i Info) TableRow() []any {
	return []any{i.String(), i.Commit, i.BuildDate, i.GoVersion, i.Platform}
}

// String returns the short version of the running binary.
func String() string {
	return Get().String()
}

// Full returns a multi-line description of the running binary.
func Full() string {
	i := Get()
	var sb strings.Builder
	fmt.Fprintf(&sb, "sitecrawl %s\n", i)
	fmt.Fprintf(&sb, "  commit:   %s\n", i.Commit)
	fmt.Fprintf(&sb, "  built:    %s\n", i.BuildDate)
	fmt.Fprintf(&sb, "  go:       %s\n", i.GoVersion)
	fmt.Fprintf(&sb, "  platform: %s", i.Platform)
	return sb.String()
}
