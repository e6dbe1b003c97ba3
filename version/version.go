// Package version exposes build metadata for the whisper-srt binary.
//
// The variables are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/whisper-srt/version.Version=1.2.0 \
//	    -X github.com/kbukum/whisper-srt/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// When they are left empty the values recorded by the Go toolchain in the
// binary's build info are used instead.
package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

var (
	Version   = "dev"
	GitCommit = ""
	GitBranch = ""
	BuildTime = ""
)

// Info is the build metadata served by /version and /info.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	GitBranch string    `json:"git_branch,omitempty"`
	BuildTime string    `json:"build_time,omitempty"`
	GoVersion string    `json:"go_version"`
	BuildDate time.Time `json:"-"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// buildInfo is swapped by tests.
var buildInfo = debug.ReadBuildInfo

// Get returns the metadata of the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
		BuildTime: BuildTime,
	}

	if bi, ok := buildInfo(); ok {
		info.GoVersion = bi.GoVersion
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = shortCommit(s.Value)
				}
			case "vcs.modified":
				info.IsDirty = s.Value == "true"
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			}
		}
	}

	if t, err := time.Parse(time.RFC3339, info.BuildTime); err == nil {
		info.BuildDate = t
	}
	info.IsRelease = info.Version != "dev" && !info.IsDirty && !strings.Contains(info.Version, "dirty")
	return info
}

// Short returns "<version>-<commit>[-dirty]", or just the version when no
// commit is known.
func Short() string {
	info := Get()
	if info.GitCommit == "" {
		return info.Version
	}
	s := fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
	if info.IsDirty {
		s += "-dirty"
	}
	return s
}

// String renders the banner printed by `whisper-srt -version`.
func (i Info) String() string {
	var b strings.Builder
	b.WriteString("whisper-srt ")
	b.WriteString(i.Version)
	if i.GitCommit != "" {
		b.WriteString(" (" + i.GitCommit)
		if i.GitBranch != "" && i.GitBranch != "main" && i.GitBranch != "master" {
			b.WriteString(", " + i.GitBranch)
		}
		if i.IsDirty {
			b.WriteString(", dirty")
		}
		b.WriteString(")")
	}
	if !i.BuildDate.IsZero() {
		b.WriteString(" built " + i.BuildDate.UTC().Format("2006-01-02T15:04:05Z"))
	}
	if i.GoVersion != "" {
		b.WriteString(" " + i.GoVersion)
	}
	return b.String()
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
