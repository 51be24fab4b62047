package buildinfo

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Build-time variables (set via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Modified  bool   `json:"modified,omitempty" yaml:"modified,omitempty"`
}

var (
	vcsOnce sync.Once
	vcs     map[string]string
)

func vcsSettings() map[string]string {
	vcsOnce.Do(func() {
		vcs = make(map[string]string)
		bi, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		for _, s := range bi.Settings {
			vcs[s.Key] = s.Value
		}
	})
	return vcs
}

// Get returns the build information.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
	s := vcsSettings()
	if info.Commit == "unknown" {
		if rev, ok := s["vcs.revision"]; ok && rev != "" {
			info.Commit = shortRevision(rev)
		}
	}
	if info.BuildTime == "unknown" {
		if t, ok := s["vcs.time"]; ok && t != "" {
			info.BuildTime = t
		}
	}
	info.Modified = s["vcs.modified"] == "true"
	return info
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

// String returns a one-line version string.
func String() string {
	info := Get()
	s := info.Version + " (" + info.Commit
	if info.Modified {
		s += "-dirty"
	}
	return s + ") built at " + info.BuildTime + " with " + info.GoVersion
}
