package buildinfo

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestGet_LdflagsWin(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	Version = "v9.9.9"
	Commit = "abc123"

	info := Get()
	if info.Version != "v9.9.9" {
		t.Errorf("Version = %q, want v9.9.9", info.Version)
	}
	if info.Commit != "abc123" {
		t.Errorf("Commit = %q, want abc123", info.Commit)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.Contains(s, Get().Version) {
		t.Errorf("String() = %q, want it to contain the version", s)
	}
	if !strings.Contains(s, "built at") {
		t.Errorf("String() = %q, want it to contain %q", s, "built at")
	}
}

func TestShortRevision(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0123456789abcdef0123", "0123456789ab"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortRevision(tt.in); got != tt.want {
			t.Errorf("shortRevision(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
