// Package buildinfo reports the stmkit build.
//
// Version, Commit and BuildTime are set with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/stmkit/internal/infra/buildinfo.Version=v0.3.0"
//
// Without ldflags, Commit and BuildTime fall back to the VCS stamp the Go
// toolchain embeds, and GoVersion always comes from the running binary.
package buildinfo
