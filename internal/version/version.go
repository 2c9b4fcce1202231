// Package version provides version information for execpipe.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the current version of execpipe.
// Set at build time via: -ldflags "-X github.com/xdg/execpipe/internal/version.Version=v1.0.0"
// Defaults to "dev" for development builds.
var Version = "dev"

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// String returns the version line printed by "execpipe --version".
// Development builds include the VCS revision when the toolchain recorded one.
func String() string {
	v := Version
	if rev := revision(); rev != "" && v == "dev" {
		v = fmt.Sprintf("dev (%s)", rev)
	}
	return fmt.Sprintf("%s %s/%s %s", v, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func revision() string {
	info, ok := readBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
