package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, info *debug.BuildInfo) {
	t.Helper()
	original := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return info, info != nil }
	t.Cleanup(func() { readBuildInfo = original })
}

func withVersion(t *testing.T, v string) {
	t.Helper()
	original := Version
	Version = v
	t.Cleanup(func() { Version = original })
}

func TestString(t *testing.T) {
	tests := []struct {
		name    string
		version string
		info    *debug.BuildInfo
		prefix  string
	}{
		{
			name:    "release ignores revision",
			version: "v1.2.0",
			info:    &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}},
			prefix:  "v1.2.0 ",
		},
		{
			name:    "dev without build info",
			version: "dev",
			prefix:  "dev ",
		},
		{
			name:    "dev with revision",
			version: "dev",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			}},
			prefix: "dev (0123456789ab) ",
		},
		{
			name:    "dev with dirty tree",
			version: "dev",
			info: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "deadbeef"},
				{Key: "vcs.modified", Value: "true"},
			}},
			prefix: "dev (deadbeef-dirty) ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withVersion(t, tt.version)
			withBuildInfo(t, tt.info)

			got := String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("String() = %q, want prefix %q", got, tt.prefix)
			}
			if !strings.HasSuffix(got, runtime.Version()) {
				t.Errorf("String() = %q, want Go version suffix", got)
			}
		})
	}
}
