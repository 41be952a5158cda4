// Package buildinfo reports the module version and VCS build info, the
// way cmd/ tools identify themselves in --version output.
package buildinfo

import (
	"fmt"
	"runtime/debug"
)

// Version is set at build time via
// -ldflags "-X 'github.com/coldspark29/xwax/buildinfo.Version=X'"
var Version string

func settingOrDefault(bi *debug.BuildInfo, key, defaultValue string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}
	return defaultValue
}

// String returns a one-line identification string suitable for a
// --version flag: version, VCS revision, and whether the working tree
// was dirty at build time.
func String() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "xwax (unknown build)"
	}

	revision := settingOrDefault(bi, "vcs.revision", "unknown")
	modified := settingOrDefault(bi, "vcs.modified", "false")
	if modified == "true" {
		revision += "-dirty"
	}

	version := Version
	if version == "" {
		version = "unreleased"
	}

	return fmt.Sprintf("xwax %s (revision %s)", version, revision)
}
