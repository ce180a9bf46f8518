/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package version reports tokenrag build information.
package version

import (
	"runtime/debug"
)

// Version is set at build time via -ldflags "-X ...version.Version=v1.2.3".
var Version = "dev"

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"goVersion,omitempty"`
	Commit    string `json:"commit,omitempty"`
	Time      string `json:"time,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get returns the version string: the ldflags value, else the module
// version recorded by `go install`, else a short VCS revision.
func Get() string {
	return Info().Version
}

// Info collects build information from ldflags and the embedded build info.
func Info() BuildInfo {
	bi := BuildInfo{Version: Version}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return bi
	}
	bi.GoVersion = info.GoVersion
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			bi.Commit = s.Value
		case "vcs.time":
			bi.Time = s.Value
		case "vcs.modified":
			bi.Dirty = s.Value == "true"
		}
	}
	if bi.Version != "dev" {
		return bi
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		bi.Version = v
		return bi
	}
	if len(bi.Commit) >= 7 {
		bi.Version = "dev-" + bi.Commit[:7]
		if bi.Dirty {
			bi.Version += "-dirty"
		}
	}
	return bi
}
