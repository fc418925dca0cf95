// Copyright ©2026 The saxpy Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package saxpy

import (
	"runtime/debug"
)

const root = "github.com/LynnColeArt/saxpy"

// Version returns the version of the saxpy module and its checksum. The
// returned values are only valid in binaries built with module support.
//
// When the module is the main module (the saxpy command itself) the main
// module version is reported, which is "(devel)" for local builds.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return moduleVersion(b)
}

// moduleVersion finds this module in b. A replaced dependency is reported
// as "<required>=><replacement>".
func moduleVersion(b *debug.BuildInfo) (version, sum string) {
	if b.Main.Path == root {
		return b.Main.Version, b.Main.Sum
	}
	for _, m := range b.Deps {
		if m.Path != root {
			continue
		}
		r := m.Replace
		if r == nil {
			return m.Version, m.Sum
		}
		switch target := r.Path + " " + r.Version; {
		case r.Path == "" && r.Version == "":
			return m.Version + "*", m.Sum + "*"
		case r.Version == "":
			return m.Version + "=>" + r.Path, r.Sum
		case r.Path == "":
			return m.Version + "=>" + r.Version, r.Sum
		default:
			return m.Version + "=>" + target, r.Sum
		}
	}
	return "", ""
}
