package saxpy

import (
	"runtime/debug"
	"testing"
)

func TestModuleVersion(t *testing.T) {
	dep := func(replace *debug.Module) *debug.Module {
		return &debug.Module{Path: root, Version: "v1.2.0", Sum: "h1:dep", Replace: replace}
	}
	tests := []struct {
		name         string
		info         debug.BuildInfo
		version, sum string
	}{
		{
			name:    "main module",
			info:    debug.BuildInfo{Main: debug.Module{Path: root, Version: "(devel)"}},
			version: "(devel)",
		},
		{
			name:    "dependency",
			info:    debug.BuildInfo{Main: debug.Module{Path: "example.com/bench"}, Deps: []*debug.Module{dep(nil)}},
			version: "v1.2.0",
			sum:     "h1:dep",
		},
		{
			name: "replaced by path",
			info: debug.BuildInfo{Deps: []*debug.Module{
				dep(&debug.Module{Path: "../saxpy"}),
			}},
			version: "v1.2.0=>../saxpy",
		},
		{
			name: "replaced by version",
			info: debug.BuildInfo{Deps: []*debug.Module{
				dep(&debug.Module{Version: "v1.2.1", Sum: "h1:rep"}),
			}},
			version: "v1.2.0=>v1.2.1",
			sum:     "h1:rep",
		},
		{
			name: "replaced by fork",
			info: debug.BuildInfo{Deps: []*debug.Module{
				dep(&debug.Module{Path: "example.com/fork", Version: "v0.1.0", Sum: "h1:fork"}),
			}},
			version: "v1.2.0=>example.com/fork v0.1.0",
			sum:     "h1:fork",
		},
		{
			name:    "absent",
			info:    debug.BuildInfo{Main: debug.Module{Path: "example.com/other"}},
			version: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, sum := moduleVersion(&tt.info)
			if version != tt.version || sum != tt.sum {
				t.Errorf("moduleVersion = (%q, %q), want (%q, %q)", version, sum, tt.version, tt.sum)
			}
		})
	}
}
