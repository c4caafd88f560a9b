package version

import (
	"strings"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	oldVersion, oldCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = oldVersion, oldCommit })

	tests := []struct {
		name        string
		settings    map[string]string
		wantVersion string
		wantCommit  string
	}{
		{
			name: "clean checkout",
			settings: map[string]string{
				"vcs.revision": "0123456789abcdef",
				"vcs.time":     "2025-03-04T05:06:07Z",
			},
			wantVersion: "dev-20250304",
			wantCommit:  "0123456",
		},
		{
			name: "dirty tree",
			settings: map[string]string{
				"vcs.revision": "abc",
				"vcs.modified": "true",
			},
			wantCommit: "abc-dirty",
		},
		{
			name: "no vcs info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit = "", ""
			fromBuildInfo(tt.settings)
			if Version != tt.wantVersion || Commit != tt.wantCommit {
				t.Errorf("got (%q, %q), want (%q, %q)", Version, Commit, tt.wantVersion, tt.wantCommit)
			}
		})
	}
}

func TestFull(t *testing.T) {
	if !strings.Contains(Full(), "commit: ") {
		t.Errorf("Full() = %q", Full())
	}
	if !strings.Contains(Platform(), "/") {
		t.Errorf("Platform() = %q", Platform())
	}
}
