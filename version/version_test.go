package version

import (
	"strings"
	"testing"
)

func TestGetUsesLinkTimeValues(t *testing.T) {
	origVersion, origCommit, origBuild := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = origVersion, origCommit, origBuild }()

	Version = "1.2.0"
	GitCommit = "abc1234"
	BuildTime = "2026-01-01T00:00:00Z"

	info := Get()
	if info.Version != "1.2.0" || info.GitCommit != "abc1234" || info.BuildTime != "2026-01-01T00:00:00Z" {
		t.Errorf("link-time values not used: %+v", info)
	}
	if !strings.HasPrefix(info.Full(), "1.2.0-abc1234") {
		t.Errorf("unexpected full version %q", info.Full())
	}
	if !strings.HasSuffix(info.Full(), "(built 2026-01-01T00:00:00Z)") {
		t.Errorf("expected build time in %q", info.Full())
	}
}

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "dev"}, "dev"},
		{"with commit", Info{Version: "1.0.0", GitCommit: "abc1234"}, "1.0.0-abc1234"},
		{"dirty", Info{Version: "1.0.0", GitCommit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.info.String(); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
			if got := tc.info.Full(); got != tc.want {
				t.Errorf("Full without build time should equal String, got %q", got)
			}
		})
	}
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		info Info
		want bool
	}{
		{Info{Version: "dev"}, false},
		{Info{Version: "1.0.0"}, true},
		{Info{Version: "1.0.0", Dirty: true}, false},
	}
	for _, tc := range tests {
		if got := tc.info.IsRelease(); got != tc.want {
			t.Errorf("%+v: got %v, want %v", tc.info, got, tc.want)
		}
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("got %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestFields(t *testing.T) {
	f := Info{Version: "1.0.0", GitCommit: "abc", GoVersion: "go1.26"}.Fields()
	if f["version"] != "1.0.0" || f["git_commit"] != "abc" || f["go_version"] != "go1.26" {
		t.Errorf("unexpected fields %v", f)
	}
}
