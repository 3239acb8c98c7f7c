package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	for name, v := range map[string]string{
		"Version":   info.Version,
		"Commit":    info.Commit,
		"BuildTime": info.BuildTime,
		"Platform":  info.Platform,
	} {
		if v == "" {
			t.Errorf("%s is empty", name)
		}
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}

func TestInfo_Fill(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2024-06-15T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	info := Info{Version: "dev", Commit: "unknown", BuildTime: "unknown"}
	info.fill(bi)
	if info.Version != "v1.4.0" || info.Commit != "0123456789ab" || info.BuildTime != "2024-06-15T12:00:00Z" || !info.Modified {
		t.Errorf("fill() = %+v", info)
	}

	pinned := Info{Version: "v2.0.0", Commit: "abc", BuildTime: "today"}
	pinned.fill(bi)
	if pinned.Version != "v2.0.0" || pinned.Commit != "abc" || pinned.BuildTime != "today" {
		t.Errorf("ldflags values overwritten: %+v", pinned)
	}
}

func TestInfo_Fill_DevelModule(t *testing.T) {
	info := Info{Version: "dev"}
	info.fill(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if info.Version != "dev" {
		t.Errorf("Version = %q, want dev", info.Version)
	}
}

func TestString(t *testing.T) {
	s := String()
	info := Get()
	if !strings.HasPrefix(s, info.Version+" ("+info.Commit) || !strings.HasSuffix(s, " built at "+info.BuildTime) {
		t.Errorf("String() = %q", s)
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("shortCommit = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit = %q", got)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent()
	if !strings.HasPrefix(ua, "minisocial-cli/") || !strings.HasSuffix(ua, "("+runtime.GOOS+"/"+runtime.GOARCH+")") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
