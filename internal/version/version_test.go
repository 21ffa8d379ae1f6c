package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %s, want %s", info.GoVersion, runtime.Version())
	}

	expectedPlatform := runtime.GOOS + "/" + runtime.GOARCH
	if info.Platform != expectedPlatform {
		t.Errorf("Platform = %s, want %s", info.Platform, expectedPlatform)
	}

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "1.2.3", Commit: "abc123", Date: "2026-01-02", GoVersion: "go1.25", Platform: "linux/amd64"}
	str := info.String()

	for _, want := range []string{"gitflip", "1.2.3", "abc123", "2026-01-02", "linux/amd64"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %q, missing %q", str, want)
		}
	}
}

func TestInfoShort(t *testing.T) {
	info := Info{Version: "0.4.0"}
	if got := info.Short(); got != "gitflip 0.4.0" {
		t.Errorf("Short() = %q, want %q", got, "gitflip 0.4.0")
	}
}
