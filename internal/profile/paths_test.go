package profile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	home, _ := os.UserHomeDir()
	got := Dir("work")
	want := filepath.Join(home, ".waconsole", "profiles", "work")
	if got != want {
		t.Errorf("Dir(work) = %q, want %q", got, want)
	}
}

func TestCachePath(t *testing.T) {
	got := CachePath("work")
	if !strings.HasSuffix(got, filepath.Join("profiles", "work", "cache.db")) {
		t.Errorf("CachePath(work) = %q, want suffix profiles/work/cache.db", got)
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath("work")
	if !strings.HasSuffix(got, filepath.Join("profiles", "work", "LOCK")) {
		t.Errorf("LockPath(work) = %q, want suffix profiles/work/LOCK", got)
	}
}

func TestLogPath(t *testing.T) {
	got := LogPath("work")
	if !strings.HasSuffix(got, filepath.Join("work", "logs", "waconsole.log")) {
		t.Errorf("LogPath(work) = %q, want suffix work/logs/waconsole.log", got)
	}
}

func TestGlobalConfigPath(t *testing.T) {
	got := GlobalConfigPath()
	if !strings.HasSuffix(got, filepath.Join(".waconsole", "config.toml")) {
		t.Errorf("GlobalConfigPath() = %q, want suffix .waconsole/config.toml", got)
	}
}
