package xdg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigFileHonoursXDGConfigHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	got, err := ConfigFile()
	if err != nil {
		t.Fatalf("ConfigFile() error = %v", err)
	}
	want := filepath.Join(base, "medconnect", "config.yaml")
	if got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
	info, err := os.Stat(filepath.Dir(got))
	if err != nil {
		t.Fatalf("stat config dir: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("config dir perm = %o, want 700", perm)
	}
}

func TestLogFileHonoursXDGStateHome(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_STATE_HOME", base)

	got, err := LogFile()
	if err != nil {
		t.Fatalf("LogFile() error = %v", err)
	}
	if want := filepath.Join(base, "medconnect", "medconnect.log"); got != want {
		t.Errorf("LogFile() = %q, want %q", got, want)
	}
}
