package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Setenv("BCAST_HOME", "")
	home, _ := os.UserHomeDir()

	if got := Resolve("/tmp/flag"); got != "/tmp/flag" {
		t.Errorf("Resolve(flag) = %q, want /tmp/flag", got)
	}
	if got, want := Resolve(""), filepath.Join(home, ".bcast"); got != want {
		t.Errorf("Resolve(\"\") = %q, want %q", got, want)
	}

	t.Setenv("BCAST_HOME", "/tmp/env")
	if got := Resolve(""); got != "/tmp/env" {
		t.Errorf("Resolve with BCAST_HOME = %q, want /tmp/env", got)
	}
	if got := Resolve("/tmp/flag"); got != "/tmp/flag" {
		t.Errorf("flag should win over env, got %q", got)
	}
}

func TestFilePaths(t *testing.T) {
	dir := "/data"
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"config", ConfigPath(dir), "/data/config.toml"},
		{"db", DBPath(dir), "/data/bcast.db"},
		{"log", LogPath(dir, "bcastd"), "/data/logs/bcastd.log"},
		{"lock", LockPath(dir), "/data/LOCK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bcast")
	if err := EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}

	info, err := os.Stat(LogDir(dir))
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("log dir is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("log dir permission = %o, want 0700", perm)
	}
}
