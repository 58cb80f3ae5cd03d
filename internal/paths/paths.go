package paths

import (
	"os"
	"path/filepath"
)

// BaseDir returns ~/.bcast.
func BaseDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".bcast")
}

// Resolve determines the data directory using precedence:
// 1. flagOverride (--home flag)
// 2. BCAST_HOME
// 3. ~/.bcast
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	if env := os.Getenv("BCAST_HOME"); env != "" {
		return env
	}
	return BaseDir()
}

// ConfigPath returns the config file path inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, "config.toml")
}

// DBPath returns the broadcast history database path.
func DBPath(dir string) string {
	return filepath.Join(dir, "bcast.db")
}

// LogDir returns the log directory.
func LogDir(dir string) string {
	return filepath.Join(dir, "logs")
}

// LogPath returns the log file for the named binary.
func LogPath(dir, binary string) string {
	return filepath.Join(LogDir(dir), binary+".log")
}

// LockPath returns the instance lock file path.
func LockPath(dir string) string {
	return filepath.Join(dir, "LOCK")
}

// EnsureDir creates the data directory tree with proper permissions.
func EnsureDir(dir string) error {
	for _, d := range []string{dir, LogDir(dir)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
