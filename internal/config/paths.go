// Package config loads fpchecker settings from fpchecker_conf.json and the
// environment.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "fpchecker"

// Paths holds the per-user directories of fpchecker.
type Paths struct {
	// DataDir holds the replay history, ~/.local/share/fpchecker by default.
	DataDir string
}

// DefaultPaths resolves DataDir from XDG_DATA_HOME, or %LOCALAPPDATA% on
// Windows, falling back to the usual locations under the home directory.
func DefaultPaths() *Paths {
	return &Paths{DataDir: filepath.Join(dataHome(), appName)}
}

// DatabaseFile returns the path to the replay history database.
func (p *Paths) DatabaseFile() string {
	return filepath.Join(p.DataDir, "state.db")
}

func dataHome() string {
	env, fallback := "XDG_DATA_HOME", []string{".local", "share"}
	if runtime.GOOS == "windows" {
		env, fallback = "LOCALAPPDATA", []string{"AppData", "Local"}
	}
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	return filepath.Join(append([]string{homeDir()}, fallback...)...)
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	if runtime.GOOS == "windows" {
		return os.Getenv("USERPROFILE")
	}
	return os.Getenv("HOME")
}
