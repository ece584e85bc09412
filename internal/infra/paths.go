package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

const (
	AppName = "coinranking-go"

	lockFileName   = "instance.lock"
	sqliteFileName = "favorites.db"
	logFileName    = "app.log"
)

// GetWorkspaceDir returns the root directory for runtime data (favorites
// database, snapshots, logs, lock file).
// A local "_workspace" directory wins when present (portable/dev mode);
// otherwise the OS data dir is used.
func GetWorkspaceDir() string {
	// 1. Local workspace (Priority 1: portable/dev)
	localDir := "_workspace"
	if _, err := os.Stat(localDir); err == nil {
		return localDir
	}

	// 2. OS standard data dir (Priority 2: installed)
	var baseDir string
	switch runtime.GOOS {
	case "windows":
		// %AppData%\coinranking-go
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		// ~/Library/Application Support/coinranking-go
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, "Library", "Application Support")
	case "linux":
		// $XDG_DATA_HOME/coinranking-go, else ~/.local/share/coinranking-go
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, _ := os.UserHomeDir()
			baseDir = filepath.Join(home, ".local", "share")
		}
	default:
		// Unknown OS: fall back to the local dir
		return localDir
	}

	return filepath.Join(baseDir, AppName)
}

// EnsureDir creates the directory (and parents) with 0755 if missing.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// SQLitePath resolves the favorites database path. An explicit path from
// config is used as is.
func SQLitePath(workDir, configured string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(workDir, sqliteFileName)
}

// LogPath returns the rotating log file location.
func LogPath(workDir string) string {
	return filepath.Join(workDir, "logs", logFileName)
}

// CreateLockFile guards operations that rewrite the whole favorites set
// against a second process doing the same in this workspace.
// The returned func removes the lock.
func CreateLockFile(workDir string) (func(), error) {
	lockPath := filepath.Join(workDir, lockFileName)

	// O_EXCL makes creation the lock: if the file exists, someone holds it.
	// No flock; a crashed process leaves a stale file to delete by hand.

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("another instance is already running (lock file exists: %s)", lockPath)
		}
		return nil, err
	}

	// PID for debugging stale locks
	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	_ = f.Close()

	return func() { _ = os.Remove(lockPath) }, nil
}

// ResolveConfigPath finds config.yaml.
// Priority: 1. ./configs, 2. OS config dir.
func ResolveConfigPath() string {
	defaultPath := filepath.Join("configs", "config.yaml")

	// 1. Current working directory
	if _, err := os.Stat(defaultPath); err == nil {
		return defaultPath
	}

	// 2. OS standard config dir
	if configRoot, err := os.UserConfigDir(); err == nil {
		osPath := filepath.Join(configRoot, AppName, "config.yaml")
		if _, err := os.Stat(osPath); err == nil {
			return osPath
		}
	}

	// LoadConfig reports the missing file.
	return defaultPath
}
