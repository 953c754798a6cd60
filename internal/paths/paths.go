// Package paths resolves the on-disk locations ngrev writes to.
package paths

import (
	"os"
	"path/filepath"
)

const (
	// HomeEnvVar overrides the global ngrev directory.
	HomeEnvVar = "NGREV_HOME"
	// DefaultHome is the directory name used under the user's home directory.
	DefaultHome = ".ngrev"
	// ProjectDir is the per-project settings directory.
	ProjectDir = ".ngrev"
)

// GetHome returns the global ngrev directory (~/.ngrev unless NGREV_HOME is set).
func GetHome() (string, error) {
	if env := os.Getenv(HomeEnvVar); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultHome), nil
}

// GetLogsDir returns ~/.ngrev/logs.
func GetLogsDir() (string, error) {
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "logs"), nil
}

// GetSubsystemLogPath returns the log file for a subsystem, e.g. ~/.ngrev/logs/engine.log.
func GetSubsystemLogPath(subsystem string) (string, error) {
	dir, err := GetLogsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, subsystem+".log"), nil
}

// EnsureLogsDir creates the logs directory if needed and returns it.
func EnsureLogsDir() (string, error) {
	dir, err := GetLogsDir()
	if err != nil {
		return "", err
	}
	return dir, os.MkdirAll(dir, 0755)
}

// GetSearchCacheDir returns the directory holding per-revision search indexes.
// An explicit override (from config) wins over the default ~/.ngrev/cache/search.
func GetSearchCacheDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "cache", "search"), nil
}

// ProjectSettingsDir returns <projectRoot>/.ngrev.
func ProjectSettingsDir(projectRoot string) string {
	return filepath.Join(projectRoot, ProjectDir)
}

// ProjectRoot returns the directory that owns a project path: the path itself
// when it is a directory, its parent when it names a manifest file.
func ProjectRoot(projectPath string) string {
	info, err := os.Stat(projectPath)
	if err == nil && info.IsDir() {
		return projectPath
	}
	return filepath.Dir(projectPath)
}
