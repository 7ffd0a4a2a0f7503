package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfigPath overrides the config search when no path is passed to Load.
const EnvConfigPath = "SOUNDCATALOG_CONFIG"

// projectConfigName is looked up in the working directory.
const projectConfigName = "soundcatalog.toml"

// DefaultConfigPath returns the user-level configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/soundcatalog/config.toml")
}

// ExpandPath expands $VAR references and a leading "~" in p and makes it
// absolute. An empty p stays empty.
func ExpandPath(p string) (string, error) {
	p = os.ExpandEnv(strings.TrimSpace(p))
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return abs, nil
}

// locate picks the config file: an explicit path, then $SOUNDCATALOG_CONFIG,
// both of which must exist; otherwise the user config file, then
// ./soundcatalog.toml. The bool reports whether a file was found.
func locate(explicit string) (string, bool, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		explicit = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if explicit != "" {
		path, err := ExpandPath(explicit)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return "", false, fmt.Errorf("config file %s not found", path)
		case err != nil:
			return "", false, fmt.Errorf("stat config: %w", err)
		case info.IsDir():
			return "", false, fmt.Errorf("config path %s is a directory", path)
		}
		return path, true, nil
	}

	user, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{user, projectConfigName} {
		path, err := ExpandPath(candidate)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true, nil
		}
	}
	return user, false, nil
}
